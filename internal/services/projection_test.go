package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/courtside/internal/nba"
)

func TestProjectStatsGrowth(t *testing.T) {
	current := &nba.MergedStatLine{
		Season:   "2023-24",
		Points:   nba.Float(20.1),
		Rebounds: nba.Float(10.0),
		Assists:  nba.Float(5.5),
	}

	proj := ProjectStats(current, "2024-25")
	require.NotNil(t, proj)

	assert.Equal(t, "2024-25", proj.Season)
	assert.Equal(t, 20.301, *proj.Points)
	assert.Equal(t, 10.1, *proj.Rebounds)
	assert.Equal(t, 5.555, *proj.Assists)
}

func TestProjectStatsPercentageClamping(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"above ceiling clamps down", 0.75, 0.70},
		{"below floor clamps up", 0.10, 0.20},
		{"in range grows normally", 0.50, 0.505},
		{"growth can push past ceiling", 0.695, 0.70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := &nba.MergedStatLine{Season: "2023-24", FGPct: nba.Float(tt.input)}
			proj := ProjectStats(current, "2024-25")
			require.NotNil(t, proj.FGPct)
			assert.InDelta(t, tt.expected, *proj.FGPct, 1e-9)
		})
	}
}

func TestProjectStatsCountingStatsNotClamped(t *testing.T) {
	current := &nba.MergedStatLine{Season: "2023-24", Points: nba.Float(33.9)}
	proj := ProjectStats(current, "2024-25")
	assert.Equal(t, 34.239, *proj.Points)
}

func TestProjectStatsNilFieldsStayNil(t *testing.T) {
	current := &nba.MergedStatLine{Season: "2023-24", Points: nba.Float(20.0)}
	proj := ProjectStats(current, "2024-25")

	assert.Nil(t, proj.Rebounds)
	assert.Nil(t, proj.FGPct)
	assert.Nil(t, proj.FTPct)
}

func TestProjectStatsNilCurrentLine(t *testing.T) {
	assert.Nil(t, ProjectStats(nil, "2024-25"))
}
