package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/courtside/internal/nba"
)

var testWeights = map[nba.Source]int{
	nba.SourceNBAStats: 40,
	nba.SourceESPN:     30,
	nba.SourceSportsDB: 20,
	nba.SourceBBallRef: 10,
}

func TestMergeSeasonLinesHighestWeightWins(t *testing.T) {
	lines := []SourceLine{
		{Source: nba.SourceBBallRef, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(24.8)}},
		{Source: nba.SourceNBAStats, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(25.1)}},
		{Source: nba.SourceESPN, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(25.0)}},
	}

	merged := MergeSeasonLines(lines, testWeights)
	require.Contains(t, merged, "2023-24")

	line := merged["2023-24"]
	require.NotNil(t, line.Points)
	assert.Equal(t, 25.1, *line.Points)
	assert.Equal(t, nba.SourceNBAStats, line.FieldSources["pts"])
}

func TestMergeSeasonLinesKnownValueSurvivesNilFromStrongerSource(t *testing.T) {
	// sportsdb reports no percentages; its nils must not erase bballref's
	// values even though sportsdb outweighs it.
	lines := []SourceLine{
		{Source: nba.SourceBBallRef, Line: nba.SeasonStatLine{
			Season: "2023-24",
			Points: nba.Float(24.8),
			FGPct:  nba.Float(0.531),
		}},
		{Source: nba.SourceSportsDB, Line: nba.SeasonStatLine{
			Season: "2023-24",
			Points: nba.Float(23.5),
		}},
	}

	merged := MergeSeasonLines(lines, testWeights)
	line := merged["2023-24"]

	require.NotNil(t, line.Points)
	assert.Equal(t, 23.5, *line.Points)
	require.NotNil(t, line.FGPct)
	assert.Equal(t, 0.531, *line.FGPct)
	assert.Equal(t, nba.SourceSportsDB, line.FieldSources["pts"])
	assert.Equal(t, nba.SourceBBallRef, line.FieldSources["fg_pct"])
}

func TestMergeSeasonLinesOrderIndependent(t *testing.T) {
	a := SourceLine{Source: nba.SourceNBAStats, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(25.1), Assists: nba.Float(7.4)}}
	b := SourceLine{Source: nba.SourceESPN, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(25.0), Rebounds: nba.Float(7.9)}}
	c := SourceLine{Source: nba.SourceBBallRef, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(24.8), Steals: nba.Float(1.2)}}

	forward := MergeSeasonLines([]SourceLine{a, b, c}, testWeights)
	reversed := MergeSeasonLines([]SourceLine{c, b, a}, testWeights)

	assert.Equal(t, forward, reversed)
}

func TestMergeSeasonLinesSeparateSeasons(t *testing.T) {
	lines := []SourceLine{
		{Source: nba.SourceNBAStats, Line: nba.SeasonStatLine{Season: "2022-23", Points: nba.Float(28.9)}},
		{Source: nba.SourceNBAStats, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(25.1)}},
		{Source: nba.SourceBBallRef, Line: nba.SeasonStatLine{Season: "2023-24", Rebounds: nba.Float(7.3)}},
	}

	merged := MergeSeasonLines(lines, testWeights)
	require.Len(t, merged, 2)
	assert.Equal(t, 28.9, *merged["2022-23"].Points)
	assert.Equal(t, 25.1, *merged["2023-24"].Points)
	assert.Equal(t, 7.3, *merged["2023-24"].Rebounds)
}

func TestMergeSeasonLinesSkipsEmptySeasonLabel(t *testing.T) {
	lines := []SourceLine{
		{Source: nba.SourceNBAStats, Line: nba.SeasonStatLine{Points: nba.Float(25.1)}},
	}
	assert.Empty(t, MergeSeasonLines(lines, testWeights))
}

func TestOverlayMerged(t *testing.T) {
	base := nba.MergedStatLine{
		Season: "2023-24",
		Points: nba.Float(25.1),
		FGPct:  nba.Float(0.531),
		FieldSources: map[string]nba.Source{
			"pts":    nba.SourceNBAStats,
			"fg_pct": nba.SourceBBallRef,
		},
	}
	fresh := nba.MergedStatLine{
		Season: "2023-24",
		Points: nba.Float(26.0),
		FieldSources: map[string]nba.Source{
			"pts": nba.SourceESPN,
		},
	}

	out := OverlayMerged(base, fresh)

	assert.Equal(t, 26.0, *out.Points)
	assert.Equal(t, nba.SourceESPN, out.FieldSources["pts"])
	// fields fresh did not report keep the base value and attribution
	require.NotNil(t, out.FGPct)
	assert.Equal(t, 0.531, *out.FGPct)
	assert.Equal(t, nba.SourceBBallRef, out.FieldSources["fg_pct"])

	// base is untouched
	assert.Equal(t, 25.1, *base.Points)
	assert.Equal(t, nba.SourceNBAStats, base.FieldSources["pts"])
}

func TestOverlayMergedEmptyBase(t *testing.T) {
	fresh := nba.MergedStatLine{
		Season:       "2023-24",
		Points:       nba.Float(25.1),
		FieldSources: map[string]nba.Source{"pts": nba.SourceNBAStats},
	}

	out := OverlayMerged(nba.MergedStatLine{}, fresh)
	assert.Equal(t, "2023-24", out.Season)
	assert.Equal(t, 25.1, *out.Points)
	assert.Equal(t, nba.SourceNBAStats, out.FieldSources["pts"])
}

func TestMergeSeasonLinesSingleSource(t *testing.T) {
	lines := []SourceLine{
		{Source: nba.SourceSportsDB, Line: nba.SeasonStatLine{Season: "2023-24", Points: nba.Float(18.0), Blocks: nba.Float(0.8)}},
	}

	merged := MergeSeasonLines(lines, testWeights)
	line := merged["2023-24"]
	assert.Equal(t, 18.0, *line.Points)
	assert.Equal(t, 0.8, *line.Blocks)
	assert.Nil(t, line.FGPct)
	assert.Equal(t, nba.SourceSportsDB, line.FieldSources["pts"])
}
