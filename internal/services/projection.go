package services

import (
	"math"

	"github.com/jstittsworth/courtside/internal/nba"
)

// Projection model: every stat grows by a fixed factor, and shooting
// percentages are clamped to a plausible range afterwards. Deliberately
// simple; this is a bounded estimate, not a forecast.
const (
	projectionGrowth = 1.01
	pctFloor         = 0.20
	pctCeil          = 0.70
)

// ProjectStats derives the next-season estimate from the current merged
// line. A nil current line yields nil: no anchor, no projection.
func ProjectStats(current *nba.MergedStatLine, nextSeason string) *nba.ProjectedStatLine {
	if current == nil {
		return nil
	}

	grow := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		scaled := round3(*v * projectionGrowth)
		return &scaled
	}
	growPct := func(v *float64) *float64 {
		scaled := grow(v)
		if scaled == nil {
			return nil
		}
		clamped := math.Min(math.Max(*scaled, pctFloor), pctCeil)
		return &clamped
	}

	return &nba.ProjectedStatLine{
		Season:    nextSeason,
		Points:    grow(current.Points),
		Rebounds:  grow(current.Rebounds),
		Assists:   grow(current.Assists),
		Steals:    grow(current.Steals),
		Blocks:    grow(current.Blocks),
		Turnovers: grow(current.Turnovers),
		FGPct:     growPct(current.FGPct),
		ThreePct:  growPct(current.ThreePct),
		FTPct:     growPct(current.FTPct),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
