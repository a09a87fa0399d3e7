package services

import (
	"sort"

	"github.com/jstittsworth/courtside/internal/nba"
)

// SourceLine pairs one season stat line with the source that produced it.
type SourceLine struct {
	Source nba.Source
	Line   nba.SeasonStatLine
}

// MergeSeasonLines combines stat lines from all sources into one merged
// line per season. The fold runs in ascending precedence weight, each
// source overwriting only the fields it actually provides, so the highest
// weighted source wins every conflict and a known value is never replaced
// by unknown. The result does not depend on input order.
func MergeSeasonLines(lines []SourceLine, weights map[nba.Source]int) map[string]nba.MergedStatLine {
	ordered := make([]SourceLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi, wj := weights[ordered[i].Source], weights[ordered[j].Source]
		if wi != wj {
			return wi < wj
		}
		// arbitrary but fixed order among equal weights
		return ordered[i].Source < ordered[j].Source
	})

	seasons := make(map[string]nba.MergedStatLine)
	for _, sl := range ordered {
		label := sl.Line.Season
		if label == "" {
			continue
		}
		merged, ok := seasons[label]
		if !ok {
			merged = nba.MergedStatLine{Season: label}
		}
		overlayLine(&merged, sl.Line, sl.Source)
		seasons[label] = merged
	}
	return seasons
}

// overlayLine copies every known field of src over dst, recording the
// supplying source per field.
func overlayLine(dst *nba.MergedStatLine, src nba.SeasonStatLine, source nba.Source) {
	set := func(field string, dstPtr **float64, srcPtr *float64) {
		if srcPtr == nil {
			return
		}
		v := *srcPtr
		*dstPtr = &v
		if dst.FieldSources == nil {
			dst.FieldSources = make(map[string]nba.Source)
		}
		dst.FieldSources[field] = source
	}

	set("pts", &dst.Points, src.Points)
	set("reb", &dst.Rebounds, src.Rebounds)
	set("ast", &dst.Assists, src.Assists)
	set("stl", &dst.Steals, src.Steals)
	set("blk", &dst.Blocks, src.Blocks)
	set("tov", &dst.Turnovers, src.Turnovers)
	set("fg_pct", &dst.FGPct, src.FGPct)
	set("fg3_pct", &dst.ThreePct, src.ThreePct)
	set("ft_pct", &dst.FTPct, src.FTPct)
}

// OverlayMerged lays fresh's known fields over base, field by field. The
// response view uses it so a run that merged a narrower line still shows
// cached fields the durable merge-write would preserve.
func OverlayMerged(base, fresh nba.MergedStatLine) nba.MergedStatLine {
	out := base
	out.Season = fresh.Season
	if len(base.FieldSources) > 0 {
		out.FieldSources = make(map[string]nba.Source, len(base.FieldSources))
		for field, source := range base.FieldSources {
			out.FieldSources[field] = source
		}
	}

	set := func(field string, dstPtr **float64, srcPtr *float64) {
		if srcPtr == nil {
			return
		}
		v := *srcPtr
		*dstPtr = &v
		if out.FieldSources == nil {
			out.FieldSources = make(map[string]nba.Source)
		}
		if source, ok := fresh.FieldSources[field]; ok {
			out.FieldSources[field] = source
		}
	}

	set("pts", &out.Points, fresh.Points)
	set("reb", &out.Rebounds, fresh.Rebounds)
	set("ast", &out.Assists, fresh.Assists)
	set("stl", &out.Steals, fresh.Steals)
	set("blk", &out.Blocks, fresh.Blocks)
	set("tov", &out.Turnovers, fresh.Turnovers)
	set("fg_pct", &out.FGPct, fresh.FGPct)
	set("fg3_pct", &out.ThreePct, fresh.ThreePct)
	set("ft_pct", &out.FTPct, fresh.FTPct)
	return out
}

// sourceWeights converts the config's string-keyed weights to source keys.
func sourceWeights(raw map[string]int) map[nba.Source]int {
	weights := make(map[nba.Source]int, len(raw))
	for name, w := range raw {
		weights[nba.Source(name)] = w
	}
	return weights
}
