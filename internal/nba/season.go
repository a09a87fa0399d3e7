package nba

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	seasonCanonical = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	seasonFullRange = regexp.MustCompile(`^(\d{4})[-/](\d{4})$`)
	seasonBareYear  = regexp.MustCompile(`^(\d{4})$`)
)

func formatSeason(startYear, endTwoDigit int) string {
	return fmt.Sprintf("%d-%02d", startYear, endTwoDigit)
}

// NextSeason returns the canonical label one season after a canonical
// label; unparseable input comes back unchanged.
func NextSeason(label string) string {
	m := seasonCanonical.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return label
	}
	start, _ := strconv.Atoi(m[1])
	return SeasonLabel(start + 1)
}

// NormalizeSeason reduces a provider's season label to the canonical
// "YYYY-YY" form. Accepted inputs: "2023-24" (stats.nba.com, b-ref),
// "2023-2024" or "2023/2024" (TheSportsDB), and a bare starting year
// "2023" (ESPN embedded JSON). Unrecognized labels come back unchanged
// with ok=false so callers can decide whether to keep the row.
func NormalizeSeason(label string) (string, bool) {
	s := strings.TrimSpace(label)
	if m := seasonCanonical.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return formatSeason(start, end), true
	}
	if m := seasonFullRange.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return formatSeason(start, end%100), true
	}
	if m := seasonBareYear.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		return SeasonLabel(start), true
	}
	return label, false
}
