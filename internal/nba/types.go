package nba

import (
	"context"
	"time"
)

// Source identifies one external statistics provider
type Source string

const (
	SourceNBAStats Source = "nbastats" // stats.nba.com per-athlete API
	SourceESPN     Source = "espn"     // scraped espn.com player pages
	SourceSportsDB Source = "sportsdb" // TheSportsDB JSON API + photo CDN
	SourceBBallRef Source = "bballref" // scraped basketball-reference.com
)

// ValidSource reports whether name is a known source identifier.
func ValidSource(name string) bool {
	switch Source(name) {
	case SourceNBAStats, SourceESPN, SourceSportsDB, SourceBBallRef:
		return true
	}
	return false
}

// SeasonStatLine is the normalized per-game stat record for one
// (player, season, source) triple. Nil fields mean the source did not
// report a value; they are never coerced to zero.
type SeasonStatLine struct {
	Season    string   `json:"season"`
	Points    *float64 `json:"pts,omitempty"`
	Rebounds  *float64 `json:"reb,omitempty"`
	Assists   *float64 `json:"ast,omitempty"`
	Steals    *float64 `json:"stl,omitempty"`
	Blocks    *float64 `json:"blk,omitempty"`
	Turnovers *float64 `json:"tov,omitempty"`
	FGPct     *float64 `json:"fg_pct,omitempty"`
	ThreePct  *float64 `json:"fg3_pct,omitempty"`
	FTPct     *float64 `json:"ft_pct,omitempty"`
}

// MergedStatLine is one (player, season) record combined from all available
// source lines under the precedence policy. FieldSources records which
// source supplied each field, for observability only.
type MergedStatLine struct {
	Season    string   `json:"season"`
	Points    *float64 `json:"pts,omitempty"`
	Rebounds  *float64 `json:"reb,omitempty"`
	Assists   *float64 `json:"ast,omitempty"`
	Steals    *float64 `json:"stl,omitempty"`
	Blocks    *float64 `json:"blk,omitempty"`
	Turnovers *float64 `json:"tov,omitempty"`
	FGPct     *float64 `json:"fg_pct,omitempty"`
	ThreePct  *float64 `json:"fg3_pct,omitempty"`
	FTPct     *float64 `json:"ft_pct,omitempty"`

	FieldSources map[string]Source `json:"field_sources,omitempty"`
}

// ProjectedStatLine is the derived next-season estimate. It is read-only:
// never merged back or re-projected.
type ProjectedStatLine struct {
	Season    string   `json:"season"`
	Points    *float64 `json:"pts,omitempty"`
	Rebounds  *float64 `json:"reb,omitempty"`
	Assists   *float64 `json:"ast,omitempty"`
	Steals    *float64 `json:"stl,omitempty"`
	Blocks    *float64 `json:"blk,omitempty"`
	Turnovers *float64 `json:"tov,omitempty"`
	FGPct     *float64 `json:"fg_pct,omitempty"`
	ThreePct  *float64 `json:"fg3_pct,omitempty"`
	FTPct     *float64 `json:"ft_pct,omitempty"`
}

// Player is the internal identity record. ProviderIDs holds at most one id
// per source; absence means unresolved for that source.
type Player struct {
	PlayerID    string            `json:"player_id"`
	DisplayName string            `json:"display_name"`
	ProviderIDs map[Source]string `json:"provider_ids,omitempty"`
	PhotoRefs   map[Source]string `json:"photo_refs,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CacheEntry is the durable per-player stats document. It is only ever
// merge-updated: a failed pipeline run must not erase cached seasons.
type CacheEntry struct {
	PlayerID    string                    `json:"player_id"`
	Seasons     map[string]MergedStatLine `json:"seasons"`
	Projection  *ProjectedStatLine        `json:"projection,omitempty"`
	LastUpdated time.Time                 `json:"last_updated"`
}

// IndexEntry is one (title, id) pair from a provider's searchable index.
type IndexEntry struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// IdentitySearcher is implemented by providers that can map a display name
// to candidate provider ids, either via a cached full index or a live
// search call.
type IdentitySearcher interface {
	SearchPlayers(ctx context.Context, name string) ([]IndexEntry, error)
}

// StatFetcher is implemented by every provider. Not every provider also
// implements IdentitySearcher; for those the caller must supply the id.
type StatFetcher interface {
	Source() Source
	FetchSeasonStats(ctx context.Context, providerID string) ([]SeasonStatLine, error)
}

// CacheProvider is the volatile cache used for provider payloads and
// searchable indexes.
type CacheProvider interface {
	SetSimple(key string, value interface{}, expiration time.Duration) error
	GetSimple(key string, dest interface{}) error
}

// Float returns a pointer to v. Extraction code and tests use it to build
// stat lines with known values.
func Float(v float64) *float64 {
	return &v
}

// CurrentSeason returns the canonical "YYYY-YY" label for the season in
// progress at t. The season starting year is t's year from October onward,
// otherwise the previous year.
func CurrentSeason(t time.Time) string {
	year := t.Year()
	if t.Month() < time.October {
		year--
	}
	return SeasonLabel(year)
}

// SeasonLabel formats a season starting year as "YYYY-YY".
func SeasonLabel(startYear int) string {
	end := (startYear + 1) % 100
	return formatSeason(startYear, end)
}
