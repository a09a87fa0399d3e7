package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/courtside/internal/nba"
)

// NBAStatsClient adapts the stats.nba.com per-athlete statistics API, the
// highest-precedence source. The API refuses requests without
// browser-looking headers and responds with resultSets of parallel
// headers/rowSet arrays rather than keyed objects.
type NBAStatsClient struct {
	baseURL       string
	httpClient    *http.Client
	cache         nba.CacheProvider
	indexCacheTTL time.Duration
	limiter       *rate.Limiter
	logger        *logrus.Logger
}

func NewNBAStatsClient(baseURL string, timeout, indexCacheTTL time.Duration, cache nba.CacheProvider, logger *logrus.Logger) *NBAStatsClient {
	return &NBAStatsClient{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: timeout},
		cache:         cache,
		indexCacheTTL: indexCacheTTL,
		limiter:       rate.NewLimiter(rate.Every(time.Second), 1),
		logger:        logger,
	}
}

func (c *NBAStatsClient) Source() nba.Source {
	return nba.SourceNBAStats
}

// resultSetsResponse is the stats.nba.com envelope: each result set is a
// headers array plus rows of positional values.
type resultSetsResponse struct {
	ResultSets []resultSet `json:"resultSets"`
}

type resultSet struct {
	Name    string          `json:"name"`
	Headers []string        `json:"headers"`
	RowSet  [][]interface{} `json:"rowSet"`
}

// columns maps header names to row indexes; missing headers map to -1.
func (rs *resultSet) columns(names ...string) map[string]int {
	idx := make(map[string]int, len(names))
	for _, n := range names {
		idx[n] = -1
	}
	for i, h := range rs.Headers {
		if _, wanted := idx[h]; wanted {
			idx[h] = i
		}
	}
	return idx
}

func (rs *resultSet) cell(row []interface{}, col int) interface{} {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// SearchPlayers returns the full league player index as (name, id) pairs.
// The index is cached between runs; the query name is ignored because the
// resolver does its own normalized matching over the whole index.
func (c *NBAStatsClient) SearchPlayers(ctx context.Context, _ string) ([]nba.IndexEntry, error) {
	const cacheKey = "nbastats:index"

	var cached []nba.IndexEntry
	if err := c.cache.GetSimple(cacheKey, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	season := nba.CurrentSeason(time.Now())
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("Season", season)
	params.Set("IsOnlyCurrentSeason", "0")

	var resp resultSetsResponse
	if err := c.get(ctx, "/commonallplayers", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.ResultSets) == 0 {
		return nil, fmt.Errorf("commonallplayers: empty resultSets")
	}

	rs := resp.ResultSets[0]
	cols := rs.columns("PERSON_ID", "DISPLAY_FIRST_LAST")
	if cols["PERSON_ID"] < 0 || cols["DISPLAY_FIRST_LAST"] < 0 {
		return nil, fmt.Errorf("commonallplayers: missing identity columns")
	}

	entries := make([]nba.IndexEntry, 0, len(rs.RowSet))
	for _, row := range rs.RowSet {
		id, idOK := extractValue(rs.cell(row, cols["PERSON_ID"]))
		name, nameOK := rs.cell(row, cols["DISPLAY_FIRST_LAST"]).(string)
		if !idOK || !nameOK || name == "" {
			continue
		}
		entries = append(entries, nba.IndexEntry{
			Title: name,
			ID:    fmt.Sprintf("%.0f", id),
		})
	}

	c.logger.Infof("nbastats index loaded: %d players", len(entries))
	if err := c.cache.SetSimple(cacheKey, entries, c.indexCacheTTL); err != nil {
		c.logger.Warnf("Failed to cache nbastats index: %v", err)
	}

	return entries, nil
}

// FetchSeasonStats returns per-game averages for every season the player
// appears in, keyed off the SeasonTotalsRegularSeason result set.
func (c *NBAStatsClient) FetchSeasonStats(ctx context.Context, providerID string) ([]nba.SeasonStatLine, error) {
	params := url.Values{}
	params.Set("PlayerID", providerID)
	params.Set("PerMode", "PerGame")
	params.Set("LeagueID", "00")

	var resp resultSetsResponse
	if err := c.get(ctx, "/playercareerstats", params, &resp); err != nil {
		return nil, err
	}

	var seasons *resultSet
	for i := range resp.ResultSets {
		if resp.ResultSets[i].Name == "SeasonTotalsRegularSeason" {
			seasons = &resp.ResultSets[i]
			break
		}
	}
	if seasons == nil {
		return nil, fmt.Errorf("playercareerstats: no SeasonTotalsRegularSeason result set")
	}

	cols := seasons.columns("SEASON_ID", "PTS", "REB", "AST", "STL", "BLK", "TOV", "FG_PCT", "FG3_PCT", "FT_PCT")
	if cols["SEASON_ID"] < 0 {
		return nil, fmt.Errorf("playercareerstats: missing SEASON_ID column")
	}

	statPtr := func(row []interface{}, header string) *float64 {
		if v, ok := extractValue(seasons.cell(row, cols[header])); ok {
			return &v
		}
		return nil
	}

	lines := make([]nba.SeasonStatLine, 0, len(seasons.RowSet))
	for _, row := range seasons.RowSet {
		rawSeason, ok := seasons.cell(row, cols["SEASON_ID"]).(string)
		if !ok {
			continue
		}
		season, ok := nba.NormalizeSeason(rawSeason)
		if !ok {
			continue
		}
		lines = append(lines, nba.SeasonStatLine{
			Season:    season,
			Points:    statPtr(row, "PTS"),
			Rebounds:  statPtr(row, "REB"),
			Assists:   statPtr(row, "AST"),
			Steals:    statPtr(row, "STL"),
			Blocks:    statPtr(row, "BLK"),
			Turnovers: statPtr(row, "TOV"),
			FGPct:     statPtr(row, "FG_PCT"),
			ThreePct:  statPtr(row, "FG3_PCT"),
			FTPct:     statPtr(row, "FT_PCT"),
		})
	}

	return lines, nil
}

// get performs a paced GET with the browser masquerade headers the API
// requires.
func (c *NBAStatsClient) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://www.nba.com")
	req.Header.Set("Origin", "https://www.nba.com")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nbastats %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
