// Package providers contains one adapter per external statistics source.
// Each adapter isolates its provider's transport, headers and payload
// shape, and reduces responses to normalized season stat lines. Adapters
// are polymorphic over capability: every adapter fetches stats, only some
// can also search identities.
package providers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/pkg/config"
)

// Registry holds the stat fetchers for the sources enabled in config.
type Registry struct {
	fetchers map[nba.Source]nba.StatFetcher
}

// NewRegistry builds clients for every enabled source.
func NewRegistry(cfg *config.Config, cache nba.CacheProvider, logger *logrus.Logger) *Registry {
	fetchers := make(map[nba.Source]nba.StatFetcher)

	if cfg.SourceEnabled(string(nba.SourceNBAStats)) {
		fetchers[nba.SourceNBAStats] = NewNBAStatsClient(cfg.NBAStatsBaseURL, cfg.ProviderTimeout, cfg.IndexCacheTTL, cache, logger)
	}
	if cfg.SourceEnabled(string(nba.SourceESPN)) {
		fetchers[nba.SourceESPN] = NewESPNClient(cfg.ESPNBaseURL, cfg.ProviderTimeout, logger)
	}
	if cfg.SourceEnabled(string(nba.SourceSportsDB)) {
		fetchers[nba.SourceSportsDB] = NewSportsDBClient(cfg.SportsDBBaseURL, cfg.SportsDBAPIKey, cfg.ProviderTimeout, cache, logger)
	}
	if cfg.SourceEnabled(string(nba.SourceBBallRef)) {
		fetchers[nba.SourceBBallRef] = NewBBallRefClient(cfg.BBallRefBaseURL, cfg.ProviderTimeout, logger)
	}

	return &Registry{fetchers: fetchers}
}

// Fetchers returns all enabled stat fetchers keyed by source.
func (r *Registry) Fetchers() map[nba.Source]nba.StatFetcher {
	return r.fetchers
}

// Fetcher returns the adapter for one source, if enabled.
func (r *Registry) Fetcher(source nba.Source) (nba.StatFetcher, bool) {
	f, ok := r.fetchers[source]
	return f, ok
}

// Searcher returns the identity-search capability of a source, when the
// adapter implements it.
func (r *Registry) Searcher(source nba.Source) (nba.IdentitySearcher, bool) {
	f, ok := r.fetchers[source]
	if !ok {
		return nil, false
	}
	s, ok := f.(nba.IdentitySearcher)
	return s, ok
}

// readBody drains a response body with a sanity cap.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// parseStat converts a scraped cell or string-typed JSON value to a stat
// pointer. Empty or unparseable text means the value is unknown, never zero.
func parseStat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// extractValue pulls a float out of loosely-typed JSON values: numbers,
// numeric strings, or nil. ok=false means unknown.
func extractValue(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
