package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/nba"
)

// recentEventLimit caps how many recent games feed the per-game averages.
const recentEventLimit = 5

// SportsDBClient adapts TheSportsDB JSON API. It supports identity search
// (searchplayers.php) and derives a current-season stat line by averaging
// the player's recent event box scores. TheSportsDB also hosts the player
// photo CDN; see CutoutURL.
type SportsDBClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      nba.CacheProvider
	logger     *logrus.Logger
}

func NewSportsDBClient(baseURL, apiKey string, timeout time.Duration, cache nba.CacheProvider, logger *logrus.Logger) *SportsDBClient {
	return &SportsDBClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		logger:     logger,
	}
}

func (c *SportsDBClient) Source() nba.Source {
	return nba.SourceSportsDB
}

type sportsDBSearchResponse struct {
	Player []struct {
		ID   string `json:"idPlayer"`
		Name string `json:"strPlayer"`
	} `json:"player"`
}

type sportsDBEventsResponse struct {
	Results []struct {
		IDEvent string `json:"idEvent"`
	} `json:"results"`
}

type sportsDBEventStatsResponse struct {
	EventStats []struct {
		IDPlayer string      `json:"idPlayer"`
		Points   interface{} `json:"intPoints"`
		Assists  interface{} `json:"intAssists"`
		Rebounds interface{} `json:"intRebounds"`
		Blocks   interface{} `json:"intBlocks"`
		Steals   interface{} `json:"intSteals"`
	} `json:"eventstats"`
}

// SearchPlayers runs a live name search. The free tier sometimes answers
// with an HTML throttling page instead of JSON; that surfaces as a decode
// error and the resolver treats the source as unresolved.
func (c *SportsDBClient) SearchPlayers(ctx context.Context, name string) ([]nba.IndexEntry, error) {
	cacheKey := "sportsdb:search:" + name

	var cached []nba.IndexEntry
	if err := c.cache.GetSimple(cacheKey, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	var resp sportsDBSearchResponse
	if err := c.get(ctx, "/searchplayers.php", url.Values{"p": {name}}, &resp); err != nil {
		return nil, err
	}

	entries := make([]nba.IndexEntry, 0, len(resp.Player))
	for _, p := range resp.Player {
		if p.ID == "" || p.Name == "" {
			continue
		}
		entries = append(entries, nba.IndexEntry{Title: p.Name, ID: p.ID})
	}

	if len(entries) > 0 {
		if err := c.cache.SetSimple(cacheKey, entries, time.Hour); err != nil {
			c.logger.Warnf("Failed to cache sportsdb search for %q: %v", name, err)
		}
	}
	return entries, nil
}

// FetchSeasonStats averages the player's recent box scores into one
// current-season line. Only counting stats are available from event stats;
// the shooting percentages stay unknown. A failed event lookup is skipped,
// not fatal.
func (c *SportsDBClient) FetchSeasonStats(ctx context.Context, providerID string) ([]nba.SeasonStatLine, error) {
	var events sportsDBEventsResponse
	if err := c.get(ctx, "/eventslast.php", url.Values{"id": {providerID}}, &events); err != nil {
		return nil, err
	}
	if len(events.Results) == 0 {
		return nil, nil
	}

	recent := events.Results
	if len(recent) > recentEventLimit {
		recent = recent[:recentEventLimit]
	}

	var sums [5]float64
	var counts [5]int
	for _, event := range recent {
		var stats sportsDBEventStatsResponse
		if err := c.get(ctx, "/lookupeventstats.php", url.Values{"id": {event.IDEvent}}, &stats); err != nil {
			c.logger.Warnf("Failed to fetch stats for event %s: %v", event.IDEvent, err)
			continue
		}
		for _, line := range stats.EventStats {
			if line.IDPlayer != providerID {
				continue
			}
			for i, raw := range []interface{}{line.Points, line.Rebounds, line.Assists, line.Steals, line.Blocks} {
				if v, ok := extractValue(raw); ok {
					sums[i] += v
					counts[i]++
				}
			}
		}
	}

	avg := func(i int) *float64 {
		if counts[i] == 0 {
			return nil
		}
		v := sums[i] / float64(counts[i])
		return &v
	}

	line := nba.SeasonStatLine{
		Season:   nba.CurrentSeason(time.Now()),
		Points:   avg(0),
		Rebounds: avg(1),
		Assists:  avg(2),
		Steals:   avg(3),
		Blocks:   avg(4),
	}
	if line.Points == nil && line.Rebounds == nil && line.Assists == nil && line.Steals == nil && line.Blocks == nil {
		return nil, nil
	}
	return []nba.SeasonStatLine{line}, nil
}

// CutoutURL is the constructed photo CDN address for a player id. The
// asset pipeline downloads from here and re-hosts the image.
func CutoutURL(providerID string) string {
	return fmt.Sprintf("https://www.thesportsdb.com/images/media/player/cutout/%s.png", providerID)
}

func (c *SportsDBClient) get(ctx context.Context, path string, params url.Values, target interface{}) error {
	u := fmt.Sprintf("%s/%s%s", c.baseURL, c.apiKey, path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

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
		return fmt.Errorf("sportsdb %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
