package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/nba"
)

// seasonAveragesAnchor is the label in front of the JSON fragment embedded
// in ESPN player pages. The page is HTML; the stats live inline in a
// script blob reachable only by locating this anchor.
const seasonAveragesAnchor = `"seasonAverages":`

// ESPNClient scrapes current-season averages from espn.com player pages.
// It has no identity search; the caller supplies the ESPN player id.
type ESPNClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewESPNClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *ESPNClient {
	return &ESPNClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *ESPNClient) Source() nba.Source {
	return nba.SourceESPN
}

// espnSeasonAverages mirrors the embedded fragment's shape. Values arrive
// as numbers or numeric strings depending on page revision.
type espnSeasonAverages struct {
	Season        interface{} `json:"season"`
	Points        interface{} `json:"avgPoints"`
	Rebounds      interface{} `json:"avgRebounds"`
	Assists       interface{} `json:"avgAssists"`
	Steals        interface{} `json:"avgSteals"`
	Blocks        interface{} `json:"avgBlocks"`
	Turnovers     interface{} `json:"avgTurnovers"`
	FieldGoalPct  interface{} `json:"fieldGoalPct"`
	ThreePointPct interface{} `json:"threePointFieldGoalPct"`
	FreeThrowPct  interface{} `json:"freeThrowPct"`
}

// FetchSeasonStats pulls the player page and extracts the embedded
// season-averages fragment. A page without the anchor is a soft failure:
// no lines, no error, the pipeline proceeds on other sources.
func (c *ESPNClient) FetchSeasonStats(ctx context.Context, providerID string) ([]nba.SeasonStatLine, error) {
	url := fmt.Sprintf("%s/nba/player/_/id/%s", c.baseURL, providerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request player page: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("espn player page returned %d", resp.StatusCode)
	}

	fragment, ok := extractAnchoredJSON(string(body), seasonAveragesAnchor)
	if !ok {
		c.logger.Warnf("espn page for player %s has no %s fragment", providerID, seasonAveragesAnchor)
		return nil, nil
	}

	var rows []espnSeasonAverages
	if err := json.Unmarshal([]byte(fragment), &rows); err != nil {
		return nil, fmt.Errorf("decode embedded season averages: %w", err)
	}

	lines := make([]nba.SeasonStatLine, 0, len(rows))
	for _, row := range rows {
		season, ok := nba.NormalizeSeason(seasonText(row.Season))
		if !ok {
			continue
		}
		lines = append(lines, nba.SeasonStatLine{
			Season:    season,
			Points:    looseStat(row.Points),
			Rebounds:  looseStat(row.Rebounds),
			Assists:   looseStat(row.Assists),
			Steals:    looseStat(row.Steals),
			Blocks:    looseStat(row.Blocks),
			Turnovers: looseStat(row.Turnovers),
			FGPct:     pctStat(row.FieldGoalPct),
			ThreePct:  pctStat(row.ThreePointPct),
			FTPct:     pctStat(row.FreeThrowPct),
		})
	}
	return lines, nil
}

// seasonText renders the season field, which arrives as a number or a
// string depending on page revision.
func seasonText(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func looseStat(v interface{}) *float64 {
	if f, ok := extractValue(v); ok {
		return &f
	}
	return nil
}

// pctStat normalizes shooting percentages to the fraction scale every
// other source reports. ESPN pages carry "54.0", not "0.540".
func pctStat(v interface{}) *float64 {
	f, ok := extractValue(v)
	if !ok {
		return nil
	}
	if f > 1 {
		f /= 100
	}
	return &f
}

// extractAnchoredJSON locates label in text and returns the balanced JSON
// array that follows it. String contents are skipped so brackets inside
// values do not break the scan.
func extractAnchoredJSON(text, label string) (string, bool) {
	at := strings.Index(text, label)
	if at < 0 {
		return "", false
	}
	rest := text[at+len(label):]

	start := strings.IndexByte(rest, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(rest); i++ {
		ch := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return rest[start : i+1], true
			}
		}
	}
	return "", false
}
