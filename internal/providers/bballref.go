package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/nba"
)

// BBallRefClient scrapes historical per-game tables from
// basketball-reference.com player pages. No identity search: the provider
// id is the site's player slug ("j/jamesle01"). Lowest-precedence source,
// but the only one with deep history.
type BBallRefClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewBBallRefClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *BBallRefClient {
	return &BBallRefClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *BBallRefClient) Source() nba.Source {
	return nba.SourceBBallRef
}

// FetchSeasonStats parses the #per_game table. Rows are addressed by
// data-stat column attributes; the "Career" aggregate rows live outside
// tbody and are excluded. Any cell that fails to parse stays unknown.
func (c *BBallRefClient) FetchSeasonStats(ctx context.Context, providerID string) ([]nba.SeasonStatLine, error) {
	url := fmt.Sprintf("%s/players/%s.html", c.baseURL, providerID)

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
		return nil, fmt.Errorf("bballref player page returned %d", resp.StatusCode)
	}

	// The site ships some tables inside HTML comments
	clean := strings.ReplaceAll(string(body), "<!--", "")
	clean = strings.ReplaceAll(clean, "-->", "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("parse player page: %w", err)
	}

	var lines []nba.SeasonStatLine
	doc.Find("table#per_game tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if strings.Contains(tr.AttrOr("class", ""), "thead") {
			return
		}

		seasonCell := tr.Find(`th[data-stat="season"]`).First()
		if seasonCell.Length() == 0 {
			return
		}
		rawSeason := strings.TrimSpace(seasonCell.Text())
		if rawSeason == "" || strings.EqualFold(rawSeason, "Career") {
			return
		}
		season, ok := nba.NormalizeSeason(rawSeason)
		if !ok {
			return
		}

		cell := func(stat string) *float64 {
			return parseStat(tr.Find(`td[data-stat="` + stat + `"]`).First().Text())
		}

		lines = append(lines, nba.SeasonStatLine{
			Season:    season,
			Points:    cell("pts_per_g"),
			Rebounds:  cell("trb_per_g"),
			Assists:   cell("ast_per_g"),
			Steals:    cell("stl_per_g"),
			Blocks:    cell("blk_per_g"),
			Turnovers: cell("tov_per_g"),
			FGPct:     cell("fg_pct"),
			ThreePct:  cell("fg3_pct"),
			FTPct:     cell("ft_pct"),
		})
	})

	if len(lines) == 0 {
		c.logger.Warnf("bballref page for %s yielded no season rows", providerID)
	}
	return lines, nil
}
