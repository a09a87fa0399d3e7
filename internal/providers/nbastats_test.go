package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const careerStatsBody = `{
	"resultSets": [
		{
			"name": "SeasonTotalsRegularSeason",
			"headers": ["PLAYER_ID", "SEASON_ID", "TEAM_ABBREVIATION", "PTS", "REB", "AST", "STL", "BLK", "TOV", "FG_PCT", "FG3_PCT", "FT_PCT"],
			"rowSet": [
				["2544", "2022-23", "LAL", 28.9, 8.3, 6.8, 0.9, 0.6, 3.2, 0.500, 0.321, 0.768],
				["2544", "2023-24", "LAL", 25.1, 7.3, 8.3, 1.3, 0.5, 3.5, 0.540, 0.410, 0.750],
				["2544", "bogus", "LAL", 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 0.1, 0.1, 0.1]
			]
		},
		{
			"name": "CareerTotalsRegularSeason",
			"headers": ["PLAYER_ID", "PTS"],
			"rowSet": [["2544", 27.1]]
		}
	]
}`

func TestNBAStatsFetchSeasonStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playercareerstats", r.URL.Path)
		assert.Equal(t, "2544", r.URL.Query().Get("PlayerID"))
		assert.Equal(t, "PerGame", r.URL.Query().Get("PerMode"))
		w.Write([]byte(careerStatsBody))
	}))
	defer server.Close()

	client := NewNBAStatsClient(server.URL, 5*time.Second, time.Hour, newFakeCache(), quietLogger())

	lines, err := client.FetchSeasonStats(context.Background(), "2544")
	require.NoError(t, err)
	require.Len(t, lines, 2) // the unparseable season row is dropped

	assert.Equal(t, "2022-23", lines[0].Season)
	assert.Equal(t, 28.9, *lines[0].Points)
	assert.Equal(t, "2023-24", lines[1].Season)
	assert.Equal(t, 25.1, *lines[1].Points)
	assert.Equal(t, 8.3, *lines[1].Assists)
	assert.Equal(t, 0.54, *lines[1].FGPct)
}

func TestNBAStatsFetchSeasonStatsNullCellStaysUnknown(t *testing.T) {
	body := `{
		"resultSets": [{
			"name": "SeasonTotalsRegularSeason",
			"headers": ["SEASON_ID", "PTS", "FG3_PCT"],
			"rowSet": [["2023-24", 25.1, null]]
		}]
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := NewNBAStatsClient(server.URL, 5*time.Second, time.Hour, newFakeCache(), quietLogger())

	lines, err := client.FetchSeasonStats(context.Background(), "2544")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 25.1, *lines[0].Points)
	assert.Nil(t, lines[0].ThreePct)
	assert.Nil(t, lines[0].Rebounds)
}

func TestNBAStatsFetchSeasonStatsMissingResultSet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultSets": []}`))
	}))
	defer server.Close()

	client := NewNBAStatsClient(server.URL, 5*time.Second, time.Hour, newFakeCache(), quietLogger())

	_, err := client.FetchSeasonStats(context.Background(), "2544")
	assert.Error(t, err)
}

func TestNBAStatsSearchPlayersCachesIndex(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/commonallplayers", r.URL.Path)
		w.Write([]byte(`{
			"resultSets": [{
				"name": "CommonAllPlayers",
				"headers": ["PERSON_ID", "DISPLAY_LAST_COMMA_FIRST", "DISPLAY_FIRST_LAST"],
				"rowSet": [
					[2544, "James, LeBron", "LeBron James"],
					[201939, "Curry, Stephen", "Stephen Curry"],
					[0, "", ""]
				]
			}]
		}`))
	}))
	defer server.Close()

	client := NewNBAStatsClient(server.URL, 5*time.Second, time.Hour, newFakeCache(), quietLogger())
	ctx := context.Background()

	entries, err := client.SearchPlayers(ctx, "ignored")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2544", entries[0].ID)
	assert.Equal(t, "LeBron James", entries[0].Title)
	assert.Equal(t, "201939", entries[1].ID)

	// second call is answered from cache
	_, err = client.SearchPlayers(ctx, "still ignored")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestNBAStatsUpstreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewNBAStatsClient(server.URL, 5*time.Second, time.Hour, newFakeCache(), quietLogger())

	_, err := client.FetchSeasonStats(context.Background(), "2544")
	assert.Error(t, err)
}
