package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/courtside/internal/nba"
)

func TestSportsDBSearchPlayers(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/3/searchplayers.php", r.URL.Path)
		assert.Equal(t, "Nikola Jokic", r.URL.Query().Get("p"))
		w.Write([]byte(`{"player":[
			{"idPlayer":"34161567","strPlayer":"Nikola Jokic"},
			{"idPlayer":"","strPlayer":"broken row"}
		]}`))
	}))
	defer server.Close()

	client := NewSportsDBClient(server.URL, "3", 5*time.Second, newFakeCache(), quietLogger())
	ctx := context.Background()

	entries, err := client.SearchPlayers(ctx, "Nikola Jokic")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "34161567", entries[0].ID)
	assert.Equal(t, "Nikola Jokic", entries[0].Title)

	// repeated search is served from cache
	_, err = client.SearchPlayers(ctx, "Nikola Jokic")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestSportsDBSearchNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>rate limited</html>`))
	}))
	defer server.Close()

	client := NewSportsDBClient(server.URL, "3", 5*time.Second, newFakeCache(), quietLogger())

	_, err := client.SearchPlayers(context.Background(), "anyone")
	assert.Error(t, err)
}

func TestSportsDBFetchSeasonStatsAveragesRecentEvents(t *testing.T) {
	eventStats := map[string]string{
		"e1": `{"eventstats":[
			{"idPlayer":"34161567","intPoints":"30","intRebounds":"12","intAssists":"10","intSteals":"1","intBlocks":"1"},
			{"idPlayer":"someone-else","intPoints":"99"}
		]}`,
		"e2": `{"eventstats":[
			{"idPlayer":"34161567","intPoints":"20","intRebounds":"10","intAssists":"6","intSteals":"3","intBlocks":"0"}
		]}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/eventslast.php":
			w.Write([]byte(`{"results":[{"idEvent":"e1"},{"idEvent":"e2"}]}`))
		case "/3/lookupeventstats.php":
			w.Write([]byte(eventStats[r.URL.Query().Get("id")]))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewSportsDBClient(server.URL, "3", 5*time.Second, newFakeCache(), quietLogger())

	lines, err := client.FetchSeasonStats(context.Background(), "34161567")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, nba.CurrentSeason(time.Now()), line.Season)
	assert.Equal(t, 25.0, *line.Points)
	assert.Equal(t, 11.0, *line.Rebounds)
	assert.Equal(t, 8.0, *line.Assists)
	assert.Equal(t, 2.0, *line.Steals)
	assert.Equal(t, 0.5, *line.Blocks)

	// event box scores carry no shooting percentages
	assert.Nil(t, line.FGPct)
	assert.Nil(t, line.ThreePct)
	assert.Nil(t, line.FTPct)
}

func TestSportsDBFetchSeasonStatsCapsRecentEvents(t *testing.T) {
	statCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/eventslast.php":
			events := `{"results":[`
			for i := 0; i < 8; i++ {
				if i > 0 {
					events += ","
				}
				events += fmt.Sprintf(`{"idEvent":"e%d"}`, i)
			}
			events += `]}`
			w.Write([]byte(events))
		case "/3/lookupeventstats.php":
			statCalls++
			w.Write([]byte(`{"eventstats":[{"idPlayer":"p","intPoints":"10"}]}`))
		}
	}))
	defer server.Close()

	client := NewSportsDBClient(server.URL, "3", 5*time.Second, newFakeCache(), quietLogger())

	_, err := client.FetchSeasonStats(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, recentEventLimit, statCalls)
}

func TestSportsDBFetchSeasonStatsNoUsableStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/eventslast.php":
			w.Write([]byte(`{"results":[{"idEvent":"e1"}]}`))
		case "/3/lookupeventstats.php":
			w.Write([]byte(`{"eventstats":[{"idPlayer":"p","intPoints":null}]}`))
		}
	}))
	defer server.Close()

	client := NewSportsDBClient(server.URL, "3", 5*time.Second, newFakeCache(), quietLogger())

	lines, err := client.FetchSeasonStats(context.Background(), "p")
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestSportsDBFetchSeasonStatsNoRecentEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":null}`))
	}))
	defer server.Close()

	client := NewSportsDBClient(server.URL, "3", 5*time.Second, newFakeCache(), quietLogger())

	lines, err := client.FetchSeasonStats(context.Background(), "p")
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestCutoutURL(t *testing.T) {
	assert.Equal(t,
		"https://www.thesportsdb.com/images/media/player/cutout/34161567.png",
		CutoutURL("34161567"))
}
