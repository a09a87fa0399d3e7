package providers

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/pkg/config"
)

// fakeCache is an in-memory nba.CacheProvider for provider tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) SetSimple(key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) GetSimple(key string, dest interface{}) error {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("cache miss: %s", key)
	}
	return json.Unmarshal(raw, dest)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestRegistryCapabilities(t *testing.T) {
	cfg := &config.Config{
		EnabledSources:  []string{"nbastats", "espn", "sportsdb"},
		ProviderTimeout: 5 * time.Second,
		IndexCacheTTL:   time.Hour,
	}
	registry := NewRegistry(cfg, newFakeCache(), quietLogger())

	fetchers := registry.Fetchers()
	assert.Len(t, fetchers, 3)
	assert.NotContains(t, fetchers, nba.SourceBBallRef) // disabled

	// identity search is a capability, not a given
	_, ok := registry.Searcher(nba.SourceNBAStats)
	assert.True(t, ok)
	_, ok = registry.Searcher(nba.SourceSportsDB)
	assert.True(t, ok)
	_, ok = registry.Searcher(nba.SourceESPN)
	assert.False(t, ok)
	_, ok = registry.Searcher(nba.SourceBBallRef)
	assert.False(t, ok)

	for source, fetcher := range fetchers {
		assert.Equal(t, source, fetcher.Source())
	}
}
