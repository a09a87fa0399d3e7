package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/internal/store"
	"github.com/jstittsworth/courtside/pkg/config"
)

// ErrMissingPlayerID is the only request-validation failure the pipeline
// reports; everything upstream degrades instead of failing.
var ErrMissingPlayerID = errors.New("missing player id")

// StoreWriteError signals that stats were aggregated but could not be
// durably cached. The computed result still accompanies it.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("failed to cache aggregated stats: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// ProviderRegistry is the slice of providers.Registry the pipeline needs.
type ProviderRegistry interface {
	Fetchers() map[nba.Source]nba.StatFetcher
	Searcher(source nba.Source) (nba.IdentitySearcher, bool)
}

// StatsRequest is the trigger boundary payload: an internal player id plus
// optional per-source provider id overrides.
type StatsRequest struct {
	PlayerID    string
	DisplayName string
	ProviderIDs map[nba.Source]string
	Force       bool
}

// StatsResponse is what the boundary returns for a stats request.
type StatsResponse struct {
	PlayerID          string                        `json:"player_id"`
	SeasonAverages    *nba.MergedStatLine           `json:"seasonAverages,omitempty"`
	Projection        *nba.ProjectedStatLine        `json:"projections,omitempty"`
	AllSeasonAverages map[string]nba.MergedStatLine `json:"allSeasonAverages,omitempty"`
	Message           string                        `json:"message,omitempty"`
	Cached            bool                          `json:"cached"`
}

// PipelineService runs the aggregation pipeline: cache check, identity
// resolution, provider fan-out, merge, projection, merge-write back.
type PipelineService struct {
	registry ProviderRegistry
	resolver *ResolverService
	players  *store.PlayerStore
	stats    *store.StatStore
	breaker  *CircuitBreakerService
	cfg      *config.Config
	logger   *logrus.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]*sync.Mutex
}

func NewPipelineService(
	registry ProviderRegistry,
	resolver *ResolverService,
	players *store.PlayerStore,
	stats *store.StatStore,
	breaker *CircuitBreakerService,
	cfg *config.Config,
	logger *logrus.Logger,
) *PipelineService {
	return &PipelineService{
		registry: registry,
		resolver: resolver,
		players:  players,
		stats:    stats,
		breaker:  breaker,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		inFlight: make(map[string]*sync.Mutex),
	}
}

// fetchResult is one source's contribution to a fan-out.
type fetchResult struct {
	Source nba.Source
	Lines  []nba.SeasonStatLine
	Err    error
}

// GetPlayerStats serves one stats request. On a store write failure the
// response is still returned alongside a *StoreWriteError so the caller
// gets the uncached result.
func (s *PipelineService) GetPlayerStats(ctx context.Context, req StatsRequest) (*StatsResponse, error) {
	if req.PlayerID == "" {
		return nil, ErrMissingPlayerID
	}

	// In-process de-duplication: concurrent requests for the same player
	// serialize here, so the second one finds a fresh cache entry.
	lock := s.lockFor(req.PlayerID)
	lock.Lock()
	defer lock.Unlock()

	player, err := s.loadOrCreatePlayer(ctx, req)
	if err != nil {
		return nil, err
	}

	entry, err := s.stats.Get(ctx, req.PlayerID)
	if err != nil {
		s.logger.Warnf("stats cache read for %s failed: %v", req.PlayerID, err)
	}
	if entry != nil && !req.Force && s.now().UTC().Sub(entry.LastUpdated) < s.cfg.StatsCacheTTL {
		return s.responseFromEntry(entry, true), nil
	}

	s.resolveMissingIdentities(ctx, player)

	results := s.fetchFromAllSources(ctx, player)

	var lines []SourceLine
	for _, result := range results {
		if result.Err != nil {
			s.logger.Warnf("source %s failed for player %s: %v", result.Source, req.PlayerID, result.Err)
			continue
		}
		for _, line := range result.Lines {
			lines = append(lines, SourceLine{Source: result.Source, Line: line})
		}
	}

	if len(lines) == 0 {
		if entry != nil {
			// stale beats empty
			return s.responseFromEntry(entry, true), nil
		}
		return &StatsResponse{PlayerID: req.PlayerID, Message: "no stats available"}, nil
	}

	weights := sourceWeights(s.cfg.SourceWeights())
	merged := MergeSeasonLines(lines, weights)

	// Response view mirrors the durable merge-write: cached seasons this
	// run didn't touch survive, and within a season cached fields survive
	// unless a source re-reported them.
	all := make(map[string]nba.MergedStatLine)
	if entry != nil {
		for season, line := range entry.Seasons {
			all[season] = line
		}
	}
	for season, line := range merged {
		all[season] = OverlayMerged(all[season], line)
	}

	currentSeason := nba.CurrentSeason(s.now())
	var current *nba.MergedStatLine
	if line, ok := all[currentSeason]; ok {
		current = &line
	}
	projection := ProjectStats(current, nba.NextSeason(currentSeason))

	resp := &StatsResponse{
		PlayerID:          req.PlayerID,
		SeasonAverages:    current,
		Projection:        projection,
		AllSeasonAverages: all,
	}

	if err := s.stats.MergeSeasons(ctx, req.PlayerID, merged, projection); err != nil {
		s.logger.Errorf("failed to persist stats for %s: %v", req.PlayerID, err)
		return resp, &StoreWriteError{Err: err}
	}

	return resp, nil
}

func (s *PipelineService) lockFor(playerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.inFlight[playerID]
	if !ok {
		lock = &sync.Mutex{}
		s.inFlight[playerID] = lock
	}
	return lock
}

// loadOrCreatePlayer fetches the player record, creating it on first
// observation, and folds any request-supplied provider ids in.
func (s *PipelineService) loadOrCreatePlayer(ctx context.Context, req StatsRequest) (*nba.Player, error) {
	player, err := s.players.Get(ctx, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load player %s: %w", req.PlayerID, err)
	}
	if player == nil {
		player = &nba.Player{
			PlayerID:    req.PlayerID,
			DisplayName: req.DisplayName,
			CreatedAt:   s.now().UTC(),
		}
	}
	if player.DisplayName == "" {
		player.DisplayName = req.DisplayName
	}
	if player.ProviderIDs == nil {
		player.ProviderIDs = make(map[nba.Source]string)
	}
	for source, id := range req.ProviderIDs {
		if id != "" {
			player.ProviderIDs[source] = id
		}
	}
	if err := s.players.Save(ctx, player); err != nil {
		return nil, fmt.Errorf("save player %s: %w", req.PlayerID, err)
	}
	return player, nil
}

// resolveMissingIdentities fills in provider ids for search-capable
// sources. Unresolved stays unresolved; only this run remembers negatives.
func (s *PipelineService) resolveMissingIdentities(ctx context.Context, player *nba.Player) {
	if player.DisplayName == "" {
		return
	}
	run := s.resolver.NewRun()
	for source := range s.registry.Fetchers() {
		if _, has := player.ProviderIDs[source]; has {
			continue
		}
		if _, searchable := s.registry.Searcher(source); !searchable {
			continue
		}
		id, found := run.Resolve(ctx, player.DisplayName, source)
		if !found {
			continue
		}
		player.ProviderIDs[source] = id
		if err := s.players.SetProviderID(ctx, player.PlayerID, source, id); err != nil {
			s.logger.Warnf("failed to record %s id for %s: %v", source, player.PlayerID, err)
		}
	}
}

// fetchFromAllSources fans out to every source with a known provider id.
// Each call gets its own timeout so one slow source cannot delay or cancel
// the others, and each runs behind its source's circuit breaker.
func (s *PipelineService) fetchFromAllSources(ctx context.Context, player *nba.Player) []fetchResult {
	fetchers := s.registry.Fetchers()

	var wg sync.WaitGroup
	results := make(chan fetchResult, len(fetchers))

	for source, fetcher := range fetchers {
		providerID, ok := player.ProviderIDs[source]
		if !ok || providerID == "" {
			continue
		}

		wg.Add(1)
		go func(source nba.Source, fetcher nba.StatFetcher, providerID string) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
			defer cancel()

			out, err := s.breaker.Execute(source, func() (interface{}, error) {
				return fetcher.FetchSeasonStats(callCtx, providerID)
			})
			lines, _ := out.([]nba.SeasonStatLine)
			results <- fetchResult{Source: source, Lines: lines, Err: err}
		}(source, fetcher, providerID)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []fetchResult
	for result := range results {
		all = append(all, result)
	}
	return all
}

func (s *PipelineService) responseFromEntry(entry *nba.CacheEntry, cached bool) *StatsResponse {
	currentSeason := nba.CurrentSeason(s.now())
	var current *nba.MergedStatLine
	if line, ok := entry.Seasons[currentSeason]; ok {
		current = &line
	}
	return &StatsResponse{
		PlayerID:          entry.PlayerID,
		SeasonAverages:    current,
		Projection:        entry.Projection,
		AllSeasonAverages: entry.Seasons,
		Cached:            cached,
	}
}
