package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/names"
	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/internal/store"
)

// SearcherRegistry exposes the identity-search capability of the enabled
// providers; implemented by providers.Registry.
type SearcherRegistry interface {
	Searcher(source nba.Source) (nba.IdentitySearcher, bool)
}

// ResolverService maps display names to provider ids. Matching is exact
// normalized first, then fuzzy containment; among several fuzzy candidates
// the first in provider-returned order wins. That tie-break is
// deterministic but not semantically ranked.
type ResolverService struct {
	searchers SearcherRegistry
	players   *store.PlayerStore
	logger    *logrus.Logger
}

func NewResolverService(searchers SearcherRegistry, players *store.PlayerStore, logger *logrus.Logger) *ResolverService {
	return &ResolverService{
		searchers: searchers,
		players:   players,
		logger:    logger,
	}
}

// ResolutionRun scopes resolution caching to one pipeline run. Failed
// resolutions are remembered only here, never persisted: upstream catalogs
// change, so permanent negatives would go stale.
type ResolutionRun struct {
	svc   *ResolverService
	cache map[string]runResult
}

type runResult struct {
	id    string
	found bool
}

func (s *ResolverService) NewRun() *ResolutionRun {
	return &ResolutionRun{
		svc:   s,
		cache: make(map[string]runResult),
	}
}

// Resolve returns the provider id for displayName at source, or found=false
// when the source cannot resolve it. Unresolved is an absent value, not an
// error.
func (r *ResolutionRun) Resolve(ctx context.Context, displayName string, source nba.Source) (string, bool) {
	if displayName == "" {
		return "", false
	}
	key := string(source) + ":" + names.Normalize(displayName)
	if cached, ok := r.cache[key]; ok {
		return cached.id, cached.found
	}

	id, found := r.svc.resolve(ctx, displayName, source)
	r.cache[key] = runResult{id: id, found: found}
	return id, found
}

func (s *ResolverService) resolve(ctx context.Context, displayName string, source nba.Source) (string, bool) {
	searcher, ok := s.searchers.Searcher(source)
	if !ok {
		return "", false
	}

	entries, err := searcher.SearchPlayers(ctx, displayName)
	if err != nil {
		// A non-JSON page or outage means unresolved, not failure
		s.logger.Warnf("identity search on %s for %q failed: %v", source, displayName, err)
		return "", false
	}

	return MatchEntries(displayName, entries)
}

// MatchEntries applies the matching policy to a candidate list: exact
// normalized equality always beats fuzzy containment, and each pass takes
// the first hit in provider order.
func MatchEntries(displayName string, entries []nba.IndexEntry) (string, bool) {
	query := names.Normalize(displayName)
	if query == "" {
		return "", false
	}

	for _, e := range entries {
		if names.Normalize(e.Title) == query {
			return e.ID, true
		}
	}
	for _, e := range entries {
		if names.FuzzyMatch(e.Title, displayName) {
			return e.ID, true
		}
	}
	return "", false
}

// SyncProviderIDs resolves ids at one source for every stored player that
// lacks one, against a single index fetch. Exact matches only; fuzzy hits
// are too risky to write back in bulk.
func (s *ResolverService) SyncProviderIDs(ctx context.Context, source nba.Source) (int, error) {
	searcher, ok := s.searchers.Searcher(source)
	if !ok {
		return 0, fmt.Errorf("source %s does not support identity search", source)
	}

	entries, err := searcher.SearchPlayers(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("load %s index: %w", source, err)
	}

	// one normalized-name index per run
	index := make(map[string]string, len(entries))
	for _, e := range entries {
		norm := names.Normalize(e.Title)
		if _, exists := index[norm]; !exists {
			index[norm] = e.ID
		}
	}

	players, err := s.players.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load players: %w", err)
	}

	matched := 0
	for _, player := range players {
		if _, has := player.ProviderIDs[source]; has {
			continue
		}
		id, found := index[names.Normalize(player.DisplayName)]
		if !found {
			s.logger.Debugf("no %s match for %q", source, player.DisplayName)
			continue
		}
		if err := s.players.SetProviderID(ctx, player.PlayerID, source, id); err != nil {
			s.logger.Warnf("failed to record %s id for %s: %v", source, player.PlayerID, err)
			continue
		}
		matched++
	}

	s.logger.Infof("%s identity sync: %d of %d players matched", source, matched, len(players))
	return matched, nil
}
