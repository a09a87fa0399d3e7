package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jstittsworth/courtside/internal/nba"
)

// PlayerStore is the typed view over the players collection.
type PlayerStore struct {
	docs DocumentStore
}

func NewPlayerStore(docs DocumentStore) *PlayerStore {
	return &PlayerStore{docs: docs}
}

func (s *PlayerStore) Get(ctx context.Context, playerID string) (*nba.Player, error) {
	data, err := s.docs.Get(ctx, CollectionPlayers, playerID)
	if err != nil || data == nil {
		return nil, err
	}
	var player nba.Player
	if err := fromDoc(data, &player); err != nil {
		return nil, fmt.Errorf("decode player %s: %w", playerID, err)
	}
	return &player, nil
}

// Save merge-writes the player document; untouched fields are preserved.
func (s *PlayerStore) Save(ctx context.Context, player *nba.Player) error {
	player.UpdatedAt = time.Now().UTC()
	doc, err := toDoc(player)
	if err != nil {
		return fmt.Errorf("encode player %s: %w", player.PlayerID, err)
	}
	return s.docs.Set(ctx, CollectionPlayers, player.PlayerID, doc, true)
}

// SetProviderID adds one resolved provider id without touching the rest
// of the document.
func (s *PlayerStore) SetProviderID(ctx context.Context, playerID string, source nba.Source, providerID string) error {
	return s.docs.Set(ctx, CollectionPlayers, playerID, map[string]interface{}{
		"provider_ids": map[string]interface{}{string(source): providerID},
		"updated_at":   time.Now().UTC().Format(time.RFC3339Nano),
	}, true)
}

// SetPhotoRef records a stored photo URL for one source.
func (s *PlayerStore) SetPhotoRef(ctx context.Context, playerID string, source nba.Source, url string) error {
	return s.docs.Set(ctx, CollectionPlayers, playerID, map[string]interface{}{
		"photo_refs": map[string]interface{}{string(source): url},
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}, true)
}

// ByProviderID returns every player currently holding providerID for source.
func (s *PlayerStore) ByProviderID(ctx context.Context, source nba.Source, providerID string) ([]nba.Player, error) {
	docs, err := s.docs.Query(ctx, CollectionPlayers, "provider_ids."+string(source), providerID)
	if err != nil {
		return nil, err
	}
	return decodePlayers(docs)
}

func (s *PlayerStore) All(ctx context.Context) ([]nba.Player, error) {
	docs, err := s.docs.List(ctx, CollectionPlayers)
	if err != nil {
		return nil, err
	}
	return decodePlayers(docs)
}

func decodePlayers(docs map[string]map[string]interface{}) ([]nba.Player, error) {
	players := make([]nba.Player, 0, len(docs))
	for id, data := range docs {
		var player nba.Player
		if err := fromDoc(data, &player); err != nil {
			return nil, fmt.Errorf("decode player %s: %w", id, err)
		}
		players = append(players, player)
	}
	return players, nil
}

// StatStore is the typed view over the player_stats collection.
type StatStore struct {
	docs DocumentStore
}

func NewStatStore(docs DocumentStore) *StatStore {
	return &StatStore{docs: docs}
}

func (s *StatStore) Get(ctx context.Context, playerID string) (*nba.CacheEntry, error) {
	data, err := s.docs.Get(ctx, CollectionPlayerStats, playerID)
	if err != nil || data == nil {
		return nil, err
	}
	var entry nba.CacheEntry
	if err := fromDoc(data, &entry); err != nil {
		return nil, fmt.Errorf("decode stats %s: %w", playerID, err)
	}
	return &entry, nil
}

// MergeSeasons writes the seasons produced by one pipeline run. Seasons
// not present in the update survive untouched, so a partial run never
// erases previously cached data.
func (s *StatStore) MergeSeasons(ctx context.Context, playerID string, seasons map[string]nba.MergedStatLine, projection *nba.ProjectedStatLine) error {
	update := nba.CacheEntry{
		PlayerID:    playerID,
		Seasons:     seasons,
		Projection:  projection,
		LastUpdated: time.Now().UTC(),
	}
	doc, err := toDoc(update)
	if err != nil {
		return fmt.Errorf("encode stats %s: %w", playerID, err)
	}
	return s.docs.Set(ctx, CollectionPlayerStats, playerID, doc, true)
}

func toDoc(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDoc(data map[string]interface{}, v interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
