package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/nba"
)

// PipelineAction is one follow-up step triggered by a player lifecycle
// event.
type PipelineAction string

const (
	ActionResolveIdentities PipelineAction = "resolve_identities"
	ActionFetchStats        PipelineAction = "fetch_stats"
	ActionFetchPhoto        PipelineAction = "fetch_photo"
)

// OnPlayerCreated decides which pipeline actions a freshly created player
// record needs. Pure: the decision depends only on the record.
func OnPlayerCreated(player nba.Player) []PipelineAction {
	var actions []PipelineAction

	if player.DisplayName != "" {
		actions = append(actions, ActionResolveIdentities)
	}
	if player.DisplayName != "" || len(player.ProviderIDs) > 0 {
		actions = append(actions, ActionFetchStats)
	}
	if id, ok := player.ProviderIDs[nba.SourceSportsDB]; ok && id != "" {
		if _, has := player.PhotoRefs[nba.SourceSportsDB]; !has {
			actions = append(actions, ActionFetchPhoto)
		}
	}

	return actions
}

// EventService executes lifecycle actions. Failures are logged per action;
// one action failing never blocks the rest.
type EventService struct {
	pipeline *PipelineService
	photos   *PhotoService
	logger   *logrus.Logger
}

func NewEventService(pipeline *PipelineService, photos *PhotoService, logger *logrus.Logger) *EventService {
	return &EventService{pipeline: pipeline, photos: photos, logger: logger}
}

// HandlePlayerCreated runs the warm-up actions for a new player. Identity
// resolution and the stats fetch are one pipeline pass; the photo fetch
// runs after, once a sportsdb id may have been resolved.
func (s *EventService) HandlePlayerCreated(ctx context.Context, player nba.Player) {
	actions := OnPlayerCreated(player)
	if len(actions) == 0 {
		s.logger.Debugf("player %s created with nothing to warm up", player.PlayerID)
		return
	}

	wantStats := false
	wantPhoto := false
	for _, action := range actions {
		switch action {
		case ActionResolveIdentities, ActionFetchStats:
			wantStats = true
		case ActionFetchPhoto:
			wantPhoto = true
		}
	}

	if wantStats {
		if _, err := s.pipeline.GetPlayerStats(ctx, StatsRequest{
			PlayerID:    player.PlayerID,
			DisplayName: player.DisplayName,
			ProviderIDs: player.ProviderIDs,
			Force:       true,
		}); err != nil {
			s.logger.Warnf("stats warm-up for new player %s failed: %v", player.PlayerID, err)
		}
	}

	// Resolution during the stats pass may have produced a sportsdb id
	// that the original record lacked.
	if !wantPhoto {
		if fresh, err := s.pipeline.players.Get(ctx, player.PlayerID); err == nil && fresh != nil {
			if id, ok := fresh.ProviderIDs[nba.SourceSportsDB]; ok && id != "" {
				player.ProviderIDs = fresh.ProviderIDs
				wantPhoto = true
			}
		}
	}

	if wantPhoto {
		providerID := player.ProviderIDs[nba.SourceSportsDB]
		if _, err := s.photos.FetchAndStore(ctx, nba.SourceSportsDB, providerID); err != nil {
			s.logger.Warnf("photo warm-up for new player %s failed: %v", player.PlayerID, err)
		}
	}
}
