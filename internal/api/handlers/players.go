package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/internal/services"
	"github.com/jstittsworth/courtside/internal/store"
	"github.com/jstittsworth/courtside/pkg/utils"
)

type PlayerHandler struct {
	players  *store.PlayerStore
	resolver *services.ResolverService
	events   *services.EventService
}

func NewPlayerHandler(players *store.PlayerStore, resolver *services.ResolverService, events *services.EventService) *PlayerHandler {
	return &PlayerHandler{
		players:  players,
		resolver: resolver,
		events:   events,
	}
}

type createPlayerRequest struct {
	PlayerID    string            `json:"player_id"`
	DisplayName string            `json:"display_name" binding:"required"`
	ProviderIDs map[string]string `json:"provider_ids"`
}

type addIdentityRequest struct {
	Source     string `json:"source" binding:"required"`
	ProviderID string `json:"provider_id" binding:"required"`
}

type syncIdentitiesRequest struct {
	Source string `json:"source" binding:"required"`
}

// CreatePlayer registers a player record and kicks off the warm-up
// pipeline in the background.
func (h *PlayerHandler) CreatePlayer(c *gin.Context) {
	var req createPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid player payload", err.Error())
		return
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = uuid.New().String()
	}

	providerIDs := make(map[nba.Source]string, len(req.ProviderIDs))
	for source, id := range req.ProviderIDs {
		if !nba.ValidSource(source) {
			utils.SendValidationError(c, "Unknown source", source)
			return
		}
		providerIDs[nba.Source(source)] = id
	}

	player := nba.Player{
		PlayerID:    playerID,
		DisplayName: req.DisplayName,
		ProviderIDs: providerIDs,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.players.Save(c.Request.Context(), &player); err != nil {
		utils.SendInternalError(c, "Failed to create player")
		return
	}

	// Warm-up runs detached from the request; the record is already
	// durable by the time we respond.
	go h.events.HandlePlayerCreated(context.Background(), player)

	utils.SendSuccess(c, player)
}

// GetPlayer returns one player record.
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	player, err := h.players.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SendInternalError(c, "Failed to load player")
		return
	}
	if player == nil {
		utils.SendNotFound(c, "Player not found")
		return
	}
	utils.SendSuccess(c, player)
}

// ListPlayers returns every known player.
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	players, err := h.players.All(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to list players")
		return
	}
	utils.SendSuccess(c, players)
}

// AddIdentity records a manually supplied provider id for one player.
func (h *PlayerHandler) AddIdentity(c *gin.Context) {
	playerID := c.Param("id")

	var req addIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid identity payload", err.Error())
		return
	}
	if !nba.ValidSource(req.Source) {
		utils.SendValidationError(c, "Unknown source", req.Source)
		return
	}

	player, err := h.players.Get(c.Request.Context(), playerID)
	if err != nil {
		utils.SendInternalError(c, "Failed to load player")
		return
	}
	if player == nil {
		utils.SendNotFound(c, "Player not found")
		return
	}

	if err := h.players.SetProviderID(c.Request.Context(), playerID, nba.Source(req.Source), req.ProviderID); err != nil {
		utils.SendInternalError(c, "Failed to record identity")
		return
	}

	utils.SendSuccess(c, gin.H{
		"player_id":   playerID,
		"source":      req.Source,
		"provider_id": req.ProviderID,
	})
}

// SyncIdentities bulk-resolves provider ids for every player missing one
// for the given source.
func (h *PlayerHandler) SyncIdentities(c *gin.Context) {
	var req syncIdentitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid sync payload", err.Error())
		return
	}
	if !nba.ValidSource(req.Source) {
		utils.SendValidationError(c, "Unknown source", req.Source)
		return
	}

	matched, err := h.resolver.SyncProviderIDs(c.Request.Context(), nba.Source(req.Source))
	if err != nil {
		utils.SendInternalError(c, "Identity sync failed")
		return
	}

	utils.SendSuccess(c, gin.H{"source": req.Source, "matched": matched})
}
