package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/internal/services"
	"github.com/jstittsworth/courtside/internal/store"
	"github.com/jstittsworth/courtside/pkg/utils"
)

type PhotoHandler struct {
	players *store.PlayerStore
	photos  *services.PhotoService
}

func NewPhotoHandler(players *store.PlayerStore, photos *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{
		players: players,
		photos:  photos,
	}
}

// FetchPlayerPhoto downloads and stores the cutout image for one player.
// The player needs a resolved TheSportsDB id first.
func (h *PhotoHandler) FetchPlayerPhoto(c *gin.Context) {
	playerID := c.Param("id")

	player, err := h.players.Get(c.Request.Context(), playerID)
	if err != nil {
		utils.SendInternalError(c, "Failed to load player")
		return
	}
	if player == nil {
		utils.SendNotFound(c, "Player not found")
		return
	}

	providerID, ok := player.ProviderIDs[nba.SourceSportsDB]
	if !ok || providerID == "" {
		utils.SendValidationError(c, "Player has no photo source identity", "resolve a sportsdb id first")
		return
	}

	url, err := h.photos.FetchAndStore(c.Request.Context(), nba.SourceSportsDB, providerID)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch player photo")
		return
	}

	utils.SendSuccess(c, gin.H{"player_id": playerID, "photo_url": url})
}

// RefreshPhotos sweeps all players and refreshes their stored photos.
func (h *PhotoHandler) RefreshPhotos(c *gin.Context) {
	stored, err := h.photos.RefreshAll(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Photo refresh failed")
		return
	}

	utils.SendSuccess(c, gin.H{"stored": stored})
}
