package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/courtside/internal/api/handlers"
	"github.com/jstittsworth/courtside/internal/services"
	"github.com/jstittsworth/courtside/internal/store"
)

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(
	group *gin.RouterGroup,
	players *store.PlayerStore,
	pipeline *services.PipelineService,
	resolver *services.ResolverService,
	photos *services.PhotoService,
	events *services.EventService,
	refresher *services.RefreshService,
) {
	playerHandler := handlers.NewPlayerHandler(players, resolver, events)
	statsHandler := handlers.NewStatsHandler(pipeline, refresher)
	photoHandler := handlers.NewPhotoHandler(players, photos)

	// Player records and identities
	group.GET("/players", playerHandler.ListPlayers)
	group.POST("/players", playerHandler.CreatePlayer)
	group.GET("/players/:id", playerHandler.GetPlayer)
	group.POST("/players/:id/identities", playerHandler.AddIdentity)
	group.POST("/identities/sync", playerHandler.SyncIdentities)

	// Aggregated statistics
	group.GET("/players/:id/stats", statsHandler.GetPlayerStats)
	group.POST("/players/:id/stats/refresh", statsHandler.RefreshPlayerStats)
	group.POST("/stats/refresh", statsHandler.RefreshAllStats)

	// Photo assets
	group.POST("/players/:id/photo", photoHandler.FetchPlayerPhoto)
	group.POST("/photos/refresh", photoHandler.RefreshPhotos)
}
