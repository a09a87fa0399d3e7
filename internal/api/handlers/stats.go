package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/courtside/internal/nba"
	"github.com/jstittsworth/courtside/internal/services"
	"github.com/jstittsworth/courtside/pkg/utils"
)

type StatsHandler struct {
	pipeline  *services.PipelineService
	refresher *services.RefreshService
}

func NewStatsHandler(pipeline *services.PipelineService, refresher *services.RefreshService) *StatsHandler {
	return &StatsHandler{
		pipeline:  pipeline,
		refresher: refresher,
	}
}

// GetPlayerStats serves aggregated season averages and the projection for
// one player. Pass force=true to bypass the freshness window, and
// source_id=<source>:<id> to supply a provider identity for this request.
func (h *StatsHandler) GetPlayerStats(c *gin.Context) {
	playerID := c.Param("id")

	providerIDs, err := parseSourceIDs(c.QueryArray("source_id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid source_id", err.Error())
		return
	}

	resp, err := h.pipeline.GetPlayerStats(c.Request.Context(), services.StatsRequest{
		PlayerID:    playerID,
		DisplayName: c.Query("name"),
		ProviderIDs: providerIDs,
		Force:       c.Query("force") == "true",
	})
	if err != nil {
		h.sendPipelineError(c, resp, err)
		return
	}

	utils.SendSuccess(c, resp)
}

// RefreshPlayerStats forces a pipeline pass for one player.
func (h *StatsHandler) RefreshPlayerStats(c *gin.Context) {
	playerID := c.Param("id")

	resp, err := h.pipeline.GetPlayerStats(c.Request.Context(), services.StatsRequest{
		PlayerID: playerID,
		Force:    true,
	})
	if err != nil {
		h.sendPipelineError(c, resp, err)
		return
	}

	utils.SendSuccess(c, resp)
}

// RefreshAllStats forces a pipeline pass for every known player.
func (h *StatsHandler) RefreshAllStats(c *gin.Context) {
	refreshed, err := h.refresher.RefreshAllStats(c.Request.Context())
	if err != nil {
		utils.SendInternalError(c, "Failed to refresh stats")
		return
	}

	utils.SendSuccess(c, gin.H{"refreshed": refreshed})
}

func parseSourceIDs(raw []string) (map[nba.Source]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	ids := make(map[nba.Source]string, len(raw))
	for _, pair := range raw {
		source, id, ok := strings.Cut(pair, ":")
		if !ok || id == "" {
			return nil, errors.New("expected <source>:<id>, got " + pair)
		}
		if !nba.ValidSource(source) {
			return nil, errors.New("unknown source " + source)
		}
		ids[nba.Source(source)] = id
	}
	return ids, nil
}

func (h *StatsHandler) sendPipelineError(c *gin.Context, resp *services.StatsResponse, err error) {
	var writeErr *services.StoreWriteError
	switch {
	case errors.Is(err, services.ErrMissingPlayerID):
		utils.SendValidationError(c, "Invalid player ID", err.Error())
	case errors.As(err, &writeErr):
		// Aggregation succeeded; only the cache write failed. The caller
		// still gets the computed stats.
		utils.SendErrorWithData(c, http.StatusInternalServerError,
			utils.NewAppError(utils.ErrCodeStoreWrite, "Stats computed but could not be cached", writeErr.Err.Error()),
			resp)
	default:
		utils.SendInternalError(c, "Failed to aggregate player stats")
	}
}
