package controller

import (
	"ctchen222/tateti/internal/api/models"
	"ctchen222/tateti/internal/api/response"
	"ctchen222/tateti/internal/api/service"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlayerController serves a player's game history.
type PlayerController struct {
	resultService service.ResultService
}

// NewPlayerController creates a new PlayerController.
func NewPlayerController(resultService service.ResultService) *PlayerController {
	return &PlayerController{resultService: resultService}
}

// Stats handles GET /api/players/:id/stats.
func (pc *PlayerController) Stats(c *gin.Context) {
	playerID := c.Param("id")

	stats, err := pc.resultService.Stats(c.Request.Context(), playerID)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to load player stats", "player.id", playerID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to load stats")
		return
	}

	response.SuccessResponse(c, stats)
}

// Games handles GET /api/players/:id/games?limit=n.
func (pc *PlayerController) Games(c *gin.Context) {
	playerID := c.Param("id")

	var query models.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindErrorResponse(c, err)
		return
	}

	games, err := pc.resultService.History(c.Request.Context(), playerID, query.Limit)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to load player games", "player.id", playerID, "error", err)
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to load games")
		return
	}

	response.SuccessResponse(c, gin.H{"games": games})
}
