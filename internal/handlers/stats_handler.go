package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobhunt-tracker/internal/services"
)

type StatsHandler struct {
	Stats *services.StatsService
}

func NewStatsHandler(s *services.StatsService) *StatsHandler {
	return &StatsHandler{Stats: s}
}

func (h *StatsHandler) Snapshot(c *gin.Context) {
	snap, err := h.Stats.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to compute stats", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *StatsHandler) Timeline(c *gin.Context) {
	days, ok := intQuery(c, "days", services.DefaultTimelineDays)
	if !ok {
		return
	}
	entries, err := h.Stats.Timeline(c.Request.Context(), days)
	if err != nil {
		respondError(c, "Failed to compute timeline", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
