package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobhunt-tracker/internal/services"
)

type ScanHandler struct {
	Scan *services.ScanService
}

func NewScanHandler(s *services.ScanService) *ScanHandler {
	return &ScanHandler{Scan: s}
}

// Trigger runs one pass over every source and reports per-source counts.
func (h *ScanHandler) Trigger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": h.Scan.ScanAll(c.Request.Context())})
}
