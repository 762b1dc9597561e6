package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/services"
)

// EmailHandler accepts forwarded emails for setups without Gmail access.
type EmailHandler struct {
	Emails *services.EmailService
}

func NewEmailHandler(e *services.EmailService) *EmailHandler {
	return &EmailHandler{Emails: e}
}

func (h *EmailHandler) Ingest(c *gin.Context) {
	var email models.InboundEmail
	if err := c.ShouldBindJSON(&email); err != nil {
		badJSON(c, err)
		return
	}
	res, err := h.Emails.ProcessEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, "Failed to process email", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
