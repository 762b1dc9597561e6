package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobhunt-tracker/internal/dtos"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/services"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

type ApplicationHandler struct {
	Store      *store.Store
	JobService *services.JobService
}

func NewApplicationHandler(st *store.Store, j *services.JobService) *ApplicationHandler {
	return &ApplicationHandler{Store: st, JobService: j}
}

func (h *ApplicationHandler) List(c *gin.Context) {
	limit, offset, ok := paging(c)
	if !ok {
		return
	}
	apps, err := h.Store.ListApplications(c.Request.Context(), store.ApplicationFilter{
		Status: models.ApplicationStatus(c.Query("status")),
		JobID:  c.Query("job_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, "Failed to list applications", err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	h.respond(c, c.Param("id"))
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dtos.ApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	id := c.Param("id")
	err := h.Store.UpdateApplicationStatus(c.Request.Context(), id, models.ApplicationStatus(req.Status), req.Notes)
	if err != nil {
		respondError(c, "Failed to update application", err)
		return
	}
	h.respond(c, id)
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c, err)
			return
		}
	}
	app, err := h.JobService.SubmitApplication(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		respondError(c, "Failed to submit application", err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) History(c *gin.Context) {
	if !h.exists(c) {
		return
	}
	history, err := h.Store.ApplicationHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load history", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *ApplicationHandler) Threads(c *gin.Context) {
	if !h.exists(c) {
		return
	}
	threads, err := h.Store.ListEmailThreads(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load threads", err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

func (h *ApplicationHandler) exists(c *gin.Context) bool {
	app, err := h.Store.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load application", err)
		return false
	}
	if app == nil {
		notFound(c)
		return false
	}
	return true
}

func (h *ApplicationHandler) respond(c *gin.Context, id string) {
	app, err := h.Store.GetApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to load application", err)
		return
	}
	if app == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, app)
}
