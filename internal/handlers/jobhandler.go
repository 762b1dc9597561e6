package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobhunt-tracker/internal/dtos"
	"github.com/justsurfingit/jobhunt-tracker/internal/models"
	"github.com/justsurfingit/jobhunt-tracker/internal/services"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

type JobHandler struct {
	LLMService *services.LLMService // nil when no API key is configured
	JobService *services.JobService
}

func NewJobHandler(llm *services.LLMService, j *services.JobService) *JobHandler {
	return &JobHandler{LLMService: llm, JobService: j}
}

// ParseJob is the POST /jobs/extract endpoint.
func (h *JobHandler) ParseJob(c *gin.Context) {
	if h.LLMService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job extraction is not configured"})
		return
	}
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	extracted, err := h.LLMService.ExtractJobDetails(c.Request.Context(), req.RawHTML)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI Extraction failed: " + err.Error()})
		return
	}
	if !json.Valid([]byte(extracted)) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI Extraction returned invalid JSON"})
		return
	}

	// RawMessage keeps the model output from being re-escaped.
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    json.RawMessage(extracted),
	})
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	job, created, err := h.JobService.CreateJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to create job", err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, job)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, offset, ok := paging(c)
	if !ok {
		return
	}
	jobs, err := h.JobService.Store.ListJobs(c.Request.Context(), store.JobFilter{
		Status:  models.JobStatus(c.Query("status")),
		Source:  c.Query("source"),
		Company: c.Query("company"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		respondError(c, "Failed to list jobs", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.JobService.Store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load job", err)
		return
	}
	if job == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) UpdateStatus(c *gin.Context) {
	var req dtos.JobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := h.JobService.Store.UpdateJobStatus(ctx, id, models.JobStatus(req.Status)); err != nil {
		respondError(c, "Failed to update job", err)
		return
	}
	h.respondJob(c, id)
}

func (h *JobHandler) Approve(c *gin.Context) {
	var req dtos.ApproveJobRequest
	// An empty body is a plain approval.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c, err)
			return
		}
	}
	app, created, err := h.JobService.ApproveJob(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, "Failed to approve job", err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	c.JSON(code, app)
}

func (h *JobHandler) respondJob(c *gin.Context, id string) {
	job, err := h.JobService.Store.GetJob(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to load job", err)
		return
	}
	if job == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, job)
}
