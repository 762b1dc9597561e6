package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobhunt-tracker/internal/dtos"
	"github.com/justsurfingit/jobhunt-tracker/internal/services"
)

type ResumeHandler struct {
	Resumes *services.ResumeService
}

func NewResumeHandler(r *services.ResumeService) *ResumeHandler {
	return &ResumeHandler{Resumes: r}
}

func (h *ResumeHandler) List(c *gin.Context) {
	limit, offset, ok := paging(c)
	if !ok {
		return
	}
	resumes, err := h.Resumes.Store.ListResumes(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, "Failed to list resumes", err)
		return
	}
	c.JSON(http.StatusOK, resumes)
}

func (h *ResumeHandler) Create(c *gin.Context) {
	var req dtos.ResumeCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	resume, err := h.Resumes.Upload(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to create resume", err)
		return
	}
	c.JSON(http.StatusCreated, resume)
}

func (h *ResumeHandler) SetDefault(c *gin.Context) {
	ctx := c.Request.Context()
	ok, err := h.Resumes.Store.SetDefaultResume(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "Failed to set default resume", err)
		return
	}
	if !ok {
		notFound(c)
		return
	}
	resume, err := h.Resumes.Store.GetResume(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "Failed to load resume", err)
		return
	}
	c.JSON(http.StatusOK, resume)
}

func (h *ResumeHandler) Reparse(c *gin.Context) {
	resume, err := h.Resumes.Reparse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to parse resume", err)
		return
	}
	c.JSON(http.StatusOK, resume)
}

func (h *ResumeHandler) Delete(c *gin.Context) {
	ok, err := h.Resumes.Store.DeleteResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to delete resume", err)
		return
	}
	if !ok {
		notFound(c)
		return
	}
	c.Status(http.StatusNoContent)
}
