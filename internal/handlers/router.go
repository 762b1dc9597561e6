package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Jobs         *JobHandler
	Applications *ApplicationHandler
	Resumes      *ResumeHandler
	Stats        *StatsHandler
	Emails       *EmailHandler
	Scan         *ScanHandler
}

func NewRouter(h Handlers, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true // For development only
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)

		api.GET("/jobs", h.Jobs.ListJobs)
		api.POST("/jobs", h.Jobs.CreateJob)
		api.POST("/jobs/extract", h.Jobs.ParseJob)
		api.GET("/jobs/:id", h.Jobs.GetJob)
		api.PATCH("/jobs/:id/status", h.Jobs.UpdateStatus)
		api.POST("/jobs/:id/approve", h.Jobs.Approve)

		api.GET("/applications", h.Applications.List)
		api.GET("/applications/:id", h.Applications.Get)
		api.PATCH("/applications/:id/status", h.Applications.UpdateStatus)
		api.POST("/applications/:id/submit", h.Applications.Submit)
		api.GET("/applications/:id/history", h.Applications.History)
		api.GET("/applications/:id/threads", h.Applications.Threads)

		api.GET("/resumes", h.Resumes.List)
		api.POST("/resumes", h.Resumes.Create)
		api.PUT("/resumes/:id/default", h.Resumes.SetDefault)
		api.POST("/resumes/:id/parse", h.Resumes.Reparse)
		api.DELETE("/resumes/:id", h.Resumes.Delete)

		api.GET("/stats", h.Stats.Snapshot)
		api.GET("/stats/timeline", h.Stats.Timeline)

		api.POST("/emails", h.Emails.Ingest)
		api.POST("/scan", h.Scan.Trigger)
	}
	return r
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	log = log.WithField("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("request failed")
			return
		}
		entry.Debug("request")
	}
}
