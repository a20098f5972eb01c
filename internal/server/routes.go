package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API under /api/v1
func RegisterRoutes(router *gin.Engine, s *Server) {
	api := router.Group("/api/v1")
	{
		api.GET("/graph", s.GetGraph)
		api.POST("/gestures", s.PostGesture)
		api.GET("/schema", s.GetSchema)
	}

	history := api.Group("/history")
	{
		history.POST("/undo", s.Undo)
		history.POST("/redo", s.Redo)
	}

	tables := api.Group("/tables/:id")
	{
		tables.PUT("/name", s.RenameTable)
		tables.PUT("/row-count", s.UpdateRowCount)
	}

	constraints := api.Group("/constraints")
	{
		constraints.POST("/preview", s.PreviewConstraint)
		constraints.PUT("", s.SaveConstraint)
		constraints.DELETE("/:tableId/:columnId", s.DeleteConstraint)
	}

	jobs := api.Group("/jobs")
	{
		jobs.POST("", s.SubmitJob)
		jobs.GET("/:id", s.GetJob)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
