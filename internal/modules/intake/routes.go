package intake

import (
	"medleave/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the intake API on an authenticated group.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	licenses := protected.Group("/licenses")
	{
		licenses.POST("", h.Submit)
		licenses.POST("/upload", h.Upload)
		licenses.GET("/mine", h.ListMine)
		licenses.GET("/:id", h.Get)
		licenses.GET("/:id/evidence", h.Evidence)
		licenses.POST("/:id/resolve", h.Resolve)
	}

	protected.POST("/attachments/validate", h.ValidateAttachment)

	folios := protected.Group("/folios")
	{
		folios.GET("/:year/next", middleware.StaffOnly(), h.PeekFolio)
		folios.POST("/:year", middleware.AdminOnly(), h.AllocateFolio)
	}
}
