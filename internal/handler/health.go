package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns the health status of the scoring service
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	status := gin.H{"status": "healthy"}
	if h.scores == nil {
		status["scoring"] = "unavailable"
	}
	c.JSON(http.StatusOK, status)
}
