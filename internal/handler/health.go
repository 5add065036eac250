package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Returns service status and the last market commit time
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	_, marketsUpdatedAt := h.markets.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"time":             time.Now().UTC().Format(time.RFC3339),
		"marketsUpdatedAt": marketsUpdatedAt,
	})
}
