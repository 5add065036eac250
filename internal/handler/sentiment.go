package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetSentiment godoc
// @Summary      Get the current sentiment signal set
// @Description  Returns the deduplicated, newest-first signal cache and its commit time
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /sentiment [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	signals, lastUpdated := h.sentiment.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"signals":     signals,
		"lastUpdated": lastUpdated,
	})
}

// GetSentimentHistory godoc
// @Summary      Get archived sentiment signals
// @Description  Returns archived signals newest first, up to the requested limit
// @Tags         sentiment
// @Produce      json
// @Param        limit  query     int  false  "maximum signals to return"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /sentiment/history [get]
func (h *Handler) GetSentimentHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment-history")
	defer span.End()

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	signals, err := h.history.RecentSignals(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load signal history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals})
}
