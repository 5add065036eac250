package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMarkets godoc
// @Summary      Get the current market snapshot
// @Description  Returns the last committed datum for every tracked instrument
// @Tags         markets
// @Produce      json
// @Success      200  {array}  domain.MarketData
// @Router       /markets [get]
func (h *Handler) GetMarkets(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-markets")
	defer span.End()

	markets, _ := h.markets.Snapshot()
	c.JSON(http.StatusOK, markets)
}
