package handler

import (
	"errors"
	"net/http"
	"strings"

	"credtech/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetScore godoc
// @Summary      Score a company
// @Description  Returns the stability score, fundamental score and per-feature explanation with company context
// @Tags         scoring
// @Produce      json
// @Param        ticker  path  string  true  "Stock ticker (e.g., AAPL)"
// @Success      200  {object}  domain.ScoreReport
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/score/{ticker} [get]
func (h *Handler) GetScore(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-score")
	defer span.End()

	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	span.SetAttributes(attribute.String("ticker", ticker))

	if h.scores == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scoring service unavailable"})
		return
	}

	report, err := h.scores.Report(ctx, ticker)
	if err != nil {
		writeError(c, ticker, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// FetchAll godoc
// @Summary      Raw inputs for a company
// @Description  Returns the market data, macro context and news gathered for a ticker, without scoring
// @Tags         scoring
// @Produce      json
// @Param        ticker  path  string  true  "Stock ticker (e.g., AAPL)"
// @Success      200  {object}  domain.RawInputs
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/fetch-all/{ticker} [get]
func (h *Handler) FetchAll(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.fetch-all")
	defer span.End()

	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	span.SetAttributes(attribute.String("ticker", ticker))

	if h.scores == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scoring service unavailable"})
		return
	}

	raw, err := h.scores.FetchAll(ctx, ticker)
	if err != nil {
		writeError(c, ticker, err)
		return
	}
	c.JSON(http.StatusOK, raw)
}

// Retrain godoc
// @Summary      Queue a model retrain
// @Description  Queues a background retrain of the ticker's model on freshly fetched data
// @Tags         scoring
// @Produce      json
// @Param        ticker  path  string  true  "Stock ticker (e.g., AAPL)"
// @Success      202  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/v1/retrain/{ticker} [post]
func (h *Handler) Retrain(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.retrain")
	defer span.End()

	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	span.SetAttributes(attribute.String("ticker", ticker))

	if h.scores == nil || !h.scores.RequestRetrain(ticker) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "retrain queue unavailable or full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "ticker": ticker})
}

func writeError(c *gin.Context, ticker string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrTickerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamFetch):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrFeaturesMissing):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error(), "ticker": ticker})
}
