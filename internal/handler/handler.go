package handler

import (
	"context"

	"credtech/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

// ScoreReporter is the service surface the HTTP API needs.
type ScoreReporter interface {
	Report(ctx context.Context, ticker string) (*domain.ScoreReport, error)
	FetchAll(ctx context.Context, ticker string) (*domain.RawInputs, error)
	RequestRetrain(ticker string) bool
}

type Handler struct {
	tracer trace.Tracer
	scores ScoreReporter
	apiKey string
}

func New(tracer trace.Tracer, scores ScoreReporter, apiKey string) *Handler {
	return &Handler{
		tracer: tracer,
		scores: scores,
		apiKey: apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/score/:ticker", h.GetScore)
	api.GET("/fetch-all/:ticker", h.FetchAll)
	api.POST("/retrain/:ticker", APIKeyAuth(h.apiKey), h.Retrain)
}
