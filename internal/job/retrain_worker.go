package job

import (
	"context"
	"log"
	"strings"
	"sync"

	"credtech/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RetrainFunc retrains the model for a single ticker.
type RetrainFunc func(ctx context.Context, ticker string) error

// RetrainWorker drains a bounded queue of retrain requests on one goroutine.
// Enqueue never blocks; requests arriving while the queue is full are dropped.
type RetrainWorker struct {
	tracer  trace.Tracer
	retrain RetrainFunc
	queue   chan string

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewRetrainWorker(tracer trace.Tracer, retrain RetrainFunc, size int) *RetrainWorker {
	if size <= 0 {
		size = 16
	}
	return &RetrainWorker{
		tracer:  tracer,
		retrain: retrain,
		queue:   make(chan string, size),
		pending: make(map[string]struct{}),
	}
}

// Enqueue schedules a retrain. A ticker already waiting in the queue is
// accepted without being queued twice.
func (w *RetrainWorker) Enqueue(ticker string) bool {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[ticker]; ok {
		return true
	}
	select {
	case w.queue <- ticker:
		w.pending[ticker] = struct{}{}
		return true
	default:
		metrics.RetrainDropped.Inc()
		log.Printf("retrain queue full, dropping request for %s", ticker)
		return false
	}
}

// Start processes queued retrains until ctx is cancelled.
func (w *RetrainWorker) Start(ctx context.Context) {
	if w.retrain == nil {
		log.Println("Retrain worker disabled: no retrain func")
		<-ctx.Done()
		return
	}
	log.Println("Retrain worker starting...")
	for {
		select {
		case <-ctx.Done():
			log.Println("Retrain worker stopped")
			return
		case ticker := <-w.queue:
			w.mu.Lock()
			delete(w.pending, ticker)
			w.mu.Unlock()
			w.runOnce(ctx, ticker)
		}
	}
}

func (w *RetrainWorker) runOnce(ctx context.Context, ticker string) {
	ctx, span := w.tracer.Start(ctx, "retrain-worker.run-once")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	if err := w.retrain(ctx, ticker); err != nil {
		log.Printf("background retrain for %s failed: %v", ticker, err)
		return
	}
	log.Printf("background retrain for %s complete", ticker)
}
