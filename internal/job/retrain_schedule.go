package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type RetrainEnqueuer interface {
	Enqueue(ticker string) bool
}

// RetrainSchedule queues a retrain of every configured ticker once a day at
// the given UTC hour.
type RetrainSchedule struct {
	tracer    trace.Tracer
	queue     RetrainEnqueuer
	tickers   []string
	trainHour int
}

func NewRetrainSchedule(tracer trace.Tracer, queue RetrainEnqueuer, tickers []string, trainHourUTC int) *RetrainSchedule {
	if trainHourUTC < 0 || trainHourUTC > 23 {
		trainHourUTC = 0
	}
	return &RetrainSchedule{tracer: tracer, queue: queue, tickers: tickers, trainHour: trainHourUTC}
}

func (j *RetrainSchedule) Start(ctx context.Context) {
	if j.queue == nil || len(j.tickers) == 0 {
		log.Println("Scheduled retrain disabled: no tickers")
		<-ctx.Done()
		return
	}
	for {
		next := nextRunUTC(time.Now().UTC(), j.trainHour)
		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RetrainSchedule) runOnce(ctx context.Context) int {
	_, span := j.tracer.Start(ctx, "retrain-schedule.run-once")
	defer span.End()

	queued := 0
	for _, ticker := range j.tickers {
		if j.queue.Enqueue(ticker) {
			queued++
		}
	}
	log.Printf("scheduled retrain queued=%d of %d tickers", queued, len(j.tickers))
	return queued
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
