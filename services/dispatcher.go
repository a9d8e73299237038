package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"restaurant-service/kafka"
	"restaurant-service/uber"
)

// Job is one deferred fetch-and-materialize task for a newly announced
// order. The webhook response never waits for it.
type Job struct {
	OrderID string
	EventID string
}

// Dispatcher runs fetch+materialize work after the webhook has been
// acknowledged. Failures are logged with the triggering event id; the event
// row stays in the store, so a failed job can be replayed manually from the
// recorded raw payload.
type Dispatcher struct {
	jobs         chan Job
	gateway      uber.Gateway
	materializer *Materializer
	producer     kafka.ProducerAPI
	timeout      time.Duration
	logger       *zap.Logger
}

func NewDispatcher(gateway uber.Gateway, materializer *Materializer, producer kafka.ProducerAPI, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		jobs:         make(chan Job, 256),
		gateway:      gateway,
		materializer: materializer,
		producer:     producer,
		timeout:      30 * time.Second,
		logger:       logger,
	}
}

// Start consumes jobs until Stop closes the queue. Run it in its own
// goroutine from main.
func (d *Dispatcher) Start() {
	for job := range d.jobs {
		d.process(job)
	}
}

func (d *Dispatcher) Stop() {
	close(d.jobs)
}

// Enqueue never blocks the caller. A full queue drops the job with an error
// log; the recorded event is the replay path.
func (d *Dispatcher) Enqueue(job Job) bool {
	select {
	case d.jobs <- job:
		return true
	default:
		d.logger.Error("dispatch queue full, dropping job",
			zap.String("event_id", job.EventID),
			zap.String("order_id", job.OrderID),
		)
		return false
	}
}

func (d *Dispatcher) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	payload, err := d.gateway.FetchOrder(ctx, job.OrderID)
	if err != nil {
		d.logger.Error("order fetch failed",
			zap.String("event_id", job.EventID),
			zap.String("order_id", job.OrderID),
			zap.Error(err),
		)
		return
	}

	order, err := d.materializer.Materialize(ctx, payload, job.EventID)
	if err != nil {
		d.logger.Error("order materialization failed",
			zap.String("event_id", job.EventID),
			zap.String("order_id", job.OrderID),
			zap.Error(err),
		)
		return
	}

	if d.producer != nil {
		if err := d.producer.PublishOrderEvent(kafka.OrderEvent{
			Type:      "order.synced",
			OrderID:   order.ID,
			State:     order.CurrentState,
			EventID:   job.EventID,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			d.logger.Warn("order.synced publish failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
}
