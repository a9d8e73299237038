package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"restaurant-service/kafka"
	"restaurant-service/models"
	"restaurant-service/repository"
	"restaurant-service/uber"
)

// WebhookService runs the ingestion pipeline for one delivery:
// verify -> dedupe/record -> reduce -> apply.
type WebhookService struct {
	secret     string
	events     repository.EventRepository
	orders     repository.OrderRepository
	dispatcher *Dispatcher
	producer   kafka.ProducerAPI
	logger     *zap.Logger
}

func NewWebhookService(
	secret string,
	events repository.EventRepository,
	orders repository.OrderRepository,
	dispatcher *Dispatcher,
	producer kafka.ProducerAPI,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		secret:     secret,
		events:     events,
		orders:     orders,
		dispatcher: dispatcher,
		producer:   producer,
		logger:     logger,
	}
}

// Process handles one inbound delivery. raw must be the untouched request
// body; signature is the platform's signature header. A nil return means the
// delivery is acknowledged — including duplicates and events whose
// downstream handling failed, since those are already durably recorded and
// redelivery would only repeat side effects.
func (s *WebhookService) Process(ctx context.Context, raw []byte, signature string) error {
	if err := uber.VerifySignature(raw, signature, s.secret); err != nil {
		return err
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}

	event := &models.WebhookEvent{
		EventID:    payload.EventID,
		EventType:  payload.EventType,
		EventTime:  int64(payload.EventTime),
		ResourceID: ResolveResourceID(&payload),
		Status:     payload.Meta.Status,
		ClientID:   payload.WebhookMeta.ClientID,
		RawPayload: datatypes.JSON(raw),
	}
	created, err := s.events.RecordIfNew(ctx, event)
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if !created {
		s.logger.Info("duplicate webhook delivery",
			zap.String("event_id", payload.EventID),
			zap.String("event_type", payload.EventType),
		)
		return nil
	}

	s.logger.Info("webhook event recorded",
		zap.String("event_id", payload.EventID),
		zap.String("event_type", payload.EventType),
		zap.String("resource_id", event.ResourceID),
	)

	// The event is durable from here on. Downstream failures are logged
	// and the delivery still acknowledged; redelivery would not help.
	s.apply(ctx, &payload)
	return nil
}

func (s *WebhookService) apply(ctx context.Context, payload *models.WebhookPayload) {
	action, err := Reduce(payload)
	if err != nil {
		s.logger.Warn("dropping event",
			zap.String("event_id", payload.EventID),
			zap.String("event_type", payload.EventType),
			zap.Error(err),
		)
		return
	}

	switch action.Kind {
	case ActionMaterialize:
		s.dispatcher.Enqueue(Job{OrderID: action.OrderID, EventID: payload.EventID})

	case ActionSetState:
		found, err := s.orders.UpdateState(ctx, action.OrderID, action.State)
		if err != nil {
			s.logger.Error("order state update failed",
				zap.String("event_id", payload.EventID),
				zap.String("order_id", action.OrderID),
				zap.String("state", action.State),
				zap.Error(err),
			)
			return
		}
		if !found {
			// State change arrived before the order was materialized;
			// out-of-order delivery is expected, not fatal.
			s.logger.Warn("state change for unknown order",
				zap.String("event_id", payload.EventID),
				zap.String("order_id", action.OrderID),
				zap.String("state", action.State),
			)
			return
		}
		s.logger.Info("order state updated",
			zap.String("order_id", action.OrderID),
			zap.String("state", action.State),
		)
		s.publishStateChange(action.OrderID, action.State, payload.EventID)

	case ActionNoOp:
		s.logger.Info("event ignored",
			zap.String("event_id", payload.EventID),
			zap.String("event_type", payload.EventType),
		)
	}
}

func (s *WebhookService) publishStateChange(orderID, state, eventID string) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishOrderEvent(kafka.OrderEvent{
		Type:      "order.state_changed",
		OrderID:   orderID,
		State:     state,
		EventID:   eventID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("order.state_changed publish failed", zap.String("order_id", orderID), zap.Error(err))
	}
}
