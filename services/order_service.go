package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"restaurant-service/kafka"
	"restaurant-service/models"
	"restaurant-service/repository"
	"restaurant-service/uber"
)

// ServiceError maps a failure to the HTTP status the controller should
// return.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// OrderService backs the dashboard: order listing, detail passthrough, and
// staff-initiated state transitions.
type OrderService struct {
	orders   repository.OrderRepository
	events   repository.EventRepository
	gateway  uber.Gateway
	producer kafka.ProducerAPI
	logger   *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	events repository.EventRepository,
	gateway uber.Gateway,
	producer kafka.ProducerAPI,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		events:   events,
		gateway:  gateway,
		producer: producer,
		logger:   logger,
	}
}

// Transition applies a staff-initiated state change. ACCEPTED, REJECTED and
// READY call the platform first and write locally only after it succeeded;
// an optimistic local write would desync us from the system of record.
// PREPARING is local-only (the platform defines no call for it).
func (s *OrderService) Transition(ctx context.Context, orderID, newState string) *ServiceError {
	var upstream func(context.Context, string) error
	switch newState {
	case StateAccepted:
		upstream = s.gateway.AcceptOrder
	case StateRejected:
		upstream = s.gateway.DenyOrder
	case StateReady:
		upstream = s.gateway.MarkReady
	case StatePreparing:
		// no upstream call defined for this transition
	default:
		return &ServiceError{StatusCode: http.StatusBadRequest, Message: "unsupported state: " + newState}
	}

	if upstream != nil {
		if err := upstream(ctx, orderID); err != nil {
			s.logger.Error("platform call failed",
				zap.String("order_id", orderID),
				zap.String("state", newState),
				zap.Error(err),
			)
			var apiErr *uber.APIError
			if errors.As(err, &apiErr) {
				return &ServiceError{
					StatusCode: http.StatusBadGateway,
					Message:    fmt.Sprintf("platform rejected %s: %d %s", newState, apiErr.StatusCode, apiErr.Body),
				}
			}
			return &ServiceError{StatusCode: http.StatusBadGateway, Message: "platform call failed"}
		}
	}

	found, err := s.orders.UpdateState(ctx, orderID, newState)
	if err != nil {
		s.logger.Error("local state update failed", zap.String("order_id", orderID), zap.Error(err))
		return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to update order"}
	}
	if !found {
		return &ServiceError{StatusCode: http.StatusNotFound, Message: "order not found"}
	}

	s.logger.Info("order transitioned",
		zap.String("order_id", orderID),
		zap.String("state", newState),
	)
	if s.producer != nil {
		if err := s.producer.PublishOrderEvent(kafka.OrderEvent{
			Type:      "order.state_changed",
			OrderID:   orderID,
			State:     newState,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			s.logger.Warn("order.state_changed publish failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

// LocalOrders lists mirrored orders, optionally filtered by current state.
func (s *OrderService) LocalOrders(ctx context.Context, state string) ([]models.Order, *ServiceError) {
	orders, err := s.orders.FindByState(ctx, state)
	if err != nil {
		s.logger.Error("local order listing failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to fetch orders"}
	}
	return orders, nil
}

// LatestEvents returns the newest received webhook events for the dashboard
// activity feed.
func (s *OrderService) LatestEvents(ctx context.Context, limit int) ([]models.WebhookEvent, *ServiceError) {
	events, err := s.events.Latest(ctx, limit)
	if err != nil {
		s.logger.Error("event listing failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to fetch events"}
	}
	return events, nil
}

// PlatformOrder proxies the platform's order detail endpoint.
func (s *OrderService) PlatformOrder(ctx context.Context, orderID string) (*models.OrderPayload, *ServiceError) {
	payload, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, s.gatewayError("order fetch", err)
	}
	return payload, nil
}

// PlatformOrders proxies one page of a store's order listing.
func (s *OrderService) PlatformOrders(ctx context.Context, storeID, pageSize, pageToken string) (*uber.OrderPage, *ServiceError) {
	page, err := s.gateway.ListOrders(ctx, storeID, pageSize, pageToken)
	if err != nil {
		return nil, s.gatewayError("order listing", err)
	}
	return page, nil
}

// PlatformStores proxies the platform's store list.
func (s *OrderService) PlatformStores(ctx context.Context) (json.RawMessage, *ServiceError) {
	stores, err := s.gateway.ListStores(ctx)
	if err != nil {
		return nil, s.gatewayError("store listing", err)
	}
	return stores, nil
}

func (s *OrderService) gatewayError(op string, err error) *ServiceError {
	s.logger.Error("platform "+op+" failed", zap.Error(err))
	var apiErr *uber.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("platform %s failed: %d %s", op, apiErr.StatusCode, apiErr.Body),
		}
	}
	return &ServiceError{StatusCode: http.StatusBadGateway, Message: "platform " + op + " failed"}
}
