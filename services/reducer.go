package services

import (
	"errors"
	"strings"

	"restaurant-service/models"
)

// Event types the platform currently sends. The set is open; unknown types
// reduce to no-ops.
const (
	EventOrderNotification    = "orders.notification"
	EventOrderCancel          = "orders.cancel"
	EventOrderRelease         = "orders.release"
	EventDeliveryStateChanged = "delivery.state_changed"
)

// Order states written by this system. The platform may report others;
// Order.CurrentState is an open string set.
const (
	StateAccepted  = "ACCEPTED"
	StateRejected  = "REJECTED"
	StatePreparing = "PREPARING"
	StateReady     = "READY"
	StateCanceled  = "CANCELED"
)

var ErrUnresolvableResource = errors.New("webhook event carries no resolvable resource id")

// ActionKind says what a reduced event asks the pipeline to do.
type ActionKind int

const (
	ActionNoOp ActionKind = iota
	ActionMaterialize
	ActionSetState
)

// Action is the local reaction to one platform event.
type Action struct {
	Kind    ActionKind
	OrderID string
	State   string
}

// ResolveResourceID picks the order/delivery id an event concerns. The
// platform puts it in different places depending on event source; first
// non-empty wins. The resource_href parse is best-effort only, since the
// platform does not guarantee URL structure.
func ResolveResourceID(p *models.WebhookPayload) string {
	if p.Meta.ResourceID != "" {
		return p.Meta.ResourceID
	}
	if p.Meta.OrderID != "" {
		return p.Meta.OrderID
	}
	if p.ResourceHref != "" {
		href := strings.TrimRight(p.ResourceHref, "/")
		if i := strings.LastIndex(href, "/"); i >= 0 && i+1 < len(href) {
			return href[i+1:]
		}
	}
	return ""
}

// Reduce maps an event to its local action. Pure function; persistence and
// side effects belong to the caller.
//
//	orders.notification    -> materialize the full order
//	delivery.state_changed -> set state to meta.status (blank status: no-op)
//	orders.release         -> set state READY
//	orders.cancel          -> set state CANCELED
//	anything else          -> no-op
func Reduce(p *models.WebhookPayload) (Action, error) {
	switch p.EventType {
	case EventOrderNotification:
		id := ResolveResourceID(p)
		if id == "" {
			return Action{Kind: ActionNoOp}, ErrUnresolvableResource
		}
		return Action{Kind: ActionMaterialize, OrderID: id}, nil

	case EventDeliveryStateChanged:
		if strings.TrimSpace(p.Meta.Status) == "" {
			return Action{Kind: ActionNoOp}, nil
		}
		id := ResolveResourceID(p)
		if id == "" {
			return Action{Kind: ActionNoOp}, ErrUnresolvableResource
		}
		return Action{Kind: ActionSetState, OrderID: id, State: p.Meta.Status}, nil

	case EventOrderRelease:
		id := ResolveResourceID(p)
		if id == "" {
			return Action{Kind: ActionNoOp}, ErrUnresolvableResource
		}
		return Action{Kind: ActionSetState, OrderID: id, State: StateReady}, nil

	case EventOrderCancel:
		id := ResolveResourceID(p)
		if id == "" {
			return Action{Kind: ActionNoOp}, ErrUnresolvableResource
		}
		return Action{Kind: ActionSetState, OrderID: id, State: StateCanceled}, nil

	default:
		return Action{Kind: ActionNoOp}, nil
	}
}
