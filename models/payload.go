package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EpochMillis is a platform timestamp in epoch milliseconds. The platform
// sends it as a JSON number or a numeric string depending on the event
// source, so it needs its own decoder.
type EpochMillis int64

func (m *EpochMillis) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("event_time %q: %w", s, err)
	}
	*m = EpochMillis(v)
	return nil
}

// WebhookPayload is the envelope of an inbound platform notification.
type WebhookPayload struct {
	EventID      string      `json:"event_id"`
	EventType    string      `json:"event_type"`
	EventTime    EpochMillis `json:"event_time"`
	ResourceHref string      `json:"resource_href"`
	Meta         WebhookMeta `json:"meta"`
	WebhookMeta  struct {
		ClientID string `json:"client_id"`
	} `json:"webhook_meta"`
}

type WebhookMeta struct {
	ResourceID string `json:"resource_id"`
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	UserID     string `json:"user_id"`
}

// Money is the platform's minor-unit currency representation. Amount never
// passes through floating point.
type Money struct {
	Amount          int64  `json:"amount"`
	CurrencyCode    string `json:"currency_code"`
	FormattedAmount string `json:"formatted_amount"`
}

// OrderPayload is the full order document returned by the platform's order
// read endpoint. Nested objects are pointers so a missing section is
// distinguishable from an empty one.
type OrderPayload struct {
	ID                        string          `json:"id"`
	DisplayID                 string          `json:"display_id"`
	CurrentState              string          `json:"current_state"`
	Type                      string          `json:"type"`
	Brand                     string          `json:"brand"`
	PlacedAt                  string          `json:"placed_at"`
	EstimatedReadyForPickupAt string          `json:"estimated_ready_for_pickup_at"`
	Store                     *StorePayload   `json:"store"`
	Eater                     *EaterPayload   `json:"eater"`
	Cart                      *CartPayload    `json:"cart"`
	Payment                   *PaymentPayload `json:"payment"`
	Packaging                 json.RawMessage `json:"packaging,omitempty"`
}

type StorePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type EaterPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type CartPayload struct {
	Items               []CartItemPayload `json:"items"`
	SpecialInstructions string            `json:"special_instructions"`
	FulfillmentIssues   json.RawMessage   `json:"fulfillment_issues,omitempty"`
}

type CartItemPayload struct {
	ID                     string          `json:"id"`
	InstanceID             string          `json:"instance_id"`
	Title                  string          `json:"title"`
	Quantity               int             `json:"quantity"`
	Price                  *ItemPrice      `json:"price"`
	SelectedModifierGroups json.RawMessage `json:"selected_modifier_groups,omitempty"`
	SpecialInstructions    string          `json:"special_instructions"`
}

type ItemPrice struct {
	UnitPrice     Money `json:"unit_price"`
	BaseUnitPrice Money `json:"base_unit_price"`
	TotalPrice    Money `json:"total_price"`
}

type PaymentPayload struct {
	Charges *ChargesPayload `json:"charges"`
}

// ChargesPayload decodes the totals it understands and keeps the original
// bytes so the full accounting detail survives as an opaque blob.
type ChargesPayload struct {
	Total    Money `json:"total"`
	SubTotal Money `json:"sub_total"`

	raw json.RawMessage
}

func (c *ChargesPayload) UnmarshalJSON(b []byte) error {
	type alias ChargesPayload
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = ChargesPayload(a)
	c.raw = append(json.RawMessage(nil), b...)
	return nil
}

// Raw returns the charges object exactly as the platform sent it.
func (c *ChargesPayload) Raw() json.RawMessage { return c.raw }
