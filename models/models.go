package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent is the immutable record of one notification received from the
// delivery platform. EventID is the dedupe anchor: the unique index on it is
// what makes redelivered and concurrently-delivered events safe. Rows are
// never updated or deleted; they double as the audit/replay trail.
type WebhookEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	EventID    string         `gorm:"uniqueIndex;not null" json:"event_id"`
	EventType  string         `gorm:"type:varchar(64);not null;index" json:"event_type"`
	EventTime  int64          `gorm:"not null" json:"event_time"`
	ResourceID string         `gorm:"index" json:"resource_id"`
	Status     string         `json:"status"`
	ClientID   string         `json:"client_id"`
	RawPayload datatypes.JSON `json:"raw_payload"`
	ReceivedAt time.Time      `gorm:"autoCreateTime" json:"webhook_received_at"`
}

// Order mirrors an order owned by the platform. ID is the platform's order
// id, never generated locally; the row is a cache of upstream state, not the
// source of truth. CurrentState is an open string set since the platform may
// introduce new values.
type Order struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	DisplayID    string    `json:"display_id"`
	CurrentState string    `gorm:"type:varchar(32);index" json:"current_state"`
	Type         string    `json:"type"`
	Brand        string    `json:"brand"`
	PlacedAt     time.Time `json:"placed_at"`
	LastEventID  string    `json:"last_event_id"`
	StoreID      string    `gorm:"index" json:"store_id"`
	EaterID      string    `json:"eater_id"`
	CartID       string    `json:"cart_id"`
	PaymentID    string    `json:"payment_id"`
	PackagingID  *string   `json:"packaging_id,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Store is a restaurant location, upserted by the platform's store id.
type Store struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

// Eater is a customer. The platform gives no stable customer id, so the key
// is derived from the phone number (digits only) and the same person across
// orders collapses to one row when phones match. Phone-less orders get an
// order-scoped synthetic key instead.
type Eater struct {
	ID        string `gorm:"primaryKey" json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Payment holds the platform-reported totals for one order. Amounts are
// integer minor units with an explicit currency code; they are copied from
// the payload verbatim and never recomputed. ChargesBlob keeps the full
// charges object for reconciliation.
type Payment struct {
	ID               string         `gorm:"primaryKey" json:"id"`
	TotalAmount      int64          `gorm:"not null" json:"total_amount"`
	TotalCurrency    string         `gorm:"type:varchar(3);not null" json:"total_currency"`
	SubtotalAmount   int64          `json:"subtotal_amount"`
	SubtotalCurrency string         `gorm:"type:varchar(3)" json:"subtotal_currency"`
	ChargesBlob      datatypes.JSON `json:"charges_blob"`
}

// Packaging is an optional per-order preference record; created only when
// the payload carries packaging data.
type Packaging struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	Preference datatypes.JSON `json:"preference"`
}

// Cart is one-per-order, keyed by the order id so a retried materialization
// upserts instead of stacking duplicates. Its items are replaced wholesale
// within the materializer's transaction.
type Cart struct {
	ID                  string         `gorm:"primaryKey" json:"id"`
	SpecialInstructions string         `json:"special_instructions"`
	FulfillmentIssues   datatypes.JSON `json:"fulfillment_issues"`
	Items               []CartItem     `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

// MenuItem is the deduplicated catalog entry for a dish, keyed by the
// platform's item id. Title may be refreshed on each observation.
type MenuItem struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Title string `json:"title"`
	Brand string `json:"brand"`
}

// CartItem is one line of an order's cart. Its id is scoped to the order so
// the same dish in two orders never collides. The four monetary fields are
// the platform's reported values, untouched.
type CartItem struct {
	ID                  string         `gorm:"primaryKey" json:"id"`
	CartID              string         `gorm:"index;not null" json:"cart_id"`
	MenuItemID          string         `gorm:"index;not null" json:"menu_item_id"`
	Title               string         `json:"title"`
	Quantity            int            `json:"quantity"`
	UnitAmount          int64          `json:"unit_amount"`
	BaseUnitAmount      int64          `json:"base_unit_amount"`
	TotalAmount         int64          `json:"total_amount"`
	Currency            string         `gorm:"type:varchar(3)" json:"currency"`
	Modifiers           datatypes.JSON `json:"modifiers,omitempty"`
	SpecialInstructions string         `json:"special_instructions"`
}
