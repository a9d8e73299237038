package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"restaurant-service/models"
	"restaurant-service/repository"
)

// MalformedPayloadError means a required nested field was absent from a
// fetched order payload. Materialization aborts and rolls back; nothing is
// partially committed.
type MalformedPayloadError struct {
	Field string
}

func (e *MalformedPayloadError) Error() string {
	return "order payload missing required field: " + e.Field
}

// Materializer expands a fetched order payload into the normalized local
// graph (store, eater, payment, packaging, cart, cart items, menu items,
// order) inside one transaction.
type Materializer struct {
	repo   repository.OrderRepository
	logger *zap.Logger
}

func NewMaterializer(repo repository.OrderRepository, logger *zap.Logger) *Materializer {
	return &Materializer{repo: repo, logger: logger}
}

// EaterKey derives a stable customer key. The platform supplies no
// cross-order customer id, so normalized phone digits are the best available
// identity; 11-digit numbers lose their leading country "1" so "+1 555..."
// and "555..." collapse. Orders without a phone get an order-scoped
// synthetic key that can never collide with a real phone.
func EaterKey(phone, orderID string) string {
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return "eater_" + orderID
	}
	return string(digits)
}

func validatePayload(p *models.OrderPayload) error {
	switch {
	case p == nil || p.ID == "":
		return &MalformedPayloadError{Field: "id"}
	case p.Store == nil || p.Store.ID == "":
		return &MalformedPayloadError{Field: "store"}
	case p.Eater == nil:
		return &MalformedPayloadError{Field: "eater"}
	case p.Payment == nil || p.Payment.Charges == nil:
		return &MalformedPayloadError{Field: "payment.charges"}
	case p.Cart == nil:
		return &MalformedPayloadError{Field: "cart"}
	}
	return nil
}

func jsonOrNil(raw []byte) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

// Materialize runs steps 1-7 of order denormalization as one atomic unit.
// Re-running it for the same order converges: everything keyed off the order
// id is upserted and cart lines are replaced, so a retried fetch+materialize
// after a transient failure leaves no duplicates.
func (m *Materializer) Materialize(ctx context.Context, payload *models.OrderPayload, eventID string) (*models.Order, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	var order *models.Order
	err := m.repo.Transact(ctx, func(g repository.OrderGraph) error {
		if err := g.UpsertStore(ctx, &models.Store{
			ID:   payload.Store.ID,
			Name: payload.Store.Name,
		}); err != nil {
			return err
		}

		eaterID := EaterKey(payload.Eater.Phone, payload.ID)
		if err := g.UpsertEater(ctx, &models.Eater{
			ID:        eaterID,
			FirstName: payload.Eater.FirstName,
			LastName:  payload.Eater.LastName,
			Phone:     payload.Eater.Phone,
		}); err != nil {
			return err
		}

		charges := payload.Payment.Charges
		paymentID := "pay_" + payload.ID
		if err := g.UpsertPayment(ctx, &models.Payment{
			ID:               paymentID,
			TotalAmount:      charges.Total.Amount,
			TotalCurrency:    charges.Total.CurrencyCode,
			SubtotalAmount:   charges.SubTotal.Amount,
			SubtotalCurrency: charges.SubTotal.CurrencyCode,
			ChargesBlob:      jsonOrNil(charges.Raw()),
		}); err != nil {
			return err
		}

		var packagingID *string
		if pref := jsonOrNil(payload.Packaging); pref != nil {
			id := "pkg_" + payload.ID
			if err := g.UpsertPackaging(ctx, &models.Packaging{ID: id, Preference: pref}); err != nil {
				return err
			}
			packagingID = &id
		}

		cart := &models.Cart{
			ID:                  "cart_" + payload.ID,
			SpecialInstructions: payload.Cart.SpecialInstructions,
			FulfillmentIssues:   jsonOrNil(payload.Cart.FulfillmentIssues),
		}
		items := make([]models.CartItem, 0, len(payload.Cart.Items))
		for _, it := range payload.Cart.Items {
			if it.Price == nil {
				return &MalformedPayloadError{Field: "cart.items[].price"}
			}
			itemID := it.ID
			if itemID == "" {
				itemID = uuid.NewString()
			}
			if err := g.UpsertMenuItem(ctx, &models.MenuItem{
				ID:    itemID,
				Title: it.Title,
				Brand: payload.Brand,
			}); err != nil {
				return err
			}
			items = append(items, models.CartItem{
				ID:                  itemID + "_" + payload.ID,
				CartID:              cart.ID,
				MenuItemID:          itemID,
				Title:               it.Title,
				Quantity:            it.Quantity,
				UnitAmount:          it.Price.UnitPrice.Amount,
				BaseUnitAmount:      it.Price.BaseUnitPrice.Amount,
				TotalAmount:         it.Price.TotalPrice.Amount,
				Currency:            it.Price.TotalPrice.CurrencyCode,
				Modifiers:           jsonOrNil(it.SelectedModifierGroups),
				SpecialInstructions: it.SpecialInstructions,
			})
		}
		if err := g.ReplaceCart(ctx, cart, items); err != nil {
			return err
		}

		placedAt, _ := time.Parse(time.RFC3339, payload.PlacedAt)
		order = &models.Order{
			ID:           payload.ID,
			DisplayID:    payload.DisplayID,
			CurrentState: payload.CurrentState,
			Type:         payload.Type,
			Brand:        payload.Brand,
			PlacedAt:     placedAt,
			LastEventID:  eventID,
			StoreID:      payload.Store.ID,
			EaterID:      eaterID,
			CartID:       cart.ID,
			PaymentID:    paymentID,
			PackagingID:  packagingID,
		}
		return g.UpsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("order materialized",
		zap.String("order_id", order.ID),
		zap.String("state", order.CurrentState),
		zap.String("event_id", eventID),
		zap.Int("items", len(payload.Cart.Items)),
	)
	return order, nil
}
