package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"restaurant-service/models"
)

func sampleOrderPayload(orderID string) *models.OrderPayload {
	charges := &models.ChargesPayload{}
	if err := json.Unmarshal([]byte(`{
		"total": {"amount": 2500, "currency_code": "USD", "formatted_amount": "$25.00"},
		"sub_total": {"amount": 2100, "currency_code": "USD", "formatted_amount": "$21.00"},
		"tax": {"amount": 400, "currency_code": "USD"}
	}`), charges); err != nil {
		panic(err)
	}

	return &models.OrderPayload{
		ID:           orderID,
		DisplayID:    "A1B2C",
		CurrentState: "CREATED",
		Type:         "PICKUP",
		Brand:        "UBER_EATS",
		PlacedAt:     "2024-05-01T12:00:00Z",
		Store:        &models.StorePayload{ID: "store-1", Name: "Testaurant"},
		Eater:        &models.EaterPayload{FirstName: "Ada", LastName: "L", Phone: "+1 (555) 010-2030"},
		Payment:      &models.PaymentPayload{Charges: charges},
		Cart: &models.CartPayload{
			SpecialInstructions: "no onions",
			Items: []models.CartItemPayload{
				{
					ID:       "item-1",
					Title:    "Burger",
					Quantity: 2,
					Price: &models.ItemPrice{
						UnitPrice:     models.Money{Amount: 1050, CurrencyCode: "USD"},
						BaseUnitPrice: models.Money{Amount: 1000, CurrencyCode: "USD"},
						TotalPrice:    models.Money{Amount: 2100, CurrencyCode: "USD"},
					},
				},
			},
		},
	}
}

func TestMaterialize_FullGraph(t *testing.T) {
	repo := newFakeOrderRepo()
	m := NewMaterializer(repo, zap.NewNop())

	order, err := m.Materialize(context.Background(), sampleOrderPayload("order-9"), "evt-1")
	require.NoError(t, err)

	assert.Equal(t, "order-9", order.ID)
	assert.Equal(t, "CREATED", order.CurrentState)
	assert.Equal(t, "evt-1", order.LastEventID)
	assert.Nil(t, order.PackagingID)

	state := repo.state
	assert.Contains(t, state.stores, "store-1")
	assert.Contains(t, state.payments, "pay_order-9")
	assert.Contains(t, state.carts, "cart_order-9")
	assert.Contains(t, state.menuItems, "item-1")
	assert.Contains(t, state.orders, "order-9")
	assert.Empty(t, state.packagings)

	items := state.cartItems["cart_order-9"]
	require.Len(t, items, 1)
	assert.Equal(t, "item-1_order-9", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestMaterialize_MoneyIsExactMinorUnits(t *testing.T) {
	repo := newFakeOrderRepo()
	m := NewMaterializer(repo, zap.NewNop())

	_, err := m.Materialize(context.Background(), sampleOrderPayload("order-9"), "evt-1")
	require.NoError(t, err)

	item := repo.state.cartItems["cart_order-9"][0]
	assert.Equal(t, int64(1050), item.UnitAmount)
	assert.Equal(t, int64(1000), item.BaseUnitAmount)
	assert.Equal(t, int64(2100), item.TotalAmount)
	assert.Equal(t, "USD", item.Currency)

	payment := repo.state.payments["pay_order-9"]
	assert.Equal(t, int64(2500), payment.TotalAmount)
	assert.Equal(t, "USD", payment.TotalCurrency)
	assert.Equal(t, int64(2100), payment.SubtotalAmount)
	// full charges object preserved verbatim for reconciliation
	assert.Contains(t, string(payment.ChargesBlob), `"tax"`)
}

func TestMaterialize_AtomicOnMalformedItem(t *testing.T) {
	repo := newFakeOrderRepo()
	m := NewMaterializer(repo, zap.NewNop())

	payload := sampleOrderPayload("order-9")
	payload.Cart.Items = append(payload.Cart.Items,
		models.CartItemPayload{ID: "item-2", Title: "Fries", Quantity: 1}, // no price
		models.CartItemPayload{
			ID: "item-3", Title: "Shake", Quantity: 1,
			Price: &models.ItemPrice{TotalPrice: models.Money{Amount: 500, CurrencyCode: "USD"}},
		},
	)

	_, err := m.Materialize(context.Background(), payload, "evt-1")

	var malformed *MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "cart.items[].price", malformed.Field)
	assert.Zero(t, repo.state.rowCount(), "a failed materialization must commit nothing")
}

func TestMaterialize_MissingRequiredSections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.OrderPayload)
		wantField string
	}{
		{"no store", func(p *models.OrderPayload) { p.Store = nil }, "store"},
		{"no eater", func(p *models.OrderPayload) { p.Eater = nil }, "eater"},
		{"no charges", func(p *models.OrderPayload) { p.Payment.Charges = nil }, "payment.charges"},
		{"no cart", func(p *models.OrderPayload) { p.Cart = nil }, "cart"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeOrderRepo()
			m := NewMaterializer(repo, zap.NewNop())

			payload := sampleOrderPayload("order-9")
			tt.mutate(payload)

			_, err := m.Materialize(context.Background(), payload, "evt-1")
			var malformed *MalformedPayloadError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.wantField, malformed.Field)
			assert.Zero(t, repo.state.rowCount())
		})
	}
}

func TestMaterialize_RerunConverges(t *testing.T) {
	repo := newFakeOrderRepo()
	m := NewMaterializer(repo, zap.NewNop())

	_, err := m.Materialize(context.Background(), sampleOrderPayload("order-9"), "evt-1")
	require.NoError(t, err)
	_, err = m.Materialize(context.Background(), sampleOrderPayload("order-9"), "evt-1-redelivered")
	require.NoError(t, err)

	assert.Len(t, repo.state.carts, 1)
	assert.Len(t, repo.state.orders, 1)
	assert.Len(t, repo.state.cartItems["cart_order-9"], 1)
	assert.Equal(t, "evt-1-redelivered", repo.state.orders["order-9"].LastEventID)
}

func TestMaterialize_PackagingOnlyWhenPresent(t *testing.T) {
	repo := newFakeOrderRepo()
	m := NewMaterializer(repo, zap.NewNop())

	payload := sampleOrderPayload("order-9")
	payload.Packaging = json.RawMessage(`{"disposable_items":{"should_include":true}}`)

	order, err := m.Materialize(context.Background(), payload, "evt-1")
	require.NoError(t, err)
	require.NotNil(t, order.PackagingID)
	assert.Equal(t, "pkg_order-9", *order.PackagingID)
	assert.Contains(t, repo.state.packagings, "pkg_order-9")
}

func TestEaterKey(t *testing.T) {
	tests := []struct {
		phone, orderID, want string
	}{
		{"+1 (555) 010-2030", "order-9", "5550102030"},
		{"555-010-2030", "order-9", "5550102030"},
		{"", "order-9", "eater_order-9"},
		{"+44 20 7946 0958", "order-9", "442079460958"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EaterKey(tt.phone, tt.orderID))
	}
}

func TestEaterKey_SamePhoneCollapses(t *testing.T) {
	repo := newFakeOrderRepo()
	m := NewMaterializer(repo, zap.NewNop())

	first := sampleOrderPayload("order-1")
	second := sampleOrderPayload("order-2")

	_, err := m.Materialize(context.Background(), first, "evt-1")
	require.NoError(t, err)
	_, err = m.Materialize(context.Background(), second, "evt-2")
	require.NoError(t, err)

	assert.Len(t, repo.state.eaters, 1)
	assert.Len(t, repo.state.orders, 2)
}
