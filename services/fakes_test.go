package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"restaurant-service/kafka"
	"restaurant-service/models"
	"restaurant-service/repository"
	"restaurant-service/uber"
)

// memGraph is an in-memory repository.OrderGraph. fakeOrderRepo hands the
// materializer a staged clone of it so a failed transaction discards all
// writes, mirroring the database rollback.
type memGraph struct {
	stores     map[string]models.Store
	eaters     map[string]models.Eater
	payments   map[string]models.Payment
	packagings map[string]models.Packaging
	menuItems  map[string]models.MenuItem
	carts      map[string]models.Cart
	cartItems  map[string][]models.CartItem
	orders     map[string]models.Order
}

func newMemGraph() *memGraph {
	return &memGraph{
		stores:     map[string]models.Store{},
		eaters:     map[string]models.Eater{},
		payments:   map[string]models.Payment{},
		packagings: map[string]models.Packaging{},
		menuItems:  map[string]models.MenuItem{},
		carts:      map[string]models.Cart{},
		cartItems:  map[string][]models.CartItem{},
		orders:     map[string]models.Order{},
	}
}

func (g *memGraph) clone() *memGraph {
	c := newMemGraph()
	for k, v := range g.stores {
		c.stores[k] = v
	}
	for k, v := range g.eaters {
		c.eaters[k] = v
	}
	for k, v := range g.payments {
		c.payments[k] = v
	}
	for k, v := range g.packagings {
		c.packagings[k] = v
	}
	for k, v := range g.menuItems {
		c.menuItems[k] = v
	}
	for k, v := range g.carts {
		c.carts[k] = v
	}
	for k, v := range g.cartItems {
		c.cartItems[k] = append([]models.CartItem(nil), v...)
	}
	for k, v := range g.orders {
		c.orders[k] = v
	}
	return c
}

func (g *memGraph) rowCount() int {
	return len(g.stores) + len(g.eaters) + len(g.payments) + len(g.packagings) +
		len(g.menuItems) + len(g.carts) + len(g.orders) + g.itemCount()
}

func (g *memGraph) itemCount() int {
	n := 0
	for _, items := range g.cartItems {
		n += len(items)
	}
	return n
}

func (g *memGraph) UpsertStore(_ context.Context, s *models.Store) error {
	g.stores[s.ID] = *s
	return nil
}

func (g *memGraph) UpsertEater(_ context.Context, e *models.Eater) error {
	g.eaters[e.ID] = *e
	return nil
}

func (g *memGraph) UpsertPayment(_ context.Context, p *models.Payment) error {
	g.payments[p.ID] = *p
	return nil
}

func (g *memGraph) UpsertPackaging(_ context.Context, p *models.Packaging) error {
	g.packagings[p.ID] = *p
	return nil
}

func (g *memGraph) UpsertMenuItem(_ context.Context, m *models.MenuItem) error {
	g.menuItems[m.ID] = *m
	return nil
}

func (g *memGraph) ReplaceCart(_ context.Context, cart *models.Cart, items []models.CartItem) error {
	g.carts[cart.ID] = *cart
	g.cartItems[cart.ID] = append([]models.CartItem(nil), items...)
	return nil
}

func (g *memGraph) UpsertOrder(_ context.Context, o *models.Order) error {
	g.orders[o.ID] = *o
	return nil
}

// fakeOrderRepo implements repository.OrderRepository in memory with
// transactional staging.
type fakeOrderRepo struct {
	mu    sync.Mutex
	state *memGraph
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{state: newMemGraph()}
}

func (f *fakeOrderRepo) Transact(_ context.Context, fn func(g repository.OrderGraph) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	staged := f.state.clone()
	if err := fn(staged); err != nil {
		return err
	}
	f.state = staged
	return nil
}

func (f *fakeOrderRepo) UpdateState(_ context.Context, orderID, state string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.state.orders[orderID]
	if !ok {
		return false, nil
	}
	o.CurrentState = state
	f.state.orders[orderID] = o
	return true, nil
}

func (f *fakeOrderRepo) FindByState(_ context.Context, state string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []models.Order
	for _, o := range f.state.orders {
		if state == "" || o.CurrentState == state {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.state.orders[orderID]; ok {
		return &o, nil
	}
	return nil, nil
}

func orderWith(id, state string) models.Order {
	return models.Order{ID: id, CurrentState: state}
}

// fakeEventRepo implements repository.EventRepository in memory. The map
// keyed by event id plays the role of the unique index.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]models.WebhookEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]models.WebhookEvent{}}
}

func (f *fakeEventRepo) RecordIfNew(_ context.Context, event *models.WebhookEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.events[event.EventID]; ok {
		*event = existing
		return false, nil
	}
	event.ID = uint(len(f.events) + 1)
	f.events[event.EventID] = *event
	return true, nil
}

func (f *fakeEventRepo) Latest(_ context.Context, limit int) ([]models.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []models.WebhookEvent
	for _, e := range f.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventTime > events[j].EventTime })
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// fakeGateway implements uber.Gateway, recording calls.
type fakeGateway struct {
	payload  *models.OrderPayload
	fetchErr error

	acceptErr error
	denyErr   error
	readyErr  error

	fetched  []string
	accepted []string
	denied   []string
	readied  []string
}

func (f *fakeGateway) FetchOrder(_ context.Context, id string) (*models.OrderPayload, error) {
	f.fetched = append(f.fetched, id)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.payload, nil
}

func (f *fakeGateway) AcceptOrder(_ context.Context, id string) error {
	f.accepted = append(f.accepted, id)
	return f.acceptErr
}

func (f *fakeGateway) DenyOrder(_ context.Context, id string) error {
	f.denied = append(f.denied, id)
	return f.denyErr
}

func (f *fakeGateway) MarkReady(_ context.Context, id string) error {
	f.readied = append(f.readied, id)
	return f.readyErr
}

func (f *fakeGateway) ListOrders(_ context.Context, storeID, pageSize, pageToken string) (*uber.OrderPage, error) {
	return &uber.OrderPage{}, nil
}

func (f *fakeGateway) ListStores(_ context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{"stores":[]}`), nil
}

// fakeProducer implements kafka.ProducerAPI, capturing published events.
type fakeProducer struct {
	mu        sync.Mutex
	published []kafka.OrderEvent
}

func (f *fakeProducer) PublishOrderEvent(evt kafka.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, evt)
	return nil
}

func (f *fakeProducer) Close() error { return nil }
