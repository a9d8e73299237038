package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"restaurant-service/models"
)

// OrderGraph is the set of writes the materializer performs inside a single
// transaction. Every method is an upsert or a wholesale replace so a retried
// materialization converges on the same rows instead of duplicating them.
type OrderGraph interface {
	UpsertStore(ctx context.Context, s *models.Store) error
	UpsertEater(ctx context.Context, e *models.Eater) error
	UpsertPayment(ctx context.Context, p *models.Payment) error
	UpsertPackaging(ctx context.Context, p *models.Packaging) error
	UpsertMenuItem(ctx context.Context, m *models.MenuItem) error
	ReplaceCart(ctx context.Context, cart *models.Cart, items []models.CartItem) error
	UpsertOrder(ctx context.Context, o *models.Order) error
}

// OrderRepository is the order-side persistence surface. Transact runs fn
// against an OrderGraph bound to one database transaction; fn returning an
// error rolls everything back.
type OrderRepository interface {
	Transact(ctx context.Context, fn func(g OrderGraph) error) error
	// UpdateState writes a new current state. found=false means the order
	// row does not exist yet (state-change delivered before creation),
	// which callers treat as reportable, not fatal.
	UpdateState(ctx context.Context, orderID, state string) (bool, error)
	FindByState(ctx context.Context, state string) ([]models.Order, error)
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
}

// GormOrderRepository implements OrderRepository on Postgres.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Transact(ctx context.Context, fn func(g OrderGraph) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormOrderGraph{db: tx})
	})
}

func (r *GormOrderRepository) UpdateState(ctx context.Context, orderID, state string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("current_state", state)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormOrderRepository) FindByState(ctx context.Context, state string) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if state != "" {
		query = query.Where("current_state = ?", state)
	}
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// gormOrderGraph performs graph writes on one transaction handle.
type gormOrderGraph struct {
	db *gorm.DB
}

func (g *gormOrderGraph) UpsertStore(ctx context.Context, s *models.Store) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error
}

func (g *gormOrderGraph) UpsertEater(ctx context.Context, e *models.Eater) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(e).Error
}

func (g *gormOrderGraph) UpsertPayment(ctx context.Context, p *models.Payment) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}

func (g *gormOrderGraph) UpsertPackaging(ctx context.Context, p *models.Packaging) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}

func (g *gormOrderGraph) UpsertMenuItem(ctx context.Context, m *models.MenuItem) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(m).Error
}

// ReplaceCart upserts the cart row and recreates its line items. Deleting
// before inserting keeps a reprocessed order from accumulating stale lines.
func (g *gormOrderGraph) ReplaceCart(ctx context.Context, cart *models.Cart, items []models.CartItem) error {
	db := g.db.WithContext(ctx)
	if err := db.Omit("Items").Clauses(clause.OnConflict{UpdateAll: true}).Create(cart).Error; err != nil {
		return err
	}
	if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

func (g *gormOrderGraph) UpsertOrder(ctx context.Context, o *models.Order) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(o).Error
}
