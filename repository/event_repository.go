package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"restaurant-service/models"
)

// EventRepository is the append-only store of received webhook events.
type EventRepository interface {
	// RecordIfNew inserts the event unless one with the same event id
	// exists. Returns created=false with the existing row loaded into
	// event when it was a duplicate; duplicates are not errors.
	RecordIfNew(ctx context.Context, event *models.WebhookEvent) (bool, error)
	Latest(ctx context.Context, limit int) ([]models.WebhookEvent, error)
}

// GormEventRepository implements EventRepository on Postgres.
type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

// RecordIfNew relies on the unique index on event_id as the only dedupe
// mechanism. Two concurrent deliveries of the same event race safely: one
// insert wins, the other sees zero rows affected and reads back the winner.
func (r *GormEventRepository) RecordIfNew(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		if err := r.db.WithContext(ctx).Where("event_id = ?", event.EventID).First(event).Error; err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Latest returns the most recent events by platform event time, newest
// first, for the dashboard activity feed.
func (r *GormEventRepository) Latest(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	if err := r.db.WithContext(ctx).
		Order("event_time DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
