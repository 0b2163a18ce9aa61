package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-escrow/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore is the durable ledger implementation backed by PostgreSQL.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates the database-backed ledger store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateOrder(ctx context.Context, order *model.Order, validation *model.Validation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Create(validation).Error; err != nil {
			return fmt.Errorf("failed to create validation: %w", err)
		}
		return nil
	})
}

func (s *gormStore) GetOrderState(ctx context.Context, orderID string) (*OrderState, error) {
	var state OrderState

	if err := s.db.WithContext(ctx).Where("id = ?", orderID).First(&state.Order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&state.Validation).Error; err != nil {
		return nil, fmt.Errorf("failed to get validation: %w", err)
	}

	var payment model.Payment
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error
	switch {
	case err == nil:
		state.Payment = &payment
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	var delivery model.Delivery
	err = s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&delivery).Error
	switch {
	case err == nil:
		state.Delivery = &delivery
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	return &state, nil
}

func (s *gormStore) ApplySettlement(ctx context.Context, expectedVersion int64, next *OrderState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order := next.Order
		order.Version = expectedVersion + 1

		res := tx.Model(&model.Order{}).
			Where("id = ? AND version = ?", order.ID, expectedVersion).
			Select("*").Omit("created_at").
			Updates(&order)
		if res.Error != nil {
			return fmt.Errorf("failed to update order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		next.Order.Version = order.Version

		if next.Payment != nil {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(next.Payment).Error; err != nil {
				return fmt.Errorf("failed to write payment: %w", err)
			}
		}
		if next.Delivery != nil {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(next.Delivery).Error; err != nil {
				return fmt.Errorf("failed to write delivery: %w", err)
			}
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&next.Validation).Error; err != nil {
			return fmt.Errorf("failed to write validation: %w", err)
		}
		return nil
	})
}

func (s *gormStore) AppendNotification(ctx context.Context, n *model.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

func (s *gormStore) AppendDisputeResolution(ctx context.Context, r *model.DisputeResolution) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to append dispute resolution: %w", err)
	}
	return nil
}

func (s *gormStore) ListOverdueDeliveries(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Joins("JOIN deliveries ON deliveries.order_id = orders.id").
		Where("orders.status = ? AND deliveries.delivered_at < ?", model.OrderDelivered, cutoff).
		Pluck("orders.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue deliveries: %w", err)
	}
	return ids, nil
}
