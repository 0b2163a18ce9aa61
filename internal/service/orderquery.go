package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"marketplace-escrow/internal/model"
	"marketplace-escrow/internal/store"

	"github.com/redis/go-redis/v9"
)

// OrderView is the assembled read model served to display surfaces. It is
// never written through; all mutations go through the settlement coordinator.
type OrderView struct {
	Order      model.Order      `json:"order"`
	Payment    *model.Payment   `json:"payment,omitempty"`
	Delivery   *model.Delivery  `json:"delivery,omitempty"`
	Validation model.Validation `json:"validation"`
}

// OrderQueryService serves read-only order views.
type OrderQueryService interface {
	GetOrderView(ctx context.Context, orderID string) (*OrderView, error)
	Invalidate(ctx context.Context, orderID string)
}

// orderQueryImpl caches assembled views in Redis with a TTL. The cache is
// non-authoritative: the coordinator invalidates the key after every
// committed transition, and cache errors fall through to the ledger store.
type orderQueryImpl struct {
	store store.Store
	rdb   *redis.Client
	ttl   time.Duration
}

// NewOrderQueryService creates the read service. rdb may be nil to disable
// caching.
func NewOrderQueryService(st store.Store, rdb *redis.Client, ttl time.Duration) OrderQueryService {
	return &orderQueryImpl{store: st, rdb: rdb, ttl: ttl}
}

func viewKey(orderID string) string {
	return fmt.Sprintf("order:view:%s", orderID)
}

func (s *orderQueryImpl) GetOrderView(ctx context.Context, orderID string) (*OrderView, error) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, viewKey(orderID)).Result()
		if err == nil {
			var view OrderView
			if err := json.Unmarshal([]byte(val), &view); err == nil {
				return &view, nil
			}
			// Corrupt entry: fall through to the store and rewrite below.
		} else if err != redis.Nil {
			log.Printf("orderquery: cache read failed for order %s: %v", orderID, err)
		}
	}

	st, err := s.store.GetOrderState(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view := &OrderView{
		Order:      st.Order,
		Payment:    st.Payment,
		Delivery:   st.Delivery,
		Validation: st.Validation,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(view); err == nil {
			if err := s.rdb.Set(ctx, viewKey(orderID), data, s.ttl).Err(); err != nil {
				log.Printf("orderquery: cache write failed for order %s: %v", orderID, err)
			}
		}
	}
	return view, nil
}

func (s *orderQueryImpl) Invalidate(ctx context.Context, orderID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, viewKey(orderID)).Err(); err != nil {
		log.Printf("orderquery: cache invalidation failed for order %s: %v", orderID, err)
	}
}
