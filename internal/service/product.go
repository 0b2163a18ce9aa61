package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-escrow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductService is the thin catalog surface. It is read/write for sellers
// but has no part in settlement.
type ProductService interface {
	CreateProduct(ctx context.Context, sellerID string, req *model.ProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
}

type productServiceImpl struct {
	db *gorm.DB
}

// NewProductService creates the catalog service.
func NewProductService(db *gorm.DB) ProductService {
	return &productServiceImpl{db: db}
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, sellerID string, req *model.ProductRequest) (*model.Product, error) {
	now := time.Now()
	product := &model.Product{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (s *productServiceImpl) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}
