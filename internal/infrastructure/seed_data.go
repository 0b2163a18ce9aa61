package infrastructure

import (
	"context"
	"fmt"
	"log"

	"marketplace-escrow/internal/model"
	"marketplace-escrow/internal/service"

	"gorm.io/gorm"
)

// SeedDataManager handles development data initialization
type SeedDataManager struct {
	db             *gorm.DB
	userService    service.UserService
	productService service.ProductService
}

// NewSeedDataManager creates a new seed data manager
func NewSeedDataManager(db *gorm.DB, userService service.UserService, productService service.ProductService) *SeedDataManager {
	return &SeedDataManager{
		db:             db,
		userService:    userService,
		productService: productService,
	}
}

// SeedAll initializes all sample data
func (s *SeedDataManager) SeedAll() error {
	if err := s.setupSampleUsers(); err != nil {
		return fmt.Errorf("failed to setup sample users: %w", err)
	}
	if err := s.setupSampleProducts(); err != nil {
		return fmt.Errorf("failed to setup sample products: %w", err)
	}
	return nil
}

// setupSampleUsers seeds one account per settlement role
func (s *SeedDataManager) setupSampleUsers() error {
	ctx := context.Background()

	users, err := s.userService.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(users) > 0 {
		log.Println("Sample users already exist, skipping creation")
		return nil
	}

	sampleUsers := []service.CreateUserRequest{
		{
			Username:    "acme-buyer",
			Password:    "password123",
			Role:        model.RoleBuyer,
			CompanyName: "Acme Retail SARL",
		},
		{
			Username:    "globex-seller",
			Password:    "password123",
			Role:        model.RoleSeller,
			CompanyName: "Globex Wholesale SA",
		},
		{
			Username:    "swift-courier",
			Password:    "password123",
			Role:        model.RoleCourier,
			CompanyName: "Swift Logistics",
		},
		{
			Username: "admin",
			Password: "password123",
			Role:     model.RoleAdmin,
		},
		{
			Username: "gateway",
			Password: "password123",
			Role:     model.RoleGateway,
		},
	}

	for _, req := range sampleUsers {
		if _, err := s.userService.CreateUser(ctx, &req); err != nil {
			return fmt.Errorf("failed to create user %s: %w", req.Username, err)
		}
	}
	log.Printf("Seeded %d sample users", len(sampleUsers))
	return nil
}

// setupSampleProducts seeds a small wholesale catalog
func (s *SeedDataManager) setupSampleProducts() error {
	ctx := context.Background()

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		log.Println("Sample products already exist, skipping creation")
		return nil
	}

	seller, err := s.userService.GetUserByUsername(ctx, "globex-seller")
	if err != nil {
		return fmt.Errorf("failed to load sample seller: %w", err)
	}

	sampleProducts := []model.ProductRequest{
		{
			Name:        "Industrial fastener pallet",
			Description: "Mixed M6-M12 fasteners, 500kg pallet",
			UnitPrice:   185000,
		},
		{
			Name:        "Commercial refrigeration unit",
			Description: "Dual-compressor unit for food retail",
			UnitPrice:   1290000,
		},
		{
			Name:        "Packaging film roll lot",
			Description: "Lot of 40 stretch film rolls",
			UnitPrice:   64000,
		},
	}

	for _, req := range sampleProducts {
		if _, err := s.productService.CreateProduct(ctx, seller.ID, &req); err != nil {
			return fmt.Errorf("failed to create product %s: %w", req.Name, err)
		}
	}
	log.Printf("Seeded %d sample products", len(sampleProducts))
	return nil
}
