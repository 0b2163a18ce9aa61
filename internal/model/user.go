package model

import "github.com/golang-jwt/jwt/v5"

// Role identifies which side of a settlement an actor acts for.
type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleSeller  Role = "seller"
	RoleCourier Role = "courier"
	RoleAdmin   Role = "admin"
	RoleGateway Role = "gateway" // payment capture collaborator
)

// User represents a marketplace account. Buyers and sellers are companies,
// couriers and admins are operational accounts.
type User struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Username    string `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password    string `json:"password,omitempty" gorm:"type:varchar(255);not null"`
	Role        Role   `json:"role" gorm:"type:varchar(16);not null"`
	CompanyName string `json:"company_name" gorm:"type:varchar(200)"`
}

// JWTClaims carries the authenticated actor through the API layer.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
