package handler

import (
	"net/http"

	"marketplace-escrow/internal/auth"
	"marketplace-escrow/internal/model"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves login.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
