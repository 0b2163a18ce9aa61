package handler

import (
	"errors"
	"net/http"

	"marketplace-escrow/internal/middleware"
	"marketplace-escrow/internal/model"
	"marketplace-escrow/internal/service"
	"marketplace-escrow/internal/settlement"
	"marketplace-escrow/internal/store"

	"github.com/gin-gonic/gin"
)

// SettlementHandler exposes the escrow engine over HTTP. Every mutating
// route maps one-to-one onto a coordinator or resolver operation; the
// handler adds nothing but request parsing, actor extraction and error
// mapping.
type SettlementHandler struct {
	coord    *settlement.Coordinator
	resolver *settlement.DisputeResolver
	query    service.OrderQueryService
}

// NewSettlementHandler creates the settlement handler.
func NewSettlementHandler(coord *settlement.Coordinator, resolver *settlement.DisputeResolver, query service.OrderQueryService) *SettlementHandler {
	return &SettlementHandler{coord: coord, resolver: resolver, query: query}
}

// CaptureRequest is the payload the payment collaborator posts once funds
// were captured at the gateway.
type CaptureRequest struct {
	Amount           int64  `json:"amount" binding:"required,min=1"`
	GatewayReference string `json:"gateway_reference" binding:"required"`
}

// AssignCourierRequest optionally names the courier; couriers accepting for
// themselves leave it empty.
type AssignCourierRequest struct {
	CourierID string `json:"courier_id"`
}

// ResolveRequest carries the administrator verdict.
type ResolveRequest struct {
	Verdict   string `json:"verdict" binding:"required"`
	Rationale string `json:"rationale"`
}

// CreateOrder handles POST /api/orders (buyer checkout).
func (h *SettlementHandler) CreateOrder(c *gin.Context) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	order, err := h.coord.CreateOrder(c.Request.Context(), user.ID, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/:id.
func (h *SettlementHandler) GetOrder(c *gin.Context) {
	view, err := h.query.GetOrderView(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// CapturePayment handles POST /api/orders/:id/capture.
func (h *SettlementHandler) CapturePayment(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	err := h.coord.CapturePayment(c.Request.Context(), c.Param("id"), req.Amount, req.GatewayReference)
	if err != nil {
		h.writeSettlementError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(model.OrderFundsHeld)})
}

// AssignCourier handles POST /api/orders/:id/courier. A courier accepts for
// themselves; an admin may assign on behalf of the assignment collaborator.
func (h *SettlementHandler) AssignCourier(c *gin.Context) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	courierID := user.ID
	if user.Role != model.RoleCourier {
		var req AssignCourierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
		courierID = req.CourierID
	}
	if courierID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courier_id is required"})
		return
	}

	if err := h.coord.AssignCourier(c.Request.Context(), c.Param("id"), courierID); err != nil {
		h.writeSettlementError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(model.OrderInDelivery)})
}

// MarkDelivered handles POST /api/orders/:id/delivered.
func (h *SettlementHandler) MarkDelivered(c *gin.Context) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	if err := h.coord.MarkDelivered(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		h.writeSettlementError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(model.OrderDelivered)})
}

// Confirm handles POST /api/orders/:id/confirm. The gate flag is chosen by
// the caller's role.
func (h *SettlementHandler) Confirm(c *gin.Context) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	err := h.coord.RecordConfirmation(c.Request.Context(), c.Param("id"), user.Role)
	if err != nil {
		if errors.Is(err, settlement.ErrAlreadyConfirmed) {
			c.JSON(http.StatusOK, gin.H{"status": "already_confirmed"})
			return
		}
		h.writeSettlementError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// OpenDispute handles POST /api/orders/:id/dispute.
func (h *SettlementHandler) OpenDispute(c *gin.Context) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	if err := h.coord.OpenDispute(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		h.writeSettlementError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(model.OrderDisputed)})
}

// Resolve handles POST /api/orders/:id/resolve (admin only, enforced by the
// authorization middleware).
func (h *SettlementHandler) Resolve(c *gin.Context) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	verdict := settlement.Verdict(req.Verdict)
	if !verdict.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verdict must be release or refund"})
		return
	}

	err := h.resolver.Resolve(c.Request.Context(), c.Param("id"), verdict, user.ID, req.Rationale)
	if err != nil {
		if errors.Is(err, settlement.ErrAlreadyResolved) {
			c.JSON(http.StatusOK, gin.H{"status": "already_resolved"})
			return
		}
		h.writeSettlementError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved", "verdict": string(verdict)})
}

// writeSettlementError maps engine errors onto HTTP statuses.
func (h *SettlementHandler) writeSettlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, settlement.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, settlement.ErrInvalidTransition),
		errors.Is(err, settlement.ErrInvalidState),
		errors.Is(err, settlement.ErrWrongCourier):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, settlement.ErrAmountMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, settlement.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Order busy, retry later"})
	case errors.Is(err, settlement.ErrUnknownRole):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Settlement operation failed"})
	}
}
