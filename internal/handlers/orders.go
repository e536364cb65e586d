package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "stagepass/internal/errors"
	"stagepass/internal/middleware"
	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// Orders handlers

// CreatePurchase - POST /api/orders
// Покупка билетов: валидация, атомарное списание остатка, запись заказа
func (h *Handlers) CreatePurchase(c *gin.Context) {
	var req models.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Orders.Purchase(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthenticatedBuyer) {
			// Not an error from the buyer's point of view: send them to the
			// login flow with the event as the return destination.
			c.JSON(http.StatusUnauthorized, models.LoginRedirectResponse{
				Error:    "Login required to complete the purchase",
				LoginURL: h.loginURL,
				ReturnTo: fmt.Sprintf("/events/%d", req.EventID),
			})
			return
		}
		respondError(c, err, "Failed to complete purchase")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListOrders - GET /api/orders
// Билеты текущего пользователя
func (h *Handlers) ListOrders(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.services.Orders.List(c.Request.Context(), principal.UserID)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetTicket - GET /api/orders/:id
// Квитанция заказа с payload для QR-кода
func (h *Handlers) GetTicket(c *gin.Context) {
	ticket, err := h.services.Orders.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get ticket")
		return
	}

	c.JSON(http.StatusOK, ticket)
}
