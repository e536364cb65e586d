package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"stagepass/internal/cache"
	apperrors "stagepass/internal/errors"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services     *service.Services
	valkeyClient *cache.ValkeyClient
	loginURL     string
}

func NewHandlers(services *service.Services, valkeyClient *cache.ValkeyClient, loginURL string) *Handlers {
	return &Handlers{
		services:     services,
		valkeyClient: valkeyClient,
		loginURL:     loginURL,
	}
}

// respondError translates workflow errors into HTTP statuses. Validation
// failures keep their user-visible messages; everything unexpected becomes
// an opaque 500.
func respondError(c *gin.Context, err error, fallback string) {
	var saleClosed *apperrors.SaleClosedError
	var insufficient *apperrors.InsufficientStockError

	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, apperrors.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, apperrors.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.As(err, &saleClosed):
		c.JSON(http.StatusConflict, gin.H{"error": saleClosed.Error()})
	case errors.Is(err, apperrors.ErrSoldOut):
		c.JSON(http.StatusConflict, gin.H{"error": "Tickets for this event are sold out"})
	case errors.Is(err, apperrors.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be at least 1"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"error":     insufficient.Error(),
			"available": insufficient.Available,
		})
	case errors.Is(err, apperrors.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		slog.Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
