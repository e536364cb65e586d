package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"stagepass/internal/cache"
	"stagepass/internal/models"
	"stagepass/internal/repository"

	"github.com/gin-gonic/gin"
)

// Principal is the authenticated identity attached to a request
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Ctx key and helpers for the authenticated principal.
// Using unexported type to avoid collisions

type ctxKey string

const principalKey ctxKey = "principal"

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// CORS middleware для обработки CORS запросов
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger middleware для структурированного логирования запросов
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		principal, authenticated := PrincipalFromContext(c.Request.Context())

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if authenticated {
			logFields = append(logFields, "user_id", principal.UserID)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request completed with error", logFields...)
		} else {
			slog.Info("Request completed", logFields...)
		}
	}
}

// Recovery middleware для восстановления после паники
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// Auth resolves the principal from HTTP Basic credentials when they are
// present, checking the Valkey cache first and the database as fallback.
// Requests without credentials pass through unauthenticated; route handlers
// decide whether that is acceptable (the purchase flow answers with a login
// redirect, admin routes with 401/403).
func Auth(userRepo *repository.UserRepository, valkeyClient *cache.ValkeyClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		hash := sha256.Sum256([]byte(password))
		passwordHash := fmt.Sprintf("%x", hash)

		// Сначала пытаемся найти пользователя в кеше Valkey
		if valkeyClient != nil {
			if cached, err := valkeyClient.GetPrincipalByAuth(ctx, username, passwordHash); err == nil {
				setPrincipal(c, Principal{UserID: cached.UserID, Role: cached.Role})
				c.Next()
				return
			}
		}

		// Fallback: поиск в базе данных
		user, err := userRepo.GetByEmail(ctx, username)
		if err != nil || user == nil || !user.IsActive || passwordHash != user.PasswordHash {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if valkeyClient != nil {
			valkeyClient.SetPrincipalAuth(ctx, username, passwordHash, cache.CachedPrincipal{
				UserID: user.ID,
				Role:   user.Role,
			})
		}

		if err := userRepo.TouchLastLoggedIn(ctx, user.ID); err != nil {
			slog.Warn("Failed to update last login time", "error", err, "user_id", user.ID)
		}

		setPrincipal(c, Principal{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}

// RequireAuth aborts with 401 when no principal was resolved
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFromContext(c.Request.Context()); !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401/403 unless the principal holds the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c.Request.Context())
		if !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !principal.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set("user_id", p.UserID)
	c.Request = c.Request.WithContext(ContextWithPrincipal(c.Request.Context(), p))
}
