package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// RegisterOrders mounts the order endpoints for any signed-in user.  The
// group is rate limited per user and route; rdb may be nil.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, jwtSecret string, rl config.RateLimitConfig, rdb redis.Cmdable, log *zap.Logger) {
	g := e.Group("/v1/orders",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
		middleware.RateLimit(rl, rdb, log),
	)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}
