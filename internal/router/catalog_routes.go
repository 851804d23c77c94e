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

// Catalog groups the handlers behind the public catalog.
type Catalog struct {
	Catalog  *handler.CatalogHandler
	Movies   *handler.MovieHandler
	Sessions *handler.SessionHandler
}

// RegisterCatalog mounts genres, actors, halls, movies and sessions.
// Reads are public; writes need an ADMIN token.  Static catalog reads
// go through the Redis response cache and every successful write
// flushes it.  Session reads carry live availability and are never
// cached.  rdb may be nil.
func RegisterCatalog(e *echo.Echo, h Catalog, jwtSecret string, cacheCfg config.CacheConfig, rdb redis.Cmdable, log *zap.Logger) {
	cached := e.Group("/v1", middleware.ResponseCache(cacheCfg, rdb, log))
	cached.GET("/genres", h.Catalog.ListGenres)
	cached.GET("/genres/:id", h.Catalog.GetGenre)
	cached.GET("/actors", h.Catalog.ListActors)
	cached.GET("/actors/:id", h.Catalog.GetActor)
	cached.GET("/cinema_halls", h.Catalog.ListHalls)
	cached.GET("/cinema_halls/:id", h.Catalog.GetHall)
	cached.GET("/movies", h.Movies.List)
	cached.GET("/movies/:id", h.Movies.Get)

	live := e.Group("/v1")
	live.GET("/movie_sessions", h.Sessions.List)
	live.GET("/movie_sessions/:id", h.Sessions.Get)
	live.GET("/movie_sessions/:id/availability", h.Sessions.Availability)

	admin := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		middleware.InvalidateCache(cacheCfg, rdb, log),
	)
	admin.POST("/genres", h.Catalog.CreateGenre)
	admin.PUT("/genres/:id", h.Catalog.UpdateGenre)
	admin.DELETE("/genres/:id", h.Catalog.DeleteGenre)

	admin.POST("/actors", h.Catalog.CreateActor)
	admin.PUT("/actors/:id", h.Catalog.UpdateActor)
	admin.DELETE("/actors/:id", h.Catalog.DeleteActor)

	admin.POST("/cinema_halls", h.Catalog.CreateHall)
	admin.PUT("/cinema_halls/:id", h.Catalog.UpdateHall)
	admin.DELETE("/cinema_halls/:id", h.Catalog.DeleteHall)

	admin.POST("/movies", h.Movies.Create)
	admin.PUT("/movies/:id", h.Movies.Update)
	admin.DELETE("/movies/:id", h.Movies.Delete)

	admin.POST("/movie_sessions", h.Sessions.Create)
	admin.PUT("/movie_sessions/:id", h.Sessions.Update)
	admin.DELETE("/movie_sessions/:id", h.Sessions.Delete)
}
