// Package server assembles the gin engine and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/handlers"
	"recipe-planner/internal/mealplan"
	"recipe-planner/internal/metrics"
)

var errRouteNotFound = errors.New("route not found")

// Registrar mounts a handler's routes on a group.
type Registrar interface {
	Register(r gin.IRouter)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Options describe what the router serves.
type Options struct {
	CORSOrigins []string
	Auth        *auth.Middleware
	DB          Pinger
	Collectors  *metrics.Collectors
	// Public routes need no token (image downloads).
	Public []Registrar
	// API routes live under /api and require a bearer token.
	API []Registrar
	// Admin routes live under /api/admin and require an admin subject.
	Admin []Registrar
	// Webhook, when set, receives Telegram updates.
	Webhook gin.HandlerFunc
}

// NewRouter builds the engine with access logging, recovery, CORS and
// request metrics in front of every route.
func NewRouter(opts Options, logger *zap.Logger) *gin.Engine {
	mealplan.RegisterValidators()

	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if opts.Collectors != nil {
		r.Use(opts.Collectors.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Collectors.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := opts.DB.Ping(ctx); err != nil {
			handlers.RespondError(c, logger, http.StatusServiceUnavailable, fmt.Errorf("database unavailable: %w", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, logger, http.StatusNotFound, errRouteNotFound)
	})

	for _, h := range opts.Public {
		h.Register(r)
	}
	if opts.Webhook != nil {
		r.POST("/telegram/webhook", opts.Webhook)
	}

	api := r.Group("/api", opts.Auth.Authenticate())
	for _, h := range opts.API {
		h.Register(api)
	}
	admin := api.Group("/admin", opts.Auth.RequireAdmin())
	for _, h := range opts.Admin {
		h.Register(admin)
	}
	return r
}

// Run serves h on addr until ctx is cancelled, then shuts down within
// shutdownTimeout.
func Run(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
