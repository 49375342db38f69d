// Package api exposes the scoring engine, prediction history and chat
// assistant over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/medirisk/internal/chat"
	"github.com/Skufu/medirisk/internal/history"
	"github.com/Skufu/medirisk/internal/logging"
	"github.com/Skufu/medirisk/internal/metrics"
	"github.com/Skufu/medirisk/internal/scoring"
)

// HealthChecker is satisfied by the database backing the stores.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Registry   *scoring.Registry
	History    history.Store
	Assistant  *chat.Assistant
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	DB         HealthChecker // nil when running on the memory store
	StaticRoot string        // directory holding index.html and assets/; empty disables static files
}

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if err := registerValidations(); err != nil {
		return nil, fmt.Errorf("register validations: %w", err)
	}

	router := gin.New()
	router.Use(
		logging.Middleware(d.Logger),
		gin.Recovery(),
		LimitBodySize(MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
			MaxAge:       12 * time.Hour,
		}),
	)

	if d.StaticRoot != "" {
		serveFrontend(router, d.StaticRoot)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", readyz(d.DB))
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	h := &handler{
		registry:  d.Registry,
		history:   d.History,
		assistant: d.Assistant,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
	h.register(router.Group("/api"))

	return router, nil
}

// frontendAssetDirs are the only subdirectories of the static root that are
// exposed. Anything else next to index.html (.env, the database file) stays
// private.
var frontendAssetDirs = []string{"assets", "static"}

func serveFrontend(router *gin.Engine, root string) {
	router.StaticFile("/", filepath.Join(root, "index.html"))
	for _, name := range frontendAssetDirs {
		dir := filepath.Join(root, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			router.Static("/"+name, dir)
		}
	}
}

func readyz(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     "ok",
		})
	}
}

// LimitBodySize rejects bodies larger than maxBytes once they are read.
func LimitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
