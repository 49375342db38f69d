package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Skufu/medirisk/internal/api"
	"github.com/Skufu/medirisk/internal/chat"
	"github.com/Skufu/medirisk/internal/history"
	"github.com/Skufu/medirisk/internal/logging"
	"github.com/Skufu/medirisk/internal/metrics"
	"github.com/Skufu/medirisk/internal/scoring"
	"github.com/Skufu/medirisk/internal/storage/postgres"
	"github.com/Skufu/medirisk/internal/storage/sqlite"
)

const (
	storeMemory   = "memory"
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
)

type Config struct {
	Port          string
	Store         string
	DatabaseURL   string
	SQLitePath    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	ModelsFile    string
	LogLevel      string
	LogFile       string
}

// stores bundles the persistence chosen by STORE.
type stores struct {
	history    history.Store
	transcript chat.Transcript
	db         api.HealthChecker
	close      func()
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = logger.Sync() }()

	registry, err := scoring.LoadRegistry(cfg.ModelsFile)
	if err != nil {
		logger.Fatal("load models", zap.Error(err))
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("open store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer st.close()

	router, err := api.NewRouter(api.Deps{
		Registry:   registry,
		History:    st.history,
		Assistant:  chat.NewAssistant(st.transcript, newResponder(cfg), logger),
		Metrics:    metrics.New(),
		Logger:     logger,
		DB:         st.db,
		StaticRoot: detectStaticRoot(),
	})
	if err != nil {
		logger.Fatal("build router", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("server listening",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.Store),
		zap.Strings("domains", registry.Domains()),
	)
	waitForShutdown(server, logger)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Store:         strings.ToLower(getEnv("STORE", storeMemory)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "medirisk.db"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		ModelsFile:    os.Getenv("MODELS_FILE"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
	}

	switch cfg.Store {
	case storeMemory, storeSQLite:
	case storePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE %q (want memory, sqlite or postgres)", cfg.Store)
	}

	return cfg, nil
}

func openStores(ctx context.Context, cfg *Config) (*stores, error) {
	switch cfg.Store {
	case storePostgres:
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		transcript, err := postgres.NewTranscript(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			history:    postgres.NewHistory(pool),
			transcript: transcript,
			db:         pool,
			close:      pool.Close,
		}, nil

	case storeSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		transcript, err := sqlite.NewTranscript(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &stores{
			history:    sqlite.NewHistory(db),
			transcript: transcript,
			db:         sqlPinger{db},
			close:      func() { _ = db.Close() },
		}, nil

	default:
		return &stores{
			history:    history.NewMemoryStore(),
			transcript: chat.NewMemoryTranscript(),
			close:      func() {},
		}, nil
	}
}

// newResponder returns nil without an API key so the assistant starts offline.
func newResponder(cfg *Config) chat.Responder {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	return chat.NewOpenAIResponder(chat.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// sqlPinger adapts *sql.DB to the readiness probe.
type sqlPinger struct {
	db *sql.DB
}

func (p sqlPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func waitForShutdown(server *http.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// detectStaticRoot looks for index.html in the working directory and up to
// two parents. It returns "" when there is no frontend to serve.
func detectStaticRoot() string {
	if dir := os.Getenv("STATIC_ROOT"); dir != "" {
		return dir
	}

	startDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		if fileExists(filepath.Join(dir, "index.html")) {
			return dir
		}
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
