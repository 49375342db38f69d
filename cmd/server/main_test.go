package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/medirisk/internal/api"
	"github.com/Skufu/medirisk/internal/chat"
	"github.com/Skufu/medirisk/internal/scoring"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"STORE", "DATABASE_URL", "SQLITE_PATH", "OPENAI_API_KEY", "PORT", "STATIC_ROOT"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Store != storeMemory {
		t.Fatalf("expected memory store by default, got %s", cfg.Store)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info log level, got %s", cfg.LogLevel)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "postgres")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "mongo")
	_, err := loadConfig()
	if err == nil || !strings.Contains(err.Error(), "mongo") {
		t.Fatalf("expected unknown store error, got %v", err)
	}
}

func TestLoadConfigStoreIsCaseInsensitive(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "SQLite")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != storeSQLite {
		t.Fatalf("expected sqlite, got %s", cfg.Store)
	}
}

func TestNewResponderWithoutKey(t *testing.T) {
	if r := newResponder(&Config{}); r != nil {
		t.Fatalf("expected nil responder, got %T", r)
	}
	if r := newResponder(&Config{OpenAIAPIKey: "sk-test"}); r == nil {
		t.Fatal("expected a responder when a key is set")
	}
}

func TestOpenStoresMemory(t *testing.T) {
	st, err := openStores(context.Background(), &Config{Store: storeMemory})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.close()
	if st.db != nil {
		t.Fatal("memory store should not expose a database")
	}
	msgs, err := st.transcript.All(context.Background())
	if err != nil || len(msgs) != 1 || msgs[0].Content != chat.WelcomeMessage {
		t.Fatalf("expected welcome message, got %+v (%v)", msgs, err)
	}
}

func TestOpenStoresSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "medirisk.db")

	st, err := openStores(ctx, &Config{Store: storeSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.close()

	if err := st.db.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := st.history.Save(ctx, scoring.DomainLung, []byte(`{"smoking":true}`), scoring.Result{Probability: 0.4, IsPositive: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	records, err := st.history.All(ctx)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one record, got %+v (%v)", records, err)
	}
}

func TestDetectStaticRoot(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	nested := filepath.Join(dir, "cmd", "server")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	if got := detectStaticRoot(); got != "" {
		t.Fatalf("expected no static root, got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, _ := filepath.EvalSymlinks(detectStaticRoot())
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	t.Setenv("STATIC_ROOT", "/srv/www")
	if got := detectStaticRoot(); got != "/srv/www" {
		t.Fatalf("expected STATIC_ROOT override, got %q", got)
	}
}

func TestRouterHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st, err := openStores(context.Background(), &Config{Store: storeMemory})
	if err != nil {
		t.Fatal(err)
	}
	router, err := api.NewRouter(api.Deps{
		Registry:  scoring.DefaultRegistry(),
		History:   st.history,
		Assistant: chat.NewAssistant(st.transcript, newResponder(&Config{}), nil),
	})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
