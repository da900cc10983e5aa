package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"neurodvach/ai"
	"neurodvach/config"
	"neurodvach/database"
	"neurodvach/models"
	"neurodvach/threads"
	"neurodvach/utils"

	"github.com/stretchr/testify/require"
)

// MockApplication holds dependencies for handler tests.
type MockApplication struct {
	db      *database.DatabaseService
	threads *threads.Service
	markup  *utils.Markup
	logger  *slog.Logger
	backend *cannedBackend
}

func (a *MockApplication) DB() *database.DatabaseService { return a.db }
func (a *MockApplication) Threads() *threads.Service     { return a.threads }
func (a *MockApplication) Markup() *utils.Markup         { return a.markup }
func (a *MockApplication) Logger() *slog.Logger          { return a.logger }

// cannedBackend answers every prompt with the same text.
type cannedBackend struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (b *cannedBackend) GenerateContent(ctx context.Context, model, systemInstruction, prompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.reply, nil
}

// setupTestApp creates a full application stack with a test database.
// A nil backend means no default AI key is configured.
func setupTestApp(t *testing.T, backend *cannedBackend) *MockApplication {
	t.Helper()
	require.NoError(t, LoadTemplates())

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.sqlite"), logger)
	require.NoError(t, err, "Failed to initialize test database")
	t.Cleanup(func() { db.Close() })

	opts := ai.GeneratorOptions{
		DefaultModel:  config.DefaultModelID,
		ContextWindow: config.DefaultContextWindow,
		Logger:        logger,
	}
	if backend != nil {
		opts.Default = backend
	}

	return &MockApplication{
		db:      db,
		threads: threads.NewService(db, ai.NewGenerator(opts), models.NewThreadLocks(), logger),
		markup:  utils.NewMarkup(),
		logger:  logger,
		backend: backend,
	}
}

func postForm(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
