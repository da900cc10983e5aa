// neurodvach/database/database_test.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"neurodvach/config"
	"neurodvach/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new SQLite database in a temp dir for testing.
func setupTestDB(t *testing.T) *DatabaseService {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	dbPath := filepath.Join(t.TempDir(), "data", "test.sqlite")
	ds, err := InitDB(dbPath, logger)
	require.NoError(t, err, "Failed to initialize test database")

	t.Cleanup(func() { ds.Close() })
	return ds
}

// TestInitDB checks that the default boards are seeded exactly once.
func TestInitDB(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()

	boards, err := ds.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, len(config.SeedBoards))
	for i, b := range boards {
		assert.Equal(t, config.SeedBoards[i].Slug, b.Slug)
		assert.Equal(t, config.SeedBoards[i].Title, b.Title)
	}

	// Re-opening the same file must not seed again.
	again, err := InitDB(ds.path, ds.logger)
	require.NoError(t, err)
	defer again.Close()
	var count int
	require.NoError(t, again.DB.QueryRow("SELECT COUNT(*) FROM boards").Scan(&count))
	assert.Equal(t, len(config.SeedBoards), count)
}

// TestMigrations verifies that versioned migrations are applied and recorded.
func TestMigrations(t *testing.T) {
	ds := setupTestDB(t)

	var version int
	err := ds.DB.QueryRow("SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err, "Migration version 1 was not recorded")
	assert.Equal(t, 1, version)

	var name string
	err = ds.DB.QueryRow("SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_posts_thread_author'").Scan(&name)
	assert.NoError(t, err, "Index from migration 1 is missing")
}

func TestGetBoard(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()

	b, err := ds.GetBoard(ctx, "pr")
	require.NoError(t, err)
	assert.Equal(t, "Программирование", b.Title)

	cached, err := ds.GetBoard(ctx, "pr")
	require.NoError(t, err)
	assert.Same(t, b, cached)

	_, err = ds.GetBoard(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreateThreadAndPosts(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()
	board, err := ds.GetBoard(ctx, "b")
	require.NoError(t, err)

	threadID, opID, err := ds.CreateThread(ctx, board.ID, "Тред", "Анон", "hello")
	require.NoError(t, err)
	assert.NotZero(t, threadID)
	assert.NotZero(t, opID)

	aiID, err := ds.InsertPost(ctx, threadID, models.AuthorAI, "Нейросеть", "привет")
	require.NoError(t, err)
	assert.Greater(t, aiID, opID)

	posts, err := ds.GetPostsForThread(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, models.AuthorUser, posts[0].AuthorType)
	assert.Equal(t, "hello", posts[0].Content)
	assert.Equal(t, models.AuthorAI, posts[1].AuthorType)
	assert.True(t, posts[1].IsAI())

	thread, err := ds.GetThread(ctx, board.ID, threadID)
	require.NoError(t, err)
	assert.Equal(t, "Тред", thread.Title)

	got, err := ds.GetPost(ctx, aiID)
	require.NoError(t, err)
	assert.Equal(t, "привет", got.Content)
	assert.Equal(t, threadID, got.ThreadID)
	_, err = ds.GetPost(ctx, 123456)
	assert.True(t, errors.Is(err, ErrNotFound))

	other, err := ds.GetBoard(ctx, "pr")
	require.NoError(t, err)
	_, err = ds.GetThread(ctx, other.ID, threadID)
	assert.True(t, errors.Is(err, ErrNotFound), "thread is scoped to its board")
}

func TestCreateThreadUnknownBoard(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()

	// A board id that does not exist violates the foreign key on threads.
	_, _, err := ds.CreateThread(ctx, 9999, "orphan", "Анон", "text")
	require.Error(t, err)

	var threads, posts int
	require.NoError(t, ds.DB.QueryRow("SELECT COUNT(*) FROM threads").Scan(&threads))
	require.NoError(t, ds.DB.QueryRow("SELECT COUNT(*) FROM posts").Scan(&posts))
	assert.Zero(t, threads)
	assert.Zero(t, posts)
}

func TestListThreadsOrderAndTouch(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()
	board, err := ds.GetBoard(ctx, "b")
	require.NoError(t, err)

	first, _, err := ds.CreateThread(ctx, board.ID, "first", "Анон", "1")
	require.NoError(t, err)
	second, _, err := ds.CreateThread(ctx, board.ID, "second", "Анон", "2")
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour).UTC()
	_, err = ds.DB.Exec("UPDATE threads SET updated_at = ?", old)
	require.NoError(t, err)

	_, err = ds.InsertPost(ctx, first, models.AuthorUser, "Анон", "bump")
	require.NoError(t, err)
	require.NoError(t, ds.TouchThread(ctx, first))

	threads, err := ds.ListThreads(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, first, threads[0].ID, "bumped thread comes first")
	assert.Equal(t, 2, threads[0].PostCount)
	assert.Equal(t, second, threads[1].ID)
	assert.Equal(t, 1, threads[1].PostCount)
	assert.True(t, threads[0].UpdatedAt.After(old))

	assert.True(t, errors.Is(ds.TouchThread(ctx, 424242), ErrNotFound))
}

func TestInsertPostRejectsUnknownAuthorType(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()
	board, err := ds.GetBoard(ctx, "b")
	require.NoError(t, err)
	threadID, _, err := ds.CreateThread(ctx, board.ID, "t", "Анон", "x")
	require.NoError(t, err)

	_, err = ds.InsertPost(ctx, threadID, models.AuthorType("bot"), "?", "x")
	assert.Error(t, err)
}

// TestBackupDatabase verifies the VACUUM INTO backup method.
func TestBackupDatabase(t *testing.T) {
	ds := setupTestDB(t)
	ctx := context.Background()

	backupPath, err := ds.BackupDatabase(ctx, t.TempDir())
	require.NoError(t, err)

	info, err := os.Stat(backupPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	destDB, err := sql.Open("sqlite3", backupPath)
	require.NoError(t, err)
	defer destDB.Close()

	var count int
	require.NoError(t, destDB.QueryRow("SELECT COUNT(*) FROM boards").Scan(&count))
	assert.Equal(t, len(config.SeedBoards), count)

	_, err = ds.BackupDatabase(ctx, "")
	assert.Error(t, err)
}
