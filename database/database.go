// neurodvach/database/database.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"neurodvach/config"
	"neurodvach/models"
	"neurodvach/utils"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a board, thread or post does not exist.
var ErrNotFound = errors.New("not found")

const dsnOptions = "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"

// DatabaseService is the central struct for all database operations.
type DatabaseService struct {
	DB         *sql.DB
	logger     *slog.Logger
	path       string
	boardCache map[string]*models.Board
	cacheMu    sync.RWMutex
}

// InitDB opens the database file, creating its directory, runs migrations and seeds default boards.
func InitDB(path string, logger *slog.Logger) (*DatabaseService, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	if err := seedBoards(db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database initialized", "path", path)

	return &DatabaseService{
		DB:         db,
		logger:     logger,
		path:       path,
		boardCache: make(map[string]*models.Board),
	}, nil
}

// Close releases the underlying connection pool.
func (ds *DatabaseService) Close() error {
	return ds.DB.Close()
}

// seedBoards fills the boards table on first start.
func seedBoards(db *sql.DB, logger *slog.Logger) error {
	var boardCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM boards").Scan(&boardCount); err != nil {
		return fmt.Errorf("failed to count boards: %w", err)
	}
	if boardCount > 0 {
		return nil
	}

	logger.Info("Seeding database with default boards", "count", len(config.SeedBoards))
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			logger.Error("Failed to rollback board seed", "error", rerr)
		}
	}()

	for _, b := range config.SeedBoards {
		if _, err := tx.Exec("INSERT INTO boards (slug, title, description) VALUES (?, ?, ?)", b.Slug, b.Title, b.Description); err != nil {
			return fmt.Errorf("failed to seed board '%s': %w", b.Slug, err)
		}
	}
	return tx.Commit()
}

// BackupDatabase performs an online backup of the live SQLite database using VACUUM INTO.
func (ds *DatabaseService) BackupDatabase(ctx context.Context, backupDir string) (string, error) {
	if backupDir == "" {
		return "", fmt.Errorf("backup directory is not configured")
	}
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("could not create backup directory %s: %w", backupDir, err)
	}

	timestamp := utils.GetSQLTime().Format("2006-01-02_15-04-05")
	backupPath := filepath.Join(backupDir, fmt.Sprintf("neurodvach_backup_%s.db", timestamp))

	ds.logger.Info("Starting database backup", "destination", backupPath)

	if _, err := ds.DB.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		// If backup fails, attempt to remove the potentially incomplete file
		if removeErr := os.Remove(backupPath); removeErr != nil && !os.IsNotExist(removeErr) {
			ds.logger.Error("Failed to remove incomplete backup file", "path", backupPath, "error", removeErr)
		}
		return "", fmt.Errorf("VACUUM INTO command failed: %w", err)
	}

	return backupPath, nil
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version <= latestVersion {
			continue
		}
		logger.Info("Applying migration", "version", m.Version)
		tx, err := db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(m.Query); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
			}
			return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
			}
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
		}
		logger.Info("Successfully applied migration", "version", m.Version)
	}
	return nil
}

// ListBoards returns all boards in creation order.
func (ds *DatabaseService) ListBoards(ctx context.Context) ([]models.Board, error) {
	rows, err := ds.DB.QueryContext(ctx, "SELECT id, slug, title, description FROM boards ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListBoards", "error", err)
		}
	}()

	var boards []models.Board
	for rows.Next() {
		var b models.Board
		if err := rows.Scan(&b.ID, &b.Slug, &b.Title, &b.Description); err != nil {
			return nil, fmt.Errorf("failed to scan board row: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// GetBoard fetches a board by slug. Boards never change after seeding, so results are cached.
func (ds *DatabaseService) GetBoard(ctx context.Context, slug string) (*models.Board, error) {
	ds.cacheMu.RLock()
	board, ok := ds.boardCache[slug]
	ds.cacheMu.RUnlock()
	if ok {
		return board, nil
	}

	var b models.Board
	err := ds.DB.QueryRowContext(ctx, "SELECT id, slug, title, description FROM boards WHERE slug = ?", slug).
		Scan(&b.ID, &b.Slug, &b.Title, &b.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("board '%s': %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting board '%s': %w", slug, err)
	}

	ds.cacheMu.Lock()
	ds.boardCache[slug] = &b
	ds.cacheMu.Unlock()
	return &b, nil
}

// ListThreads returns a board's threads with post counts, most recently active first.
func (ds *DatabaseService) ListThreads(ctx context.Context, boardID int64) ([]models.Thread, error) {
	rows, err := ds.DB.QueryContext(ctx, `
		SELECT t.id, t.board_id, t.title, t.created_at, t.updated_at, COUNT(p.id)
		FROM threads t
		LEFT JOIN posts p ON p.thread_id = t.id
		WHERE t.board_id = ?
		GROUP BY t.id
		ORDER BY t.updated_at DESC, t.id DESC`, boardID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListThreads", "error", err)
		}
	}()

	var threads []models.Thread
	for rows.Next() {
		var t models.Thread
		if err := rows.Scan(&t.ID, &t.BoardID, &t.Title, &t.CreatedAt, &t.UpdatedAt, &t.PostCount); err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// GetThread fetches a thread that belongs to the given board.
func (ds *DatabaseService) GetThread(ctx context.Context, boardID, threadID int64) (*models.Thread, error) {
	var t models.Thread
	err := ds.DB.QueryRowContext(ctx, "SELECT id, board_id, title, created_at, updated_at FROM threads WHERE id = ? AND board_id = ?", threadID, boardID).
		Scan(&t.ID, &t.BoardID, &t.Title, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting thread %d: %w", threadID, err)
	}
	return &t, nil
}

// GetPostsForThread returns every post of a thread ordered by id.
func (ds *DatabaseService) GetPostsForThread(ctx context.Context, threadID int64) ([]models.Post, error) {
	rows, err := ds.DB.QueryContext(ctx, "SELECT id, thread_id, author_type, author_name, content, created_at FROM posts WHERE thread_id = ? ORDER BY id ASC", threadID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetPostsForThread", "error", err)
		}
	}()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorType, &p.AuthorName, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost fetches a single post by id, used for reference previews.
func (ds *DatabaseService) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	var p models.Post
	err := ds.DB.QueryRowContext(ctx, "SELECT id, thread_id, author_type, author_name, content, created_at FROM posts WHERE id = ?", postID).
		Scan(&p.ID, &p.ThreadID, &p.AuthorType, &p.AuthorName, &p.Content, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		return nil, fmt.Errorf("db error getting post %d: %w", postID, err)
	}
	return &p, nil
}

// CreateThread inserts a thread and its opening post in one transaction.
func (ds *DatabaseService) CreateThread(ctx context.Context, boardID int64, title, authorName, content string) (threadID, postID int64, err error) {
	tx, err := ds.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in CreateThread", "error", rerr)
		}
	}()

	now := utils.GetSQLTime()
	res, err := tx.ExecContext(ctx, "INSERT INTO threads (board_id, title, created_at, updated_at) VALUES (?, ?, ?, ?)", boardID, title, now, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to insert thread: %w", err)
	}
	if threadID, err = res.LastInsertId(); err != nil {
		return 0, 0, err
	}

	res, err = tx.ExecContext(ctx, "INSERT INTO posts (thread_id, author_type, author_name, content, created_at) VALUES (?, ?, ?, ?, ?)",
		threadID, models.AuthorUser, authorName, content, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to insert opening post: %w", err)
	}
	if postID, err = res.LastInsertId(); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit thread: %w", err)
	}
	return threadID, postID, nil
}

// InsertPost appends a single post to a thread.
func (ds *DatabaseService) InsertPost(ctx context.Context, threadID int64, authorType models.AuthorType, authorName, content string) (int64, error) {
	res, err := ds.DB.ExecContext(ctx, "INSERT INTO posts (thread_id, author_type, author_name, content, created_at) VALUES (?, ?, ?, ?, ?)",
		threadID, authorType, authorName, content, utils.GetSQLTime())
	if err != nil {
		return 0, fmt.Errorf("failed to insert post into thread %d: %w", threadID, err)
	}
	return res.LastInsertId()
}

// TouchThread sets a thread's updated_at to now.
func (ds *DatabaseService) TouchThread(ctx context.Context, threadID int64) error {
	res, err := ds.DB.ExecContext(ctx, "UPDATE threads SET updated_at = ? WHERE id = ?", utils.GetSQLTime(), threadID)
	if err != nil {
		return fmt.Errorf("failed to bump thread %d: %w", threadID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}
	return nil
}

// Ping checks that the database answers within the context deadline.
func (ds *DatabaseService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return ds.DB.PingContext(ctx)
}
