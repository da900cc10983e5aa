// neurodvach/database/migrations.go
package database

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
-- Speeds up per-thread counts of AI and user posts on board pages
CREATE INDEX IF NOT EXISTS idx_posts_thread_author ON posts(thread_id, author_type);
		`,
	},
}
