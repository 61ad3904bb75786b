package payload

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DefaultUserCount is the number of users seeded and read by /db.
const DefaultUserCount = 10

// User is a row of the benchmark_users table.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
}

const schema = `
CREATE TABLE IF NOT EXISTS benchmark_users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1
)`

// Store is the SQLite database behind the /db endpoint.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the SQLite database at path.
// Use ":memory:" for a private in-memory database.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if path == ":memory:" {
		// Every pooled connection would otherwise get its own database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Seed inserts n users when the table is empty. It is a no-op otherwise,
// so restarting a target against the same file keeps the data stable.
func (s *Store) Seed(ctx context.Context, n int) error {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM benchmark_users",
	).Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i := 0; i < n; i++ {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO benchmark_users
				(username, email, first_name, last_name, is_active)
			VALUES (?, ?, ?, ?, 1)`,
			fmt.Sprintf("user%02d", i),
			fmt.Sprintf("user%02d@example.com", i),
			fmt.Sprintf("First%d", i),
			fmt.Sprintf("Last%d", i),
		); err != nil {
			return fmt.Errorf("insert user %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	return nil
}

// Users reads up to limit users ordered by id.
func (s *Store) Users(ctx context.Context, limit int) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, first_name, last_name, is_active
		FROM benchmark_users ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0, limit)

	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email,
			&u.FirstName, &u.LastName, &u.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
