// Package store handles SQLite persistence of user identities.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/verte-zerg/concerto/internal/errors"
	"github.com/verte-zerg/concerto/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the identity table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			password TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeEmail trims and lowercases an identity token.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetUser looks up a user by email.
func (s *Store) GetUser(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT email, name, password FROM users WHERE email = ?`, NormalizeEmail(email),
	).Scan(&u.Email, &u.Name, &u.Password)
	if err == sql.ErrNoRows {
		return model.User{}, apperrors.ErrUnknownIdentity
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user. An existing email yields ErrAlreadyRegistered.
// The password is stored as given; it must be hashed before this store is
// exposed beyond a single trusted machine.
func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		NormalizeEmail(u.Email), strings.TrimSpace(u.Name), u.Password, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	if n == 0 {
		return apperrors.ErrAlreadyRegistered
	}
	return nil
}

// ListUsers returns every user ordered by email. Passwords are not returned.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, name FROM users ORDER BY email ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Email, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
