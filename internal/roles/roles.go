// Package roles answers whether an authenticated user holds an application role.
package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RoleAdmin grants access to the admin console.
const RoleAdmin = "admin"

// Checker reports role membership for a user.
type Checker interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// Dialect selects the placeholder style of the backing database.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

const (
	hasRolePostgres = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	hasRoleSQLite   = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = ? AND role = ?)`
	grantPostgres   = `INSERT INTO user_roles (id, user_id, role) VALUES ($1, $2, $3) ON CONFLICT (user_id, role) DO NOTHING`
	grantSQLite     = `INSERT INTO user_roles (id, user_id, role) VALUES (?, ?, ?) ON CONFLICT (user_id, role) DO NOTHING`
)

// SQLStore reads role assignments from the user_roles table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore creates a role store over db.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	if db == nil {
		panic("roles: sql db required")
	}
	return &SQLStore{db: db, dialect: dialect}
}

// HasRole reports whether userID holds role. Ids that are not UUIDs never match.
func (s *SQLStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}
	query := hasRolePostgres
	if s.dialect == DialectSQLite {
		query = hasRoleSQLite
	}
	var ok bool
	if err := s.db.QueryRowContext(ctx, query, userID, role).Scan(&ok); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("roles: has role: %w", err)
	}
	return ok, nil
}

// Grant assigns role to userID. Granting an existing role is a no-op.
func (s *SQLStore) Grant(ctx context.Context, userID, role string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("roles: invalid user id %q", userID)
	}
	query := grantPostgres
	if s.dialect == DialectSQLite {
		query = grantSQLite
	}
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), userID, role); err != nil {
		return fmt.Errorf("roles: grant: %w", err)
	}
	return nil
}

var _ Checker = (*SQLStore)(nil)
