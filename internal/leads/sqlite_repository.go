package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed width so created_at sorts lexically.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		message TEXT,
		project_type TEXT,
		address TEXT,
		project_title TEXT,
		email_sent BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS leads_created_at_idx ON leads (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		UNIQUE (user_id, role)
	)`,
}

// OpenSQLite opens a SQLite database for local development and creates the
// schema if it does not exist yet.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("leads: open sqlite: %w", err)
	}

	// Single connection for SQLite to avoid locking issues.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, stmt := range append(pragmas, sqliteSchema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("leads: exec %q: %w", stmt, err)
		}
	}
	return db, nil
}

// SQLiteRepository stores leads in an embedded SQLite database.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository wraps a database opened with OpenSQLite.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	if db == nil {
		panic("leads: sqlite db required")
	}
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new row with email_sent = false.
func (r *SQLiteRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	lead := &Lead{
		ID:           uuid.New().String(),
		Category:     req.Category,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Message:      req.Message,
		ProjectType:  req.ProjectType,
		Address:      req.Address,
		ProjectTitle: req.ProjectTitle,
		CreatedAt:    r.now(),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (id, type, name, email, phone, message, project_type, address, project_title, email_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?)
	`,
		lead.ID,
		string(lead.Category),
		lead.Name,
		lead.Email,
		nullString(lead.Phone),
		nullString(lead.Message),
		nullString(lead.ProjectType),
		nullString(lead.Address),
		nullString(lead.ProjectTitle),
		lead.CreatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return lead, nil
}

// GetByID fetches a single lead.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanSQLiteLead(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// MarkEmailSent flips the delivery flag to true.
func (r *SQLiteRepository) MarkEmailSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE leads SET email_sent = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("leads: mark email sent: %w", err)
	}
	return requireAffected(res)
}

// List returns leads newest first, optionally for one category.
func (r *SQLiteRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter = filter.Normalize()

	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []any{}
	if filter.Category != "" {
		query += ` WHERE type = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

// Count returns the number of stored leads, optionally for one category.
func (r *SQLiteRepository) Count(ctx context.Context, category Category) (int, error) {
	query := `SELECT COUNT(*) FROM leads`
	args := []any{}
	if category != "" {
		query += ` WHERE type = ?`
		args = append(args, string(category))
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("leads: count failed: %w", err)
	}
	return n, nil
}

// Delete hard-deletes a lead.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("leads: delete failed: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("leads: rows affected: %w", err)
	}
	if n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanSQLiteLead(row rowScanner) (*Lead, error) {
	var (
		lead                                                Lead
		category, createdAt                                 string
		phone, message, projectType, address, projectTitle sql.NullString
	)
	if err := row.Scan(
		&lead.ID,
		&category,
		&lead.Name,
		&lead.Email,
		&phone,
		&message,
		&projectType,
		&address,
		&projectTitle,
		&lead.EmailSent,
		&createdAt,
	); err != nil {
		return nil, err
	}
	ts, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	lead.Category = Category(category)
	lead.Phone = fromNullString(phone)
	lead.Message = fromNullString(message)
	lead.ProjectType = fromNullString(projectType)
	lead.Address = fromNullString(address)
	lead.ProjectTitle = fromNullString(projectTitle)
	lead.CreatedAt = ts.UTC()
	return &lead, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
