package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const leadColumns = `id, type, name, email, phone, message, project_type, address, project_title, email_sent, created_at`

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new row with email_sent = false.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	id := uuid.New()
	query := `
		INSERT INTO leads (id, type, name, email, phone, message, project_type, address, project_title, email_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		string(req.Category),
		req.Name,
		req.Email,
		req.Phone,
		req.Message,
		req.ProjectType,
		req.Address,
		req.ProjectTitle,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:           id.String(),
		Category:     req.Category,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Message:      req.Message,
		ProjectType:  req.ProjectType,
		Address:      req.Address,
		ProjectTitle: req.ProjectTitle,
		CreatedAt:    createdAt,
	}, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// MarkEmailSent flips the delivery flag to true. There is no statement that
// clears it.
func (r *PostgresRepository) MarkEmailSent(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrLeadNotFound
	}
	ct, err := r.db.Exec(ctx, `UPDATE leads SET email_sent = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("leads: mark email sent: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// List returns leads newest first, optionally for one category.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter = filter.Normalize()

	var (
		rows pgx.Rows
		err  error
	)
	if filter.Category != "" {
		rows, err = r.db.Query(ctx, `
			SELECT `+leadColumns+`
			FROM leads
			WHERE type = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, string(filter.Category), filter.Limit, filter.Offset)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+leadColumns+`
			FROM leads
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`, filter.Limit, filter.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
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
func (r *PostgresRepository) Count(ctx context.Context, category Category) (int, error) {
	var (
		n   int
		err error
	)
	if category != "" {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE type = $1`, string(category)).Scan(&n)
	} else {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("leads: count failed: %w", err)
	}
	return n, nil
}

// Delete hard-deletes a lead.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrLeadNotFound
	}
	ct, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("leads: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*Lead, error) {
	var (
		lead     Lead
		category string
	)
	if err := row.Scan(
		&lead.ID,
		&category,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Message,
		&lead.ProjectType,
		&lead.Address,
		&lead.ProjectTitle,
		&lead.EmailSent,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	lead.Category = Category(category)
	return &lead, nil
}
