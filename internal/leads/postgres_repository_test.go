package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func strPtr(s string) *string { return &s }

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return newPostgresRepositoryWithDB(mock), mock
}

func leadRowColumns() []string {
	return []string{"id", "type", "name", "email", "phone", "message", "project_type", "address", "project_title", "email_sent", "created_at"}
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	createdAt := time.Date(2025, 5, 2, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "contact", "Jean Dupont", "jean@example.ch",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	lead, err := repo.Create(context.Background(), &CreateLeadRequest{
		Category: CategoryContact,
		Name:     "Jean Dupont",
		Email:    "jean@example.ch",
		Message:  strPtr("Bonjour"),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := uuid.Parse(lead.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", lead.ID)
	}
	if lead.EmailSent {
		t.Fatal("expected email_sent false on create")
	}
	if !lead.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at from database, got %s", lead.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CreateError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("INSERT INTO leads").WillReturnError(errors.New("connection reset"))

	if _, err := repo.Create(context.Background(), &CreateLeadRequest{Category: CategoryBrochure, Name: "A", Email: "a@b.ch"}); err == nil {
		t.Fatal("expected insert error")
	}
}

func TestPostgresRepository_GetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	now := time.Now().UTC()

	rows := pgxmock.NewRows(leadRowColumns()).
		AddRow(id, "valorisation", "A", "a@b.ch", (*string)(nil), (*string)(nil), (*string)(nil), strPtr("Rue X"), (*string)(nil), true, now)
	mock.ExpectQuery("SELECT id, type").WithArgs(id).WillReturnRows(rows)

	lead, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if lead.Category != CategoryValuation {
		t.Fatalf("unexpected category %s", lead.Category)
	}
	if lead.Address == nil || *lead.Address != "Rue X" {
		t.Fatalf("unexpected address %v", lead.Address)
	}
	if lead.Phone != nil {
		t.Fatal("expected NULL phone to stay nil")
	}
	if !lead.EmailSent {
		t.Fatal("expected email_sent true")
	}
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	mock.ExpectQuery("SELECT id, type").WithArgs(id).WillReturnRows(pgxmock.NewRows(leadRowColumns()))

	if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound for malformed id, got %v", err)
	}
}

func TestPostgresRepository_MarkEmailSent(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()

	mock.ExpectExec("UPDATE leads SET email_sent = true").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := repo.MarkEmailSent(context.Background(), id); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}

	mock.ExpectExec("UPDATE leads SET email_sent = true").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := repo.MarkEmailSent(context.Background(), id); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ListByCategory(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(leadRowColumns()).
		AddRow(uuid.NewString(), "brochure", "B", "b@b.ch", strPtr("+41"), (*string)(nil), (*string)(nil), (*string)(nil), strPtr("Les Terrasses"), false, now).
		AddRow(uuid.NewString(), "brochure", "A", "a@b.ch", (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), true, now.Add(-time.Hour))
	mock.ExpectQuery("WHERE type = \\$1").WithArgs("brochure", DefaultListLimit, 0).WillReturnRows(rows)

	got, err := repo.List(context.Background(), ListFilter{Category: CategoryBrochure})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "B" {
		t.Fatalf("unexpected leads: %+v", got)
	}
	if got[0].ProjectTitle == nil || *got[0].ProjectTitle != "Les Terrasses" {
		t.Fatalf("unexpected project title %v", got[0].ProjectTitle)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CountAndDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))
	n, err := repo.Count(context.Background(), "")
	if err != nil || n != 7 {
		t.Fatalf("expected 7, got %d (%v)", n, err)
	}

	mock.ExpectExec("DELETE FROM leads").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := repo.Delete(context.Background(), id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	mock.ExpectExec("DELETE FROM leads").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	if err := repo.Delete(context.Background(), id); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
