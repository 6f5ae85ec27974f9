package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	appconfig "github.com/trois-dimensions/site-backend/internal/config"
	"github.com/trois-dimensions/site-backend/internal/leads"
	"github.com/trois-dimensions/site-backend/internal/roles"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// Storage backends reported by OpenStorage.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendDynamo   = "dynamodb"
	BackendMemory   = "memory"
)

// Storage bundles the lead repository with the role store sharing its database.
type Storage struct {
	Leads   leads.Repository
	Roles   *roles.SQLStore // nil when no SQL database is configured
	Backend string
	closers []func()
}

// Close releases database handles in reverse order of opening.
func (s *Storage) Close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStorage selects the lead store from configuration. A DynamoDB table
// takes precedence for leads; Postgres, then SQLite, provide the role table.
// Without any configured store an in-memory repository is used outside
// production.
func OpenStorage(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Storage{}
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		sqlDB := stdlib.OpenDBFromPool(pool)
		s.closers = append(s.closers, pool.Close, func() { _ = sqlDB.Close() })
		s.Leads = leads.NewPostgresRepository(pool)
		s.Roles = roles.NewSQLStore(sqlDB, roles.DialectPostgres)
		s.Backend = BackendPostgres
	case strings.TrimSpace(cfg.SQLitePath) != "":
		db, err := leads.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: open sqlite: %w", err)
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		s.Leads = leads.NewSQLiteRepository(db)
		s.Roles = roles.NewSQLStore(db, roles.DialectSQLite)
		s.Backend = BackendSQLite
	}

	if table := strings.TrimSpace(cfg.LeadsTable); table != "" {
		if awsCfg == nil {
			s.Close()
			return nil, fmt.Errorf("bootstrap: LEADS_DYNAMODB_TABLE set but AWS config unavailable")
		}
		s.Leads = leads.NewDynamoRepository(dynamodb.NewFromConfig(*awsCfg), table)
		s.Backend = BackendDynamo
	}

	if s.Leads == nil {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("bootstrap: no lead store configured")
		}
		logger.Warn("no lead store configured; using in-memory repository")
		s.Leads = leads.NewInMemoryRepository()
		s.Backend = BackendMemory
	}

	logger.Info("lead store ready", "backend", s.Backend, "roles", s.Roles != nil)
	return s, nil
}
