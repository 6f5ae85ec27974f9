package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/trois-dimensions/site-backend/internal/app/bootstrap"
	appconfig "github.com/trois-dimensions/site-backend/internal/config"
	"github.com/trois-dimensions/site-backend/internal/roles"
	"github.com/trois-dimensions/site-backend/pkg/logging"
	appmigrations "github.com/trois-dimensions/site-backend/migrations"
)

func main() {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	// Grant command: /bin/migrate grant-admin <user_id>
	if len(os.Args) >= 2 && os.Args[1] == "grant-admin" {
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate grant-admin <user_id>")
		}
		cfg := appconfig.Load()
		rdb := bootstrap.BuildRedisClient(context.Background(), cfg, logging.New(cfg.LogLevel), true)
		if rdb != nil {
			defer func() { _ = rdb.Close() }()
		}
		if err := grantAdmin(db, rdb, os.Args[2]); err != nil {
			log.Fatalf("grant admin: %v", err)
		}
		fmt.Printf("granted %s to %s\n", roles.RoleAdmin, os.Args[2])
		return
	}

	m, err := newMigrator(db)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	// Check for force command: /bin/migrate force <version>
	if len(os.Args) >= 3 && os.Args[1] == "force" {
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("invalid version: %v", err)
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("force version: %v", err)
		}
		fmt.Printf("forced version to %d\n", version)
		return
	}

	if len(os.Args) >= 2 && os.Args[1] == "down" {
		if err := m.Steps(-1); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("rolled back one migration")
		return
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate up: %v", err)
	}

	fmt.Println("migrations complete")
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("db driver: %w", err)
	}
	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("source driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
}

// grantAdmin stores the admin role and drops any cached answer for the user.
// rdb may be nil when no role cache is deployed.
func grantAdmin(db *sql.DB, rdb *redis.Client, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := roles.NewSQLStore(db, roles.DialectPostgres).Grant(ctx, userID, roles.RoleAdmin); err != nil {
		return err
	}
	if err := roles.Invalidate(ctx, rdb, userID, roles.RoleAdmin); err != nil {
		return fmt.Errorf("invalidate role cache: %w", err)
	}
	return nil
}
