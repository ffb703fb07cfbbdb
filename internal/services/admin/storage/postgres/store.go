package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/louisbranch/featureadmin/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage/postgres/migrations"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage/sqlstore"
)

// uniqueViolation is the SQLSTATE Postgres reports for unique constraint failures.
const uniqueViolation = pq.ErrorCode("23505")

// Store provides a Postgres-backed store implementing admin storage interfaces.
type Store struct {
	*sqlstore.Store
}

// Open connects to the database at dsn and applies embedded migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}

	if err := sqlmigrate.ApplyMigrations(ctx, sqlDB, sqlmigrate.Postgres, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{Store: sqlstore.New(sqlDB, sqlmigrate.Postgres, isUniqueViolation)}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

var _ storage.Store = (*Store)(nil)
