package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq" // драйвер "postgres" для database/sql
	"go.uber.org/zap"
)

// Migrator применяет миграции схемы.
// Драйвер migrate закрывает *sql.DB, поэтому соединение открывается заново на каждую операцию.
type Migrator struct {
	open   func() (*sql.DB, error)
	fsys   fs.FS
	path   string
	logger *zap.Logger
}

// NewMigrator создает Migrator поверх пула сервиса.
func NewMigrator(pool *pgxpool.Pool, logger *zap.Logger) *Migrator {
	return &Migrator{
		open:   func() (*sql.DB, error) { return stdlib.OpenDBFromPool(pool), nil },
		fsys:   MigrationsFS,
		path:   MigrationsPath,
		logger: logger.Named("Migrator"),
	}
}

// NewMigratorDSN создает Migrator по строке подключения через lib/pq (для CLI, без пула).
func NewMigratorDSN(dsn string, logger *zap.Logger) *Migrator {
	return &Migrator{
		open:   func() (*sql.DB, error) { return sql.Open("postgres", dsn) },
		fsys:   MigrationsFS,
		path:   MigrationsPath,
		logger: logger.Named("Migrator"),
	}
}

// Up применяет все доступные миграции.
func (m *Migrator) Up() error {
	migrator, err := m.create()
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	m.logger.Info("Database migrations applied successfully")
	return nil
}

// Down откатывает все миграции.
func (m *Migrator) Down() error {
	migrator, err := m.create()
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	m.logger.Info("Database migrations rolled back successfully")
	return nil
}

// Force устанавливает версию без выполнения миграций (снятие dirty флага).
func (m *Migrator) Force(version int) error {
	migrator, err := m.create()
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Force(version); err != nil {
		return fmt.Errorf("failed to force migration version: %w", err)
	}
	m.logger.Info("Database migration version forced", zap.Int("version", version))
	return nil
}

// Version возвращает текущую версию схемы.
func (m *Migrator) Version() (uint, bool, error) {
	migrator, err := m.create()
	if err != nil {
		return 0, false, err
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) create() (*migrate.Migrate, error) {
	db, err := m.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	source, err := iofs.New(m.fsys, m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	migrator.LockTimeout = 30 * time.Second
	return migrator, nil
}
