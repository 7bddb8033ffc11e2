package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ddanilenko/famledger/internal/dbx"
	"github.com/ddanilenko/famledger/internal/server/migrations"
	"github.com/ddanilenko/famledger/internal/server/models"
	"github.com/ddanilenko/famledger/internal/server/repositories/accounts"
	"github.com/ddanilenko/famledger/internal/server/repositories/budgets"
	"github.com/ddanilenko/famledger/internal/server/repositories/categories"
	"github.com/ddanilenko/famledger/internal/server/repositories/transactions"
	"github.com/ddanilenko/famledger/internal/server/repositories/users"
	"github.com/ddanilenko/famledger/internal/server/sync"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed
// RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// UnitOfWork returns the serializable transaction scope the sync engine
// runs requests in.
func (m *PostgresRepositoryManager) UnitOfWork(db *sql.DB) sync.UnitOfWork {
	return &PostgresUnitOfWork{db: db}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// PostgresUnitOfWork implements sync.UnitOfWork over one *sql.DB. Each
// InTx call opens a serializable transaction and hands the callback stores
// bound to that transaction.
type PostgresUnitOfWork struct {
	db *sql.DB
}

// NewPostgresUnitOfWork constructs a unit of work over the given database.
func NewPostgresUnitOfWork(db *sql.DB) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{db: db}
}

func (u *PostgresUnitOfWork) InTx(ctx context.Context, fn func(ctx context.Context, st sync.Stores) error) error {
	return dbx.WithTx(ctx, u.db, dbx.Serializable(), func(ctx context.Context, tx dbx.DBTX) error {
		st := sync.Stores{
			Accounts:     withSavepoints[*models.Account](tx, accounts.NewPostgresRepository(tx)),
			Categories:   withSavepoints[*models.Category](tx, categories.NewPostgresRepository(tx)),
			Budgets:      withSavepoints[*models.Budget](tx, budgets.NewPostgresRepository(tx)),
			Transactions: withSavepoints[*models.Transaction](tx, transactions.NewPostgresRepository(tx)),
		}
		return fn(ctx, st)
	})
}

// savepointStore guards every write with a savepoint. A failed statement
// puts a postgres transaction into aborted state; rolling back to the
// savepoint keeps the transaction usable so a rejected change stays a
// per-change failure instead of sinking the whole batch.
type savepointStore[T sync.Entity] struct {
	tx    dbx.DBTX
	inner sync.Store[T]
}

func withSavepoints[T sync.Entity](tx dbx.DBTX, inner sync.Store[T]) sync.Store[T] {
	return &savepointStore[T]{tx: tx, inner: inner}
}

func (s *savepointStore[T]) FindByID(ctx context.Context, familyID, id string) (T, error) {
	return s.inner.FindByID(ctx, familyID, id)
}

func (s *savepointStore[T]) ListChangedSince(ctx context.Context, familyID string, since time.Time) ([]T, error) {
	return s.inner.ListChangedSince(ctx, familyID, since)
}

func (s *savepointStore[T]) Insert(ctx context.Context, e T) error {
	return s.guarded(ctx, func() error { return s.inner.Insert(ctx, e) })
}

func (s *savepointStore[T]) Update(ctx context.Context, e T) error {
	return s.guarded(ctx, func() error { return s.inner.Update(ctx, e) })
}

func (s *savepointStore[T]) guarded(ctx context.Context, write func() error) error {
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT change_write"); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := write(); err != nil {
		if _, rbErr := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT change_write"); rbErr != nil {
			return fmt.Errorf("savepoint rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT change_write"); err != nil {
		return fmt.Errorf("savepoint release: %w", err)
	}
	return nil
}
