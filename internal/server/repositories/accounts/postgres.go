// Package accounts provides the PostgreSQL-backed versioned store for
// account entities.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ddanilenko/famledger/internal/common"
	"github.com/ddanilenko/famledger/internal/dbx"
	"github.com/ddanilenko/famledger/internal/server/models"
)

// PostgresRepository implements account storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, family_id, name, type, currency, balance, version, deleted, deleted_at, created_at, updated_at`

// FindByID returns the account with the given id within the family,
// soft-deleted rows included. Returns common.ErrorNotFound when absent.
func (r *PostgresRepository) FindByID(ctx context.Context, familyID, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1 AND family_id=$2`

	var a models.Account
	err := r.db.QueryRowContext(ctx, query, id, familyID).Scan(
		&a.ID, &a.FamilyID, &a.Name, &a.Type, &a.Currency, &a.Balance,
		&a.Version, &a.Deleted, &a.DeletedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &a, nil
}

// Insert stores a freshly created account (version 1).
func (r *PostgresRepository) Insert(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.FamilyID, a.Name, a.Type, a.Currency, a.Balance,
		a.Version, a.Deleted, a.DeletedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return dbx.MapError(err)
	}
	return nil
}

// Update persists an accepted mutation. The entity already carries the
// bumped version; the previous version guards the row so a concurrent
// writer cannot be silently overwritten.
func (r *PostgresRepository) Update(ctx context.Context, a *models.Account) error {
	query := `
		UPDATE accounts
		SET name=$3, type=$4, currency=$5, balance=$6,
			version=$7, deleted=$8, deleted_at=$9, updated_at=$10
		WHERE id=$1 AND family_id=$2 AND version=$11
	`
	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.FamilyID, a.Name, a.Type, a.Currency, a.Balance,
		a.Version, a.Deleted, a.DeletedAt, a.UpdatedAt, a.Version-1)
	if err != nil {
		return dbx.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// ListChangedSince returns every account of the family with updated_at
// strictly greater than since, soft-deleted rows included. The zero time
// returns the full set.
func (r *PostgresRepository) ListChangedSince(ctx context.Context, familyID string, since time.Time) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE family_id=$1 AND updated_at > $2
		ORDER BY updated_at, id`

	rows, err := r.db.QueryContext(ctx, query, familyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select accounts: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(
			&a.ID, &a.FamilyID, &a.Name, &a.Type, &a.Currency, &a.Balance,
			&a.Version, &a.Deleted, &a.DeletedAt, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
