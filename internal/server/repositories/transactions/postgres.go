// Package transactions provides the PostgreSQL-backed versioned store for
// transaction entities.
package transactions

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const transactionColumns = `id, family_id, account_id, category_id, amount, tx_date, payee, note, type, version, deleted, deleted_at, created_at, updated_at`

func (r *PostgresRepository) FindByID(ctx context.Context, familyID, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id=$1 AND family_id=$2`

	var tr models.Transaction
	err := r.db.QueryRowContext(ctx, query, id, familyID).Scan(
		&tr.ID, &tr.FamilyID, &tr.AccountID, &tr.CategoryID, &tr.Amount,
		&tr.Date, &tr.Payee, &tr.Note, &tr.Type,
		&tr.Version, &tr.Deleted, &tr.DeletedAt, &tr.CreatedAt, &tr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &tr, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, tr *models.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		tr.ID, tr.FamilyID, tr.AccountID, tr.CategoryID, tr.Amount,
		tr.Date, tr.Payee, tr.Note, tr.Type,
		tr.Version, tr.Deleted, tr.DeletedAt, tr.CreatedAt, tr.UpdatedAt)
	if err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, tr *models.Transaction) error {
	query := `
		UPDATE transactions
		SET account_id=$3, category_id=$4, amount=$5, tx_date=$6, payee=$7, note=$8, type=$9,
			version=$10, deleted=$11, deleted_at=$12, updated_at=$13
		WHERE id=$1 AND family_id=$2 AND version=$14
	`
	res, err := r.db.ExecContext(ctx, query,
		tr.ID, tr.FamilyID, tr.AccountID, tr.CategoryID, tr.Amount,
		tr.Date, tr.Payee, tr.Note, tr.Type,
		tr.Version, tr.Deleted, tr.DeletedAt, tr.UpdatedAt, tr.Version-1)
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

func (r *PostgresRepository) ListChangedSince(ctx context.Context, familyID string, since time.Time) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE family_id=$1 AND updated_at > $2
		ORDER BY updated_at, id`

	rows, err := r.db.QueryContext(ctx, query, familyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select transactions: %w", err)
	}
	defer rows.Close()

	var result []*models.Transaction
	for rows.Next() {
		var tr models.Transaction
		if err := rows.Scan(
			&tr.ID, &tr.FamilyID, &tr.AccountID, &tr.CategoryID, &tr.Amount,
			&tr.Date, &tr.Payee, &tr.Note, &tr.Type,
			&tr.Version, &tr.Deleted, &tr.DeletedAt, &tr.CreatedAt, &tr.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
