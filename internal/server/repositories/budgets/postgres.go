// Package budgets provides the PostgreSQL-backed versioned store for
// budget entities.
package budgets

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

const budgetColumns = `id, family_id, name, category_id, account_id, amount, period, start_date, end_date, version, deleted, deleted_at, created_at, updated_at`

func (r *PostgresRepository) FindByID(ctx context.Context, familyID, id string) (*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id=$1 AND family_id=$2`

	var b models.Budget
	err := r.db.QueryRowContext(ctx, query, id, familyID).Scan(
		&b.ID, &b.FamilyID, &b.Name, &b.CategoryID, &b.AccountID, &b.Amount,
		&b.Period, &b.StartDate, &b.EndDate,
		&b.Version, &b.Deleted, &b.DeletedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &b, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, b *models.Budget) error {
	query := `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.FamilyID, b.Name, b.CategoryID, b.AccountID, b.Amount,
		b.Period, b.StartDate, b.EndDate,
		b.Version, b.Deleted, b.DeletedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, b *models.Budget) error {
	query := `
		UPDATE budgets
		SET name=$3, category_id=$4, account_id=$5, amount=$6, period=$7, start_date=$8, end_date=$9,
			version=$10, deleted=$11, deleted_at=$12, updated_at=$13
		WHERE id=$1 AND family_id=$2 AND version=$14
	`
	res, err := r.db.ExecContext(ctx, query,
		b.ID, b.FamilyID, b.Name, b.CategoryID, b.AccountID, b.Amount,
		b.Period, b.StartDate, b.EndDate,
		b.Version, b.Deleted, b.DeletedAt, b.UpdatedAt, b.Version-1)
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

func (r *PostgresRepository) ListChangedSince(ctx context.Context, familyID string, since time.Time) ([]*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets
		WHERE family_id=$1 AND updated_at > $2
		ORDER BY updated_at, id`

	rows, err := r.db.QueryContext(ctx, query, familyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select budgets: %w", err)
	}
	defer rows.Close()

	var result []*models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(
			&b.ID, &b.FamilyID, &b.Name, &b.CategoryID, &b.AccountID, &b.Amount,
			&b.Period, &b.StartDate, &b.EndDate,
			&b.Version, &b.Deleted, &b.DeletedAt, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
