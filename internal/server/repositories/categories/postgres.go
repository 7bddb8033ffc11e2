// Package categories provides the PostgreSQL-backed versioned store for
// category entities.
package categories

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

const categoryColumns = `id, family_id, name, type, parent_id, icon, version, deleted, deleted_at, created_at, updated_at`

func (r *PostgresRepository) FindByID(ctx context.Context, familyID, id string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id=$1 AND family_id=$2`

	var c models.Category
	err := r.db.QueryRowContext(ctx, query, id, familyID).Scan(
		&c.ID, &c.FamilyID, &c.Name, &c.Type, &c.ParentID, &c.Icon,
		&c.Version, &c.Deleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.FamilyID, c.Name, c.Type, c.ParentID, c.Icon,
		c.Version, c.Deleted, c.DeletedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories
		SET name=$3, type=$4, parent_id=$5, icon=$6,
			version=$7, deleted=$8, deleted_at=$9, updated_at=$10
		WHERE id=$1 AND family_id=$2 AND version=$11
	`
	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.FamilyID, c.Name, c.Type, c.ParentID, c.Icon,
		c.Version, c.Deleted, c.DeletedAt, c.UpdatedAt, c.Version-1)
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

func (r *PostgresRepository) ListChangedSince(ctx context.Context, familyID string, since time.Time) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE family_id=$1 AND updated_at > $2
		ORDER BY updated_at, id`

	rows, err := r.db.QueryContext(ctx, query, familyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	defer rows.Close()

	var result []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.ID, &c.FamilyID, &c.Name, &c.Type, &c.ParentID, &c.Icon,
			&c.Version, &c.Deleted, &c.DeletedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
