package dbx

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ddanilenko/famledger/internal/common"
)

// Postgres error classes we translate into shared sentinels.
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MapError converts driver-level constraint failures into the shared
// sentinels so callers can errors.Is instead of sniffing SQLSTATEs.
// Anything unrecognized is wrapped as a generic db error.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgCheckViolation, pgNotNullViolation:
			return fmt.Errorf("%w: %s", common.ErrorValidation, pgErr.Message)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.Message)
		}
	}
	return fmt.Errorf("db error: %w", err)
}
