// Package repomanager wires repository constructors, schema migrations and
// the transactional unit of work used by the sync engine.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/ddanilenko/famledger/internal/dbx"
	"github.com/ddanilenko/famledger/internal/server/repositories/users"
	"github.com/ddanilenko/famledger/internal/server/sync"
)

// RepositoryManager vends repositories bound to an arbitrary DBTX and
// exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	UnitOfWork(db *sql.DB) sync.UnitOfWork
}
