package sync

import (
	"context"
	"time"

	"github.com/ddanilenko/famledger/internal/server/models"
)

// Entity is the capability every syncable model exposes through its
// embedded models.SyncMeta.
type Entity interface {
	EntityID() string
	EntityVersion() int64
	EntityDeleted() bool
	EntityUpdatedAt() time.Time
	InitSync(id, familyID string, now time.Time)
	Touch(now time.Time)
	MarkDeleted(now time.Time)
}

// Store is the per-kind contract the engine mutates entities through.
// Every operation is tenant-scoped; implementations must never return or
// touch rows of another family.
//
// FindByID returns common.ErrorNotFound when the row is absent (soft-deleted
// rows are still found). Insert and Update map per-row constraint failures,
// foreign keys included, to common.ErrorValidation. ListChangedSince returns
// rows with updated_at strictly greater than since; the zero time means
// everything, soft-deleted rows included.
type Store[T Entity] interface {
	FindByID(ctx context.Context, familyID, id string) (T, error)
	Insert(ctx context.Context, e T) error
	Update(ctx context.Context, e T) error
	ListChangedSince(ctx context.Context, familyID string, since time.Time) ([]T, error)
}

// Stores bundles the four kind stores of one transaction scope. A Stores
// value is only valid inside the UnitOfWork callback that produced it.
type Stores struct {
	Accounts     Store[*models.Account]
	Categories   Store[*models.Category]
	Budgets      Store[*models.Budget]
	Transactions Store[*models.Transaction]
}

// UnitOfWork runs fn inside one atomic transaction with serializable
// isolation, handing it transaction-bound stores. If fn returns an error
// the transaction is rolled back and nothing is visible to anyone.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(ctx context.Context, st Stores) error) error
}
