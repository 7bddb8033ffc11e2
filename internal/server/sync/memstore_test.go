package sync

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ddanilenko/famledger/internal/common"
	"github.com/ddanilenko/famledger/internal/server/models"
)

// memStore is an in-memory Store used by the engine tests. It clones on
// every read and write so test entities never alias stored state.
type memStore[T Entity] struct {
	rows  map[string]T
	clone func(T) T
}

func newMemStore[T Entity](clone func(T) T) *memStore[T] {
	return &memStore[T]{rows: map[string]T{}, clone: clone}
}

func memKey(familyID, id string) string {
	return familyID + "/" + id
}

func (s *memStore[T]) FindByID(_ context.Context, familyID, id string) (T, error) {
	e, ok := s.rows[memKey(familyID, id)]
	if !ok {
		var zero T
		return zero, fmt.Errorf("row %s: %w", id, common.ErrorNotFound)
	}
	return s.clone(e), nil
}

func (s *memStore[T]) Insert(_ context.Context, e T) error {
	s.rows[memKey(familyKeyOf(e), e.EntityID())] = s.clone(e)
	return nil
}

func (s *memStore[T]) Update(_ context.Context, e T) error {
	key := memKey(familyKeyOf(e), e.EntityID())
	if _, ok := s.rows[key]; !ok {
		return common.ErrorNotFound
	}
	s.rows[key] = s.clone(e)
	return nil
}

func (s *memStore[T]) ListChangedSince(_ context.Context, familyID string, since time.Time) ([]T, error) {
	var out []T
	for key, e := range s.rows {
		if !strings.HasPrefix(key, familyID+"/") {
			continue
		}
		if e.EntityUpdatedAt().After(since) {
			out = append(out, s.clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntityUpdatedAt().Equal(out[j].EntityUpdatedAt()) {
			return out[i].EntityUpdatedAt().Before(out[j].EntityUpdatedAt())
		}
		return out[i].EntityID() < out[j].EntityID()
	})
	return out, nil
}

func (s *memStore[T]) snapshot() map[string]T {
	snap := make(map[string]T, len(s.rows))
	for k, v := range s.rows {
		snap[k] = s.clone(v)
	}
	return snap
}

// familyKeyOf digs the tenant id out of the embedded meta. The Entity
// interface does not expose it; the concrete models all embed SyncMeta.
func familyKeyOf(e Entity) string {
	switch v := e.(type) {
	case *models.Account:
		return v.FamilyID
	case *models.Category:
		return v.FamilyID
	case *models.Budget:
		return v.FamilyID
	case *models.Transaction:
		return v.FamilyID
	default:
		return ""
	}
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	return &c
}

func cloneCategory(c *models.Category) *models.Category {
	cc := *c
	return &cc
}

func cloneBudget(b *models.Budget) *models.Budget {
	c := *b
	return &c
}

func cloneTransaction(tr *models.Transaction) *models.Transaction {
	c := *tr
	return &c
}

// memUnitOfWork mimics the transactional envelope over the in-memory
// stores: if the callback fails, every store is rolled back to its state
// at entry.
type memUnitOfWork struct {
	accounts     *memStore[*models.Account]
	categories   *memStore[*models.Category]
	budgets      *memStore[*models.Budget]
	transactions *memStore[*models.Transaction]

	// wrap, when set, lets a test swap in failing stores without losing
	// the rollback behaviour.
	wrap func(Stores) Stores
}

func newMemUnitOfWork() *memUnitOfWork {
	return &memUnitOfWork{
		accounts:     newMemStore(cloneAccount),
		categories:   newMemStore(cloneCategory),
		budgets:      newMemStore(cloneBudget),
		transactions: newMemStore(cloneTransaction),
	}
}

func (u *memUnitOfWork) stores() Stores {
	st := Stores{
		Accounts:     u.accounts,
		Categories:   u.categories,
		Budgets:      u.budgets,
		Transactions: u.transactions,
	}
	if u.wrap != nil {
		st = u.wrap(st)
	}
	return st
}

func (u *memUnitOfWork) InTx(ctx context.Context, fn func(ctx context.Context, st Stores) error) error {
	accSnap := u.accounts.snapshot()
	catSnap := u.categories.snapshot()
	budSnap := u.budgets.snapshot()
	trnSnap := u.transactions.snapshot()

	if err := fn(ctx, u.stores()); err != nil {
		u.accounts.rows = accSnap
		u.categories.rows = catSnap
		u.budgets.rows = budSnap
		u.transactions.rows = trnSnap
		return err
	}
	return nil
}

// failingStore returns err from Insert and Update, passing reads through.
type failingStore[T Entity] struct {
	Store[T]
	err error
}

func (s *failingStore[T]) Insert(context.Context, T) error { return s.err }
func (s *failingStore[T]) Update(context.Context, T) error { return s.err }
