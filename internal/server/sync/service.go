package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ddanilenko/famledger/internal/common"
	"github.com/ddanilenko/famledger/internal/logging"
)

// Service is the sync coordinator: it owns the transactional envelope of
// one request and assembles the response. The engine keeps no state across
// requests; the entity store is the only shared mutable resource.
type Service struct {
	uow        UnitOfWork
	logger     logging.Logger
	timeout    time.Duration
	maxChanges int
	maxPerKind int
}

// NewService constructs the coordinator. A non-positive timeout falls back
// to DefaultTimeout.
func NewService(uow UnitOfWork, logger logging.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		uow:        uow,
		logger:     logger.With("module", "sync"),
		timeout:    timeout,
		maxChanges: DefaultMaxChanges,
		maxPerKind: DefaultMaxPerKind,
	}
}

// Sync runs one push+pull round for the given tenant. The whole request
// executes inside a single serializable transaction bounded by the
// configured timeout; on any transaction-level failure nothing is persisted
// and the caller may retry the identical batch. Per-change conflicts do not
// abort the transaction and are reported in the response.
func (s *Service) Sync(ctx context.Context, familyID, actorID string, req *Request) (*Response, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "sync started",
		"family_id", familyID, "actor_id", actorID, "changes", req.Changes.Total(), "client_id", req.ClientID)

	// Captured before the transaction opens; becomes both the updated_at
	// of every accepted mutation and the client's next watermark.
	syncTS := time.Now().UTC()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		push      PushResults
		conflicts []Conflict
		data      PullData
	)

	err := s.uow.InTx(ctx, func(ctx context.Context, st Stores) error {
		var err error
		push, conflicts, err = runBatch(ctx, st, familyID, syncTS, req.Changes)
		if err != nil {
			return err
		}
		data, err = pull(ctx, st, familyID, req.LastSyncTimestamp)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "sync transaction failed",
			"family_id", familyID, "actor_id", actorID, "changes", req.Changes.Total(), "error", err)
		return nil, fmt.Errorf("%w: sync transaction: %v", common.ErrorInternal, err)
	}

	if conflicts == nil {
		conflicts = []Conflict{}
	}

	s.logger.Info(ctx, "sync completed",
		"family_id", familyID,
		"actor_id", actorID,
		"changes", req.Changes.Total(),
		"conflicts", len(conflicts),
		"client_id", req.ClientID)

	return &Response{
		PushResults:   push,
		PullData:      data,
		SyncTimestamp: syncTS,
		HasConflicts:  len(conflicts) > 0,
		Conflicts:     conflicts,
	}, nil
}

func (s *Service) validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", common.ErrorValidation)
	}
	if total := req.Changes.Total(); total > s.maxChanges {
		return fmt.Errorf("%w: %d changes exceed the request cap of %d", common.ErrorValidation, total, s.maxChanges)
	}
	for _, kind := range []struct {
		name string
		n    int
	}{
		{KindAccounts, len(req.Changes.Accounts)},
		{KindCategories, len(req.Changes.Categories)},
		{KindBudgets, len(req.Changes.Budgets)},
		{KindTransactions, len(req.Changes.Transactions)},
	} {
		if kind.n > s.maxPerKind {
			return fmt.Errorf("%w: %d %s changes exceed the per-kind cap of %d", common.ErrorValidation, kind.n, kind.name, s.maxPerKind)
		}
	}
	return nil
}
