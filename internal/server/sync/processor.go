package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ddanilenko/famledger/internal/common"
)

// Processor applies single changes of one entity kind. One implementation
// serves all four kinds; the kind-specific parts (payload decoding, field
// merge) come in as hooks from kinds.go.
type Processor[T Entity] struct {
	kind   string
	store  Store[T]
	decode func(raw json.RawMessage) (T, error)
	merge  func(dst T, raw json.RawMessage) error
}

// NewProcessor builds a change processor for one entity kind.
func NewProcessor[T Entity](kind string, store Store[T],
	decode func(raw json.RawMessage) (T, error),
	merge func(dst T, raw json.RawMessage) error) *Processor[T] {
	return &Processor[T]{kind: kind, store: store, decode: decode, merge: merge}
}

// Apply processes one change and returns its result plus, on version
// mismatch, a Conflict record. A non-nil error means the store itself
// failed; the caller must abort the whole transaction. Everything
// recoverable (bad payload, stale version, missing row) is folded into
// the Result instead, so one broken change never sinks the batch.
func (p *Processor[T]) Apply(ctx context.Context, familyID string, now time.Time, ch Change) (Result, *Conflict, error) {
	if err := validateChange(ch); err != nil {
		return failure(ch.ID, ErrCodeValidation, err.Error()), nil, nil
	}

	switch ch.Operation {
	case OpCreate:
		return p.applyCreate(ctx, familyID, now, ch)
	case OpUpdate:
		return p.applyUpdate(ctx, familyID, now, ch)
	default:
		return p.applyDelete(ctx, familyID, now, ch)
	}
}

// applyCreate inserts a new entity at version 1. An exact resubmission of
// the same create (entity already stored at version 1) is a no-op success,
// so clients may retry a whole batch after a dropped response. An id that
// meanwhile accumulated history (version > 1) is a conflict.
func (p *Processor[T]) applyCreate(ctx context.Context, familyID string, now time.Time, ch Change) (Result, *Conflict, error) {
	existing, err := p.store.FindByID(ctx, familyID, ch.ID)
	switch {
	case err == nil:
		if existing.EntityVersion() == 1 && !existing.EntityDeleted() {
			// Duplicate of an already-applied create.
			return Result{ID: ch.ID, Success: true, NewVersion: 1}, nil, nil
		}
		return p.conflict(ch, existing)
	case errors.Is(err, common.ErrorNotFound):
		// Expected: fall through to insert.
	default:
		return Result{}, nil, err
	}

	e, err := p.decode(ch.Data)
	if err != nil {
		return failure(ch.ID, ErrCodeValidation, err.Error()), nil, nil
	}
	e.InitSync(ch.ID, familyID, now)

	if err := p.store.Insert(ctx, e); err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return failure(ch.ID, ErrCodeValidation, err.Error()), nil, nil
		case errors.Is(err, common.ErrorAlreadyExists):
			// The id exists outside this tenant's scope, so FindByID saw
			// nothing but the global primary key still rejects the row.
			return failure(ch.ID, ErrCodeConflict, "id is already in use"), nil, nil
		default:
			return Result{}, nil, err
		}
	}

	return Result{ID: ch.ID, Success: true, NewVersion: 1}, nil, nil
}

func (p *Processor[T]) applyUpdate(ctx context.Context, familyID string, now time.Time, ch Change) (Result, *Conflict, error) {
	existing, err := p.store.FindByID(ctx, familyID, ch.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return failure(ch.ID, ErrCodeNotFound, "entity does not exist"), nil, nil
	}
	if err != nil {
		return Result{}, nil, err
	}
	// A soft-deleted entity is gone as far as updates are concerned; the
	// client should treat NOT_FOUND as already-deleted.
	if existing.EntityDeleted() {
		return failure(ch.ID, ErrCodeNotFound, "entity is deleted"), nil, nil
	}
	if existing.EntityVersion() != ch.ClientVersion {
		return p.conflict(ch, existing)
	}

	if err := p.merge(existing, ch.Data); err != nil {
		return failure(ch.ID, ErrCodeValidation, err.Error()), nil, nil
	}
	existing.Touch(now)

	if err := p.store.Update(ctx, existing); err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return failure(ch.ID, ErrCodeValidation, err.Error()), nil, nil
		}
		return Result{}, nil, err
	}

	return Result{ID: ch.ID, Success: true, NewVersion: existing.EntityVersion()}, nil, nil
}

// applyDelete is convergent: deleting something already gone succeeds
// without touching the version, so full-batch retries stay safe.
func (p *Processor[T]) applyDelete(ctx context.Context, familyID string, now time.Time, ch Change) (Result, *Conflict, error) {
	existing, err := p.store.FindByID(ctx, familyID, ch.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return Result{ID: ch.ID, Success: true}, nil, nil
	}
	if err != nil {
		return Result{}, nil, err
	}
	if existing.EntityDeleted() {
		return Result{ID: ch.ID, Success: true, NewVersion: existing.EntityVersion()}, nil, nil
	}
	if existing.EntityVersion() != ch.ClientVersion {
		return p.conflict(ch, existing)
	}

	existing.MarkDeleted(now)

	if err := p.store.Update(ctx, existing); err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return failure(ch.ID, ErrCodeValidation, err.Error()), nil, nil
		}
		return Result{}, nil, err
	}

	return Result{ID: ch.ID, Success: true, NewVersion: existing.EntityVersion()}, nil, nil
}

func (p *Processor[T]) conflict(ch Change, server T) (Result, *Conflict, error) {
	c := &Conflict{
		Kind:          p.kind,
		ID:            ch.ID,
		Operation:     ch.Operation,
		ClientVersion: ch.ClientVersion,
		ServerVersion: server.EntityVersion(),
		ServerEntity:  server,
	}
	res := Result{
		ID:           ch.ID,
		ErrorCode:    ErrCodeConflict,
		ErrorMessage: fmt.Sprintf("client version %d does not match server version %d", ch.ClientVersion, server.EntityVersion()),
		ServerEntity: server,
	}
	return res, c, nil
}

func failure(id, code, msg string) Result {
	return Result{ID: id, ErrorCode: code, ErrorMessage: msg}
}

func validateChange(ch Change) error {
	if err := uuid.Validate(ch.ID); err != nil {
		return fmt.Errorf("invalid change id %q", ch.ID)
	}
	switch ch.Operation {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("unknown operation %q", ch.Operation)
	}
	if ch.ClientVersion < 0 {
		return errors.New("clientVersion must be non-negative")
	}
	if ch.Operation != OpDelete && isNullPayload(ch.Data) {
		return errors.New("data payload is required")
	}
	return nil
}

func isNullPayload(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
