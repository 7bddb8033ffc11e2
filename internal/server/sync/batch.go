package sync

import (
	"context"
	"fmt"
	"time"
)

// runBatch applies one request's changes in fixed dependency order:
// accounts, then categories, then budgets, then transactions. Budgets
// reference categories and accounts, transactions reference accounts and
// categories, so an entity created earlier in the batch is already visible
// when a later kind refers to it. A conflict or validation failure in an
// earlier kind never blocks later kinds; only a store failure aborts.
func runBatch(ctx context.Context, st Stores, familyID string, now time.Time, cs ChangeSet) (PushResults, []Conflict, error) {
	var (
		out       PushResults
		conflicts []Conflict
		err       error
	)

	out.Accounts, conflicts, err = applyKind(ctx, newAccountProcessor(st.Accounts), familyID, now, cs.Accounts, conflicts)
	if err != nil {
		return PushResults{}, nil, err
	}
	out.Categories, conflicts, err = applyKind(ctx, newCategoryProcessor(st.Categories), familyID, now, cs.Categories, conflicts)
	if err != nil {
		return PushResults{}, nil, err
	}
	out.Budgets, conflicts, err = applyKind(ctx, newBudgetProcessor(st.Budgets), familyID, now, cs.Budgets, conflicts)
	if err != nil {
		return PushResults{}, nil, err
	}
	out.Transactions, conflicts, err = applyKind(ctx, newTransactionProcessor(st.Transactions), familyID, now, cs.Transactions, conflicts)
	if err != nil {
		return PushResults{}, nil, err
	}

	return out, conflicts, nil
}

func applyKind[T Entity](ctx context.Context, p *Processor[T], familyID string, now time.Time, changes []Change, conflicts []Conflict) ([]Result, []Conflict, error) {
	if len(changes) == 0 {
		return nil, conflicts, nil
	}

	results := make([]Result, 0, len(changes))
	for _, ch := range changes {
		res, conf, err := p.Apply(ctx, familyID, now, ch)
		if err != nil {
			return nil, nil, fmt.Errorf("applying %s change %s: %w", p.kind, ch.ID, err)
		}
		if conf != nil {
			conflicts = append(conflicts, *conf)
		}
		results = append(results, res)
	}

	return results, conflicts, nil
}
