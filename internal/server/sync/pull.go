package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ddanilenko/famledger/internal/server/models"
)

// pull computes the incremental snapshot: every entity whose updated_at is
// strictly greater than the watermark, soft-deleted entities included so
// clients can drop them locally. A nil watermark means an initial full sync.
//
// The cursor is updated_at rather than version on purpose: any accepted
// mutation in the tenant, regardless of which device produced it, becomes
// visible to this client on its next sync.
func pull(ctx context.Context, st Stores, familyID string, since *time.Time) (PullData, error) {
	var watermark time.Time
	if since != nil {
		watermark = *since
	}

	accounts, err := st.Accounts.ListChangedSince(ctx, familyID, watermark)
	if err != nil {
		return PullData{}, fmt.Errorf("pulling accounts: %w", err)
	}
	categories, err := st.Categories.ListChangedSince(ctx, familyID, watermark)
	if err != nil {
		return PullData{}, fmt.Errorf("pulling categories: %w", err)
	}
	budgets, err := st.Budgets.ListChangedSince(ctx, familyID, watermark)
	if err != nil {
		return PullData{}, fmt.Errorf("pulling budgets: %w", err)
	}
	transactions, err := st.Transactions.ListChangedSince(ctx, familyID, watermark)
	if err != nil {
		return PullData{}, fmt.Errorf("pulling transactions: %w", err)
	}

	// Pull lists are always present in the response, never null.
	if accounts == nil {
		accounts = []*models.Account{}
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	if budgets == nil {
		budgets = []*models.Budget{}
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}

	return PullData{
		Accounts:     accounts,
		Categories:   categories,
		Budgets:      budgets,
		Transactions: transactions,
	}, nil
}
