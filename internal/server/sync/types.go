package sync

import (
	"encoding/json"
	"time"

	"github.com/ddanilenko/famledger/internal/server/models"
)

// Change operations as sent by clients.
const (
	OpCreate = "CREATE"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Per-change error codes returned in push results.
const (
	ErrCodeConflict   = "CONFLICT"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// Entity kinds, in their dependency order.
const (
	KindAccounts     = "accounts"
	KindCategories   = "categories"
	KindBudgets      = "budgets"
	KindTransactions = "transactions"
)

// Request size caps. They bound the transaction, not the protocol: a client
// with more pending changes syncs in several rounds.
const (
	DefaultMaxChanges = 1000
	DefaultMaxPerKind = 250
)

// DefaultTimeout bounds the wall-clock duration of one sync transaction.
const DefaultTimeout = 30 * time.Second

// Change is one client-submitted mutation. ID is chosen by the client at
// creation time, which is what makes creates idempotent. ClientVersion is
// the version the client believes the server holds.
type Change struct {
	ID              string          `json:"id"`
	Operation       string          `json:"operation"`
	ClientVersion   int64           `json:"clientVersion"`
	ClientTimestamp time.Time       `json:"clientTimestamp"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// Result is the per-change outcome. ServerEntity is set on CONFLICT so the
// client can reconcile against the authoritative state.
type Result struct {
	ID           string `json:"id"`
	Success      bool   `json:"success"`
	NewVersion   int64  `json:"newVersion,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ServerEntity any    `json:"serverEntity,omitempty"`
}

// Conflict is appended once per version-mismatch, across all kinds.
type Conflict struct {
	Kind          string `json:"kind"`
	ID            string `json:"id"`
	Operation     string `json:"operation"`
	ClientVersion int64  `json:"clientVersion"`
	ServerVersion int64  `json:"serverVersion"`
	ServerEntity  any    `json:"serverEntity,omitempty"`
}

// ChangeSet groups the optional per-kind change lists of one request.
type ChangeSet struct {
	Accounts     []Change `json:"accounts,omitempty"`
	Categories   []Change `json:"categories,omitempty"`
	Budgets      []Change `json:"budgets,omitempty"`
	Transactions []Change `json:"transactions,omitempty"`
}

// Total returns the number of changes across all kinds.
func (cs ChangeSet) Total() int {
	return len(cs.Accounts) + len(cs.Categories) + len(cs.Budgets) + len(cs.Transactions)
}

// Request is the logical sync request. A nil LastSyncTimestamp means an
// initial full sync.
type Request struct {
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp"`
	Changes           ChangeSet  `json:"changes"`
	ClientID          string     `json:"clientId,omitempty"`
}

// PushResults carries per-kind result lists, in the same order the changes
// were submitted within each kind.
type PushResults struct {
	Accounts     []Result `json:"accounts,omitempty"`
	Categories   []Result `json:"categories,omitempty"`
	Budgets      []Result `json:"budgets,omitempty"`
	Transactions []Result `json:"transactions,omitempty"`
}

// PullData is the incremental snapshot: every entity changed after the
// watermark, soft-deleted ones included.
type PullData struct {
	Accounts     []*models.Account     `json:"accounts"`
	Categories   []*models.Category    `json:"categories"`
	Budgets      []*models.Budget      `json:"budgets"`
	Transactions []*models.Transaction `json:"transactions"`
}

// Response is the assembled outcome of one sync round. SyncTimestamp is the
// client's next watermark.
type Response struct {
	PushResults   PushResults `json:"pushResults"`
	PullData      PullData    `json:"pullData"`
	SyncTimestamp time.Time   `json:"syncTimestamp"`
	HasConflicts  bool        `json:"hasConflicts"`
	Conflicts     []Conflict  `json:"conflicts"`
}
