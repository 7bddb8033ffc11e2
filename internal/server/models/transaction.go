package models

import "time"

// Transaction is a single income or expense posting against an account.
// Amount is in minor currency units and always positive; Type decides
// the sign.
type Transaction struct {
	SyncMeta

	AccountID  string    `json:"accountId"`
	CategoryID *string   `json:"categoryId,omitempty"`
	Amount     int64     `json:"amount"`
	Date       time.Time `json:"date"`
	Payee      string    `json:"payee"`
	Note       string    `json:"note,omitempty"`
	Type       string    `json:"type"`
}

const (
	TransactionTypeExpense  = "expense"
	TransactionTypeIncome   = "income"
	TransactionTypeTransfer = "transfer"
)
