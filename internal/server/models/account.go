package models

// Account is a money account belonging to a family: a bank account, a
// credit card, or plain cash. Balance is kept in minor currency units.
type Account struct {
	SyncMeta

	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

// Account types accepted by the API.
const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
	AccountTypeCredit   = "credit"
	AccountTypeCash     = "cash"
)
