package models

// Category classifies transactions and budgets. Categories may nest one
// level deep via ParentID.
type Category struct {
	SyncMeta

	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ParentID *string `json:"parentId,omitempty"`
	Icon     *string `json:"icon,omitempty"`
}

const (
	CategoryTypeExpense = "expense"
	CategoryTypeIncome  = "income"
)
