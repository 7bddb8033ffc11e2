package sync

import (
	"encoding/json"
	"errors"

	"github.com/ddanilenko/famledger/internal/server/models"
)

// Kind bindings. Decode builds a fresh entity from a CREATE payload; merge
// copies client-writable fields onto the stored entity for UPDATE. Sync
// bookkeeping (id, version, tenant, timestamps) is owned by the processor
// and deliberately not copied from payloads.

func newAccountProcessor(st Store[*models.Account]) *Processor[*models.Account] {
	decode := func(raw json.RawMessage) (*models.Account, error) {
		var a models.Account
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		if err := validateAccount(&a); err != nil {
			return nil, err
		}
		return &a, nil
	}
	merge := func(dst *models.Account, raw json.RawMessage) error {
		var src models.Account
		if err := json.Unmarshal(raw, &src); err != nil {
			return err
		}
		if err := validateAccount(&src); err != nil {
			return err
		}
		dst.Name = src.Name
		dst.Type = src.Type
		dst.Currency = src.Currency
		dst.Balance = src.Balance
		return nil
	}
	return NewProcessor(KindAccounts, st, decode, merge)
}

func newCategoryProcessor(st Store[*models.Category]) *Processor[*models.Category] {
	decode := func(raw json.RawMessage) (*models.Category, error) {
		var c models.Category
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		if err := validateCategory(&c); err != nil {
			return nil, err
		}
		return &c, nil
	}
	merge := func(dst *models.Category, raw json.RawMessage) error {
		var src models.Category
		if err := json.Unmarshal(raw, &src); err != nil {
			return err
		}
		if err := validateCategory(&src); err != nil {
			return err
		}
		dst.Name = src.Name
		dst.Type = src.Type
		dst.ParentID = src.ParentID
		dst.Icon = src.Icon
		return nil
	}
	return NewProcessor(KindCategories, st, decode, merge)
}

func newBudgetProcessor(st Store[*models.Budget]) *Processor[*models.Budget] {
	decode := func(raw json.RawMessage) (*models.Budget, error) {
		var b models.Budget
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		if err := validateBudget(&b); err != nil {
			return nil, err
		}
		return &b, nil
	}
	merge := func(dst *models.Budget, raw json.RawMessage) error {
		var src models.Budget
		if err := json.Unmarshal(raw, &src); err != nil {
			return err
		}
		if err := validateBudget(&src); err != nil {
			return err
		}
		dst.Name = src.Name
		dst.CategoryID = src.CategoryID
		dst.AccountID = src.AccountID
		dst.Amount = src.Amount
		dst.Period = src.Period
		dst.StartDate = src.StartDate
		dst.EndDate = src.EndDate
		return nil
	}
	return NewProcessor(KindBudgets, st, decode, merge)
}

func newTransactionProcessor(st Store[*models.Transaction]) *Processor[*models.Transaction] {
	decode := func(raw json.RawMessage) (*models.Transaction, error) {
		var tr models.Transaction
		if err := json.Unmarshal(raw, &tr); err != nil {
			return nil, err
		}
		if err := validateTransaction(&tr); err != nil {
			return nil, err
		}
		return &tr, nil
	}
	merge := func(dst *models.Transaction, raw json.RawMessage) error {
		var src models.Transaction
		if err := json.Unmarshal(raw, &src); err != nil {
			return err
		}
		if err := validateTransaction(&src); err != nil {
			return err
		}
		dst.AccountID = src.AccountID
		dst.CategoryID = src.CategoryID
		dst.Amount = src.Amount
		dst.Date = src.Date
		dst.Payee = src.Payee
		dst.Note = src.Note
		dst.Type = src.Type
		return nil
	}
	return NewProcessor(KindTransactions, st, decode, merge)
}

func validateAccount(a *models.Account) error {
	if a.Name == "" {
		return errors.New("account name is required")
	}
	switch a.Type {
	case models.AccountTypeChecking, models.AccountTypeSavings, models.AccountTypeCredit, models.AccountTypeCash:
		return nil
	default:
		return errors.New("unknown account type")
	}
}

func validateCategory(c *models.Category) error {
	if c.Name == "" {
		return errors.New("category name is required")
	}
	switch c.Type {
	case models.CategoryTypeExpense, models.CategoryTypeIncome:
		return nil
	default:
		return errors.New("unknown category type")
	}
}

func validateBudget(b *models.Budget) error {
	if b.Name == "" {
		return errors.New("budget name is required")
	}
	if b.Amount < 0 {
		return errors.New("budget amount must be non-negative")
	}
	switch b.Period {
	case models.BudgetPeriodWeekly, models.BudgetPeriodMonthly, models.BudgetPeriodYearly:
		return nil
	default:
		return errors.New("unknown budget period")
	}
}

func validateTransaction(tr *models.Transaction) error {
	if tr.AccountID == "" {
		return errors.New("transaction accountId is required")
	}
	if tr.Amount < 0 {
		return errors.New("transaction amount must be non-negative")
	}
	switch tr.Type {
	case models.TransactionTypeExpense, models.TransactionTypeIncome, models.TransactionTypeTransfer:
		return nil
	default:
		return errors.New("unknown transaction type")
	}
}
