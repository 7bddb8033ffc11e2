package models

import "time"

// Budget is a spending limit over a period, optionally scoped to one
// category and/or one account. Amount is in minor currency units.
type Budget struct {
	SyncMeta

	Name       string     `json:"name"`
	CategoryID *string    `json:"categoryId,omitempty"`
	AccountID  *string    `json:"accountId,omitempty"`
	Amount     int64      `json:"amount"`
	Period     string     `json:"period"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    *time.Time `json:"endDate,omitempty"`
}

const (
	BudgetPeriodWeekly  = "weekly"
	BudgetPeriodMonthly = "monthly"
	BudgetPeriodYearly  = "yearly"
)
