package domain

import (
	"time"
)

// TransactionType tags a transaction as money out or money in.
type TransactionType string

const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// Transaction represents one expense or income record. Transactions live
// under their owner's settings document and never outlive it; the purge
// path deletes them before the settings record.
type Transaction struct {
	ID          string          `json:"id" firestore:"-"`
	Description string          `json:"description" firestore:"description"`
	Type        TransactionType `json:"type" firestore:"type"`
	Amount      float64         `json:"amount" firestore:"amount"`
	Notes       string          `json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" firestore:"createdAt"`
}
