package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type distinguishes money coming into the family cash from money leaving it.
type Type string

const (
	TypeDeposit Type = "deposit"
	TypeExpense Type = "expense"
)

func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeDeposit, TypeExpense:
		return t, nil
	}

	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}

	return "", fmt.Errorf("unknown transaction status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether a record in status s may move to next.
// Only pending records can be decided, and only into a terminal state.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && next.Terminal()
}

// Label is the short display name used in shared reports and the console.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Proses"
	case StatusApproved:
		return "Sah"
	case StatusRejected:
		return "Batal"
	}

	return string(s)
}

// Transaction is one submitted deposit or expense entry.
type Transaction struct {
	ID          uuid.UUID
	Type        Type
	Amount      int64 // Whole currency units
	Description string
	Category    string
	Member      string
	SubmittedBy string
	SubmitterID string
	Date        time.Time
	CreatedAt   time.Time
	ProofImage  string // Data URI, only loaded by single-record reads
	Status      Status
	DecidedAt   *time.Time
	DecidedBy   string
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
