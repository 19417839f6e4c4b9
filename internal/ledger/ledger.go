// Package ledger derives balances, report subsets and review queues from a
// full set of transaction records. Every function is pure and recomputes from
// scratch; only approved records ever count toward a total.
package ledger

import (
	"math"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

// RecentLimit is the length of the dashboard history.
const RecentLimit = 10

type Stats struct {
	Deposits int64 `json:"deposits"`
	Expenses int64 `json:"expenses"`
	Balance  int64 `json:"balance"`
}

// Filter narrows a report. Zero fields match everything.
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Member    string
	Type      transaction.Type
}

// GlobalStats sums approved deposits and expenses across records. Sums
// saturate at math.MaxInt64 instead of wrapping.
func GlobalStats(records []*transaction.Transaction) Stats {
	var s Stats

	for _, r := range records {
		if r == nil || r.Status != transaction.StatusApproved || r.Amount <= 0 {
			continue
		}

		switch r.Type {
		case transaction.TypeDeposit:
			s.Deposits = addSaturating(s.Deposits, r.Amount)
		case transaction.TypeExpense:
			s.Expenses = addSaturating(s.Expenses, r.Amount)
		}
	}

	s.Balance = s.Deposits - s.Expenses

	return s
}

// addSaturating adds two non-negative amounts.
func addSaturating(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}

	return a + b
}

// FilterRecords returns the approved records matching f, newest date first.
func FilterRecords(records []*transaction.Transaction, f Filter) []*transaction.Transaction {
	out := make([]*transaction.Transaction, 0, len(records))

	for _, r := range records {
		if r != nil && r.Status == transaction.StatusApproved && f.matches(r) {
			out = append(out, r)
		}
	}

	SortByDateDesc(out)

	return out
}

func (f Filter) matches(r *transaction.Transaction) bool {
	date := transaction.DateOf(r.Date)

	if f.StartDate != nil && date.Before(transaction.DateOf(*f.StartDate)) {
		return false
	}

	if f.EndDate != nil && date.After(transaction.DateOf(*f.EndDate)) {
		return false
	}

	if f.Member != "" && r.Member != f.Member {
		return false
	}

	if f.Type != "" && r.Type != f.Type {
		return false
	}

	return true
}

// FilteredStats sums an already filtered set.
func FilteredStats(filtered []*transaction.Transaction) Stats {
	return GlobalStats(filtered)
}

// SortByDateDesc orders records newest date first in place. Records sharing a
// date keep their relative order.
func SortByDateDesc(records []*transaction.Transaction) {
	slices.SortStableFunc(records, func(a, b *transaction.Transaction) int {
		return b.Date.Compare(a.Date)
	})
}

// PendingQueue returns the records awaiting a decision, oldest submission
// first.
func PendingQueue(records []*transaction.Transaction) []*transaction.Transaction {
	var out []*transaction.Transaction

	for _, r := range records {
		if r != nil && r.Status == transaction.StatusPending {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b *transaction.Transaction) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return out
}

// Snapshot is an immutable derived view of one record set.
type Snapshot struct {
	Records []*transaction.Transaction
	Stats   Stats
	Pending int
}

// Build derives a Snapshot. records is copied, not retained.
func Build(records []*transaction.Transaction) Snapshot {
	sorted := slices.Clone(records)
	SortByDateDesc(sorted)

	return Snapshot{
		Records: sorted,
		Stats:   GlobalStats(sorted),
		Pending: len(PendingQueue(sorted)),
	}
}

// Recent returns at most RecentLimit records of every status.
func (s Snapshot) Recent() []*transaction.Transaction {
	return s.Records[:min(len(s.Records), RecentLimit)]
}

func (s Snapshot) Queue() []*transaction.Transaction {
	return PendingQueue(s.Records)
}

func (s Snapshot) Report(f Filter) ([]*transaction.Transaction, Stats) {
	filtered := FilterRecords(s.Records, f)
	return filtered, FilteredStats(filtered)
}
