package transaction_test

import (
	"encoding/base64"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

var pngProof = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	[]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'},
)

var now = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func masterConfig() master.Config {
	return master.Config{
		Categories:  master.NewSet("Food"),
		Members:     master.NewSet("A", "B"),
		MinTransfer: 50000,
	}
}

func validCandidate() transaction.Candidate {
	return transaction.Candidate{
		Type:        transaction.TypeDeposit,
		Amount:      decimal.NewFromInt(50000),
		Description: "Monthly savings",
		Category:    "Food",
		Member:      "A",
		Date:        time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		ProofImage:  pngProof,
		SubmitterID: "session-1",
	}
}

func TestValidate(t *testing.T) {
	type testCase struct {
		name      string
		mutate    func(c *transaction.Candidate)
		wantField string
	}

	tests := []testCase{
		{name: "Valid"},
		{
			name:      "UnknownType",
			mutate:    func(c *transaction.Candidate) { c.Type = "transfer" },
			wantField: "type",
		},
		{
			name:      "MissingMember",
			mutate:    func(c *transaction.Candidate) { c.Member = " " },
			wantField: "member",
		},
		{
			name:      "UnknownMember",
			mutate:    func(c *transaction.Candidate) { c.Member = "C" },
			wantField: "member",
		},
		{
			name:      "ZeroAmount",
			mutate:    func(c *transaction.Candidate) { c.Amount = decimal.Zero },
			wantField: "amount",
		},
		{
			name:      "NegativeAmount",
			mutate:    func(c *transaction.Candidate) { c.Amount = decimal.NewFromInt(-5) },
			wantField: "amount",
		},
		{
			name:      "FractionalAmount",
			mutate:    func(c *transaction.Candidate) { c.Amount = decimal.RequireFromString("50000.5") },
			wantField: "amount",
		},
		{
			name:      "AmountTooLarge",
			mutate:    func(c *transaction.Candidate) { c.Amount = decimal.NewFromInt(math.MaxInt64) },
			wantField: "amount",
		},
		{
			name:      "UnknownCategory",
			mutate:    func(c *transaction.Candidate) { c.Category = "Travel" },
			wantField: "category",
		},
		{
			name:      "ShortDescription",
			mutate:    func(c *transaction.Candidate) { c.Description = " abcd " },
			wantField: "description",
		},
		{
			name:      "MissingProof",
			mutate:    func(c *transaction.Candidate) { c.ProofImage = "" },
			wantField: "proof_image",
		},
		{
			name: "ProofNotImage",
			mutate: func(c *transaction.Candidate) {
				c.ProofImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text"))
			},
			wantField: "proof_image",
		},
		{
			name:      "DepositBelowMinimum",
			mutate:    func(c *transaction.Candidate) { c.Amount = decimal.NewFromInt(49999) },
			wantField: "amount",
		},
		{
			name: "ExpenseBelowMinimum",
			mutate: func(c *transaction.Candidate) {
				c.Type = transaction.TypeExpense
				c.Amount = decimal.NewFromInt(1)
			},
		},
		{
			name: "FirstFailureWins",
			mutate: func(c *transaction.Candidate) {
				c.Member = "C"
				c.Amount = decimal.Zero
				c.Description = ""
			},
			wantField: "member",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			if tt.mutate != nil {
				tt.mutate(&c)
			}

			got, err := transaction.Validate(c, masterConfig(), now)

			if tt.wantField != "" {
				var verr *transaction.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, transaction.StatusPending, got.Status)
			assert.Equal(t, now, got.CreatedAt)
			assert.Equal(t, got.Member, got.SubmittedBy)
		})
	}
}

func TestValidate_ZeroAmountAlwaysRejected(t *testing.T) {
	variants := []func(c *transaction.Candidate){
		func(c *transaction.Candidate) {},
		func(c *transaction.Candidate) { c.Type = transaction.TypeExpense },
		func(c *transaction.Candidate) { c.ProofImage = "" },
		func(c *transaction.Candidate) { c.Description = strings.Repeat("x", 200) },
		func(c *transaction.Candidate) { c.Category = "" },
	}

	for _, mutate := range variants {
		c := validCandidate()
		mutate(&c)
		c.Amount = decimal.Zero

		_, err := transaction.Validate(c, masterConfig(), now)
		assert.Error(t, err)
	}
}

func TestValidate_MaxAmountBoundary(t *testing.T) {
	c := validCandidate()
	c.Amount = decimal.NewFromInt(transaction.MaxAmount)
	got, err := transaction.Validate(c, masterConfig(), now)
	require.NoError(t, err)
	assert.Equal(t, transaction.MaxAmount, got.Amount)

	c.Amount = decimal.NewFromInt(transaction.MaxAmount).Add(decimal.NewFromInt(1))
	_, err = transaction.Validate(c, masterConfig(), now)

	var verr *transaction.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
}

func TestValidate_MinTransferBoundary(t *testing.T) {
	cfg := masterConfig()

	c := validCandidate()
	c.Amount = decimal.NewFromInt(cfg.MinTransfer - 1)
	_, err := transaction.Validate(c, cfg, now)
	assert.Error(t, err)

	c.Amount = decimal.NewFromInt(cfg.MinTransfer)
	got, err := transaction.Validate(c, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, cfg.MinTransfer, got.Amount)
}

func TestValidate_Normalizes(t *testing.T) {
	c := validCandidate()
	c.Member = " A "
	c.Description = "  Weekly market  "
	c.Date = time.Time{}

	got, err := transaction.Validate(c, masterConfig(), now)
	require.NoError(t, err)

	assert.Equal(t, "A", got.Member)
	assert.Equal(t, "Weekly market", got.Description)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got.Date)
	assert.Equal(t, pngProof, got.ProofImage)
	assert.Equal(t, "session-1", got.SubmitterID)
}

func TestStatus_CanTransition(t *testing.T) {
	all := []transaction.Status{transaction.StatusPending, transaction.StatusApproved, transaction.StatusRejected}

	for _, from := range all {
		for _, to := range all {
			want := from == transaction.StatusPending && to != transaction.StatusPending
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}
