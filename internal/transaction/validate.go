package transaction

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/manekat/internal/master"
	"github.com/MrJamesThe3rd/manekat/internal/proof"
)

const MinDescriptionLength = 5

// MaxAmount caps a single record at one quadrillion rupiah, which keeps any
// realistic ledger total far inside int64.
const MaxAmount int64 = 1_000_000_000_000_000

// Candidate is a submission as received from a client, before validation.
type Candidate struct {
	Type        Type
	Amount      decimal.Decimal
	Description string
	Category    string
	Member      string
	Date        time.Time
	ProofImage  string
	SubmitterID string
}

// Validate checks c against cfg and returns the normalized pending record.
// Checks run in a fixed order and the first failure is returned.
func Validate(c Candidate, cfg master.Config, now time.Time) (*Transaction, error) {
	if _, err := ParseType(string(c.Type)); err != nil {
		return nil, invalid("type", "must be deposit or expense")
	}

	member := strings.TrimSpace(c.Member)
	if member == "" {
		return nil, invalid("member", "is required")
	}

	if !cfg.Members.Contains(member) {
		return nil, invalid("member", "is not a registered family member")
	}

	if !c.Amount.IsPositive() {
		return nil, invalid("amount", "must be greater than zero")
	}

	if !c.Amount.IsInteger() {
		return nil, invalid("amount", "must be a whole number")
	}

	if c.Amount.GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return nil, invalid("amount", "is too large")
	}

	amount := c.Amount.IntPart()

	category := strings.TrimSpace(c.Category)
	if category == "" {
		return nil, invalid("category", "is required")
	}

	if !cfg.Categories.Contains(category) {
		return nil, invalid("category", "is not a configured category")
	}

	description := strings.TrimSpace(c.Description)
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		return nil, invalid("description", "must be at least 5 characters")
	}

	if strings.TrimSpace(c.ProofImage) == "" {
		return nil, invalid("proof_image", "is required")
	}

	img, err := proof.ParseDataURI(c.ProofImage)
	if err != nil {
		return nil, invalid("proof_image", err.Error())
	}

	if c.Type == TypeDeposit && amount < cfg.MinTransfer {
		return nil, invalid("amount", "is below the minimum transfer")
	}

	date := c.Date
	if date.IsZero() {
		date = now
	}

	return &Transaction{
		Type:        c.Type,
		Amount:      amount,
		Description: description,
		Category:    category,
		Member:      member,
		SubmittedBy: member,
		SubmitterID: c.SubmitterID,
		Date:        DateOf(date),
		CreatedAt:   now,
		ProofImage:  img.DataURI(),
		Status:      StatusPending,
	}, nil
}
