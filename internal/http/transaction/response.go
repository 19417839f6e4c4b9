package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

type Response struct {
	ID          uuid.UUID          `json:"id"`
	Type        transaction.Type   `json:"type"`
	Amount      int64              `json:"amount"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Member      string             `json:"member"`
	SubmittedBy string             `json:"submitted_by"`
	Date        string             `json:"date"`
	CreatedAt   time.Time          `json:"created_at"`
	Status      transaction.Status `json:"status"`
	StatusLabel string             `json:"status_label"`
	DecidedAt   *time.Time         `json:"decided_at,omitempty"`
	DecidedBy   string             `json:"decided_by,omitempty"`
	ProofImage  string             `json:"proof_image,omitempty"`
}

func ToResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
		Member:      tx.Member,
		SubmittedBy: tx.SubmittedBy,
		Date:        tx.Date.Format(time.DateOnly),
		CreatedAt:   tx.CreatedAt,
		Status:      tx.Status,
		StatusLabel: tx.Status.Label(),
		DecidedAt:   tx.DecidedAt,
		DecidedBy:   tx.DecidedBy,
		ProofImage:  tx.ProofImage,
	}
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, ToResponse(tx))
	}

	return resp
}
