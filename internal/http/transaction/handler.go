package transaction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/http/httperr"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/proof"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

// multipart overhead allowed on top of the proof image itself.
const formOverhead = 64 << 10

// maxJSONBody fits a base64 data URI of the largest accepted proof plus the
// other fields.
var maxJSONBody = int64(base64.StdEncoding.EncodedLen(proof.MaxSize) + formOverhead)

var errBodyTooLarge = errors.New("request body too large")

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.With(auth.Require(auth.CanSubmit)).Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/proof", h.proof)

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(auth.CanDecide))
		r.Get("/pending", h.pending)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})
}

type createTransactionRequest struct {
	Type        transaction.Type `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Member      string           `json:"member"`
	Date        string           `json:"date,omitempty"`
	ProofImage  string           `json:"proof_image"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreate(w, r)
	if errors.Is(err, errBodyTooLarge) {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	c := transaction.Candidate{
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Member:      req.Member,
		ProofImage:  req.ProofImage,
	}

	if p, ok := auth.FromContext(r.Context()); ok {
		c.SubmitterID = p.Subject
	}

	if req.Date != "" {
		d, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			httperr.Write(w, r, &transaction.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"})
			return
		}

		c.Date = d
	}

	tx, err := h.svc.Submit(r.Context(), c)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	tx.ProofImage = ""

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ToResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeCreate accepts either a JSON body carrying the proof as a data URI or
// a multipart form with the image in the "proof" file field. Both bodies are
// capped before they are read.
func decodeCreate(w http.ResponseWriter, r *http.Request) (createTransactionRequest, error) {
	var req createTransactionRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, bodyError(err)
		}

		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, proof.MaxSize+formOverhead)
	if err := r.ParseMultipartForm(proof.MaxSize + formOverhead); err != nil {
		return req, bodyError(err)
	}

	req.Type = transaction.Type(r.FormValue("type"))
	req.Description = r.FormValue("description")
	req.Category = r.FormValue("category")
	req.Member = r.FormValue("member")
	req.Date = r.FormValue("date")

	if s := strings.TrimSpace(r.FormValue("amount")); s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return req, &transaction.ValidationError{Field: "amount", Reason: "must be a number"}
		}

		req.Amount = amount
	}

	f, _, err := r.FormFile("proof")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}

	if err != nil {
		return req, &transaction.ValidationError{Field: "proof_image", Reason: err.Error()}
	}
	defer f.Close()

	if req.ProofImage, err = proof.EncodeReader(f); err != nil {
		return req, &transaction.ValidationError{Field: "proof_image", Reason: err.Error()}
	}

	return req, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func parseListFilter(r *http.Request) (transaction.ListFilter, error) {
	var filter transaction.ListFilter

	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		st, err := transaction.ParseStatus(s)
		if err != nil {
			return filter, err
		}

		filter.Status = new(st)
	}

	if s := q.Get("type"); s != "" {
		t, err := transaction.ParseType(s)
		if err != nil {
			return filter, err
		}

		filter.Type = new(t)
	}

	if s := q.Get("member"); s != "" {
		filter.Member = new(s)
	}

	start, end, err := ParseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		return filter, err
	}

	filter.StartDate, filter.EndDate = start, end

	return filter, nil
}

// ParseDateRange parses optional YYYY-MM-DD bounds.
func ParseDateRange(start, end string) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if start != "" {
		t, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return nil, nil, errors.New("start_date must be YYYY-MM-DD")
		}

		from = new(t)
	}

	if end != "" {
		t, err := time.Parse(time.DateOnly, end)
		if err != nil {
			return nil, nil, errors.New("end_date must be YYYY-MM-DD")
		}

		to = new(t)
	}

	return from, to, nil
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.List(r.Context(), transaction.ListFilter{Status: new(transaction.StatusPending)})
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponseList(ledger.PendingQueue(txs))); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) proof(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	img, err := h.svc.GetProof(r.Context(), id)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")

	if _, err := w.Write(img.Data); err != nil {
		slog.Error("failed to write proof image", "error", err)
	}
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Reject)
}

type decideFunc func(ctx context.Context, id uuid.UUID, actor string) (*transaction.Transaction, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, _ := auth.FromContext(r.Context())

	tx, err := fn(r.Context(), id, p.Subject)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	tx.ProofImage = ""

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}

	return &transaction.ValidationError{Field: "body", Reason: err.Error()}
}
