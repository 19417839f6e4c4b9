package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/manekat/internal/feed"
	"github.com/MrJamesThe3rd/manekat/internal/http/httperr"
	txHTTP "github.com/MrJamesThe3rd/manekat/internal/http/transaction"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/report"
	"github.com/MrJamesThe3rd/manekat/internal/transaction"
)

type Handler struct {
	svc      *report.Service
	snapshot *feed.Mirror[ledger.Snapshot]
}

func NewHandler(svc *report.Service, snapshot *feed.Mirror[ledger.Snapshot]) *Handler {
	return &Handler{svc: svc, snapshot: snapshot}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.report)
	r.Get("/share", h.share)
	r.Get("/download", h.download)
}

type statsResponse struct {
	ledger.Stats
	Pending int               `json:"pending"`
	Recent  []txHTTP.Response `json:"recent"`
}

// Stats serves the dashboard: global totals, the review badge count and the
// latest history.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot.Get(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(statsResponse{
		Stats:   snap.Stats,
		Pending: snap.Pending,
		Recent:  txHTTP.ToResponseList(snap.Recent()),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type reportResponse struct {
	Records   []txHTTP.Response `json:"records"`
	Stats     ledger.Stats      `json:"stats"`
	ShareText string            `json:"share_text"`
	ShareURL  string            `json:"share_url"`
	Footer    string            `json:"footer"`
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(reportResponse{
		Records:   txHTTP.ToResponseList(rep.Records),
		Stats:     rep.Stats,
		ShareText: h.svc.ShareText(rep),
		ShareURL:  h.svc.ShareURL(rep),
		Footer:    h.svc.PrintFooter(rep),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type shareResponse struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(shareResponse{
		Text: h.svc.ShareText(rep),
		URL:  h.svc.ShareURL(rep),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"laporan_%s.zip\"", rep.GeneratedAt.Format("20060102")))

	if err := h.svc.WriteArchive(r.Context(), w, rep); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	q := r.URL.Query()

	start, end, err := txHTTP.ParseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	f := ledger.Filter{StartDate: start, EndDate: end, Member: q.Get("member")}

	if s := q.Get("type"); s != "" {
		if f.Type, err = transaction.ParseType(s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil, false
		}
	}

	snap, err := h.snapshot.Get(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return nil, false
	}

	return h.svc.FromSnapshot(snap, f), true
}
