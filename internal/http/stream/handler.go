// Package stream serves mirror snapshots as server-sent events. Every event
// carries the complete current value; clients replace their copy wholesale.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/manekat/internal/feed"
	txHTTP "github.com/MrJamesThe3rd/manekat/internal/http/transaction"
	"github.com/MrJamesThe3rd/manekat/internal/ledger"
	"github.com/MrJamesThe3rd/manekat/internal/master"
)

const keepAlive = 25 * time.Second

type Handler struct {
	transactions *feed.Mirror[ledger.Snapshot]
	master       *feed.Mirror[master.Config]
}

func NewHandler(transactions *feed.Mirror[ledger.Snapshot], cfg *feed.Mirror[master.Config]) *Handler {
	return &Handler{transactions: transactions, master: cfg}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/transactions", serve(h.transactions, toCollection))
	r.Get("/master", serve(h.master, func(c master.Config) any { return c }))
}

type collectionEvent struct {
	Records []txHTTP.Response `json:"records"`
	Stats   ledger.Stats      `json:"stats"`
	Pending int               `json:"pending"`
}

func toCollection(s ledger.Snapshot) any {
	return collectionEvent{
		Records: txHTTP.ToResponseList(s.Records),
		Stats:   s.Stats,
		Pending: s.Pending,
	}
}

func serve[T any](m *feed.Mirror[T], encode func(T) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)

		// The stream outlives the server's write timeout.
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			slog.Debug("stream write deadline not cleared", "error", err)
		}

		updates, cancel := m.Subscribe()
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		send := func() error {
			v, ok := m.Current()
			if !ok {
				return rc.Flush()
			}

			data, err := json.Marshal(encode(v))
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return err
			}

			return rc.Flush()
		}

		if err := send(); err != nil {
			slog.Error("failed to write snapshot", "error", err)
			return
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-updates:
				if err := send(); err != nil {
					slog.Debug("stream closed", "error", err)
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}

				if err := rc.Flush(); err != nil {
					return
				}
			}
		}
	}
}
