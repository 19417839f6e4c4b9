package master

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/http/httperr"
	"github.com/MrJamesThe3rd/manekat/internal/master"
)

type Handler struct {
	mgr *master.Manager
}

func NewHandler(mgr *master.Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(auth.CanManageMaster))
		r.Post("/{field}", h.add)
		r.Delete("/{field}/{value}", h.remove)
		r.Put("/{field}", h.set)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)
}

type addRequest struct {
	Value string `json:"value"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	field, err := master.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.mgr.AddToSet(r.Context(), field, req.Value); err != nil {
		httperr.Write(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	field, err := master.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	value, err := url.PathUnescape(chi.URLParam(r, "value"))
	if err != nil {
		http.Error(w, "invalid value", http.StatusBadRequest)
		return
	}

	if err := h.mgr.RemoveFromSet(r.Context(), field, value); err != nil {
		httperr.Write(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK)
}

type setRequest struct {
	Value int64 `json:"value"`
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	field, err := master.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.mgr.SetScalar(r.Context(), field, req.Value); err != nil {
		httperr.Write(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int) {
	cfg, err := h.mgr.Current(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
