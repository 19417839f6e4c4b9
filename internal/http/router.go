package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
	"github.com/MrJamesThe3rd/manekat/internal/http/master"
	"github.com/MrJamesThe3rd/manekat/internal/http/report"
	"github.com/MrJamesThe3rd/manekat/internal/http/session"
	"github.com/MrJamesThe3rd/manekat/internal/http/stream"
	"github.com/MrJamesThe3rd/manekat/internal/http/transaction"
)

func New(
	issuer *auth.Issuer,
	allowedOrigins []string,
	sessionsV1 *session.Handler,
	transactionsV1 *transaction.Handler,
	reportsV1 *report.Handler,
	masterV1 *master.Handler,
	streamV1 *stream.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			sessionsV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(issuer))

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
				transactionsV1.Routes(r)
			})

			r.Get("/stats", reportsV1.Stats)
			r.Route("/reports", reportsV1.Routes)

			r.Route("/master", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				masterV1.Routes(r)
			})

			r.Route("/stream", streamV1.Routes)
		})
	})

	return router
}
