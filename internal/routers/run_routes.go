package routers

import (
	"wingit/score/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func RunRoutes(r *chi.Mux, runHandler *handlers.RunHandler) {
	r.Route("/api/v1/runs", func(r chi.Router) {
		r.Post("/token", runHandler.IssueTokenHandler)
		r.Post("/", runHandler.SubmitHandler)
	})
}
