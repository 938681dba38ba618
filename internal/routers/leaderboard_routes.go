package routers

import (
	"wingit/score/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func LeaderboardRoutes(r *chi.Mux, lbHandler *handlers.LeaderboardHandler) {
	r.Route("/api/v1/leaderboard", func(r chi.Router) {
		r.Get("/", lbHandler.GetLeaderboardHandler)
		r.Get("/me", lbHandler.MyStandingHandler)
	})
}
