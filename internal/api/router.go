package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackarena/portal/internal/api/handler"
	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/challenge"
	"github.com/hackarena/portal/internal/leaderboard"
	"github.com/hackarena/portal/internal/ledger"
	"github.com/hackarena/portal/internal/notify"
	"github.com/hackarena/portal/internal/profile"
	"github.com/hackarena/portal/internal/team"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	Version     string
	Teams       team.Repository
	Profiles    profile.Repository
	Challenges  challenge.Repository
	Ledger      ledger.Store
	Leaderboard *leaderboard.Service
	Auth        *AuthDeps
	Bus         notify.Bus
	Registry    *prometheus.Registry
}

// AuthDeps bundles the login service with the token verifier used by the
// middleware. In production both are the same auth.Service.
type AuthDeps struct {
	Login    handler.LoginService
	Verifier middleware.Verifier
	Hasher   handler.PasswordHasher
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Leaderboard, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if deps.Registry != nil {
		r.Get("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	authHandler := handler.NewAuthHandler(deps.Auth.Login)
	r.Post("/auth/login", authHandler.Login)

	leaderboardHandler := handler.NewLeaderboardHandler(deps.Leaderboard)
	r.Get("/leaderboard", leaderboardHandler.Get)

	teamHandler := handler.NewTeamHandler(deps.Teams, deps.Profiles, deps.Auth.Hasher, deps.Bus)
	challengeHandler := handler.NewChallengeHandler(deps.Challenges)
	pointsHandler := handler.NewPointsHandler(deps.Leaderboard, deps.Ledger)

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.List)
		r.Get("/{id}", teamHandler.GetByID)

		// Team leads manage their own roster; admins manage any.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Auth.Verifier))
			r.Use(middleware.RequireRole(profile.RoleAdmin, profile.RoleTeamLead))
			r.Use(middleware.RequireTeamAccess())

			r.Patch("/{id}", teamHandler.Update)
			r.Post("/{id}/members", teamHandler.AddMember)
			r.Patch("/{id}/members/{memberId}", teamHandler.UpdateMember)
			r.Delete("/{id}/members/{memberId}", teamHandler.RemoveMember)
			r.Post("/{id}/challenges/{challengeId}", teamHandler.JoinChallenge)
			r.Delete("/{id}/challenges/{challengeId}", teamHandler.LeaveChallenge)
		})
	})

	r.Route("/challenges", func(r chi.Router) {
		r.Get("/", challengeHandler.List)
		r.Get("/{id}", challengeHandler.GetByID)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth.Verifier))
		r.Use(middleware.RequireRole(profile.RoleAdmin))

		r.Post("/points", pointsHandler.Assign)
		r.Get("/entries", pointsHandler.ListEntries)

		r.Post("/teams", teamHandler.Create)
		r.Delete("/teams/{id}", teamHandler.Delete)

		r.Get("/challenges", challengeHandler.ListAll)
		r.Post("/challenges", challengeHandler.Create)
		r.Patch("/challenges/{id}", challengeHandler.Update)
	})

	return r
}
