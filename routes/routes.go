package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/speech-ballots/docs"
	"github.com/Dosada05/speech-ballots/handlers"
	"github.com/Dosada05/speech-ballots/middleware"
)

// Handlers - все HTTP-обработчики приложения.
type Handlers struct {
	Health     *handlers.HealthHandler
	Public     *handlers.PublicHandler
	Ballot     *handlers.BallotHandler
	MagicLink  *handlers.MagicLinkHandler
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Competitor *handlers.CompetitorHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	FrontendURL  string
	Sessions     middleware.SessionValidator
	LoginLimiter *middleware.IPRateLimiter
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.SessionHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health.Health)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Public.Status)
		r.Get("/competitors", h.Public.Competitors)
		r.Get("/event-types", h.Public.EventTypes)

		r.Route("/ballots", func(r chi.Router) {
			r.Post("/draft", h.Ballot.SaveDraft)
			r.Get("/draft", h.Ballot.GetDraft)
			r.Post("/submit", h.Ballot.Submit)
			r.Get("/{id}/pdf", h.Ballot.PDF)
		})

		r.Get("/magic/{token}", h.MagicLink.Resolve)
	})

	r.Route("/admin", func(r chi.Router) {
		login := http.Handler(http.HandlerFunc(h.Auth.Login))
		if opts.LoginLimiter != nil {
			login = middleware.RateLimit(opts.LoginLimiter)(login)
		}
		r.Method(http.MethodPost, "/login", login)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(opts.Sessions))

			r.Route("/tournaments", func(r chi.Router) {
				r.Get("/", h.Tournament.List)
				r.Post("/", h.Tournament.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Tournament.Get)
					r.Put("/close", h.Tournament.Close)
					r.Post("/send-all-links", h.Tournament.SendAllLinks)
					r.Get("/rankings", h.Tournament.Rankings)
					r.Get("/rankings.xlsx", h.Tournament.RankingsXLSX)
					r.Post("/rankings/archive", h.Tournament.ArchiveRankings)
					r.Get("/competitors-for-import", h.Tournament.CompetitorsForImport)
					r.Post("/import-competitors", h.Tournament.ImportCompetitors)
				})
			})
			r.Get("/past-tournaments", h.Tournament.ListPast)

			r.Route("/competitors", func(r chi.Router) {
				r.Get("/", h.Competitor.List)
				r.Post("/", h.Competitor.Create)
				r.Put("/{id}", h.Competitor.Update)
				r.Delete("/{id}", h.Competitor.Delete)
				r.Post("/{id}/resend", h.Competitor.ResendLink)
			})

			r.Get("/ballots", h.Ballot.List)
			r.Get("/ws/tournaments/{id}", h.WebSocket.ServeWs)
		})
	})
}
