// Package server assembles the HTTP routes of the API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/handler"
	"github.com/capitalize-ai/coursechat/internal/middleware"
	"github.com/capitalize-ai/coursechat/internal/model"
	natsclient "github.com/capitalize-ai/coursechat/internal/nats"
	"github.com/capitalize-ai/coursechat/internal/service"
	"github.com/capitalize-ai/coursechat/pkg/logger"
)

// Deps are the collaborators the routes are served by.
type Deps struct {
	Chat    *service.ChatService
	Catalog *service.CatalogService
	SSO     *auth.SSO
	Issuer  *auth.Issuer
	NATS    *natsclient.Client
	Logger  *logger.Logger

	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxUploadBytes    int64
}

// New builds the API router.
func New(d Deps) http.Handler {
	healthHandler := handler.NewHealthHandler(d.NATS)
	authHandler := handler.NewAuthHandler(d.SSO, d.Issuer, d.Logger)
	courseHandler := handler.NewCourseHandler(d.Catalog, d.Logger, d.MaxUploadBytes)
	conversationHandler := handler.NewConversationHandler(d.Chat, d.Logger)
	messageHandler := handler.NewMessageHandler(d.Chat, d.Logger)
	streamHandler := handler.NewStreamHandler(d.Chat, d.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(d.RateLimitRequests, d.RateLimitWindow)).
			Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.Issuer))
			r.Use(middleware.UserRateLimit(d.RateLimitRequests, d.RateLimitWindow))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/courses", func(r chi.Router) {
				r.Get("/", courseHandler.List)
				r.With(middleware.RequireRole(model.RoleProfessor)).Get("/mine", courseHandler.Mine)
				r.With(middleware.RequireRole(model.RoleProfessor)).Post("/", courseHandler.Create)

				r.Route("/{courseID}", func(r chi.Router) {
					r.Get("/", courseHandler.Get)
					r.Get("/materials", courseHandler.Materials)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole(model.RoleProfessor))
						r.Put("/", courseHandler.Update)
						r.Delete("/", courseHandler.Delete)
						r.Post("/materials", courseHandler.Upload)
					})
				})
			})

			r.Route("/chat", func(r chi.Router) {
				r.Get("/state", conversationHandler.State)
				r.Put("/course", conversationHandler.SelectCourse)
				r.Put("/filter", conversationHandler.SetFilter)
				r.Put("/current", conversationHandler.SelectConversation)

				r.Route("/conversations", func(r chi.Router) {
					r.Get("/", conversationHandler.List)
					r.Post("/", conversationHandler.Create)
					r.Get("/{id}", conversationHandler.Get)
					r.Put("/{id}", conversationHandler.Rename)
					r.Delete("/{id}", conversationHandler.Delete)
				})

				r.Route("/messages", func(r chi.Router) {
					r.Get("/", messageHandler.List)
					r.Post("/", messageHandler.Send)
					r.Post("/stream", streamHandler.StreamWithMessage)
					r.Get("/pinned", messageHandler.Pinned)

					r.Route("/{msgID}", func(r chi.Router) {
						r.Patch("/", messageHandler.Update)
						r.Delete("/", messageHandler.Delete)
						r.Post("/pin", messageHandler.TogglePin)
						r.Put("/tags/{tag}", messageHandler.AddTag)
						r.Delete("/tags/{tag}", messageHandler.RemoveTag)
						r.Post("/regenerate", messageHandler.Regenerate)
						r.Post("/improve", messageHandler.Improve)
						r.Post("/steps", messageHandler.StepByStep)
					})
				})

				r.Post("/summarize", messageHandler.Summarize)
				r.Post("/notes", messageHandler.StudyNotes)
			})
		})
	})

	return r
}
