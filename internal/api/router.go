/**
 * @description
 * This file sets up the HTTP router for the club service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * the middleware stack: CORS, Clerk authentication, member resolution, role
 * gates, and per-user rate limits.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the dashboard frontend.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/app"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/config"
	"github.com/alessandrojcm/dhc-dashboard-sub005/internal/domain"
)

// ClubRoutes creates and returns the router for the club service.
func ClubRoutes(h *ClubHandlers, limiter app.RateLimiter, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Club service is healthy"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(ClerkAuthMiddleware(cfg.ClerkJWKSURL))

		// Endpoints available to any authenticated Clerk user: applying for
		// membership happens before a member record exists.
		r.Post("/members/apply", h.ApplyHandler)
		r.Get("/billing/subscription", h.SubscriptionStatusHandler)
		r.Post("/billing/subscription", h.UpgradeSubscriptionHandler)
		r.Delete("/billing/subscription", h.CancelSubscriptionHandler)

		// Endpoints that need a resolved member record.
		r.Group(func(r chi.Router) {
			r.Use(RequireMember(h.members))

			r.Get("/members/me", h.MeHandler)
			r.Get("/workshops", h.ListWorkshopsHandler)
			r.Get("/workshops/{workshopID}", h.GetWorkshopHandler)

			// Workshop management for coordinators and admins.
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleCoordinator, domain.RoleAdmin))

				r.Post("/workshops", h.CreateWorkshopHandler)
				r.Post("/workshops/{workshopID}/publish", h.PublishWorkshopHandler)
				r.Post("/workshops/{workshopID}/cancel", h.CancelWorkshopHandler)

				r.Get("/workshops/{workshopID}/attendees", h.ListAttendeesHandler)
				r.With(RateLimit(limiter, "registration", cfg.RegistrationRateLimit)).
					Post("/workshops/{workshopID}/attendees", h.AddAttendeeHandler)
				r.Put("/workshops/{workshopID}/attendance", h.MarkAttendanceHandler)

				r.Get("/workshops/{workshopID}/refunds", h.ListRefundsHandler)
				r.Get("/workshops/{workshopID}/refunds/preview", h.PreviewRefundHandler)
				r.Post("/workshops/{workshopID}/refunds", h.RequestRefundHandler)

				r.With(RateLimit(limiter, "assistant", cfg.AssistantRateLimit)).
					Post("/assistant/workshop-suggestion", h.SuggestWorkshopHandler)
			})

			// Waitlist administration is admin-only.
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin))

				r.Get("/members/waitlist", h.WaitlistHandler)
				r.Post("/members/{memberID}/approve", h.ApproveMemberHandler)
				r.Post("/members/{memberID}/reject", h.RejectMemberHandler)
			})
		})
	})

	return r
}
