package rest

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/tsegaye/travel-listings/internal/auth"
	"github.com/tsegaye/travel-listings/internal/booking"
	userDatamodel "github.com/tsegaye/travel-listings/internal/core/datamodel/user"
	"github.com/tsegaye/travel-listings/internal/listing"
	"github.com/tsegaye/travel-listings/internal/monitoring"
	"github.com/tsegaye/travel-listings/internal/payment"
	"github.com/tsegaye/travel-listings/internal/transport/middleware"
	"github.com/tsegaye/travel-listings/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, redisClient *redis.Client, authHandler *auth.Handler, listingHandler *listing.Handler, bookingHandler *booking.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, redisClient)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", swagger.SpecHandler("./api/openapi.yml"))
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Prometheus metrics
	router.Handle("/metrics", monitoring.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway callback is unauthenticated; the status it reports is
		// re-verified against the gateway before anything changes.
		if webhookHandler != nil {
			r.Post("/payments/callback", webhookHandler.HandleCallback)
		}

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/register", authHandler.Register)
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Public listing browsing (no auth required)
		if listingHandler != nil {
			r.Get("/listings", listingHandler.SearchListings)
			r.Get("/listings/{id}", listingHandler.GetListing)
			r.Get("/listings/{id}/reviews", listingHandler.ListReviews)
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				pr.Get("/users/me", authHandler.Me)

				if listingHandler != nil {
					pr.Group(func(hr chi.Router) {
						hr.Use(authHandler.RequireRole(userDatamodel.RoleHost, userDatamodel.RoleAdmin))
						hr.Get("/listings/mine", listingHandler.MyListings)
						hr.Post("/listings", listingHandler.CreateListing)
						hr.Patch("/listings/{id}", listingHandler.UpdateListing)
						hr.Delete("/listings/{id}", listingHandler.DeleteListing)
					})

					pr.Group(func(gr chi.Router) {
						gr.Use(authHandler.RequireRole(userDatamodel.RoleGuest, userDatamodel.RoleAdmin))
						gr.Post("/listings/{id}/reviews", listingHandler.AddReview)
					})
				}

				if bookingHandler != nil {
					pr.Route("/bookings", func(br chi.Router) {
						br.Get("/my", bookingHandler.MyBookings)
						br.Get("/{id}", bookingHandler.GetBooking)
						br.Post("/{id}/cancel", bookingHandler.CancelBooking)
						br.Post("/{id}/reschedule", bookingHandler.RescheduleBooking)

						br.Group(func(gr chi.Router) {
							gr.Use(authHandler.RequireRole(userDatamodel.RoleGuest, userDatamodel.RoleAdmin))
							gr.Post("/", bookingHandler.CreateBooking)
						})

						br.Group(func(hr chi.Router) {
							hr.Use(authHandler.RequireRole(userDatamodel.RoleHost, userDatamodel.RoleAdmin))
							hr.Get("/host", bookingHandler.HostBookings)
						})
					})
				}

				if paymentHandler != nil {
					pr.Route("/payments", func(pmr chi.Router) {
						pmr.Get("/", paymentHandler.ListPayments)
						pmr.Post("/initiate", paymentHandler.InitiatePayment)
						pmr.Post("/verify/{txRef}", paymentHandler.VerifyPayment)
					})
				}
			})
		}
	})
}
