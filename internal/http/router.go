package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/handlers"
	"github.com/roamtrails/tours-api/internal/http/middleware"
	"github.com/roamtrails/tours-api/internal/http/response"
	"github.com/roamtrails/tours-api/internal/service"
	mw "github.com/roamtrails/tours-api/pkg/middleware"
)

// RouterConfig carries the pieces the route tree mounts.
type RouterConfig struct {
	Auth     service.AuthService
	Tours    *handlers.TourHandlers
	Users    *handlers.UserHandlers
	AuthH    *handlers.AuthHandlers
	Reviews  *handlers.ReviewHandlers
	Bookings *handlers.BookingHandlers

	// Optional; skipped when nil.
	RateLimit func(http.Handler) http.Handler

	AllowedOrigins []string
}

// NewRouter assembles the /api/v1 tree.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}

	protect := middleware.Protect(cfg.Auth)
	staffOnly := middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", cfg.AuthH.SignUp)
			r.Post("/login", cfg.AuthH.Login)
			r.Post("/forgotPassword", cfg.AuthH.ForgotPassword)
			r.Patch("/resetPassword/{token}", cfg.AuthH.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Post("/logout", cfg.AuthH.Logout)
				r.Patch("/updateMyPassword", cfg.AuthH.UpdatePassword)
				r.Get("/me", cfg.Users.GetMe)
				r.Patch("/updateMe", cfg.Users.UpdateMe)
				r.Delete("/deleteMe", cfg.Users.DeleteMe)
				r.Get("/guides", cfg.Users.GetGuides)

				r.Group(func(r chi.Router) {
					r.Use(staffOnly)
					r.Get("/", cfg.Users.GetAll)
					r.Get("/{id}", cfg.Users.GetOne)
					r.Patch("/{id}", cfg.Users.Update)
					r.Delete("/{id}", cfg.Users.Delete)
				})
			})
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", cfg.Tours.GetAll)
			r.Get("/top-5-cheap", cfg.Tours.GetTopCheap)
			r.Get("/stats", cfg.Tours.GetStats)
			r.Get("/slug/{slug}", cfg.Tours.GetBySlug)
			r.With(protect, middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide)).
				Get("/monthly-plan/{year}", cfg.Tours.GetMonthlyPlan)
			r.Get("/{id}", cfg.Tours.GetOne)

			r.Group(func(r chi.Router) {
				r.Use(protect, staffOnly)
				r.Post("/", cfg.Tours.Create)
				r.Patch("/{id}", cfg.Tours.Update)
				r.Delete("/{id}", cfg.Tours.Delete)
			})

			// Reviews nested under their tour.
			r.Route("/{tourID}/reviews", func(r chi.Router) {
				r.Get("/", cfg.Reviews.GetAll)
				r.With(protect, middleware.RestrictTo(domain.RoleUser)).
					Post("/", cfg.Reviews.Create)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", cfg.Reviews.GetAll)
			r.Get("/{id}", cfg.Reviews.GetOne)

			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Get("/me", cfg.Reviews.GetMine)
				r.With(middleware.RestrictTo(domain.RoleUser)).Post("/", cfg.Reviews.Create)
				r.Patch("/{id}", cfg.Reviews.Update)
				r.Delete("/{id}", cfg.Reviews.Delete)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(protect)
			r.Get("/checkout-session/{tourID}", cfg.Bookings.GetCheckoutSession)
			r.Post("/", cfg.Bookings.Create)
			r.Get("/me", cfg.Bookings.GetMine)

			r.Group(func(r chi.Router) {
				r.Use(staffOnly)
				r.Get("/", cfg.Bookings.GetAll)
				r.Get("/{id}", cfg.Bookings.GetOne)
				r.Delete("/{id}", cfg.Bookings.Delete)
			})
		})
	})

	r.NotFound(response.NotFoundRoute)

	return r
}
