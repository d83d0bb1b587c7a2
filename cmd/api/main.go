package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	apihttp "github.com/roamtrails/tours-api/internal/http"
	"github.com/roamtrails/tours-api/internal/http/handlers"
	"github.com/roamtrails/tours-api/internal/http/middleware"
	"github.com/roamtrails/tours-api/internal/http/response"
	"github.com/roamtrails/tours-api/internal/mailer"
	"github.com/roamtrails/tours-api/internal/payments"
	"github.com/roamtrails/tours-api/internal/service"
	"github.com/roamtrails/tours-api/internal/store"
	"github.com/roamtrails/tours-api/pkg/config"
	"github.com/roamtrails/tours-api/pkg/events"
	"github.com/roamtrails/tours-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	response.SetDevMode(cfg.IsDevelopment())

	ctx := context.Background()
	db, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Stores
	tourStore := store.NewTourStore(db)
	userStore := store.NewUserStore(db)
	reviewStore := store.NewReviewStore(db)
	bookingStore := store.NewBookingStore(db)

	// Services
	mail := newMailer(cfg)
	authService := service.NewAuthService(userStore, mail, cfg)
	reviewService := service.NewReviewService(reviewStore, tourStore, eventBus)
	checkout := payments.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	bookingService := service.NewBookingService(bookingStore, tourStore, checkout, eventBus)

	// Review writes fan out to an async rating recompute.
	if err := subscribeRatingRecompute(eventBus, reviewService); err != nil {
		logger.Error("Failed to subscribe to review events", "error", err)
		os.Exit(1)
	}

	router := apihttp.NewRouter(apihttp.RouterConfig{
		Auth:           authService,
		Tours:          handlers.NewTourHandlers(tourStore, reviewStore, userStore),
		Users:          handlers.NewUserHandlers(userStore),
		AuthH:          handlers.NewAuthHandlers(authService, cfg),
		Reviews:        handlers.NewReviewHandlers(reviewService, reviewStore),
		Bookings:       handlers.NewBookingHandlers(bookingService, bookingStore, cfg),
		RateLimit:      newRateLimit(cfg),
		AllowedOrigins: []string{cfg.Frontend.BaseURL},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func newMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		return mailer.NewDevMailer()
	}
	return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
}

func newRateLimit(cfg *config.Config) func(http.Handler) http.Handler {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Warn("Invalid Redis URL, rate limiting disabled", "error", err)
		return nil
	}
	client := redis.NewClient(opts)
	limiter := middleware.NewRateLimiter(client, cfg.Redis.RateLimitRequests, cfg.Redis.RateLimitWindow)
	return limiter.Middleware()
}

// subscribeRatingRecompute keeps ratingsAverage and ratingsQuantity on each
// tour in sync with its reviews. Queue group so only one instance of the API
// handles each event.
func subscribeRatingRecompute(bus *events.NATSEventBus, reviews service.ReviewService) error {
	handler := func(msg *events.Message) {
		var event events.ReviewChangedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("Failed to decode review event", "subject", msg.Subject, "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := reviews.RecomputeTourRatings(ctx, event.TourID); err != nil {
			logger.Error("Failed to recompute tour ratings", "tour_id", event.TourID, "error", err)
		}
	}

	return bus.QueueSubscribe("review.*", "rating-recompute", handler)
}
