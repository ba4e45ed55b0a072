// Package server is the composition root: it wires the database, content
// store, payment gateway, relay, services, and handlers into a chi router
// and runs the HTTP server with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/flinger-site/internal/auth"
	"github.com/sakif/flinger-site/internal/content"
	"github.com/sakif/flinger-site/internal/handler"
	"github.com/sakif/flinger-site/internal/middleware"
	"github.com/sakif/flinger-site/internal/payments"
	"github.com/sakif/flinger-site/internal/relay"
	sqliteRepo "github.com/sakif/flinger-site/internal/repository/sqlite"
	"github.com/sakif/flinger-site/internal/service"
)

// Config holds everything read from the environment in main.
type Config struct {
	Port       int
	DBPath     string
	ContentDir string
	BaseURL    string

	StripeSecretKey     string
	StripePriceID       string
	StripeWebhookSecret string

	WebhookSecret     string
	WebhookForwardURL string
	SheetWebhookURL   string
	BrevoAPIKey       string

	AdminUsername string
	AdminPassword string
	SessionSecret string
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. Each layer only receives what
// it needs: services get repository interfaces, handlers get services,
// nothing below the handler layer knows HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// buildSinks constructs one relay sink per configured destination.
// Unconfigured destinations are simply absent — the relay fans out to
// whatever it gets, including nothing.
func (s *Server) buildSinks() []relay.Sink {
	var sinks []relay.Sink
	if s.config.WebhookForwardURL != "" {
		sinks = append(sinks, &relay.ForwardSink{URL: s.config.WebhookForwardURL})
	}
	if s.config.SheetWebhookURL != "" {
		sinks = append(sinks, &relay.SheetSink{URL: s.config.SheetWebhookURL})
	}
	if s.config.BrevoAPIKey != "" {
		sinks = append(sinks, &relay.BrevoSink{APIKey: s.config.BrevoAPIKey})
	}
	return sinks
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Content store.
	store, err := content.New(s.config.ContentDir, s.logger)
	if err != nil {
		return fmt.Errorf("opening content store: %w", err)
	}

	// Auth.
	passwordService := auth.NewPasswordService()
	sessions, err := auth.NewSessionService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}
	credentials := auth.NewAdminCredentials(s.config.AdminUsername, s.config.AdminPassword, passwordService)

	// Payments.
	gateway := payments.NewStripeGateway(
		s.config.StripeSecretKey,
		s.config.StripePriceID,
		s.config.StripeWebhookSecret,
		s.logger,
	)

	// Relay.
	formRelay := relay.New(s.config.WebhookSecret, s.db, s.db, s.buildSinks(), s.logger)

	// Services.
	signupService := service.NewSignupService(s.db, s.db, s.db, passwordService, s.logger)
	checkoutService := service.NewCheckoutService(s.db, s.db, gateway, s.config.BaseURL, s.logger)

	// Handlers.
	formHandler := handler.NewFormHandler(signupService, s.logger)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, s.logger)
	webhookHandler := handler.NewStripeWebhookHandler(gateway, checkoutService, s.logger)
	relayHandler := handler.NewRelayHandler(formRelay, s.logger)
	contentHandler := handler.NewContentHandler(store, s.logger)
	adminHandler := handler.NewAdminHandler(sessions, credentials, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public intake and checkout.
		r.Post("/email-signup", formHandler.CreateEmailSignup)
		r.Post("/contact", formHandler.CreateContact)
		r.Post("/users", formHandler.CreateAccount)
		r.Post("/create-checkout-session", checkoutHandler.CreateSession)
		r.Get("/create-checkout-session", checkoutHandler.RedirectSession)
		r.Get("/founding-flinger-count", checkoutHandler.FoundingCount)

		// Stripe notifications.
		r.Post("/webhook", webhookHandler.Handle)

		// Public blog reads.
		r.Get("/blog-posts", contentHandler.ListPosts)
		r.Get("/blog-posts/{id}", contentHandler.GetPost)
		r.Get("/blog-categories", contentHandler.ListCategories)

		// Admin session.
		r.Post("/admin/login", adminHandler.Login)
		r.Post("/admin/logout", adminHandler.Logout)

		// Admin-only listings and content mutations.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(sessions))

			r.Get("/email-signups", formHandler.ListEmailSignups)
			r.Get("/contact-messages", formHandler.ListContactMessages)
			r.Get("/accounts/{id}/payments", checkoutHandler.ListAccountPayments)

			r.Post("/blog-posts", contentHandler.CreatePost)
			r.Put("/blog-posts/{id}", contentHandler.UpdatePost)
			r.Delete("/blog-posts/{id}", contentHandler.DeletePost)
			r.Post("/blog-categories", contentHandler.CreateCategory)
			r.Delete("/blog-categories/{category}", contentHandler.DeleteCategory)
		})
	})

	// Third-party form notification relays. Legacy path kept for sources
	// configured before the rename.
	s.router.Post("/webhook/inbound", relayHandler.Handle)
	s.router.Post("/webhook/legacy", relayHandler.Handle)

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30s and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("content_dir", s.config.ContentDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
