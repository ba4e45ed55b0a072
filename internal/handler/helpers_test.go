package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/flinger-site/internal/auth"
	"github.com/sakif/flinger-site/internal/payments"
	sqliteRepo "github.com/sakif/flinger-site/internal/repository/sqlite"
	"github.com/sakif/flinger-site/internal/service"
)

// stubGateway stands in for Stripe in handler tests: deterministic
// customer ids and a fixed hosted-page URL.
type stubGateway struct {
	customers int
	failing   bool
}

func (g *stubGateway) CreateCustomer(_ context.Context, name, email string) (string, error) {
	if g.failing {
		return "", fmt.Errorf("stripe unavailable")
	}
	g.customers++
	return fmt.Sprintf("cus_%d", g.customers), nil
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, email, successURL, cancelURL string) (*payments.CheckoutSession, error) {
	if g.failing {
		return nil, fmt.Errorf("stripe unavailable")
	}
	return &payments.CheckoutSession{
		ID:  "cs_test",
		URL: "https://checkout.stripe.com/pay/cs_test",
	}, nil
}

// testEnv wires a real :memory: database through the services into a chi
// router, with Stripe stubbed. Handler tests go through HTTP end to end.
type testEnv struct {
	router   *chi.Mux
	db       *sqliteRepo.DB
	gateway  *stubGateway
	checkout *service.CheckoutService
	sessions *auth.SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	gateway := &stubGateway{}

	passwords := auth.NewPasswordServiceForTest(4)
	sessions, err := auth.NewSessionService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("creating session service: %v", err)
	}
	credentials := auth.NewAdminCredentials("admin", "hunter2", passwords)

	signupService := service.NewSignupService(db, db, db, passwords, logger)
	checkoutService := service.NewCheckoutService(db, db, gateway, "https://flinger.example", logger)

	formHandler := NewFormHandler(signupService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)
	adminHandler := NewAdminHandler(sessions, credentials, logger)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Post("/email-signup", formHandler.CreateEmailSignup)
		r.Post("/contact", formHandler.CreateContact)
		r.Post("/users", formHandler.CreateAccount)
		r.Post("/create-checkout-session", checkoutHandler.CreateSession)
		r.Get("/create-checkout-session", checkoutHandler.RedirectSession)
		r.Get("/founding-flinger-count", checkoutHandler.FoundingCount)
		r.Post("/admin/login", adminHandler.Login)
		r.Post("/admin/logout", adminHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(sessions))
			r.Get("/email-signups", formHandler.ListEmailSignups)
			r.Get("/contact-messages", formHandler.ListContactMessages)
			r.Get("/accounts/{id}/payments", checkoutHandler.ListAccountPayments)
		})
	})

	return &testEnv{
		router:   router,
		db:       db,
		gateway:  gateway,
		checkout: checkoutService,
		sessions: sessions,
	}
}

// adminCookie returns a valid admin session cookie for requests to
// guarded routes.
func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := e.sessions.Issue("admin")
	if err != nil {
		t.Fatalf("issuing session: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}
