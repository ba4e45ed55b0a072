package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"testing"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/model"
	"github.com/sakif/flinger-site/internal/payments"
)

// =========================================================================
// MOCKS
// =========================================================================
// Hand-written in-memory fakes for the repository and gateway interfaces.
// The service doesn't know whether it's talking to sqlite or a map.

type mockAccountRepo struct {
	accounts map[int64]*model.Account
	nextID   int64
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[int64]*model.Account)}
}

func (m *mockAccountRepo) CreateAccount(_ context.Context, a *model.Account) error {
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return apperror.Duplicate("email", "Email already registered")
		}
	}
	m.nextID++
	a.ID = m.nextID
	stored := *a
	m.accounts[a.ID] = &stored
	return nil
}

func (m *mockAccountRepo) GetAccountByID(_ context.Context, id int64) (*model.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", strconv.FormatInt(id, 10))
	}
	result := *a
	return &result, nil
}

func (m *mockAccountRepo) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			result := *a
			return &result, nil
		}
	}
	return nil, apperror.NotFound("account", email)
}

func (m *mockAccountRepo) GetAccountByStripeCustomerID(_ context.Context, customerID string) (*model.Account, error) {
	if customerID == "" {
		return nil, apperror.NotFound("account", "(empty stripe customer id)")
	}
	for _, a := range m.accounts {
		if a.StripeCustomerID == customerID {
			result := *a
			return &result, nil
		}
	}
	return nil, apperror.NotFound("account", customerID)
}

func (m *mockAccountRepo) AttachStripeCustomerID(_ context.Context, id int64, customerID string) (*model.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", strconv.FormatInt(id, 10))
	}
	a.StripeCustomerID = customerID
	result := *a
	return &result, nil
}

func (m *mockAccountRepo) MarkPayingMember(_ context.Context, id int64) (*model.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperror.NotFound("account", strconv.FormatInt(id, 10))
	}
	a.PayingMember = true
	result := *a
	return &result, nil
}

func (m *mockAccountRepo) CountPayingMembers(_ context.Context) (int, error) {
	count := 0
	for _, a := range m.accounts {
		if a.PayingMember {
			count++
		}
	}
	return count, nil
}

type mockPaymentRepo struct {
	payments []model.Payment
}

func (m *mockPaymentRepo) CreatePayment(_ context.Context, p *model.Payment) error {
	p.ID = int64(len(m.payments) + 1)
	m.payments = append(m.payments, *p)
	return nil
}

func (m *mockPaymentRepo) ListPaymentsForAccount(_ context.Context, accountID int64) ([]model.Payment, error) {
	out := []model.Payment{}
	for _, p := range m.payments {
		if p.AccountID != nil && *p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) UpdatePaymentStatus(_ context.Context, id int64, status string) (*model.Payment, error) {
	for i := range m.payments {
		if m.payments[i].ID == id {
			m.payments[i].Status = status
			result := m.payments[i]
			return &result, nil
		}
	}
	return nil, apperror.NotFound("payment", strconv.FormatInt(id, 10))
}

// mockGateway counts calls and can be made to fail at either step.
type mockGateway struct {
	customers    int
	sessions     int
	failCustomer bool
	failSession  bool
}

func (m *mockGateway) CreateCustomer(_ context.Context, name, email string) (string, error) {
	if m.failCustomer {
		return "", errors.New("stripe unavailable")
	}
	m.customers++
	return fmt.Sprintf("cus_%d", m.customers), nil
}

func (m *mockGateway) CreateCheckoutSession(_ context.Context, email, successURL, cancelURL string) (*payments.CheckoutSession, error) {
	if m.failSession {
		return nil, errors.New("stripe unavailable")
	}
	m.sessions++
	return &payments.CheckoutSession{
		ID:  fmt.Sprintf("cs_%d", m.sessions),
		URL: "https://checkout.stripe.com/pay/cs_" + strconv.Itoa(m.sessions),
	}, nil
}

func newTestCheckout(t *testing.T) (*CheckoutService, *mockAccountRepo, *mockPaymentRepo, *mockGateway) {
	t.Helper()
	accounts := newMockAccountRepo()
	paymentRepo := &mockPaymentRepo{}
	gateway := &mockGateway{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewCheckoutService(accounts, paymentRepo, gateway, "https://flinger.example", logger)
	return svc, accounts, paymentRepo, gateway
}

// =========================================================================
// INITIATE CHECKOUT
// =========================================================================

func TestInitiateCheckout_HappyPath(t *testing.T) {
	svc, accounts, _, _ := newTestCheckout(t)

	url, err := svc.InitiateCheckout(context.Background(), "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("InitiateCheckout() error = %v", err)
	}
	if url == "" {
		t.Fatal("InitiateCheckout() returned empty URL")
	}

	account, err := accounts.GetAccountByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if account.StripeCustomerID == "" {
		t.Error("stripe customer reference not attached")
	}
	if account.PayingMember {
		t.Error("account must not be a paying member before the webhook")
	}
}

func TestInitiateCheckout_IdempotentAccountCreation(t *testing.T) {
	svc, accounts, _, gateway := newTestCheckout(t)
	ctx := context.Background()

	if _, err := svc.InitiateCheckout(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("first InitiateCheckout() error = %v", err)
	}
	if _, err := svc.InitiateCheckout(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("second InitiateCheckout() error = %v", err)
	}

	// Exactly one account; the second customer reference overwrote the first.
	if len(accounts.accounts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(accounts.accounts))
	}
	if gateway.customers != 2 {
		t.Errorf("customers created = %d, want 2", gateway.customers)
	}
	account, _ := accounts.GetAccountByEmail(ctx, "ada@example.com")
	if account.StripeCustomerID != "cus_2" {
		t.Errorf("StripeCustomerID = %q, want cus_2 (second attach overwrites)", account.StripeCustomerID)
	}
}

func TestInitiateCheckout_GatewayFailure(t *testing.T) {
	svc, _, paymentRepo, gateway := newTestCheckout(t)
	gateway.failCustomer = true

	_, err := svc.InitiateCheckout(context.Background(), "Ada", "ada@example.com")
	if err == nil {
		t.Fatal("InitiateCheckout() error = nil, want gateway failure")
	}
	// No Payment is ever created by a failed checkout initiation.
	if len(paymentRepo.payments) != 0 {
		t.Errorf("payments = %d, want 0", len(paymentRepo.payments))
	}
}

func TestInitiateCheckout_Validation(t *testing.T) {
	svc, _, _, _ := newTestCheckout(t)

	_, err := svc.InitiateCheckout(context.Background(), "", "ada@example.com")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("missing name error = %v, want ErrValidation", err)
	}
	_, err = svc.InitiateCheckout(context.Background(), "Ada", "not-an-email")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bad email error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// PAYMENT NOTICES
// =========================================================================

func TestApplyPaymentNotice_ConfirmsMembership(t *testing.T) {
	svc, accounts, paymentRepo, _ := newTestCheckout(t)
	ctx := context.Background()

	if _, err := svc.InitiateCheckout(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("InitiateCheckout() error = %v", err)
	}

	err := svc.ApplyPaymentNotice(ctx, &payments.Notice{
		Kind:       payments.KindCheckoutCompleted,
		Succeeded:  true,
		CustomerID: "cus_1",
		PaymentID:  "pi_1",
		Amount:     9900,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentNotice() error = %v", err)
	}

	account, _ := accounts.GetAccountByEmail(ctx, "ada@example.com")
	if !account.PayingMember {
		t.Error("account not flagged as paying member")
	}
	if len(paymentRepo.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(paymentRepo.payments))
	}
	if paymentRepo.payments[0].Amount != 9900 {
		t.Errorf("Amount = %d, want 9900", paymentRepo.payments[0].Amount)
	}
}

func TestApplyPaymentNotice_DefaultsAmount(t *testing.T) {
	svc, _, paymentRepo, _ := newTestCheckout(t)
	ctx := context.Background()

	if _, err := svc.InitiateCheckout(ctx, "Ada", "ada@example.com"); err != nil {
		t.Fatalf("InitiateCheckout() error = %v", err)
	}

	err := svc.ApplyPaymentNotice(ctx, &payments.Notice{
		Kind:       payments.KindPaymentSucceeded,
		Succeeded:  true,
		CustomerID: "cus_1",
		PaymentID:  "pi_1",
		// Amount omitted by the event.
	})
	if err != nil {
		t.Fatalf("ApplyPaymentNotice() error = %v", err)
	}
	if paymentRepo.payments[0].Amount != payments.MembershipPriceCents {
		t.Errorf("Amount = %d, want default %d", paymentRepo.payments[0].Amount, payments.MembershipPriceCents)
	}
}

func TestApplyPaymentNotice_UnknownKindIsNoOp(t *testing.T) {
	svc, accounts, paymentRepo, _ := newTestCheckout(t)

	err := svc.ApplyPaymentNotice(context.Background(), &payments.Notice{Kind: payments.KindUnknown})
	if err != nil {
		t.Fatalf("ApplyPaymentNotice() error = %v, want nil", err)
	}
	if len(paymentRepo.payments) != 0 || len(accounts.accounts) != 0 {
		t.Error("store mutated by unknown event kind")
	}
}

func TestApplyPaymentNotice_OrphanedPayment(t *testing.T) {
	svc, accounts, paymentRepo, _ := newTestCheckout(t)

	// No account has this customer reference.
	err := svc.ApplyPaymentNotice(context.Background(), &payments.Notice{
		Kind:       payments.KindCheckoutCompleted,
		Succeeded:  true,
		CustomerID: "cus_ghost",
		PaymentID:  "pi_1",
		Amount:     9900,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentNotice() error = %v, want nil (acknowledged)", err)
	}
	if len(paymentRepo.payments) != 0 {
		t.Errorf("payments = %d, want 0", len(paymentRepo.payments))
	}
	for _, a := range accounts.accounts {
		if a.PayingMember {
			t.Error("an account was mutated by an orphaned payment")
		}
	}
}

func TestApplyPaymentNotice_EmptyCustomerRefNeverResolves(t *testing.T) {
	svc, accounts, paymentRepo, _ := newTestCheckout(t)
	ctx := context.Background()

	// A bystander who signed up directly and never touched checkout; their
	// stripe customer reference is the empty string.
	bystander := &model.Account{Name: "Bob", Email: "bob@example.com"}
	if err := accounts.CreateAccount(ctx, bystander); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	// Stripe events can carry a null customer; the notice then has no
	// customer reference at all.
	err := svc.ApplyPaymentNotice(ctx, &payments.Notice{
		Kind:      payments.KindPaymentSucceeded,
		Succeeded: true,
		PaymentID: "pi_1",
		Amount:    9900,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentNotice() error = %v, want nil (acknowledged)", err)
	}

	got, _ := accounts.GetAccountByID(ctx, bystander.ID)
	if got.PayingMember {
		t.Error("bystander account flagged paying member by empty customer ref")
	}
	if len(paymentRepo.payments) != 0 {
		t.Errorf("payments = %d, want 0", len(paymentRepo.payments))
	}
}

// =========================================================================
// SPOT COUNTER
// =========================================================================

func TestRemainingSpots(t *testing.T) {
	svc, accounts, _, _ := newTestCheckout(t)
	ctx := context.Background()

	spots, err := svc.RemainingSpots(ctx)
	if err != nil {
		t.Fatalf("RemainingSpots() error = %v", err)
	}
	if spots.Total != 250 || spots.Taken != 0 || spots.Remaining != 250 {
		t.Errorf("spots = %+v, want 250/0/250", spots)
	}

	for i := 0; i < 3; i++ {
		a := &model.Account{Name: "x", Email: fmt.Sprintf("m%d@example.com", i)}
		accounts.CreateAccount(ctx, a)
		accounts.MarkPayingMember(ctx, a.ID)
	}

	spots, err = svc.RemainingSpots(ctx)
	if err != nil {
		t.Fatalf("RemainingSpots() error = %v", err)
	}
	if spots.Taken != 3 || spots.Remaining != 247 {
		t.Errorf("spots = %+v, want taken 3 remaining 247", spots)
	}
}

func TestRemainingSpots_ClampedAtZero(t *testing.T) {
	svc, accounts, _, _ := newTestCheckout(t)
	ctx := context.Background()

	// Oversell: more members than spots must never yield a negative count.
	for i := 0; i < TotalFoundingSpots+5; i++ {
		a := &model.Account{Name: "x", Email: fmt.Sprintf("m%d@example.com", i)}
		accounts.CreateAccount(ctx, a)
		accounts.MarkPayingMember(ctx, a.ID)
	}

	spots, err := svc.RemainingSpots(ctx)
	if err != nil {
		t.Fatalf("RemainingSpots() error = %v", err)
	}
	if spots.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", spots.Remaining)
	}
	if spots.Taken != TotalFoundingSpots+5 {
		t.Errorf("Taken = %d, want %d", spots.Taken, TotalFoundingSpots+5)
	}
}
