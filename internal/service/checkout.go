package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/model"
	"github.com/sakif/flinger-site/internal/payments"
	"github.com/sakif/flinger-site/internal/repository"
)

// TotalFoundingSpots is the fixed number of Founding Flinger memberships.
const TotalFoundingSpots = 250

// SpotCount is the public availability counter.
type SpotCount struct {
	Total     int `json:"total"`
	Taken     int `json:"taken"`
	Remaining int `json:"remaining"`
}

// CheckoutService orchestrates the visitor → paying-member workflow:
//
//	anonymous → signed_up → checkout_initiated → payment_confirmed
//
// checkout_initiated can dead-end forever if the visitor abandons the
// hosted payment page. Nothing is held open, so no cleanup is needed;
// a retried checkout reuses the same account by email lookup.
type CheckoutService struct {
	accounts repository.AccountRepository
	payments repository.PaymentRepository
	gateway  payments.Gateway
	baseURL  string
	logger   *slog.Logger
}

func NewCheckoutService(
	accounts repository.AccountRepository,
	paymentRepo repository.PaymentRepository,
	gateway payments.Gateway,
	baseURL string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		accounts: accounts,
		payments: paymentRepo,
		gateway:  gateway,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// InitiateCheckout takes a visitor from a name+email pair to a hosted
// checkout URL.
//
// Idempotent with respect to account creation: a repeat call with the same
// email reuses the existing account, and the fresh Stripe customer
// reference overwrites the previous one. Failure at any gateway step
// surfaces to the caller and leaves no Payment behind; a dangling account
// or customer reference is acceptable because retrying converges.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, name, email string) (string, error) {
	name, email, err := validateIdentity(name, email)
	if err != nil {
		return "", err
	}

	account, err := s.findOrCreateAccount(ctx, name, email)
	if err != nil {
		return "", err
	}

	customerID, err := s.gateway.CreateCustomer(ctx, account.Name, account.Email)
	if err != nil {
		s.logger.Error("failed to create stripe customer",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("initiating checkout: %w", err)
	}

	if _, err := s.accounts.AttachStripeCustomerID(ctx, account.ID, customerID); err != nil {
		return "", fmt.Errorf("initiating checkout: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx,
		account.Email,
		s.baseURL+"/payment-success?session_id={CHECKOUT_SESSION_ID}",
		s.baseURL+"/payment-cancelled",
	)
	if err != nil {
		s.logger.Error("failed to create checkout session",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("initiating checkout: %w", err)
	}

	s.logger.Info("checkout initiated",
		slog.Int64("account_id", account.ID),
		slog.String("customer_id", customerID),
		slog.String("session_id", session.ID),
	)
	return session.URL, nil
}

// findOrCreateAccount resolves the account for an email, creating one on
// first contact. If a concurrent request wins the create race, the UNIQUE
// index rejects ours and the follow-up lookup converges on the winner.
func (s *CheckoutService) findOrCreateAccount(ctx context.Context, name, email string) (*model.Account, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	account = &model.Account{Name: name, Email: email}
	err = s.accounts.CreateAccount(ctx, account)
	if err == nil {
		return account, nil
	}
	if errors.Is(err, apperror.ErrDuplicate) {
		return s.accounts.GetAccountByEmail(ctx, email)
	}
	return nil, fmt.Errorf("creating account: %w", err)
}

// ApplyPaymentNotice applies an interpreted Stripe notification to the
// store: create the Payment, then flag the account.
//
// These are two independent writes with no transaction across them — a
// crash in between is recovered by Stripe retrying the webhook. Unresolvable
// situations (unknown event kind, unknown customer) are acknowledged and
// dropped: returning an error would only make Stripe retry a notification
// that can never succeed.
func (s *CheckoutService) ApplyPaymentNotice(ctx context.Context, notice *payments.Notice) error {
	if notice.Kind == payments.KindUnknown || !notice.Succeeded {
		s.logger.Debug("ignoring payment notice", slog.String("kind", string(notice.Kind)))
		return nil
	}

	// An event without a customer reference can never resolve to an
	// account — accounts that haven't been through checkout all carry an
	// empty reference, so looking up "" would hit one of them.
	if notice.CustomerID == "" {
		s.logger.Warn("payment notification without a stripe customer reference",
			slog.String("kind", string(notice.Kind)),
			slog.String("payment_id", notice.PaymentID),
		)
		return nil
	}

	account, err := s.accounts.GetAccountByStripeCustomerID(ctx, notice.CustomerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Orphaned payment: nothing to attach it to. Acknowledge and log.
			s.logger.Warn("payment notification for unknown stripe customer",
				slog.String("customer_id", notice.CustomerID),
				slog.String("payment_id", notice.PaymentID),
			)
			return nil
		}
		return fmt.Errorf("resolving account for payment: %w", err)
	}

	amount := notice.Amount
	if amount == 0 {
		amount = payments.MembershipPriceCents
	}

	payment := &model.Payment{
		AccountID:       &account.ID,
		StripePaymentID: notice.PaymentID,
		Amount:          amount,
		Status:          "succeeded",
	}
	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("recording payment: %w", err)
	}

	if _, err := s.accounts.MarkPayingMember(ctx, account.ID); err != nil {
		return fmt.Errorf("marking paying member: %w", err)
	}

	s.logger.Info("payment confirmed",
		slog.Int64("account_id", account.ID),
		slog.Int64("payment_id", payment.ID),
		slog.Int64("amount", amount),
	)
	return nil
}

// RemainingSpots derives the availability counter. Remaining is clamped at
// zero even if more members than spots ever exist.
func (s *CheckoutService) RemainingSpots(ctx context.Context) (*SpotCount, error) {
	taken, err := s.accounts.CountPayingMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting paying members: %w", err)
	}

	remaining := TotalFoundingSpots - taken
	if remaining < 0 {
		remaining = 0
	}
	return &SpotCount{Total: TotalFoundingSpots, Taken: taken, Remaining: remaining}, nil
}

// ListPaymentsForAccount backs the admin payment listing.
func (s *CheckoutService) ListPaymentsForAccount(ctx context.Context, accountID int64) ([]model.Payment, error) {
	if _, err := s.accounts.GetAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	list, err := s.payments.ListPaymentsForAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	return list, nil
}
