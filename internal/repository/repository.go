// Package repository defines the storage interfaces for the four record
// kinds the site persists: accounts, email signups, contact messages, and
// payments. Services program against these interfaces; internal/repository/sqlite
// is the concrete implementation and tests substitute in-memory mocks.
//
// Failure semantics: repository operations only fail with "not found"
// (apperror.ErrNotFound), "duplicate" (apperror.ErrDuplicate, from a UNIQUE
// constraint), or a real database error. There is no cross-kind atomicity —
// creating a Payment and flagging its Account as a paying member are two
// independent writes, and a crash between them is recovered by Stripe's
// webhook retries.
package repository

import (
	"context"

	"github.com/sakif/flinger-site/internal/model"
)

// AccountRepository stores registered identities.
//
// CreateAccount returns apperror.ErrDuplicate if the email is already taken —
// the UNIQUE index in the store is the source of truth for email uniqueness,
// not a lookup in the caller, so concurrent first-signups cannot both succeed.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error)
	// AttachStripeCustomerID is idempotent; a second attach overwrites the first.
	AttachStripeCustomerID(ctx context.Context, accountID int64, customerID string) (*model.Account, error)
	// MarkPayingMember sets the flag unconditionally; calling it twice is a no-op.
	MarkPayingMember(ctx context.Context, accountID int64) (*model.Account, error)
	CountPayingMembers(ctx context.Context) (int, error)
}

// SignupRepository stores newsletter signups, one per unique email.
type SignupRepository interface {
	CreateSignup(ctx context.Context, signup *model.EmailSignup) error
	GetSignupByEmail(ctx context.Context, email string) (*model.EmailSignup, error)
	ListSignups(ctx context.Context) ([]model.EmailSignup, error)
}

// ContactRepository stores contact-form messages. No uniqueness constraint.
type ContactRepository interface {
	CreateContact(ctx context.Context, msg *model.ContactMessage) error
	ListContacts(ctx context.Context) ([]model.ContactMessage, error)
}

// PaymentRepository stores confirmed payments.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *model.Payment) error
	ListPaymentsForAccount(ctx context.Context, accountID int64) ([]model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) (*model.Payment, error)
}
