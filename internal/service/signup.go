// Package service contains the business logic layer: validation, workflow
// orchestration, and the rules that sit between HTTP handlers and the
// repositories. Services accept primitives and return domain errors from
// internal/apperror; they know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/auth"
	"github.com/sakif/flinger-site/internal/model"
	"github.com/sakif/flinger-site/internal/repository"
)

const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxMessageLength = 5000
)

// SignupService handles the public intake forms: newsletter signups,
// contact messages, and direct account creation.
type SignupService struct {
	signups   repository.SignupRepository
	contacts  repository.ContactRepository
	accounts  repository.AccountRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewSignupService(
	signups repository.SignupRepository,
	contacts repository.ContactRepository,
	accounts repository.AccountRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *SignupService {
	return &SignupService{
		signups:   signups,
		contacts:  contacts,
		accounts:  accounts,
		passwords: passwords,
		logger:    logger,
	}
}

// validateIdentity checks the name/email pair shared by every form.
func validateIdentity(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return "", "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return "", "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if email == "" {
		return "", "", apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return "", "", apperror.ValidationFailed("email", "invalid email address")
	}
	return name, email, nil
}

// CreateEmailSignup registers a newsletter signup. A duplicate email comes
// back as apperror.ErrDuplicate straight from the store's UNIQUE index.
func (s *SignupService) CreateEmailSignup(ctx context.Context, name, email string) (*model.EmailSignup, error) {
	name, email, err := validateIdentity(name, email)
	if err != nil {
		return nil, err
	}

	signup := &model.EmailSignup{Name: name, Email: email}
	if err := s.signups.CreateSignup(ctx, signup); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		s.logger.Error("failed to create email signup",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating email signup: %w", err)
	}

	s.logger.Info("email signup created",
		slog.Int64("id", signup.ID),
		slog.String("email", signup.Email),
	)
	return signup, nil
}

// CreateContactMessage stores a contact-form message. No uniqueness rules.
func (s *SignupService) CreateContactMessage(ctx context.Context, name, email, message string) (*model.ContactMessage, error) {
	name, email, err := validateIdentity(name, email)
	if err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if len(message) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	msg := &model.ContactMessage{Name: name, Email: email, Message: message}
	if err := s.contacts.CreateContact(ctx, msg); err != nil {
		s.logger.Error("failed to create contact message",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating contact message: %w", err)
	}

	s.logger.Info("contact message created",
		slog.Int64("id", msg.ID),
		slog.String("email", msg.Email),
	)
	return msg, nil
}

// CreateAccount registers an account directly. The password is optional —
// accounts created through checkout have none — and is stored only as a
// bcrypt hash.
func (s *SignupService) CreateAccount(ctx context.Context, name, email, password string) (*model.Account, error) {
	name, email, err := validateIdentity(name, email)
	if err != nil {
		return nil, err
	}

	account := &model.Account{Name: name, Email: email}
	if password != "" {
		hash, err := s.passwords.Hash(password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		account.PasswordHash = hash
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		s.logger.Error("failed to create account",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info("account created",
		slog.Int64("id", account.ID),
		slog.String("email", account.Email),
	)
	return account, nil
}

// ListEmailSignups backs the admin listing.
func (s *SignupService) ListEmailSignups(ctx context.Context) ([]model.EmailSignup, error) {
	signups, err := s.signups.ListSignups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing email signups: %w", err)
	}
	return signups, nil
}

// ListContactMessages backs the admin listing.
func (s *SignupService) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	msgs, err := s.contacts.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contact messages: %w", err)
	}
	return msgs, nil
}
