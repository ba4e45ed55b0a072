package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/model"
)

// CreateSignup inserts a newsletter signup. The UNIQUE index on email makes
// this an atomic insert-if-absent: a duplicate email comes back as
// apperror.ErrDuplicate rather than requiring a check-then-act in the caller.
func (db *DB) CreateSignup(ctx context.Context, signup *model.EmailSignup) error {
	signup.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO email_signups (name, email, created_at) VALUES (?, ?, ?)`,
		signup.Name, signup.Email, signup.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("email", "Email already registered")
		}
		return fmt.Errorf("sqlite: creating email signup: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading signup id: %w", err)
	}
	signup.ID = id

	return nil
}

func (db *DB) GetSignupByEmail(ctx context.Context, email string) (*model.EmailSignup, error) {
	var s model.EmailSignup
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM email_signups WHERE email = ?`,
		email,
	).Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("email signup", email)
		}
		return nil, fmt.Errorf("sqlite: getting email signup %s: %w", email, err)
	}
	return &s, nil
}

// ListSignups returns all signups, newest first, for the admin listing.
func (db *DB) ListSignups(ctx context.Context) ([]model.EmailSignup, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM email_signups ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing email signups: %w", err)
	}
	defer rows.Close()

	signups := []model.EmailSignup{}
	for rows.Next() {
		var s model.EmailSignup
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning signup row: %w", err)
		}
		signups = append(signups, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating signups: %w", err)
	}

	return signups, nil
}

// CreateContact inserts a contact-form message. No uniqueness constraint —
// the same person may contact us any number of times.
func (db *DB) CreateContact(ctx context.Context, msg *model.ContactMessage) error {
	msg.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO contact_messages (name, email, message, created_at) VALUES (?, ?, ?, ?)`,
		msg.Name, msg.Email, msg.Message, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating contact message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading contact message id: %w", err)
	}
	msg.ID = id

	return nil
}

func (db *DB) ListContacts(ctx context.Context) ([]model.ContactMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, email, message, created_at FROM contact_messages ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contact messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning contact message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contact messages: %w", err)
	}

	return msgs, nil
}
