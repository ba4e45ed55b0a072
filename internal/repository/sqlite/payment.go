package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/model"
)

// CreatePayment records a confirmed payment. AccountID may be nil when the
// webhook referenced a Stripe customer we couldn't resolve — the column is
// nullable for exactly that case.
func (db *DB) CreatePayment(ctx context.Context, payment *model.Payment) error {
	payment.CreatedAt = time.Now().UTC()

	var accountID sql.NullInt64
	if payment.AccountID != nil {
		accountID = sql.NullInt64{Int64: *payment.AccountID, Valid: true}
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO payments (account_id, stripe_payment_id, amount, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		accountID,
		payment.StripePaymentID,
		payment.Amount,
		payment.Status,
		payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating payment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading payment id: %w", err)
	}
	payment.ID = id

	return nil
}

func (db *DB) ListPaymentsForAccount(ctx context.Context, accountID int64) ([]model.Payment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, account_id, stripe_payment_id, amount, status, created_at
		 FROM payments
		 WHERE account_id = ?
		 ORDER BY id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing payments for account %d: %w", accountID, err)
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating payments: %w", err)
	}

	return payments, nil
}

// UpdatePaymentStatus changes a payment's status string (e.g. "refunded").
// No route drives this yet, but the store supports the transition.
func (db *DB) UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) (*model.Payment, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE id = ?`,
		status, paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating payment %d status: %w", paymentID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	} else if n == 0 {
		return nil, apperror.NotFound("payment", strconv.FormatInt(paymentID, 10))
	}

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, account_id, stripe_payment_id, amount, status, created_at
		 FROM payments WHERE id = ?`,
		paymentID,
	)
	return scanPayment(row)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*model.Payment, error) {
	var p model.Payment
	var accountID sql.NullInt64
	err := row.Scan(&p.ID, &accountID, &p.StripePaymentID, &p.Amount, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scanning payment row: %w", err)
	}
	if accountID.Valid {
		p.AccountID = &accountID.Int64
	}
	return &p, nil
}
