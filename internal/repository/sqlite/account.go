package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/model"
	"github.com/sakif/flinger-site/internal/repository"
)

// Compile-time check that *DB implements the repository interfaces.
// `var _ X = (*Y)(nil)` fails to compile if *Y is missing a method — much
// earlier feedback than discovering it at the first call site.
var (
	_ repository.AccountRepository = (*DB)(nil)
	_ repository.SignupRepository  = (*DB)(nil)
	_ repository.ContactRepository = (*DB)(nil)
	_ repository.PaymentRepository = (*DB)(nil)
)

const accountColumns = `id, name, email, password_hash, is_paying_member, stripe_customer_id, created_at`

// CreateAccount inserts a new account. The paying-member flag defaults to
// false and the Stripe customer reference to empty; both are set later by
// the checkout and webhook flows.
//
// The UNIQUE index on email turns a duplicate insert into
// apperror.ErrDuplicate — callers never need a prior existence check.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	account.CreatedAt = time.Now().UTC()
	account.PayingMember = false

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (name, email, password_hash, stripe_customer_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.StripeCustomerID,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("email", "Email already registered")
		}
		return fmt.Errorf("sqlite: creating account: %w", err)
	}

	// LastInsertId is the AUTOINCREMENT id SQLite just assigned.
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading account id: %w", err)
	}
	account.ID = id

	return nil
}

func (db *DB) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	return db.scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id),
		strconv.FormatInt(id, 10))
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return db.scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email),
		email)
}

// GetAccountByStripeCustomerID resolves the account a Stripe customer
// reference was attached to. An empty reference is never a match: every
// account that hasn't started checkout carries '' in that column, so
// looking one up by '' would return an arbitrary bystander.
func (db *DB) GetAccountByStripeCustomerID(ctx context.Context, customerID string) (*model.Account, error) {
	if customerID == "" {
		return nil, apperror.NotFound("account", "(empty stripe customer id)")
	}
	return db.scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE stripe_customer_id = ?`, customerID),
		customerID)
}

// scanAccount reads one account row. sql.ErrNoRows is translated to the
// domain's NotFound error so handlers can map it to 404 (or, on the webhook
// path, to a silent acknowledgement).
func (db *DB) scanAccount(row *sql.Row, ref string) (*model.Account, error) {
	var a model.Account
	var paying int
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &paying, &a.StripeCustomerID, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", ref)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", ref, err)
	}
	a.PayingMember = paying != 0
	return &a, nil
}

// AttachStripeCustomerID records the Stripe customer created for this
// account. Idempotent: a repeat attach simply overwrites the previous
// reference (the visitor retried checkout and got a fresh customer).
func (db *DB) AttachStripeCustomerID(ctx context.Context, accountID int64, customerID string) (*model.Account, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET stripe_customer_id = ? WHERE id = ?`,
		customerID, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: attaching stripe customer to account %d: %w", accountID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	} else if n == 0 {
		return nil, apperror.NotFound("account", strconv.FormatInt(accountID, 10))
	}

	return db.GetAccountByID(ctx, accountID)
}

// MarkPayingMember sets the paying-member flag. The flag is monotonic —
// nothing ever resets it — so setting it twice is harmless.
func (db *DB) MarkPayingMember(ctx context.Context, accountID int64) (*model.Account, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET is_paying_member = 1 WHERE id = ?`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking account %d paying member: %w", accountID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	} else if n == 0 {
		return nil, apperror.NotFound("account", strconv.FormatInt(accountID, 10))
	}

	return db.GetAccountByID(ctx, accountID)
}

// CountPayingMembers backs the founding-flinger spot counter.
func (db *DB) CountPayingMembers(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE is_paying_member = 1`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting paying members: %w", err)
	}
	return count, nil
}
