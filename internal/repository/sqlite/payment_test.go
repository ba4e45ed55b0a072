package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/flinger-site/internal/apperror"
	"github.com/sakif/flinger-site/internal/model"
)

func TestCreatePayment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	account := createTestAccount(t, db, "Ada", "ada@example.com")

	payment := &model.Payment{
		AccountID:       &account.ID,
		StripePaymentID: "pi_123",
		Amount:          9900,
		Status:          "succeeded",
	}
	if err := db.CreatePayment(ctx, payment); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if payment.ID == 0 {
		t.Error("CreatePayment() did not set payment.ID")
	}

	payments, err := db.ListPaymentsForAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("ListPaymentsForAccount() error = %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("len = %d, want 1", len(payments))
	}
	if payments[0].Amount != 9900 {
		t.Errorf("Amount = %d, want 9900", payments[0].Amount)
	}
	if payments[0].AccountID == nil || *payments[0].AccountID != account.ID {
		t.Errorf("AccountID = %v, want %d", payments[0].AccountID, account.ID)
	}
}

func TestCreatePayment_NilAccount(t *testing.T) {
	db := newTestDB(t)

	// An orphaned payment has no resolved account; the column is nullable.
	payment := &model.Payment{StripePaymentID: "pi_orphan", Amount: 9900, Status: "succeeded"}
	if err := db.CreatePayment(context.Background(), payment); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	account := createTestAccount(t, db, "Ada", "ada@example.com")

	payment := &model.Payment{AccountID: &account.ID, StripePaymentID: "pi_123", Amount: 9900, Status: "succeeded"}
	if err := db.CreatePayment(ctx, payment); err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}

	updated, err := db.UpdatePaymentStatus(ctx, payment.ID, "refunded")
	if err != nil {
		t.Fatalf("UpdatePaymentStatus() error = %v", err)
	}
	if updated.Status != "refunded" {
		t.Errorf("Status = %q, want %q", updated.Status, "refunded")
	}

	_, err = db.UpdatePaymentStatus(ctx, 9999, "refunded")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdatePaymentStatus(unknown) error = %v, want ErrNotFound", err)
	}
}
