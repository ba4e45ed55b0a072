package model

import "time"

// EmailSignup is a newsletter/waitlist signup. One row per unique email —
// the email_signups table enforces this with a UNIQUE index, so duplicate
// detection lives in the store rather than in a check-then-act pair in the
// caller. Immutable after creation.
//
// Note this is a separate identity space from Account: subscribing to the
// list does not create an account, and creating an account does not
// subscribe you. The two email spaces overlap but are deliberately distinct.
type EmailSignup struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContactMessage is a single contact-form submission. Unlike EmailSignup
// there is no uniqueness constraint — the same person may write in as many
// times as they like. Immutable; read back only by the admin listing.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
