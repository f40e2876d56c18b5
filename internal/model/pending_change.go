package model

import "time"

// ChangeDataType names the sensitive account field a pending change
// targets.
type ChangeDataType string

const (
	ChangeEmail    ChangeDataType = "email"
	ChangeUsername ChangeDataType = "username"
	ChangePhone    ChangeDataType = "phone"
	ChangePassword ChangeDataType = "password"
)

// ValidChangeDataType reports whether the tag names a known sensitive
// field.
func ValidChangeDataType(t ChangeDataType) bool {
	switch t {
	case ChangeEmail, ChangeUsername, ChangePhone, ChangePassword:
		return true
	}
	return false
}

// PendingChange is an outstanding re-verification request for a
// sensitive field change, one row in `pending_changes`. At most one
// unverified row may exist per user at any time, across all data
// types; the repository enforces this with a conditional insert.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user whose field is changing.
//  Verification – code the user must present to confirm the change.
//  DataType     – which field is changing.
//  ExpiresAt    – when the code stops being verifiable.
//  IP           – address the change was requested from.
//  UserAgent    – user agent the change was requested from.
//  Fingerprint  – device fingerprint of the requester.
//  Verified     – whether the change has been confirmed.
//  CreatedAt    – creation timestamp.
type PendingChange struct {
	ID           uint64         // pending_changes.id
	UserID       uint64         // pending_changes.user_id
	Verification string         // pending_changes.verification
	DataType     ChangeDataType // pending_changes.data_type
	ExpiresAt    time.Time      // pending_changes.expires_at
	IP           string         // pending_changes.ip
	UserAgent    string         // pending_changes.user_agent
	Fingerprint  string         // pending_changes.fingerprint
	Verified     bool           // pending_changes.verified
	CreatedAt    time.Time      // pending_changes.created_at
}

// PasswordReset is a forgot-password request awaiting out-of-band
// confirmation, one row in `password_resets`.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – account email the reset was requested for.
//  Verification – code sent to the address.
//  ExpiresAt    – when the code stops being verifiable.
//  IP           – address the reset was requested from.
//  UserAgent    – user agent of the requester.
//  Fingerprint  – device fingerprint of the requester.
//  CreatedAt    – creation timestamp.
type PasswordReset struct {
	ID           uint64    // password_resets.id
	Email        string    // password_resets.email
	Verification string    // password_resets.verification
	ExpiresAt    time.Time // password_resets.expires_at
	IP           string    // password_resets.ip
	UserAgent    string    // password_resets.user_agent
	Fingerprint  string    // password_resets.fingerprint
	CreatedAt    time.Time // password_resets.created_at
}
