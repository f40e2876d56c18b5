package model

import "time"

// User represents an account record as stored in the `users` table.
// Each field corresponds to a column. Identity fields (email, username,
// phone) are globally unique and enforced with unique keys at the
// storage level so concurrent registrations cannot race past an
// application-side existence check. Accounts are never hard-deleted;
// deactivation flips IsActive instead.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Email         – unique email address.
//  Username      – unique username.
//  Phone         – unique phone number.
//  PasswordHash  – argon2id digest in PHC string format.
//  IsActive      – false until registration is verified, or when the
//                  account is administratively disabled.
//  IsBlocked     – true while the account is locked out or awaiting
//                  re-verification of a sensitive change.
//  BlockExpires  – when the block lifts (nil if not blocked).
//  LoginAttempts – consecutive failed logins since the last success.
//  Verification  – outstanding verification code (empty if none).
//  VerificationExpires – when the outstanding code stops being valid.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID                  uint64     // users.id
	Email               string     // users.email
	Username            string     // users.username
	Phone               string     // users.phone
	PasswordHash        string     // users.password_hash
	IsActive            bool       // users.is_active
	IsBlocked           bool       // users.is_blocked
	BlockExpires        *time.Time // users.block_expires (nullable)
	LoginAttempts       int        // users.login_attempts
	Verification        string     // users.verification
	VerificationExpires *time.Time // users.verification_expires (nullable)
	CreatedAt           time.Time  // users.created_at
	UpdatedAt           time.Time  // users.updated_at
}

// Vault holds the per-user password salt, stored in its own table apart
// from the user record so a leaked users dump alone is not enough to
// mount an offline attack on the digests. Exactly one vault exists per
// user; it is created together with the user row and its salt is
// rotated on every password-set event.
//
// Fields:
//  ID     – primary key identifier.
//  UserID – owner of the salt (unique).
//  Salt   – hex-encoded random salt prepended to the password before hashing.
type Vault struct {
	ID     uint64 // vaults.id
	UserID uint64 // vaults.user_id
	Salt   string // vaults.salt
}

// LoginIdentifierKind discriminates which identity field a login
// request resolved to. The choice is made once at the HTTP boundary;
// the core never branches on field presence.
type LoginIdentifierKind string

const (
	IdentifyByEmail    LoginIdentifierKind = "email"
	IdentifyByUsername LoginIdentifierKind = "username"
	IdentifyByPhone    LoginIdentifierKind = "phone"
)

// LoginIdentifier is the resolved (kind, value) pair a login request
// authenticates with.
type LoginIdentifier struct {
	Kind  LoginIdentifierKind
	Value string
}
