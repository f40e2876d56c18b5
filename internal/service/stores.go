// Package service implements the account-security core: credential
// issuance and rotation, lockout enforcement, single-in-flight
// sensitive-change verification, and capability-based room
// authorization. Services consume the stores as interfaces so the
// flows can be exercised against in-memory fakes; the MySQL
// repositories satisfy them in production.
package service

import (
	"context"
	"time"

	"github.com/olekventi/chatly/internal/model"
	"github.com/olekventi/chatly/internal/queue"
)

// CredentialStore is the persisted user identity store plus the
// per-user salt vault. Counter and state-machine mutations are atomic
// at the storage level; callers never read-modify-write.
type CredentialStore interface {
	Create(ctx context.Context, u model.User, salt string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByIdentifier(ctx context.Context, ident model.LoginIdentifier) (model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	PasswordHashExists(ctx context.Context, hash string) (bool, error)
	GetVaultSalt(ctx context.Context, userID uint64) (string, error)
	IncrementLoginAttempts(ctx context.Context, userID uint64) (int, error)
	ResetLoginAttempts(ctx context.Context, userID uint64) error
	LockIfAttemptsReached(ctx context.Context, userID uint64, threshold int, until time.Time) (bool, error)
	UnlockIfExpired(ctx context.Context, userID uint64, now time.Time) (bool, error)
	Activate(ctx context.Context, email, verification string) (bool, error)
	UpdateIdentity(ctx context.Context, userID uint64, dataType model.ChangeDataType, oldValue, newValue, verification string, verifyExpires, blockExpires time.Time) (bool, error)
	UpdatePassword(ctx context.Context, userID uint64, hash, salt, verification string, verifyExpires, blockExpires *time.Time) error
	ClearBlock(ctx context.Context, userID uint64) error
}

// SessionStore persists refresh sessions keyed by the full binding
// tuple.
type SessionStore interface {
	Count(ctx context.Context, userID uint64) (int, error)
	Insert(ctx context.Context, s model.RefreshSession) error
	Find(ctx context.Context, userID uint64, sc model.SessionContext, refreshToken string) (model.RefreshSession, error)
	Delete(ctx context.Context, userID uint64, sc model.SessionContext, refreshToken string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID uint64) error
}

// PendingChangeStore is the single-in-flight ledger for sensitive
// field changes.
type PendingChangeStore interface {
	ReapExpired(ctx context.Context, userID uint64, now time.Time) error
	InsertIfNone(ctx context.Context, pc model.PendingChange) (bool, error)
	MarkVerified(ctx context.Context, userID uint64, verification string, dataType model.ChangeDataType, now time.Time) (bool, error)
}

// RightsStore keeps per-(user, room) capability sets.
type RightsStore interface {
	Get(ctx context.Context, userID, roomID uint64) (model.Right, error)
	Upsert(ctx context.Context, userID, roomID uint64, caps []model.Capability) error
	Delete(ctx context.Context, userID, roomID uint64) (bool, error)
	DeleteAllForRoom(ctx context.Context, roomID uint64) error
}

// RoomStore keeps the minimal room rows grants refer to.
type RoomStore interface {
	Create(ctx context.Context, room model.Room) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Room, error)
	GetByName(ctx context.Context, name string) (model.Room, error)
	Delete(ctx context.Context, id uint64) (bool, error)
}

// PasswordResetStore keeps forgot-password requests.
type PasswordResetStore interface {
	Insert(ctx context.Context, pr model.PasswordReset) error
	FindByVerification(ctx context.Context, verification string) (model.PasswordReset, error)
	Delete(ctx context.Context, id uint64) error
}

// ClientStore persists anonymous-principal sessions and contact-form
// appeals.
type ClientStore interface {
	InsertSession(ctx context.Context, s model.ClientSession) error
	InsertContactForm(ctx context.Context, clientID, email, subject, message string) error
}

// Notifier hands verification codes off for out-of-band delivery. A
// failed send is the caller's to log and ignore: the pending state is
// committed first and stays valid.
type Notifier interface {
	SendVerification(ctx context.Context, event queue.VerificationEvent) error
}
