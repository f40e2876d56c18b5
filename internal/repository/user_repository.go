package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/olekventi/chatly/internal/model"
)

// UserRepo is the credential store: the `users` table plus the
// one-to-one `vaults` table holding each user's password salt.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,phone,password_hash,is_active,is_blocked,block_expires,login_attempts,verification,verification_expires,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Phone, &u.PasswordHash,
		&u.IsActive, &u.IsBlocked, &u.BlockExpires, &u.LoginAttempts,
		&u.Verification, &u.VerificationExpires, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts the user and its vault in one transaction so the
// one-vault-per-user invariant holds even if the process dies between
// the writes. Unique-key violations on email/username/phone surface as
// ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u model.User, salt string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, username, phone, password_hash, is_active, is_blocked, login_attempts, verification, verification_expires) VALUES (?,?,?,?,?,?,?,?,?)",
		strings.ToLower(strings.TrimSpace(u.Email)), u.Username, u.Phone, u.PasswordHash,
		u.IsActive, u.IsBlocked, u.LoginAttempts, u.Verification, u.VerificationExpires)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO vaults (user_id, salt) VALUES (?,?)", id, salt); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByIdentifier fetches a user by whichever identity field the login
// request resolved to.
func (r *UserRepo) GetByIdentifier(ctx context.Context, ident model.LoginIdentifier) (model.User, error) {
	var column string
	switch ident.Kind {
	case model.IdentifyByEmail:
		column = "email"
	case model.IdentifyByUsername:
		column = "username"
	case model.IdentifyByPhone:
		column = "phone"
	default:
		return model.User{}, ErrNotFound
	}
	value := ident.Value
	if ident.Kind == model.IdentifyByEmail {
		value = strings.ToLower(strings.TrimSpace(value))
	}
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+"=? LIMIT 1", value))
}

// EmailExists reports whether any user holds the email.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

// UsernameExists reports whether any user holds the username.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

// PhoneExists reports whether any user holds the phone number.
func (r *UserRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "phone", phone)
}

// PasswordHashExists reports whether any user already stores the exact
// digest. Used by the bounded uniqueness probe during registration and
// password changes.
func (r *UserRepo) PasswordHashExists(ctx context.Context, hash string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE password_hash=? LIMIT 1", hash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepo) exists(ctx context.Context, column, value string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE "+column+"=? LIMIT 1", value).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// GetVaultSalt returns the password salt for a user.
func (r *UserRepo) GetVaultSalt(ctx context.Context, userID uint64) (string, error) {
	var salt string
	err := r.DB.QueryRowContext(ctx,
		"SELECT salt FROM vaults WHERE user_id=? LIMIT 1", userID).Scan(&salt)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return salt, err
}

// IncrementLoginAttempts bumps the failed-login counter atomically and
// returns the new value. The increment happens in SQL so concurrent
// failed logins cannot lose updates.
func (r *UserRepo) IncrementLoginAttempts(ctx context.Context, userID uint64) (int, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=login_attempts+1 WHERE id=?", userID); err != nil {
		return 0, err
	}
	var attempts int
	err := r.DB.QueryRowContext(ctx,
		"SELECT login_attempts FROM users WHERE id=? LIMIT 1", userID).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return attempts, err
}

// ResetLoginAttempts clears the failed-login counter after a
// successful verification.
func (r *UserRepo) ResetLoginAttempts(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET login_attempts=0 WHERE id=?", userID)
	return err
}

// LockIfAttemptsReached promotes the account to the locked state when
// the counter has hit the threshold. The condition lives in the WHERE
// clause, so two racing failed logins cannot both observe a stale
// counter; exactly one statement wins. Returns whether the lock was
// applied.
func (r *UserRepo) LockIfAttemptsReached(ctx context.Context, userID uint64, threshold int, until time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_blocked=1, block_expires=?, login_attempts=0 WHERE id=? AND login_attempts>=?",
		until, userID, threshold)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UnlockIfExpired transitions a locked account back to active when its
// block has run out. Returns whether an unlock happened.
func (r *UserRepo) UnlockIfExpired(ctx context.Context, userID uint64, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_blocked=0, block_expires=NULL WHERE id=? AND is_blocked=1 AND block_expires IS NOT NULL AND block_expires<=?",
		userID, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Activate completes registration: flips the account active and clears
// the verification code, conditional on the code matching an inactive
// account. Returns whether a row was activated.
func (r *UserRepo) Activate(ctx context.Context, email, verification string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=1, verification='', verification_expires=NULL WHERE email=? AND is_active=0 AND verification=?",
		strings.ToLower(strings.TrimSpace(email)), verification)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateIdentity swaps one identity field (email, username or phone)
// and places the account into the blocked, awaiting-verification state
// in a single statement. Conditional on the old value still matching an
// active account. Unique-key violations surface as ErrDuplicate.
func (r *UserRepo) UpdateIdentity(ctx context.Context, userID uint64, dataType model.ChangeDataType, oldValue, newValue, verification string, verifyExpires, blockExpires time.Time) (bool, error) {
	var column string
	switch dataType {
	case model.ChangeEmail:
		column = "email"
	case model.ChangeUsername:
		column = "username"
	case model.ChangePhone:
		column = "phone"
	default:
		return false, ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+column+"=?, is_blocked=1, verification=?, verification_expires=?, block_expires=? WHERE id=? AND "+column+"=? AND is_active=1",
		newValue, verification, verifyExpires, blockExpires, userID, oldValue)
	if err != nil {
		if isDuplicate(err) {
			return false, ErrDuplicate
		}
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdatePassword stores a new digest and rotates the vault salt in one
// transaction, optionally placing the account into the blocked,
// awaiting-verification state (nil expiries skip the block, as in the
// reset flow where the code was already verified).
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, hash, salt, verification string, verifyExpires, blockExpires *time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if verifyExpires != nil && blockExpires != nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET password_hash=?, is_blocked=1, verification=?, verification_expires=?, block_expires=? WHERE id=?",
			hash, verification, verifyExpires, blockExpires, userID)
	} else {
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET password_hash=? WHERE id=?", hash, userID)
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE vaults SET salt=? WHERE user_id=?", salt, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearBlock lifts the blocked state and wipes the outstanding
// verification code after a sensitive change is confirmed.
func (r *UserRepo) ClearBlock(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_blocked=0, verification='', verification_expires=NULL, block_expires=NULL WHERE id=?",
		userID)
	return err
}
