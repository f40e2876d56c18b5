package repository

import (
	"context"
	"database/sql"

	"github.com/olekventi/chatly/internal/model"
)

// PasswordResetRepo stores forgot-password requests awaiting their
// emailed code.
type PasswordResetRepo struct{ DB *sql.DB }

func NewPasswordResetRepo(db *sql.DB) *PasswordResetRepo { return &PasswordResetRepo{DB: db} }

// Insert records a reset request.
func (r *PasswordResetRepo) Insert(ctx context.Context, pr model.PasswordReset) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_resets (email, verification, expires_at, ip, user_agent, fingerprint) VALUES (?,?,?,?,?,?)",
		pr.Email, pr.Verification, pr.ExpiresAt, pr.IP, pr.UserAgent, pr.Fingerprint)
	return err
}

// FindByVerification returns the reset request carrying the code, or
// ErrNotFound.
func (r *PasswordResetRepo) FindByVerification(ctx context.Context, verification string) (model.PasswordReset, error) {
	var pr model.PasswordReset
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, verification, expires_at, ip, user_agent, fingerprint, created_at FROM password_resets WHERE verification=? LIMIT 1",
		verification).Scan(&pr.ID, &pr.Email, &pr.Verification, &pr.ExpiresAt, &pr.IP, &pr.UserAgent, &pr.Fingerprint, &pr.CreatedAt)
	if err == sql.ErrNoRows {
		return pr, ErrNotFound
	}
	return pr, err
}

// Delete removes a consumed or expired reset request.
func (r *PasswordResetRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM password_resets WHERE id=?", id)
	return err
}
