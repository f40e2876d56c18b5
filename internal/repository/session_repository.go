package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/olekventi/chatly/internal/model"
)

// SessionRepo persists refresh sessions. A refresh token is only as
// good as its row here: refreshing requires an exact match on the
// (user, ip, user agent, fingerprint, token) tuple.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Count returns the number of live sessions for a user.
func (r *SessionRepo) Count(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_sessions WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// Insert writes a new refresh session row. The lifetime is stored in
// milliseconds; expiry is evaluated against created_at at check time,
// not by the database.
func (r *SessionRepo) Insert(ctx context.Context, s model.RefreshSession) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_sessions (user_id, ip, user_agent, fingerprint, refresh_token, expires_in_ms, created_at) VALUES (?,?,?,?,?,?,?)",
		s.UserID, s.IP, s.UserAgent, s.Fingerprint, s.RefreshToken, s.ExpiresIn.Milliseconds(), s.CreatedAt)
	return err
}

// Find returns the session exactly matching the binding tuple, or
// ErrNotFound.
func (r *SessionRepo) Find(ctx context.Context, userID uint64, sc model.SessionContext, refreshToken string) (model.RefreshSession, error) {
	var (
		s  model.RefreshSession
		ms int64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, ip, user_agent, fingerprint, refresh_token, expires_in_ms, created_at FROM refresh_sessions WHERE user_id=? AND ip=? AND user_agent=? AND fingerprint=? AND refresh_token=? LIMIT 1",
		userID, sc.IP, sc.UserAgent, sc.Fingerprint, refreshToken).
		Scan(&s.ID, &s.UserID, &s.IP, &s.UserAgent, &s.Fingerprint, &s.RefreshToken, &ms, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	s.ExpiresIn = time.Duration(ms) * time.Millisecond
	return s, err
}

// Delete removes the single session matching the binding tuple
// (logout). Returns whether a row was removed.
func (r *SessionRepo) Delete(ctx context.Context, userID uint64, sc model.SessionContext, refreshToken string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_sessions WHERE user_id=? AND ip=? AND user_agent=? AND fingerprint=? AND refresh_token=?",
		userID, sc.IP, sc.UserAgent, sc.Fingerprint, refreshToken)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAllForUser wipes every session a user holds. This is the
// cap-overflow policy: all prior sessions go before the new one is
// written, rather than evicting oldest-first.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_sessions WHERE user_id=?", userID)
	return err
}
