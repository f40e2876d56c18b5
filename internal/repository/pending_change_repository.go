package repository

import (
	"context"
	"time"

	"database/sql"

	"github.com/olekventi/chatly/internal/model"
)

// PendingChangeRepo is the ledger of outstanding sensitive-field
// change requests. The single-flight invariant — at most one
// unverified request per user, across all data types — is enforced by
// a conditional insert, not by a check-then-insert pair, so two
// concurrent change requests for the same user cannot both slip in.
type PendingChangeRepo struct{ DB *sql.DB }

func NewPendingChangeRepo(db *sql.DB) *PendingChangeRepo { return &PendingChangeRepo{DB: db} }

// ReapExpired deletes unverified requests whose codes have lapsed.
// Called lazily on open; an expired request must never block a new one
// nor satisfy a verify.
func (r *PendingChangeRepo) ReapExpired(ctx context.Context, userID uint64, now time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM pending_changes WHERE user_id=? AND verified=0 AND expires_at<=?",
		userID, now)
	return err
}

// InsertIfNone writes the pending request only when the user has no
// unverified request outstanding. The existence check and the insert
// are one statement; zero rows affected means another request is
// already in flight.
func (r *PendingChangeRepo) InsertIfNone(ctx context.Context, pc model.PendingChange) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO pending_changes (user_id, verification, data_type, expires_at, ip, user_agent, fingerprint, verified)
		 SELECT ?,?,?,?,?,?,?,0 FROM DUAL
		 WHERE NOT EXISTS (SELECT 1 FROM pending_changes WHERE user_id=? AND verified=0)`,
		pc.UserID, pc.Verification, pc.DataType, pc.ExpiresAt, pc.IP, pc.UserAgent, pc.Fingerprint,
		pc.UserID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkVerified confirms the request matching (user, code, data type)
// when it is still unverified and unexpired. Returns whether a row was
// confirmed.
func (r *PendingChangeRepo) MarkVerified(ctx context.Context, userID uint64, verification string, dataType model.ChangeDataType, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE pending_changes SET verified=1 WHERE user_id=? AND verification=? AND data_type=? AND verified=0 AND expires_at>?",
		userID, verification, dataType, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
