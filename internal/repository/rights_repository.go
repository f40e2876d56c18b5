package repository

import (
	"context"
	"database/sql"

	"github.com/olekventi/chatly/internal/model"
)

// RightsRepo stores per-(user, room) capability sets. A unique key on
// (user_id, room_id) keeps the at-most-one-record invariant even under
// concurrent grants.
type RightsRepo struct{ DB *sql.DB }

func NewRightsRepo(db *sql.DB) *RightsRepo { return &RightsRepo{DB: db} }

// Get returns the rights record for a (user, room) pair, or
// ErrNotFound.
func (r *RightsRepo) Get(ctx context.Context, userID, roomID uint64) (model.Right, error) {
	var (
		right model.Right
		raw   string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, room_id, rights FROM rights WHERE user_id=? AND room_id=? LIMIT 1",
		userID, roomID).Scan(&right.ID, &right.UserID, &right.RoomID, &raw)
	if err == sql.ErrNoRows {
		return right, ErrNotFound
	}
	if err != nil {
		return right, err
	}
	right.Rights = model.ParseCapabilities(raw)
	return right, nil
}

// Upsert creates or replaces the rights record for a (user, room)
// pair. Replacement rides the unique key, so a concurrent grant for
// the same pair cannot produce two rows.
func (r *RightsRepo) Upsert(ctx context.Context, userID, roomID uint64, caps []model.Capability) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO rights (user_id, room_id, rights) VALUES (?,?,?) ON DUPLICATE KEY UPDATE rights=VALUES(rights)",
		userID, roomID, model.JoinCapabilities(caps))
	return err
}

// Delete removes the rights record for a (user, room) pair. Returns
// whether a row was removed.
func (r *RightsRepo) Delete(ctx context.Context, userID, roomID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM rights WHERE user_id=? AND room_id=?", userID, roomID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteAllForRoom drops every rights record of a room when the room
// itself is deleted.
func (r *RightsRepo) DeleteAllForRoom(ctx context.Context, roomID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM rights WHERE room_id=?", roomID)
	return err
}
