package repository

import (
	"context"
	"database/sql"

	"github.com/olekventi/chatly/internal/model"
)

// RoomRepo keeps the minimal room rows capability grants refer to.
// Room metadata beyond that is out of this service's scope.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

// Create inserts a room and returns its id.
func (r *RoomRepo) Create(ctx context.Context, room model.Room) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO rooms (name, is_private, owner_id) VALUES (?,?,?)",
		room.Name, room.IsPrivate, room.OwnerID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a room by id, or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	var room model.Room
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, is_private, owner_id, created_at FROM rooms WHERE id=? LIMIT 1",
		id).Scan(&room.ID, &room.Name, &room.IsPrivate, &room.OwnerID, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return room, ErrNotFound
	}
	return room, err
}

// GetByName fetches a room by its exact name (the welcome room), or
// ErrNotFound.
func (r *RoomRepo) GetByName(ctx context.Context, name string) (model.Room, error) {
	var room model.Room
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, is_private, owner_id, created_at FROM rooms WHERE name=? LIMIT 1",
		name).Scan(&room.ID, &room.Name, &room.IsPrivate, &room.OwnerID, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return room, ErrNotFound
	}
	return room, err
}

// Delete removes a room row. Returns whether a row was removed.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM rooms WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
