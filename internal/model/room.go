package model

import "time"

// Room is the minimal room record rights are granted against. Message
// content and richer room metadata live outside this service; the row
// exists so capability grants and membership have a referent.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name (the welcome room has a well-known name).
//  IsPrivate – private rooms are not joinable without an invite.
//  OwnerID   – user who created the room.
//  CreatedAt – creation timestamp.
type Room struct {
	ID        uint64    // rooms.id
	Name      string    // rooms.name
	IsPrivate bool      // rooms.is_private
	OwnerID   uint64    // rooms.owner_id
	CreatedAt time.Time // rooms.created_at
}

// WelcomeRoomName is the room every verified registration is added to.
const WelcomeRoomName = "Chatly"
