package model

import "strings"

// Capability is a named permission a user holds within a specific room.
// Capabilities are stored per (user, room) pair as a set and checked
// before every room-mutating operation.
type Capability string

const (
	CapSendMessages     Capability = "SEND_MESSAGES"
	CapSendAttachments  Capability = "SEND_ATTACHMENTS"
	CapChangeMessages   Capability = "CHANGE_MESSAGES"
	CapDeleteMessages   Capability = "DELETE_MESSAGES"
	CapChangeRoom       Capability = "CHANGE_ROOM"
	CapDeleteRoom       Capability = "DELETE_ROOM"
	CapAddUsers         Capability = "ADD_USERS"
	CapDeleteUsers      Capability = "DELETE_USERS"
	CapChangeUserRights Capability = "CHANGE_USER_RIGHTS"
	CapLeaveRoom        Capability = "LEAVE_ROOM"
)

// AllCapabilities returns the full capability set, granted to a room's
// creator.
func AllCapabilities() []Capability {
	return []Capability{
		CapSendMessages, CapSendAttachments, CapChangeMessages,
		CapDeleteMessages, CapChangeRoom, CapDeleteRoom,
		CapAddUsers, CapDeleteUsers, CapChangeUserRights, CapLeaveRoom,
	}
}

// MemberCapabilities returns the default set granted when a user joins
// a public room on their own.
func MemberCapabilities() []Capability {
	return []Capability{CapSendMessages, CapSendAttachments, CapChangeMessages, CapLeaveRoom}
}

// ValidCapability reports whether the tag names a known capability.
func ValidCapability(c Capability) bool {
	switch c {
	case CapSendMessages, CapSendAttachments, CapChangeMessages,
		CapDeleteMessages, CapChangeRoom, CapDeleteRoom,
		CapAddUsers, CapDeleteUsers, CapChangeUserRights, CapLeaveRoom:
		return true
	}
	return false
}

// ParseCapabilities splits a comma-delimited tag list (the X-Rights
// header format) into capabilities, dropping empty and unknown entries.
func ParseCapabilities(raw string) []Capability {
	parts := strings.Split(raw, ",")
	out := make([]Capability, 0, len(parts))
	for _, p := range parts {
		c := Capability(strings.ToUpper(strings.TrimSpace(p)))
		if ValidCapability(c) {
			out = append(out, c)
		}
	}
	return out
}

// JoinCapabilities renders a capability set back into the delimited
// header/storage form.
func JoinCapabilities(caps []Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// Right is the capability set a user holds in a room, one row per
// (user, room) pair.
//
// Fields:
//  ID     – primary key identifier.
//  UserID – holder of the rights.
//  RoomID – room the rights apply to.
//  Rights – the capability set.
type Right struct {
	ID     uint64       // rights.id
	UserID uint64       // rights.user_id
	RoomID uint64       // rights.room_id
	Rights []Capability // rights.rights (delimited set)
}

// Has reports whether the right includes the given capability.
func (r Right) Has(c Capability) bool {
	for _, have := range r.Rights {
		if have == c {
			return true
		}
	}
	return false
}

// HasAll reports whether the right includes every given capability.
func (r Right) HasAll(caps []Capability) bool {
	for _, c := range caps {
		if !r.Has(c) {
			return false
		}
	}
	return true
}
