package service

import (
	"context"
	"time"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/model"
)

// RoomService enforces capability-based authorization for room
// operations. Membership and permissions are the same thing: a
// (user, room) rights row is the membership record, and removing it
// removes the member.
type RoomService struct {
	rights RightsStore
	rooms  RoomStore

	now func() time.Time
}

func NewRoomService(rights RightsStore, rooms RoomStore) *RoomService {
	return &RoomService{rights: rights, rooms: rooms, now: time.Now}
}

// Authorize reports whether the user holds every requested capability
// in the room. A user with no rights row is simply not a member; that
// is a negative answer, not an error.
func (s *RoomService) Authorize(ctx context.Context, userID, roomID uint64, caps ...model.Capability) (bool, error) {
	right, err := s.rights.Get(ctx, userID, roomID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, apperr.Internal(err)
	}
	return right.HasAll(caps), nil
}

// requireCapability turns a negative Authorize into the uniform denial
// error.
func (s *RoomService) requireCapability(ctx context.Context, userID, roomID uint64, caps ...model.Capability) error {
	ok, err := s.Authorize(ctx, userID, roomID, caps...)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.MissingCapability)
	}
	return nil
}

// Grant installs (or replaces) a user's capability set in a room.
func (s *RoomService) Grant(ctx context.Context, userID, roomID uint64, caps []model.Capability) error {
	if err := s.rights.Upsert(ctx, userID, roomID, caps); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Rights returns a user's capability set in a room.
func (s *RoomService) Rights(ctx context.Context, userID, roomID uint64) (model.Right, error) {
	right, err := s.rights.Get(ctx, userID, roomID)
	if err != nil {
		if isNotFound(err) {
			return model.Right{}, apperr.New(apperr.RightNotFound)
		}
		return model.Right{}, apperr.Internal(err)
	}
	return right, nil
}

// CreateRoom creates a room and grants the creator the full
// capability set.
func (s *RoomService) CreateRoom(ctx context.Context, ownerID uint64, name string, private bool) (model.Room, error) {
	room := model.Room{
		Name:      name,
		IsPrivate: private,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.rooms.Create(ctx, room)
	if err != nil {
		return model.Room{}, apperr.Internal(err)
	}
	room.ID = id
	if err := s.Grant(ctx, ownerID, id, model.AllCapabilities()); err != nil {
		return model.Room{}, err
	}
	return room, nil
}

// DeleteRoom removes a room and every membership in it. Requires
// DELETE_ROOM.
func (s *RoomService) DeleteRoom(ctx context.Context, userID, roomID uint64) error {
	if err := s.requireCapability(ctx, userID, roomID, model.CapDeleteRoom); err != nil {
		return err
	}
	deleted, err := s.rooms.Delete(ctx, roomID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !deleted {
		return apperr.New(apperr.RoomNotFound)
	}
	if err := s.rights.DeleteAllForRoom(ctx, roomID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// AddMember admits a user into a room with the given capability set.
// The caller needs ADD_USERS; the granted set is whatever the caller
// chose, not a fixed default.
func (s *RoomService) AddMember(ctx context.Context, callerID, memberID, roomID uint64, caps []model.Capability) error {
	if err := s.requireCapability(ctx, callerID, roomID, model.CapAddUsers); err != nil {
		return err
	}
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if isNotFound(err) {
			return apperr.New(apperr.RoomNotFound)
		}
		return apperr.Internal(err)
	}
	return s.Grant(ctx, memberID, roomID, caps)
}

// EnterPublicRoom lets a user join an open room on their own, with
// the standard member set. Private rooms are invitation-only.
func (s *RoomService) EnterPublicRoom(ctx context.Context, userID, roomID uint64) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if isNotFound(err) {
			return apperr.New(apperr.RoomNotFound)
		}
		return apperr.Internal(err)
	}
	if room.IsPrivate {
		return apperr.New(apperr.MissingCapability)
	}
	return s.Grant(ctx, userID, roomID, model.MemberCapabilities())
}

// RemoveMember revokes a user's membership. Removing somebody else
// requires DELETE_USERS; removing yourself is always allowed, whatever
// the caller's remaining capability set says.
func (s *RoomService) RemoveMember(ctx context.Context, callerID, memberID, roomID uint64) error {
	if callerID != memberID {
		if err := s.requireCapability(ctx, callerID, roomID, model.CapDeleteUsers); err != nil {
			return err
		}
	}
	removed, err := s.rights.Delete(ctx, memberID, roomID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !removed {
		return apperr.New(apperr.RightNotFound)
	}
	return nil
}

// ChangeMemberRights replaces an existing member's capability set.
// Requires CHANGE_USER_RIGHTS; the target must already be a member.
func (s *RoomService) ChangeMemberRights(ctx context.Context, callerID, memberID, roomID uint64, caps []model.Capability) error {
	if err := s.requireCapability(ctx, callerID, roomID, model.CapChangeUserRights); err != nil {
		return err
	}
	if _, err := s.rights.Get(ctx, memberID, roomID); err != nil {
		if isNotFound(err) {
			return apperr.New(apperr.RightNotFound)
		}
		return apperr.Internal(err)
	}
	return s.Grant(ctx, memberID, roomID, caps)
}

// AuthorizeMessageDelete gates message deletion in a room.
func (s *RoomService) AuthorizeMessageDelete(ctx context.Context, userID, roomID uint64) error {
	return s.requireCapability(ctx, userID, roomID, model.CapDeleteMessages)
}

// AddWelcomeMember grants a fresh account the member set in the
// service-wide welcome room. Deployments without one skip the grant.
func (s *RoomService) AddWelcomeMember(ctx context.Context, userID uint64) error {
	room, err := s.rooms.GetByName(ctx, model.WelcomeRoomName)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return apperr.Internal(err)
	}
	return s.Grant(ctx, userID, room.ID, model.MemberCapabilities())
}
