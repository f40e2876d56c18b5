package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/model"
)

func TestAuthorizeIsSubsetTest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.roomSv.Grant(ctx, 1, 10, []model.Capability{
		model.CapSendMessages, model.CapSendAttachments, model.CapLeaveRoom,
	}))

	// Holding a superset of the requested capabilities is enough.
	ok, err := env.roomSv.Authorize(ctx, 1, 10, model.CapSendMessages)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.roomSv.Authorize(ctx, 1, 10, model.CapSendMessages, model.CapSendAttachments)
	require.NoError(t, err)
	assert.True(t, ok)

	// One missing capability fails the whole check.
	ok, err = env.roomSv.Authorize(ctx, 1, 10, model.CapSendMessages, model.CapDeleteRoom)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizeNonMemberIsDenialNotError(t *testing.T) {
	env := newTestEnv(t)
	ok, err := env.roomSv.Authorize(context.Background(), 99, 10, model.CapSendMessages)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRoomGrantsCreatorEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.roomSv.CreateRoom(ctx, 1, "general", false)
	require.NoError(t, err)
	require.NotZero(t, room.ID)

	right, err := env.rights.Get(ctx, 1, room.ID)
	require.NoError(t, err)
	assert.True(t, right.HasAll(model.AllCapabilities()))
}

func TestDeleteRoomRequiresCapability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, err := env.roomSv.CreateRoom(ctx, 1, "general", false)
	require.NoError(t, err)
	require.NoError(t, env.roomSv.Grant(ctx, 2, room.ID, model.MemberCapabilities()))

	err = env.roomSv.DeleteRoom(ctx, 2, room.ID)
	assert.True(t, apperr.IsKey(err, apperr.MissingCapability))

	require.NoError(t, env.roomSv.DeleteRoom(ctx, 1, room.ID))
	_, err = env.rooms.GetByID(ctx, room.ID)
	assert.Error(t, err)
	// Memberships went with the room.
	_, err = env.rights.Get(ctx, 2, room.ID)
	assert.Error(t, err)
}

func TestSelfLeaveBypassesDeleteUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, err := env.roomSv.CreateRoom(ctx, 1, "general", false)
	require.NoError(t, err)
	require.NoError(t, env.roomSv.Grant(ctx, 2, room.ID, model.MemberCapabilities()))
	require.NoError(t, env.roomSv.Grant(ctx, 3, room.ID, model.MemberCapabilities()))

	// A plain member cannot evict somebody else...
	err = env.roomSv.RemoveMember(ctx, 2, 3, room.ID)
	assert.True(t, apperr.IsKey(err, apperr.MissingCapability))

	// ...but can always leave on their own, even after their rights
	// were cut down to nothing that mentions leaving.
	require.NoError(t, env.roomSv.ChangeMemberRights(ctx, 1, 2, room.ID, []model.Capability{model.CapSendMessages}))
	require.NoError(t, env.roomSv.RemoveMember(ctx, 2, 2, room.ID))
	_, err = env.rights.Get(ctx, 2, room.ID)
	assert.Error(t, err)

	// The owner holds DELETE_USERS and can evict.
	require.NoError(t, env.roomSv.RemoveMember(ctx, 1, 3, room.ID))
}

func TestRemoveMemberMissingRight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, err := env.roomSv.CreateRoom(ctx, 1, "general", false)
	require.NoError(t, err)

	err = env.roomSv.RemoveMember(ctx, 1, 42, room.ID)
	assert.True(t, apperr.IsKey(err, apperr.RightNotFound))
}

func TestChangeMemberRights(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, err := env.roomSv.CreateRoom(ctx, 1, "general", false)
	require.NoError(t, err)
	require.NoError(t, env.roomSv.Grant(ctx, 2, room.ID, model.MemberCapabilities()))

	// The target must already be a member.
	err = env.roomSv.ChangeMemberRights(ctx, 1, 99, room.ID, model.MemberCapabilities())
	assert.True(t, apperr.IsKey(err, apperr.RightNotFound))

	// A member without CHANGE_USER_RIGHTS cannot escalate anyone.
	err = env.roomSv.ChangeMemberRights(ctx, 2, 2, room.ID, model.AllCapabilities())
	assert.True(t, apperr.IsKey(err, apperr.MissingCapability))

	require.NoError(t, env.roomSv.ChangeMemberRights(ctx, 1, 2, room.ID, []model.Capability{model.CapSendMessages}))
	right, err := env.rights.Get(ctx, 2, room.ID)
	require.NoError(t, err)
	assert.True(t, right.Has(model.CapSendMessages))
	assert.False(t, right.Has(model.CapLeaveRoom))
}

func TestEnterPublicRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	public, err := env.roomSv.CreateRoom(ctx, 1, "open", false)
	require.NoError(t, err)
	private, err := env.roomSv.CreateRoom(ctx, 1, "closed", true)
	require.NoError(t, err)

	require.NoError(t, env.roomSv.EnterPublicRoom(ctx, 2, public.ID))
	right, err := env.rights.Get(ctx, 2, public.ID)
	require.NoError(t, err)
	assert.True(t, right.HasAll(model.MemberCapabilities()))

	err = env.roomSv.EnterPublicRoom(ctx, 2, private.ID)
	assert.True(t, apperr.IsKey(err, apperr.MissingCapability))
}

func TestAuthorizeMessageDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, err := env.roomSv.CreateRoom(ctx, 1, "general", false)
	require.NoError(t, err)
	require.NoError(t, env.roomSv.Grant(ctx, 2, room.ID, model.MemberCapabilities()))

	assert.NoError(t, env.roomSv.AuthorizeMessageDelete(ctx, 1, room.ID))
	err = env.roomSv.AuthorizeMessageDelete(ctx, 2, room.ID)
	assert.True(t, apperr.IsKey(err, apperr.MissingCapability))
}

func TestAddMemberRequiresAddUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	room, err := env.roomSv.CreateRoom(ctx, 1, "general", false)
	require.NoError(t, err)
	require.NoError(t, env.roomSv.Grant(ctx, 2, room.ID, model.MemberCapabilities()))

	err = env.roomSv.AddMember(ctx, 2, 3, room.ID, model.MemberCapabilities())
	assert.True(t, apperr.IsKey(err, apperr.MissingCapability))

	require.NoError(t, env.roomSv.AddMember(ctx, 1, 3, room.ID, []model.Capability{model.CapSendMessages}))
	right, err := env.rights.Get(ctx, 3, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Capability{model.CapSendMessages}, right.Rights)
}

func TestAddWelcomeMemberWithoutRoomIsNoop(t *testing.T) {
	env := newTestEnv(t)
	assert.NoError(t, env.roomSv.AddWelcomeMember(context.Background(), 1))
}
