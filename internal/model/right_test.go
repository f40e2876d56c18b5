package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCapabilitiesDropsUnknown(t *testing.T) {
	caps := ParseCapabilities("send_messages, LEAVE_ROOM,bogus,,DELETE_ROOM")
	assert.Equal(t, []Capability{CapSendMessages, CapLeaveRoom, CapDeleteRoom}, caps)
}

func TestJoinCapabilitiesRoundTrip(t *testing.T) {
	caps := MemberCapabilities()
	assert.Equal(t, caps, ParseCapabilities(JoinCapabilities(caps)))
}

func TestHasAll(t *testing.T) {
	r := Right{Rights: MemberCapabilities()}
	assert.True(t, r.HasAll(MemberCapabilities()))
	assert.True(t, r.HasAll([]Capability{CapSendMessages}))
	assert.True(t, r.HasAll(nil))
	assert.False(t, r.HasAll(AllCapabilities()))
	assert.False(t, r.Has(CapChangeUserRights))
}
