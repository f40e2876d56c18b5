package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/model"
	"github.com/olekventi/chatly/internal/service"
)

// RoomHandler serves room membership and capability management. The
// rooms themselves are minimal records; messaging lives in a separate
// service that consults the authorize endpoints here.
type RoomHandler struct {
	Rooms *service.RoomService
	Users *service.UserService
}

func NewRoomHandler(rooms *service.RoomService, users *service.UserService) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Users: users}
}

type createRoomReq struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

type addMemberReq struct {
	// Login identifies the user to admit by email, username or phone.
	Login  string `json:"login"`
	Rights string `json:"rights"`
}

type changeRightsReq struct {
	Rights string `json:"rights"`
}

type roomPart struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
	OwnerID uint64 `json:"owner_id"`
}

func roomID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("room_id"), 10, 64)
	return id, err == nil && id > 0
}

// requestedCapabilities resolves the capability list for a grant: the
// body field wins, the X-Rights header is the fallback for callers
// that pass the list out-of-band.
func requestedCapabilities(c echo.Context, body string) []model.Capability {
	if strings.TrimSpace(body) != "" {
		return model.ParseCapabilities(body)
	}
	return model.ParseCapabilities(c.Request().Header.Get("X-Rights"))
}

// Create makes a room and grants the creator every capability in it.
func (h *RoomHandler) Create(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.CreateRoom(ctx, userID, req.Name, req.Private)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"room": roomPart{
		ID: room.ID, Name: room.Name, Private: room.IsPrivate, OwnerID: room.OwnerID,
	}})
}

// Delete removes a room and all memberships in it.
func (h *RoomHandler) Delete(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.DeleteRoom(ctx, userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Enter joins the caller into a public room with the standard member
// set.
func (h *RoomHandler) Enter(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.EnterPublicRoom(ctx, userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddMember admits another user with a caller-chosen capability set.
func (h *RoomHandler) AddMember(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req addMemberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Login) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	member, err := h.Users.FindByIdentifier(ctx, resolveIdentifier(req.Login))
	if err != nil {
		return fail(c, err)
	}
	caps := requestedCapabilities(c, req.Rights)
	if len(caps) == 0 {
		caps = model.MemberCapabilities()
	}
	if err := h.Rooms.AddMember(ctx, userID, member.ID, id, caps); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveMember evicts a member, or lets a member leave.
func (h *RoomHandler) RemoveMember(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	memberID, err := strconv.ParseUint(c.Param("member_id"), 10, 64)
	if err != nil || memberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.RemoveMember(ctx, userID, memberID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Leave removes the caller's own membership.
func (h *RoomHandler) Leave(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.RemoveMember(ctx, userID, userID, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeRights replaces an existing member's capability set.
func (h *RoomHandler) ChangeRights(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	memberID, err := strconv.ParseUint(c.Param("member_id"), 10, 64)
	if err != nil || memberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req changeRightsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.ChangeMemberRights(ctx, userID, memberID, id, requestedCapabilities(c, req.Rights)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MyRights returns the caller's capability set in a room.
func (h *RoomHandler) MyRights(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	right, err := h.Rooms.Rights(ctx, userID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rights": model.JoinCapabilities(right.Rights)})
}

// AuthorizeMessageDelete is the gate the messaging service calls
// before deleting a message on a user's behalf.
func (h *RoomHandler) AuthorizeMessageDelete(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	id, ok := roomID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.AuthorizeMessageDelete(ctx, userID, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"allowed": true})
}
