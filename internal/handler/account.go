package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/model"
	"github.com/olekventi/chatly/internal/service"
)

// AccountHandler serves the sensitive-change and password-recovery
// endpoints.
type AccountHandler struct {
	Users *service.UserService
}

func NewAccountHandler(users *service.UserService) *AccountHandler {
	return &AccountHandler{Users: users}
}

type changeReq struct {
	DataType string `json:"data_type"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

type verifyChangeReq struct {
	DataType     string `json:"data_type"`
	Verification string `json:"verification_code"`
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

type resetPasswordReq struct {
	Verification       string `json:"verification_code"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// Change opens a verified change of email, username, phone or
// password. The account is blocked until the emailed code confirms it,
// and only one change can be in flight at a time.
func (h *AccountHandler) Change(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	var req changeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	dataType := model.ChangeDataType(strings.ToLower(strings.TrimSpace(req.DataType)))
	if !model.ValidChangeDataType(dataType) {
		return failKey(c, apperr.InvalidDataType)
	}
	if dataType == model.ChangeEmail {
		req.OldValue = strings.ToLower(strings.TrimSpace(req.OldValue))
		req.NewValue = strings.ToLower(strings.TrimSpace(req.NewValue))
	}
	if err := validateNewValue(dataType, req.NewValue); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Users.OpenChange(ctx, userID, service.ChangeInput{
		DataType: dataType,
		OldValue: req.OldValue,
		NewValue: req.NewValue,
	}, sessionContext(c))
	if err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// VerifyChange confirms an in-flight sensitive change and lifts the
// account block.
func (h *AccountHandler) VerifyChange(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}
	var req verifyChangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Verification == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification_code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.VerifyChange(ctx, userID, req.Verification, model.ChangeDataType(strings.ToLower(req.DataType)))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(user)})
}

// ForgotPassword opens a password-reset request and mails the code.
func (h *AccountHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(req.Email); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ForgotPassword(ctx, req.Email, sessionContext(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// ResetPassword consumes a reset code and installs a new password.
func (h *AccountHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Verification == "" {
		return failKey(c, apperr.VerificationNotFound)
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.VerifyPasswordReset(ctx, req.Verification, req.NewPassword, req.NewPasswordConfirm); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
