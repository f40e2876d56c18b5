package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/auth"
	"github.com/olekventi/chatly/internal/config"
	"github.com/olekventi/chatly/internal/model"
	"github.com/olekventi/chatly/internal/service"
)

// AuthHandler bundles dependencies for account and session endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *service.UserService
	Issuer *auth.TokenIssuer
}

func NewAuthHandler(cfg config.Config, users *service.UserService, issuer *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Issuer: issuer}
}

// ----- DTOs -----

type registerReq struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Phone           string `json:"tel_num"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type verifyRegistrationReq struct {
	Email        string `json:"email"`
	Verification string `json:"verification_code"`
}

type loginReq struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type userPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"tel_num"`
	IsActive bool   `json:"is_active"`
}

type tokenPart struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type authResp struct {
	User   userPart  `json:"user"`
	Tokens tokenPart `json:"tokens"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Username: u.Username, Phone: u.Phone, IsActive: u.IsActive}
}

// Register creates an inactive account and mails the activation code.
// Tokens are not issued until the account is verified.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := validateEmail(req.Email); err != nil {
		return fail(c, err)
	}
	if err := validateUsername(req.Username); err != nil {
		return fail(c, err)
	}
	if err := validatePhone(req.Phone); err != nil {
		return fail(c, err)
	}
	if err := validatePassword(req.Password); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.Register(ctx, service.RegisterInput{
		Email:           req.Email,
		Username:        req.Username,
		Phone:           req.Phone,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": toUserPart(user)})
}

// VerifyRegistration activates an account with the emailed code.
func (h *AuthHandler) VerifyRegistration(c echo.Context) error {
	var req verifyRegistrationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Verification == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/verification_code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.VerifyRegistration(ctx, req.Email, req.Verification); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Login authenticates by email, username or phone and returns a token
// pair bound to the presenting device.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Login) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, pair, err := h.Users.Login(ctx, service.LoginInput{
		Identifier: resolveIdentifier(req.Login),
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}, sessionContext(c))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, authResp{
		User:   toUserPart(user),
		Tokens: tokenPart{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

// Refresh exchanges a live refresh session for a new pair. No access
// token is required — the access token is typically expired by the
// time a refresh happens — but the presented refresh token must be
// validly signed and match a stored session on the exact device tuple.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RefreshToken == "" {
		return failKey(c, apperr.RefreshTokenMissing)
	}
	claims, err := h.Issuer.ParseRefresh(req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Users.RefreshSession(ctx, claims.UserID, req.RefreshToken, sessionContext(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tokenPart{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Logout revokes the presenting device's refresh session. Revoking an
// already-gone session still returns 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RefreshToken == "" {
		return failKey(c, apperr.RefreshTokenMissing)
	}
	claims, err := h.Issuer.ParseRefresh(req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Logout(ctx, claims.UserID, sessionContext(c), req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's record.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failKey(c, apperr.InvalidToken)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(user)})
}
