package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/olekventi/chatly/internal/service"
)

// ClientHandler serves anonymous principals: token issuance for
// pre-auth surfaces and the contact form behind them.
type ClientHandler struct {
	Clients *service.ClientService
}

func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{Clients: clients}
}

type contactFormReq struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Token issues a fresh anonymous client token.
func (h *ClientHandler) Token(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	clientID, token, err := h.Clients.IssueToken(ctx, sessionContext(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"client_id": clientID, "token": token})
}

// ContactForm stores an appeal submitted with a client token.
func (h *ClientHandler) ContactForm(c echo.Context) error {
	clientID, ok := c.Get("client_id").(string)
	if !ok || clientID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing client token"})
	}
	var req contactFormReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(req.Email); err != nil {
		return fail(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Clients.SubmitContactForm(ctx, clientID, req.Email, req.Subject, req.Message); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}
