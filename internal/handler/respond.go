package handler

import (
	"errors"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/model"
)

// errBody is the uniform error payload. Key is stable for client-side
// mapping; message is advisory.
type errBody struct {
	Key     string `json:"key"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// fail renders a domain error. Internal causes are logged server-side
// and never leak into the response body.
func fail(c echo.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}
	if ae.Kind() == apperr.KindInternal {
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(ae.Code, errBody{Key: string(ae.Key), Code: ae.Code, Message: ae.Message})
}

func failKey(c echo.Context, key apperr.Key) error {
	return fail(c, apperr.New(key))
}

// sessionContext collects the device-binding attributes of the
// request. The fingerprint is client-supplied and treated as opaque.
func sessionContext(c echo.Context) model.SessionContext {
	return model.SessionContext{
		IP:          c.RealIP(),
		UserAgent:   c.Request().UserAgent(),
		Fingerprint: c.Request().Header.Get("X-Fingerprint"),
	}
}

// currentUserID reads the authenticated user id stored by the auth
// middleware.
func currentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok
}
