// Package apperr is the single place domain errors are constructed.
// Every surfaced error carries a stable key for client-side mapping, a
// transport code, and a human message, so handlers and logs agree on
// how a failure is reported. Internal failures wrap their cause for
// server-side logging but never leak it to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error. Handlers map kinds to transport
// responses; retry policy follows the kind (validation and conflicts
// are never retried, lockout is a deliberate time-boxed denial).
type Kind int

const (
	KindValidation Kind = iota
	KindConflict
	KindUnauthorized
	KindNotFound
	KindPendingConflict
	KindInternal
)

// Key is the stable identifier of a domain error.
type Key string

const (
	// Validation
	InvalidEmail          Key = "INVALID_EMAIL"
	InvalidUsername       Key = "INVALID_USERNAME"
	InvalidTelNum         Key = "INVALID_TEL_NUM"
	InvalidPassword       Key = "INVALID_PASSWORD"
	PasswordsDoNotMatch   Key = "PASSWORDS_DO_NOT_MATCH"
	InvalidDataType       Key = "INVALID_DATA_TYPE"
	RefreshTokenMissing   Key = "REFRESH_TOKEN_NOT_PROVIDED"
	OldEmailDoesNotMatch  Key = "OLD_EMAIL_DOES_NOT_MATCH"
	OldUsernameNoMatch    Key = "OLD_USERNAME_DOES_NOT_MATCH"
	OldTelNumNoMatch      Key = "OLD_TEL_NUM_DOES_NOT_MATCH"
	OldPasswordNoMatch    Key = "OLD_PASSWORD_DOES_NOT_MATCH"

	// Conflict
	EmailAlreadyExists    Key = "EMAIL_ALREADY_EXISTS"
	UsernameAlreadyExists Key = "USERNAME_ALREADY_EXISTS"
	TelAlreadyExists      Key = "TEL_ALREADY_EXISTS"

	// Unauthorized
	InvalidCredentials    Key = "INVALID_CREDENTIALS"
	UserBlocked           Key = "USER_HAS_BEEN_BLOCKED"
	UserDeactivated       Key = "USER_HAS_BEEN_DEACTIVATED"
	InvalidToken          Key = "INVALID_TOKEN"
	InvalidRefreshSession Key = "INVALID_REFRESH_SESSION"
	SessionExpired        Key = "SESSION_EXPIRED"
	MissingCapability     Key = "MISSING_CAPABILITY"

	// Not found
	UserNotFound         Key = "USER_NOT_FOUND"
	RoomNotFound         Key = "ROOM_NOT_FOUND"
	RightNotFound        Key = "RIGHT_NOT_FOUND"
	VerificationNotFound Key = "VERIFICATION_NOT_FOUND"

	// Pending conflict
	ChangeAlreadyPending Key = "CHANGE_ALREADY_PENDING"

	// Internal
	InternalServerError Key = "INTERNAL_SERVER_ERROR"
)

type entry struct {
	kind Kind
	code int
	msg  string
}

var table = map[Key]entry{
	InvalidEmail:         {KindValidation, http.StatusBadRequest, "invalid email"},
	InvalidUsername:      {KindValidation, http.StatusBadRequest, "invalid username"},
	InvalidTelNum:        {KindValidation, http.StatusBadRequest, "invalid phone number"},
	InvalidPassword:      {KindValidation, http.StatusBadRequest, "invalid password"},
	PasswordsDoNotMatch:  {KindValidation, http.StatusBadRequest, "passwords do not match"},
	InvalidDataType:      {KindValidation, http.StatusBadRequest, "unknown data type"},
	RefreshTokenMissing:  {KindValidation, http.StatusBadRequest, "refresh token not provided"},
	OldEmailDoesNotMatch: {KindValidation, http.StatusBadRequest, "old email does not match"},
	OldUsernameNoMatch:   {KindValidation, http.StatusBadRequest, "old username does not match"},
	OldTelNumNoMatch:     {KindValidation, http.StatusBadRequest, "old phone number does not match"},
	OldPasswordNoMatch:   {KindValidation, http.StatusBadRequest, "old password does not match"},

	EmailAlreadyExists:    {KindConflict, http.StatusConflict, "email already exists"},
	UsernameAlreadyExists: {KindConflict, http.StatusConflict, "username already exists"},
	TelAlreadyExists:      {KindConflict, http.StatusConflict, "phone number already exists"},

	InvalidCredentials:    {KindUnauthorized, http.StatusUnauthorized, "invalid credentials"},
	UserBlocked:           {KindUnauthorized, http.StatusUnauthorized, "user has been blocked"},
	UserDeactivated:       {KindUnauthorized, http.StatusUnauthorized, "user has been deactivated"},
	InvalidToken:          {KindUnauthorized, http.StatusUnauthorized, "invalid token"},
	InvalidRefreshSession: {KindUnauthorized, http.StatusUnauthorized, "invalid refresh session"},
	SessionExpired:        {KindUnauthorized, http.StatusUnauthorized, "session expired"},
	MissingCapability:     {KindUnauthorized, http.StatusForbidden, "missing capability"},

	UserNotFound:         {KindNotFound, http.StatusNotFound, "user not found"},
	RoomNotFound:         {KindNotFound, http.StatusNotFound, "room not found"},
	RightNotFound:        {KindNotFound, http.StatusNotFound, "rights record not found"},
	VerificationNotFound: {KindNotFound, http.StatusNotFound, "verification request not found"},

	ChangeAlreadyPending: {KindPendingConflict, http.StatusConflict, "a sensitive change is already awaiting verification"},

	InternalServerError: {KindInternal, http.StatusInternalServerError, "internal server error"},
}

// Error is a surfaced domain error. Code is the transport code the
// excluded transport layer maps to a response; Key and Message are
// stable for logging and client-side i18n.
type Error struct {
	Key     Key
	Code    int
	Message string
	kind    Kind
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Key, e.cause)
	}
	return string(e.Key) + ": " + e.Message
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// New builds the canonical error for a key. Unknown keys fall back to
// the internal-error shape so a miskeyed call site cannot surface an
// empty triple.
func New(key Key) *Error {
	ent, ok := table[key]
	if !ok {
		ent = table[InternalServerError]
		key = InternalServerError
	}
	return &Error{Key: key, Code: ent.code, Message: ent.msg, kind: ent.kind}
}

// Internal wraps an unexpected failure. The cause is retained for
// server-side logs; callers only ever see the generic triple.
func Internal(cause error) *Error {
	e := New(InternalServerError)
	e.cause = cause
	return e
}

// IsKey reports whether err is a domain error with the given key.
func IsKey(err error, key Key) bool {
	var e *Error
	return errors.As(err, &e) && e.Key == key
}

// KindOf returns the kind of err, or KindInternal when err is not a
// domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// HTTPStatus returns the transport code for err, defaulting to 500 for
// non-domain errors.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}
