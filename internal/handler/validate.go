package handler

import (
	"regexp"
	"strings"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/model"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)
	phoneRe    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

const minPasswordLen = 8

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return apperr.New(apperr.InvalidEmail)
	}
	return nil
}

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return apperr.New(apperr.InvalidUsername)
	}
	return nil
}

func validatePhone(phone string) error {
	if !phoneRe.MatchString(phone) {
		return apperr.New(apperr.InvalidTelNum)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return apperr.New(apperr.InvalidPassword)
	}
	return nil
}

// resolveIdentifier classifies a login string: an address with "@" is
// an email, a plausible phone number is a phone, anything else is
// treated as a username.
func resolveIdentifier(login string) model.LoginIdentifier {
	login = strings.TrimSpace(login)
	switch {
	case strings.Contains(login, "@"):
		return model.LoginIdentifier{Kind: model.IdentifyByEmail, Value: strings.ToLower(login)}
	case phoneRe.MatchString(login):
		return model.LoginIdentifier{Kind: model.IdentifyByPhone, Value: login}
	default:
		return model.LoginIdentifier{Kind: model.IdentifyByUsername, Value: login}
	}
}

// validateNewValue applies the field-specific format rule for a
// sensitive change.
func validateNewValue(dataType model.ChangeDataType, value string) error {
	switch dataType {
	case model.ChangeEmail:
		return validateEmail(value)
	case model.ChangeUsername:
		return validateUsername(value)
	case model.ChangePhone:
		return validatePhone(value)
	case model.ChangePassword:
		return validatePassword(value)
	default:
		return apperr.New(apperr.InvalidDataType)
	}
}
