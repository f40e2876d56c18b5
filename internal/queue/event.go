// Package queue defines message payloads exchanged over the message
// broker.
package queue

// VerificationKind tells the mail worker which template a code belongs
// to.
type VerificationKind string

const (
	VerifyEmail          VerificationKind = "VERIFY_EMAIL"
	VerifyEmailChange    VerificationKind = "VERIFY_EMAIL_CHANGE"
	VerifyUsernameChange VerificationKind = "VERIFY_USERNAME_CHANGE"
	VerifyPhoneChange    VerificationKind = "VERIFY_TEL_CHANGE"
	VerifyPasswordChange VerificationKind = "VERIFY_PASSWORD_CHANGE"
	ResetPassword        VerificationKind = "RESET_PASSWORD"
)

// VerificationEvent is published whenever a verification code must
// reach a user out-of-band. Mail delivery itself happens in a separate
// worker; this service only hands the code off. The pending record the
// code belongs to is committed before the event is published, so a
// delivery failure never invalidates the code.
type VerificationEvent struct {
	Email       string           `json:"email"`
	Code        string           `json:"verification_code"`
	Kind        VerificationKind `json:"mail_type"`
	RequestedAt string           `json:"requested_at"`
}
