package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/auth"
	"github.com/olekventi/chatly/internal/config"
	"github.com/olekventi/chatly/internal/model"
	"github.com/olekventi/chatly/internal/queue"
)

// UserService owns the account lifecycle: registration and its
// verification, login with lockout enforcement, sensitive-field
// changes behind the single-in-flight pending ledger, and the
// forgot-password flow. All state transitions are pushed down to the
// credential store as atomic conditional updates.
type UserService struct {
	cfg      config.Config
	users    CredentialStore
	pending  PendingChangeStore
	resets   PasswordResetStore
	tokens   *TokenService
	rooms    *RoomService
	notifier Notifier

	now func() time.Time
}

func NewUserService(cfg config.Config, users CredentialStore, pending PendingChangeStore, resets PasswordResetStore, tokens *TokenService, rooms *RoomService, notifier Notifier) *UserService {
	return &UserService{
		cfg:      cfg,
		users:    users,
		pending:  pending,
		resets:   resets,
		tokens:   tokens,
		rooms:    rooms,
		notifier: notifier,
		now:      time.Now,
	}
}

// RegisterInput carries a sign-up request after boundary validation.
type RegisterInput struct {
	Email           string
	Username        string
	Phone           string
	Password        string
	PasswordConfirm string
}

// Register creates an inactive account with its vault, grants the
// welcome-room membership, and dispatches the activation code. The
// account cannot log in until VerifyRegistration confirms the code.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if exists, err := s.users.EmailExists(ctx, in.Email); err != nil {
		return model.User{}, apperr.Internal(err)
	} else if exists {
		return model.User{}, apperr.New(apperr.EmailAlreadyExists)
	}
	if exists, err := s.users.UsernameExists(ctx, in.Username); err != nil {
		return model.User{}, apperr.Internal(err)
	} else if exists {
		return model.User{}, apperr.New(apperr.UsernameAlreadyExists)
	}
	if exists, err := s.users.PhoneExists(ctx, in.Phone); err != nil {
		return model.User{}, apperr.Internal(err)
	} else if exists {
		return model.User{}, apperr.New(apperr.TelAlreadyExists)
	}
	if in.Password != in.PasswordConfirm {
		return model.User{}, apperr.New(apperr.PasswordsDoNotMatch)
	}

	salt, hash, err := s.uniquePassword(ctx, in.Password)
	if err != nil {
		return model.User{}, err
	}

	verification := uuid.NewString()
	verifyExpires := s.now().UTC().Add(s.cfg.VerificationTTL)
	user := model.User{
		Email:               in.Email,
		Username:            in.Username,
		Phone:               in.Phone,
		PasswordHash:        hash,
		IsActive:            false, // pending activation
		Verification:        verification,
		VerificationExpires: &verifyExpires,
	}

	id, err := s.users.Create(ctx, user, salt)
	if err != nil {
		if isDuplicate(err) {
			// The unique key caught a concurrent registration that the
			// existence checks above raced past.
			return model.User{}, s.duplicateIdentityError(ctx, in)
		}
		return model.User{}, apperr.Internal(err)
	}
	user.ID = id

	if err := s.rooms.AddWelcomeMember(ctx, id); err != nil {
		log.Printf("register: welcome room grant failed for user %d: %v", id, err)
	}

	s.dispatch(ctx, queue.VerificationEvent{
		Email: in.Email,
		Code:  verification,
		Kind:  queue.VerifyEmail,
	})

	user.PasswordHash = ""
	return user, nil
}

// duplicateIdentityError re-probes the identity fields to report which
// one collided; the fallback covers the case where the racing row was
// deleted again in between.
func (s *UserService) duplicateIdentityError(ctx context.Context, in RegisterInput) error {
	if exists, _ := s.users.EmailExists(ctx, in.Email); exists {
		return apperr.New(apperr.EmailAlreadyExists)
	}
	if exists, _ := s.users.UsernameExists(ctx, in.Username); exists {
		return apperr.New(apperr.UsernameAlreadyExists)
	}
	if exists, _ := s.users.PhoneExists(ctx, in.Phone); exists {
		return apperr.New(apperr.TelAlreadyExists)
	}
	return apperr.New(apperr.EmailAlreadyExists)
}

// VerifyRegistration activates an account with the emailed code.
func (s *UserService) VerifyRegistration(ctx context.Context, email, verification string) error {
	ok, err := s.users.Activate(ctx, email, verification)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.New(apperr.UserNotFound)
	}
	return nil
}

// LoginInput carries a login request with its identifier already
// resolved at the boundary.
type LoginInput struct {
	Identifier model.LoginIdentifier
	Password   string
	RememberMe bool
}

// Login runs the full credential check: identifier resolution, the
// deactivation gate, the lockout state machine, password verification
// against the vault salt, and finally token issuance. The lockout
// rules in order:
//
//   - a locked account whose block has run out auto-unlocks before the
//     credential is evaluated;
//   - a still-locked account rejects the attempt regardless of
//     password correctness;
//   - a failed verify bumps the atomic counter and, at the threshold,
//     promotes the account to locked with the counter reset;
//   - a successful verify resets the counter.
func (s *UserService) Login(ctx context.Context, in LoginInput, sc model.SessionContext) (model.User, TokenPair, error) {
	user, err := s.users.GetByIdentifier(ctx, in.Identifier)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, TokenPair{}, apperr.New(identifierKey(in.Identifier.Kind))
		}
		return model.User{}, TokenPair{}, apperr.Internal(err)
	}

	if !user.IsActive {
		return model.User{}, TokenPair{}, apperr.New(apperr.UserDeactivated)
	}

	now := s.now().UTC()
	if user.IsBlocked {
		if user.BlockExpires != nil && now.After(*user.BlockExpires) {
			if _, err := s.users.UnlockIfExpired(ctx, user.ID, now); err != nil {
				return model.User{}, TokenPair{}, apperr.Internal(err)
			}
		} else {
			return model.User{}, TokenPair{}, apperr.New(apperr.UserBlocked)
		}
	}

	salt, err := s.users.GetVaultSalt(ctx, user.ID)
	if err != nil {
		return model.User{}, TokenPair{}, apperr.Internal(err)
	}

	ok, err := auth.VerifyPassword(in.Password, salt, user.PasswordHash)
	if err != nil {
		return model.User{}, TokenPair{}, apperr.Internal(err)
	}
	if !ok {
		attempts, err := s.users.IncrementLoginAttempts(ctx, user.ID)
		if err != nil {
			return model.User{}, TokenPair{}, apperr.Internal(err)
		}
		if attempts >= s.cfg.LoginAttemptsToBlock {
			until := now.Add(s.cfg.BlockDuration)
			if _, err := s.users.LockIfAttemptsReached(ctx, user.ID, s.cfg.LoginAttemptsToBlock, until); err != nil {
				return model.User{}, TokenPair{}, apperr.Internal(err)
			}
			return model.User{}, TokenPair{}, apperr.New(apperr.UserBlocked)
		}
		return model.User{}, TokenPair{}, apperr.New(apperr.InvalidCredentials)
	}

	if err := s.users.ResetLoginAttempts(ctx, user.ID); err != nil {
		return model.User{}, TokenPair{}, apperr.Internal(err)
	}

	pair, err := s.tokens.Issue(ctx, user.ID, sc, in.RememberMe)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}

	user.LoginAttempts = 0
	user.PasswordHash = ""
	return user, pair, nil
}

func identifierKey(kind model.LoginIdentifierKind) apperr.Key {
	switch kind {
	case model.IdentifyByUsername:
		return apperr.InvalidUsername
	case model.IdentifyByPhone:
		return apperr.InvalidTelNum
	default:
		return apperr.InvalidEmail
	}
}

// Logout revokes the single refresh session of the presenting device.
func (s *UserService) Logout(ctx context.Context, userID uint64, sc model.SessionContext, refreshToken string) error {
	return s.tokens.Revoke(ctx, userID, sc, refreshToken)
}

// RefreshSession rotates the presenting device's token pair.
func (s *UserService) RefreshSession(ctx context.Context, userID uint64, refreshToken string, sc model.SessionContext) (TokenPair, error) {
	return s.tokens.Refresh(ctx, userID, refreshToken, sc)
}

// ChangeInput carries a sensitive-field change request. OldValue and
// NewValue are the field values for identity changes, or the old and
// new passwords for a password change.
type ChangeInput struct {
	DataType model.ChangeDataType
	OldValue string
	NewValue string
}

// OpenChange validates and opens a sensitive-field change: the pending
// ledger admits at most one unverified request per user across all
// data types, the field is updated, and the account is blocked until
// the emailed code confirms the change. The pending record and the
// block are committed before the notification goes out; a failed send
// is logged and ignored, since the user can still complete
// verification out-of-band.
func (s *UserService) OpenChange(ctx context.Context, userID uint64, in ChangeInput, sc model.SessionContext) error {
	if !model.ValidChangeDataType(in.DataType) {
		return apperr.New(apperr.InvalidDataType)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return apperr.New(apperr.UserNotFound)
		}
		return apperr.Internal(err)
	}
	if !user.IsActive {
		return apperr.New(apperr.UserDeactivated)
	}
	if user.IsBlocked {
		return apperr.New(apperr.UserBlocked)
	}

	if err := s.validateChange(ctx, user, in); err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.pending.ReapExpired(ctx, userID, now); err != nil {
		return apperr.Internal(err)
	}

	verification := uuid.NewString()
	verifyExpires := now.Add(s.cfg.VerificationTTL)
	blockExpires := now.Add(s.cfg.BlockDuration)

	inserted, err := s.pending.InsertIfNone(ctx, model.PendingChange{
		UserID:       userID,
		Verification: verification,
		DataType:     in.DataType,
		ExpiresAt:    verifyExpires,
		IP:           sc.IP,
		UserAgent:    sc.UserAgent,
		Fingerprint:  sc.Fingerprint,
	})
	if err != nil {
		return apperr.Internal(err)
	}
	if !inserted {
		return apperr.New(apperr.ChangeAlreadyPending)
	}

	if in.DataType == model.ChangePassword {
		salt, hash, err := s.uniquePassword(ctx, in.NewValue)
		if err != nil {
			return err
		}
		if err := s.users.UpdatePassword(ctx, userID, hash, salt, verification, &verifyExpires, &blockExpires); err != nil {
			return apperr.Internal(err)
		}
	} else {
		changed, err := s.users.UpdateIdentity(ctx, userID, in.DataType, in.OldValue, in.NewValue, verification, verifyExpires, blockExpires)
		if err != nil {
			if isDuplicate(err) {
				return apperr.New(existsKey(in.DataType))
			}
			return apperr.Internal(err)
		}
		if !changed {
			return apperr.New(oldMismatchKey(in.DataType))
		}
	}

	// For an email change the code goes to the address being claimed;
	// everything else notifies the address on record.
	dest := user.Email
	if in.DataType == model.ChangeEmail {
		dest = in.NewValue
	}
	s.dispatch(ctx, queue.VerificationEvent{
		Email: dest,
		Code:  verification,
		Kind:  changeKind(in.DataType),
	})

	return nil
}

// validateChange runs the per-field precondition checks before the
// pending ledger is touched.
func (s *UserService) validateChange(ctx context.Context, user model.User, in ChangeInput) error {
	switch in.DataType {
	case model.ChangeEmail:
		if user.Email != in.OldValue {
			return apperr.New(apperr.OldEmailDoesNotMatch)
		}
		if exists, err := s.users.EmailExists(ctx, in.NewValue); err != nil {
			return apperr.Internal(err)
		} else if exists {
			return apperr.New(apperr.EmailAlreadyExists)
		}
	case model.ChangeUsername:
		if user.Username != in.OldValue {
			return apperr.New(apperr.OldUsernameNoMatch)
		}
		if exists, err := s.users.UsernameExists(ctx, in.NewValue); err != nil {
			return apperr.Internal(err)
		} else if exists {
			return apperr.New(apperr.UsernameAlreadyExists)
		}
	case model.ChangePhone:
		if user.Phone != in.OldValue {
			return apperr.New(apperr.OldTelNumNoMatch)
		}
		if exists, err := s.users.PhoneExists(ctx, in.NewValue); err != nil {
			return apperr.Internal(err)
		} else if exists {
			return apperr.New(apperr.TelAlreadyExists)
		}
	case model.ChangePassword:
		salt, err := s.users.GetVaultSalt(ctx, user.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		ok, err := auth.VerifyPassword(in.OldValue, salt, user.PasswordHash)
		if err != nil {
			return apperr.Internal(err)
		}
		if !ok {
			return apperr.New(apperr.OldPasswordNoMatch)
		}
	}
	return nil
}

func existsKey(t model.ChangeDataType) apperr.Key {
	switch t {
	case model.ChangeUsername:
		return apperr.UsernameAlreadyExists
	case model.ChangePhone:
		return apperr.TelAlreadyExists
	default:
		return apperr.EmailAlreadyExists
	}
}

func oldMismatchKey(t model.ChangeDataType) apperr.Key {
	switch t {
	case model.ChangeUsername:
		return apperr.OldUsernameNoMatch
	case model.ChangePhone:
		return apperr.OldTelNumNoMatch
	default:
		return apperr.OldEmailDoesNotMatch
	}
}

func changeKind(t model.ChangeDataType) queue.VerificationKind {
	switch t {
	case model.ChangeUsername:
		return queue.VerifyUsernameChange
	case model.ChangePhone:
		return queue.VerifyPhoneChange
	case model.ChangePassword:
		return queue.VerifyPasswordChange
	default:
		return queue.VerifyEmailChange
	}
}

// VerifyChange confirms an outstanding sensitive-field change and
// lifts the account block. Expired or already-verified requests never
// match.
func (s *UserService) VerifyChange(ctx context.Context, userID uint64, verification string, dataType model.ChangeDataType) (model.User, error) {
	if !model.ValidChangeDataType(dataType) {
		return model.User{}, apperr.New(apperr.InvalidDataType)
	}
	ok, err := s.pending.MarkVerified(ctx, userID, verification, dataType, s.now().UTC())
	if err != nil {
		return model.User{}, apperr.Internal(err)
	}
	if !ok {
		return model.User{}, apperr.New(apperr.VerificationNotFound)
	}
	if err := s.users.ClearBlock(ctx, userID); err != nil {
		return model.User{}, apperr.Internal(err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, apperr.Internal(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// ForgotPassword opens a password-reset request for an active account
// and dispatches the code.
func (s *UserService) ForgotPassword(ctx context.Context, email string, sc model.SessionContext) error {
	user, err := s.users.GetByIdentifier(ctx, model.LoginIdentifier{Kind: model.IdentifyByEmail, Value: email})
	if err != nil {
		if isNotFound(err) {
			return apperr.New(apperr.UserNotFound)
		}
		return apperr.Internal(err)
	}
	if !user.IsActive {
		return apperr.New(apperr.UserDeactivated)
	}

	verification := uuid.NewString()
	if err := s.resets.Insert(ctx, model.PasswordReset{
		Email:        user.Email,
		Verification: verification,
		ExpiresAt:    s.now().UTC().Add(s.cfg.VerificationTTL),
		IP:           sc.IP,
		UserAgent:    sc.UserAgent,
		Fingerprint:  sc.Fingerprint,
	}); err != nil {
		return apperr.Internal(err)
	}

	s.dispatch(ctx, queue.VerificationEvent{
		Email: user.Email,
		Code:  verification,
		Kind:  queue.ResetPassword,
	})
	return nil
}

// VerifyPasswordReset consumes a reset code and installs the new
// password with a fresh salt.
func (s *UserService) VerifyPasswordReset(ctx context.Context, verification, newPassword, newPasswordConfirm string) error {
	if newPassword != newPasswordConfirm {
		return apperr.New(apperr.PasswordsDoNotMatch)
	}
	reset, err := s.resets.FindByVerification(ctx, verification)
	if err != nil {
		if isNotFound(err) {
			return apperr.New(apperr.VerificationNotFound)
		}
		return apperr.Internal(err)
	}
	if s.now().UTC().After(reset.ExpiresAt) {
		_ = s.resets.Delete(ctx, reset.ID)
		return apperr.New(apperr.VerificationNotFound)
	}

	user, err := s.users.GetByIdentifier(ctx, model.LoginIdentifier{Kind: model.IdentifyByEmail, Value: reset.Email})
	if err != nil {
		if isNotFound(err) {
			return apperr.New(apperr.UserNotFound)
		}
		return apperr.Internal(err)
	}

	salt, hash, err := s.uniquePassword(ctx, newPassword)
	if err != nil {
		return err
	}
	// The code was already verified, so the account is not re-blocked.
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt, "", nil, nil); err != nil {
		return apperr.Internal(err)
	}
	if err := s.resets.Delete(ctx, reset.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// FindByID returns a sanitized user record.
func (s *UserService) FindByID(ctx context.Context, userID uint64) (model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, apperr.New(apperr.UserNotFound)
		}
		return model.User{}, apperr.Internal(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// FindByIdentifier resolves a member identifier (used when adding a
// user to a room by email, phone or username).
func (s *UserService) FindByIdentifier(ctx context.Context, ident model.LoginIdentifier) (model.User, error) {
	user, err := s.users.GetByIdentifier(ctx, ident)
	if err != nil {
		if isNotFound(err) {
			return model.User{}, apperr.New(apperr.UserNotFound)
		}
		return model.User{}, apperr.Internal(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// uniquePassword draws salts and digests until the digest collides
// with no stored one, bounded by MaxPasswordAttempts. The loop is
// local to the call — no state survives it — so concurrent calls
// cannot corrupt each other. Fails closed as an invalid password.
func (s *UserService) uniquePassword(ctx context.Context, password string) (salt, hash string, err error) {
	for attempt := 0; attempt < s.cfg.MaxPasswordAttempts; attempt++ {
		salt, err = auth.NewSalt()
		if err != nil {
			return "", "", apperr.Internal(err)
		}
		hash, err = auth.HashPassword(password, salt)
		if err != nil {
			return "", "", apperr.Internal(err)
		}
		exists, err := s.users.PasswordHashExists(ctx, hash)
		if err != nil {
			return "", "", apperr.Internal(err)
		}
		if !exists {
			return salt, hash, nil
		}
	}
	return "", "", apperr.New(apperr.InvalidPassword)
}

// dispatch publishes a verification event, logging and swallowing
// delivery errors: the persisted state the code belongs to is already
// committed.
func (s *UserService) dispatch(ctx context.Context, event queue.VerificationEvent) {
	event.RequestedAt = s.now().UTC().Format(time.RFC3339)
	if err := s.notifier.SendVerification(ctx, event); err != nil {
		log.Printf("notify: verification dispatch failed for %s: %v", event.Kind, err)
	}
}
