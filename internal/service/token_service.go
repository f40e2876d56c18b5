package service

import (
	"context"
	"time"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/auth"
	"github.com/olekventi/chatly/internal/config"
	"github.com/olekventi/chatly/internal/model"
)

// TokenPair is the access/refresh pair returned to a successfully
// authenticated user.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints token pairs and owns the refresh-session
// lifecycle: issuance writes through the session store, refresh
// demands an exact live session match, and the per-user session cap is
// enforced with full eviction on overflow.
type TokenService struct {
	cfg      config.Config
	issuer   *auth.TokenIssuer
	sessions SessionStore

	now func() time.Time
}

func NewTokenService(cfg config.Config, issuer *auth.TokenIssuer, sessions SessionStore) *TokenService {
	return &TokenService{cfg: cfg, issuer: issuer, sessions: sessions, now: time.Now}
}

// Issue mints a fresh access/refresh pair for a user and persists the
// refresh session. When the user is at or above the session cap, every
// prior session is wiped before the new one is written — full eviction,
// not oldest-first, so there is no recency order to maintain.
func (s *TokenService) Issue(ctx context.Context, userID uint64, sc model.SessionContext, rememberMe bool) (TokenPair, error) {
	refreshTTL := s.cfg.RefreshTTL
	if rememberMe {
		refreshTTL = s.cfg.LongRefreshTTL
	}

	count, err := s.sessions.Count(ctx, userID)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	if count >= s.cfg.MaxRefreshSessions {
		if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
			return TokenPair{}, apperr.Internal(err)
		}
	}

	access, err := s.issuer.NewAccessToken(userID, sc.IP, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}
	refresh, err := s.issuer.NewRefreshToken(userID, refreshTTL)
	if err != nil {
		return TokenPair{}, apperr.Internal(err)
	}

	if err := s.sessions.Insert(ctx, model.RefreshSession{
		UserID:       userID,
		IP:           sc.IP,
		UserAgent:    sc.UserAgent,
		Fingerprint:  sc.Fingerprint,
		RefreshToken: refresh,
		ExpiresIn:    refreshTTL,
		CreatedAt:    s.now().UTC(),
	}); err != nil {
		return TokenPair{}, apperr.Internal(err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a live refresh session for a brand-new pair. The
// presented token must match a stored session on the identical
// (user, ip, user agent, fingerprint) tuple; a structurally valid
// token with no matching row is rejected. Expiry is evaluated against
// the session row, not the token claims.
func (s *TokenService) Refresh(ctx context.Context, userID uint64, refreshToken string, sc model.SessionContext) (TokenPair, error) {
	row, err := s.sessions.Find(ctx, userID, sc, refreshToken)
	if err != nil {
		if isNotFound(err) {
			return TokenPair{}, apperr.New(apperr.InvalidRefreshSession)
		}
		return TokenPair{}, apperr.Internal(err)
	}
	if row.Expired(s.now().UTC()) {
		return TokenPair{}, apperr.New(apperr.SessionExpired)
	}
	// The old row is left to the cap-eviction rule; issuing replaces it
	// for the common single-device case anyway.
	return s.Issue(ctx, userID, sc, false)
}

// Revoke deletes the single session matching the binding tuple
// (logout). Revoking an already-gone session is not an error.
func (s *TokenService) Revoke(ctx context.Context, userID uint64, sc model.SessionContext, refreshToken string) error {
	if _, err := s.sessions.Delete(ctx, userID, sc, refreshToken); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
