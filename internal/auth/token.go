package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/olekventi/chatly/internal/apperr"
)

// TokenIssuer mints and validates the three token kinds. Each kind is
// signed with its own secret, so a token minted for one kind can never
// validate as another: user access tokens authorize individual
// requests, user refresh tokens are additionally bound to a persisted
// refresh session, and client tokens identify anonymous pre-auth
// principals.
type TokenIssuer struct {
	userSecret    []byte
	refreshSecret []byte
	clientSecret  []byte
}

func NewTokenIssuer(userSecret, refreshSecret, clientSecret string) *TokenIssuer {
	return &TokenIssuer{
		userSecret:    []byte(userSecret),
		refreshSecret: []byte(refreshSecret),
		clientSecret:  []byte(clientSecret),
	}
}

// UserClaims is the decoded payload of a user access token.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID uint64 `json:"userId"`
	IP     string `json:"ip,omitempty"`
}

// ClientClaims is the decoded payload of an anonymous client token.
type ClientClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"clientId"`
	IP       string `json:"ip"`
}

// NewAccessToken signs a short-lived HS512 access token for a user.
// The payload carries the user id and the requesting ip for later
// comparison.
func (i *TokenIssuer) NewAccessToken(userID uint64, ip string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		IP:     ip,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.userSecret)
}

// NewRefreshToken signs a longer-lived HS512 refresh token for a user.
// Possession alone is not enough to refresh: the token must also match
// a live refresh session row. Each mint carries a unique jti, so
// rotation never reproduces the token it replaces even within the same
// timestamp second.
func (i *TokenIssuer) NewRefreshToken(userID uint64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.refreshSecret)
}

// NewClientToken signs an HS512 token for an anonymous client
// principal (pre-auth surfaces such as the contact form).
func (i *TokenIssuer) NewClientToken(clientID, ip string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ClientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		ClientID: clientID,
		IP:       ip,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.clientSecret)
}

// ParseAccess validates a user access token and returns its claims.
func (i *TokenIssuer) ParseAccess(token string) (*UserClaims, error) {
	return i.parseUser(token, i.userSecret)
}

// ParseRefresh validates the signature and expiry of a user refresh
// token and returns its claims. Session binding is checked separately
// against the session store.
func (i *TokenIssuer) ParseRefresh(token string) (*UserClaims, error) {
	return i.parseUser(token, i.refreshSecret)
}

// ParseClient validates an anonymous client token and returns its
// claims.
func (i *TokenIssuer) ParseClient(token string) (*ClientClaims, error) {
	claims := &ClientClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.InvalidToken)
		}
		return i.clientSecret, nil
	})
	if err != nil || !tok.Valid || claims.ClientID == "" {
		return nil, apperr.New(apperr.InvalidToken)
	}
	return claims, nil
}

func (i *TokenIssuer) parseUser(token string, secret []byte) (*UserClaims, error) {
	claims := &UserClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.InvalidToken)
		}
		return secret, nil
	})
	if err != nil || !tok.Valid || claims.UserID == 0 {
		return nil, apperr.New(apperr.InvalidToken)
	}
	return claims, nil
}
