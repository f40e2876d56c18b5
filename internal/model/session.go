package model

import "time"

// RefreshSession models an entry in the `refresh_sessions` table. A
// session binds a refresh token to the device and network context it
// was issued for: refreshing requires presenting the token from the
// same (user, ip, user agent, fingerprint) tuple. The number of live
// sessions per user is capped; on overflow every prior session for the
// user is wiped before the new one is written.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owner of the session.
//  IP           – client address the session was issued to.
//  UserAgent    – client user agent string.
//  Fingerprint  – client-supplied device identifier.
//  RefreshToken – the signed refresh token issued for this session.
//  ExpiresIn    – session lifetime; expiry is CreatedAt + ExpiresIn.
//  CreatedAt    – when the session was created.
type RefreshSession struct {
	ID           uint64        // refresh_sessions.id
	UserID       uint64        // refresh_sessions.user_id
	IP           string        // refresh_sessions.ip
	UserAgent    string        // refresh_sessions.user_agent
	Fingerprint  string        // refresh_sessions.fingerprint
	RefreshToken string        // refresh_sessions.refresh_token
	ExpiresIn    time.Duration // refresh_sessions.expires_in_ms
	CreatedAt    time.Time     // refresh_sessions.created_at
}

// Expired reports whether the session lifetime has elapsed at the
// given instant.
func (s RefreshSession) Expired(now time.Time) bool {
	return now.After(s.CreatedAt.Add(s.ExpiresIn))
}

// SessionContext carries the request attributes a token issuance or
// refresh binds the session to.
type SessionContext struct {
	IP          string
	UserAgent   string
	Fingerprint string
}

// ClientSession records an anonymous-principal session as stored in the
// `client_sessions` table. Client sessions back pre-auth surfaces such
// as the contact form; they hold no credentials beyond the issued token.
type ClientSession struct {
	ID          uint64    // client_sessions.id
	ClientID    string    // client_sessions.client_id (uuid)
	IP          string    // client_sessions.ip
	UserAgent   string    // client_sessions.user_agent
	Fingerprint string    // client_sessions.fingerprint
	CreatedAt   time.Time // client_sessions.created_at
}
