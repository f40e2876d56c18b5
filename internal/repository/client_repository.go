package repository

import (
	"context"
	"database/sql"

	"github.com/olekventi/chatly/internal/model"
)

// ClientRepo persists anonymous-principal state: client sessions for
// issued client tokens and contact-form appeals submitted through the
// pre-auth surface.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

// InsertSession records a client session for an issued client token.
func (r *ClientRepo) InsertSession(ctx context.Context, s model.ClientSession) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO client_sessions (client_id, ip, user_agent, fingerprint) VALUES (?,?,?,?)",
		s.ClientID, s.IP, s.UserAgent, s.Fingerprint)
	return err
}

// InsertContactForm stores a contact-form appeal.
func (r *ClientRepo) InsertContactForm(ctx context.Context, clientID, email, subject, message string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO contact_forms (client_id, email, subject, message) VALUES (?,?,?,?)",
		clientID, email, subject, message)
	return err
}
