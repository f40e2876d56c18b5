package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/auth"
	"github.com/olekventi/chatly/internal/config"
	"github.com/olekventi/chatly/internal/model"
)

// ClientService serves anonymous principals: pre-auth surfaces that
// need a token without an account, such as the contact form. Client
// tokens are signed with their own secret and never validate as user
// tokens.
type ClientService struct {
	cfg     config.Config
	issuer  *auth.TokenIssuer
	clients ClientStore
	now     func() time.Time
}

func NewClientService(cfg config.Config, issuer *auth.TokenIssuer, clients ClientStore) *ClientService {
	return &ClientService{cfg: cfg, issuer: issuer, clients: clients, now: time.Now}
}

// IssueToken mints a client token for a fresh anonymous principal and
// records the client session.
func (s *ClientService) IssueToken(ctx context.Context, sc model.SessionContext) (clientID, token string, err error) {
	clientID = uuid.NewString()
	token, err = s.issuer.NewClientToken(clientID, sc.IP, s.cfg.RefreshTTL)
	if err != nil {
		return "", "", apperr.Internal(err)
	}
	if err := s.clients.InsertSession(ctx, model.ClientSession{
		ClientID:    clientID,
		IP:          sc.IP,
		UserAgent:   sc.UserAgent,
		Fingerprint: sc.Fingerprint,
		CreatedAt:   s.now().UTC(),
	}); err != nil {
		return "", "", apperr.Internal(err)
	}
	return clientID, token, nil
}

// SubmitContactForm stores an appeal submitted through the pre-auth
// surface.
func (s *ClientService) SubmitContactForm(ctx context.Context, clientID, email, subject, message string) error {
	if email == "" || message == "" {
		return apperr.New(apperr.InvalidEmail)
	}
	if err := s.clients.InsertContactForm(ctx, clientID, email, subject, message); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
