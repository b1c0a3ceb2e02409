package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/agencyhub/postbridge/configs"
	"github.com/agencyhub/postbridge/internal/models"
	"github.com/agencyhub/postbridge/internal/repository"
	"github.com/agencyhub/postbridge/internal/transfer"
	"github.com/agencyhub/postbridge/pkg/utils"
)

type ConnectionCreation struct {
	ClientID    string `json:"clientId"`
	Platform    string `json:"platform"`
	AccountID   string `json:"accountId"`
	AccountName string `json:"accountName"`
	AccessToken string `json:"accessToken"`
}

type ConnectionService interface {
	Connect(ctx context.Context, cc *ConnectionCreation) (*transfer.TokenExchangeResult, error)
	List(ctx context.Context, clientID string) ([]*models.PlatformConnection, error)
	Disconnect(ctx context.Context, clientID, platform string) error
}

type connectionService struct {
	cfg    config.Config
	cr     repository.ConnectionRepository
	tokens TokenService
}

func NewConnectionService(cfg config.Config, cr repository.ConnectionRepository, tokens TokenService) ConnectionService {
	return &connectionService{cfg: cfg, cr: cr, tokens: tokens}
}

// Connect stores a platform connection, upgrading the supplied token to a
// long-lived one when the exchange succeeds. An exchange failure keeps the
// original token; the connect still goes through.
func (s *connectionService) Connect(ctx context.Context, cc *ConnectionCreation) (*transfer.TokenExchangeResult, error) {
	if cc.ClientID == "" || cc.AccountID == "" || cc.AccessToken == "" {
		return nil, errors.New("client id, account id and access token are required")
	}
	if cc.Platform != models.PlatformInstagram && cc.Platform != models.PlatformFacebook {
		return nil, fmt.Errorf("invalid platform: %s", cc.Platform)
	}

	exchange, err := s.tokens.Exchange(ctx, cc.AccessToken, "")
	if err != nil {
		return nil, err
	}

	encrypted, err := utils.Encrypt([]byte(exchange.LongLivedToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	conn := &models.PlatformConnection{
		ClientID:    cc.ClientID,
		Platform:    cc.Platform,
		AccountID:   cc.AccountID,
		AccountName: cc.AccountName,
		AccessToken: encrypted,
	}
	if exchange.ExpiresAt != nil {
		conn.TokenExpiresAt = sql.NullTime{Time: *exchange.ExpiresAt, Valid: true}
	}

	if _, err := s.cr.Create(ctx, nil, conn); err != nil {
		return nil, fmt.Errorf("error saving connection: %w", err)
	}

	return exchange, nil
}

func (s *connectionService) List(ctx context.Context, clientID string) ([]*models.PlatformConnection, error) {
	if clientID == "" {
		err := errors.New("client id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	conns, err := s.cr.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("error getting connections")
	}

	// The encrypted token never leaves the service; callers only see account
	// identity and expiry.
	for _, conn := range conns {
		conn.AccessToken = ""
	}
	return conns, nil
}

func (s *connectionService) Disconnect(ctx context.Context, clientID, platform string) error {
	if clientID == "" || platform == "" {
		err := errors.New("client id and platform are required")
		slog.Info(err.Error())
		return err
	}

	conn, err := s.cr.Get(ctx, clientID, platform)
	if err != nil {
		return err
	}
	if conn == nil {
		err = errors.New("connection doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return s.cr.Remove(ctx, clientID, platform)
}
