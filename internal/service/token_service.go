package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	config "github.com/agencyhub/postbridge/configs"
	"github.com/agencyhub/postbridge/internal/models"
	"github.com/agencyhub/postbridge/internal/repository"
	"github.com/agencyhub/postbridge/internal/transfer"
	"github.com/agencyhub/postbridge/pkg/utils"
)

// Connections whose token expires within this window are picked up by the
// proactive batch refresh.
const refreshHorizon = 7 * 24 * time.Hour

type TokenService interface {
	Exchange(ctx context.Context, accessToken, clientID string) (*transfer.TokenExchangeResult, error)
	RefreshExpiring(ctx context.Context) (*transfer.TokenRefreshSummary, error)
	Check(ctx context.Context, clientID, platform string) (*transfer.TokenCheckResult, error)
}

type tokenService struct {
	cfg config.Config
	cr  repository.ConnectionRepository
	now func() time.Time
}

func NewTokenService(cfg config.Config, cr repository.ConnectionRepository) TokenService {
	return &tokenService{
		cfg: cfg,
		cr:  cr,
		now: time.Now,
	}
}

// Exchange swaps a short-lived Meta token for a long-lived one. An exchange
// rejection is non-fatal: the original token is handed back unchanged with
// Exchanged=false so the connect flow it belongs to still completes.
func (s *tokenService) Exchange(ctx context.Context, accessToken, clientID string) (*transfer.TokenExchangeResult, error) {
	longLived, expiresAt, err := s.exchangeLongLived(ctx, accessToken)
	if err != nil {
		slog.Warn("token exchange failed, keeping original token", "error", err.Error())
		return &transfer.TokenExchangeResult{
			LongLivedToken: accessToken,
			Exchanged:      false,
		}, nil
	}

	result := &transfer.TokenExchangeResult{
		LongLivedToken: longLived,
		Exchanged:      true,
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		result.ExpiresAt = &t
	}

	if clientID != "" {
		encrypted, err := utils.Encrypt([]byte(longLived), []byte(s.cfg.SecretKey))
		if err != nil {
			return nil, err
		}
		if _, err := s.cr.SetTokenByClient(ctx, clientID, encrypted, expiresAt); err != nil {
			return nil, fmt.Errorf("error persisting exchanged token: %w", err)
		}
	}

	return result, nil
}

func (s *tokenService) exchangeLongLived(ctx context.Context, accessToken string) (string, sql.NullTime, error) {
	reqURL := fmt.Sprintf(
		"%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		s.cfg.GraphBaseURL,
		url.QueryEscape(s.cfg.MetaAppID),
		url.QueryEscape(s.cfg.MetaAppSecret),
		url.QueryEscape(accessToken),
	)

	result, err := getGraph(ctx, "meta", reqURL)
	if err != nil {
		return "", sql.NullTime{}, err
	}
	if result.AccessToken == "" {
		return "", sql.NullTime{}, fmt.Errorf("no access token returned from exchange")
	}

	// expires_in is omitted for tokens Meta treats as non-expiring.
	var expiresAt sql.NullTime
	if result.ExpiresIn > 0 {
		expiresAt = sql.NullTime{Time: s.now().Add(time.Duration(result.ExpiresIn) * time.Second), Valid: true}
	}

	return result.AccessToken, expiresAt, nil
}

// RefreshExpiring renews every connection whose expiry falls inside the
// horizon. Each connection is attempted independently; failures are reported
// in the summary and never abort the batch.
func (s *tokenService) RefreshExpiring(ctx context.Context) (*transfer.TokenRefreshSummary, error) {
	horizon := s.now().Add(refreshHorizon)
	conns, err := s.cr.ListExpiringBefore(ctx, horizon)
	if err != nil {
		return nil, err
	}

	summary := &transfer.TokenRefreshSummary{
		Total:   len(conns),
		Results: make([]transfer.ConnectionRefreshResult, 0, len(conns)),
	}

	for _, conn := range conns {
		result := transfer.ConnectionRefreshResult{
			ClientID:    conn.ClientID,
			AccountName: conn.AccountName,
		}

		if err := s.refreshConnection(ctx, conn); err != nil {
			result.Error = err.Error()
			slog.Info("unable to refresh token", "client_id", conn.ClientID, "platform", conn.Platform, "error", err.Error())
		} else {
			result.Success = true
			summary.Refreshed++
		}

		summary.Results = append(summary.Results, result)
	}

	return summary, nil
}

func (s *tokenService) refreshConnection(ctx context.Context, conn *models.PlatformConnection) error {
	accessToken, err := utils.Decrypt(conn.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return fmt.Errorf("error decrypting access token: %w", err)
	}

	longLived, expiresAt, err := s.exchangeLongLived(ctx, accessToken)
	if err != nil {
		return err
	}

	encrypted, err := utils.Encrypt([]byte(longLived), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.cr.SetToken(ctx, conn.ID, encrypted, expiresAt)
}

// Check reports whether a stored connection is usable. Validity is judged
// locally from the stored expiry; no Graph call is made.
func (s *tokenService) Check(ctx context.Context, clientID, platform string) (*transfer.TokenCheckResult, error) {
	if platform == "" {
		platform = models.PlatformInstagram
	}

	conn, err := s.cr.Get(ctx, clientID, platform)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return &transfer.TokenCheckResult{Error: "connection not found"}, nil
	}
	if conn.AccessToken == "" {
		return &transfer.TokenCheckResult{Error: "connection has no access token"}, nil
	}

	result := &transfer.TokenCheckResult{IsValid: true}
	if conn.TokenExpiresAt.Valid {
		t := conn.TokenExpiresAt.Time
		result.ExpiresAt = &t
		if !t.After(s.now()) {
			result.IsValid = false
			result.Error = "token expired"
		}
	}

	return result, nil
}
