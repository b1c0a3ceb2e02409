package job

import (
	"context"
	"log/slog"

	"github.com/agencyhub/postbridge/internal/service"
)

type TokenRefreshJob struct {
	tokens service.TokenService
}

func NewTokenRefreshJob(tokens service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{tokens: tokens}
}

// RefreshTokens renews every connection expiring inside the refresh horizon.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	summary, err := c.tokens.RefreshExpiring(ctx)
	if err != nil {
		slog.Info("token refresh sweep failed", "error", err.Error())
		return
	}

	if summary.Total > 0 {
		slog.Info("token refresh complete", "refreshed", summary.Refreshed, "total", summary.Total)
	}
}
