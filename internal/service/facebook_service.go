package service

import (
	"context"
	"fmt"
	"log/slog"

	config "github.com/agencyhub/postbridge/configs"
	"github.com/agencyhub/postbridge/internal/models"
)

type facebookAdapter struct {
	cfg config.Config
}

// NewFacebookAdapter publishes to a Facebook page: a photo post when media is
// present, a plain feed post otherwise.
func NewFacebookAdapter(cfg config.Config) PublishAdapter {
	return &facebookAdapter{cfg: cfg}
}

func (s *facebookAdapter) Publish(ctx context.Context, conn *models.PlatformConnection, accessToken string, content PublishContent) (string, error) {
	if len(content.MediaURLs) > 0 {
		return s.publishPhoto(ctx, conn.AccountID, accessToken, content)
	}
	return s.publishFeed(ctx, conn.AccountID, accessToken, content)
}

func (s *facebookAdapter) publishPhoto(ctx context.Context, pageID, accessToken string, content PublishContent) (string, error) {
	url := fmt.Sprintf("%s/%s/photos", s.cfg.GraphBaseURL, pageID)
	payload := map[string]interface{}{
		"url":          content.MediaURLs[0],
		"caption":      content.Caption,
		"access_token": accessToken,
	}

	result, err := postGraph(ctx, models.PlatformFacebook, url, payload)
	if err != nil {
		return "", err
	}

	// Photo uploads return the photo id plus a post_id for the resulting
	// feed story; prefer the latter.
	postID := result.PostID
	if postID == "" {
		postID = result.ID
	}
	if postID == "" {
		return "", fmt.Errorf("no post ID returned from Facebook")
	}

	slog.Info("published facebook photo post", "post_id", postID)
	return postID, nil
}

func (s *facebookAdapter) publishFeed(ctx context.Context, pageID, accessToken string, content PublishContent) (string, error) {
	if content.Caption == "" {
		return "", fmt.Errorf("facebook feed post requires a caption")
	}

	url := fmt.Sprintf("%s/%s/feed", s.cfg.GraphBaseURL, pageID)
	payload := map[string]interface{}{
		"message":      content.Caption,
		"access_token": accessToken,
	}

	result, err := postGraph(ctx, models.PlatformFacebook, url, payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no post ID returned from Facebook")
	}

	slog.Info("published facebook feed post", "post_id", result.ID)
	return result.ID, nil
}
