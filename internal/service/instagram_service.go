package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	config "github.com/agencyhub/postbridge/configs"
	"github.com/agencyhub/postbridge/internal/models"
)

type instagramAdapter struct {
	cfg config.Config
}

// NewInstagramAdapter publishes to an Instagram business account through the
// Graph API container flow: create a media container (or a carousel of
// containers), then publish it by creation id.
func NewInstagramAdapter(cfg config.Config) PublishAdapter {
	return &instagramAdapter{cfg: cfg}
}

func (s *instagramAdapter) Publish(ctx context.Context, conn *models.PlatformConnection, accessToken string, content PublishContent) (string, error) {
	if len(content.MediaURLs) == 0 {
		return "", fmt.Errorf("no media urls for instagram %s post", content.PostType)
	}

	var containerID string
	var err error

	switch content.PostType {
	case models.PostTypeCarousel:
		containerID, err = s.createCarouselContainer(ctx, conn.AccountID, accessToken, content)
	case models.PostTypeVideo, models.PostTypeReel:
		containerID, err = s.createVideoContainer(ctx, conn.AccountID, accessToken, content)
		if err == nil {
			// Media containers for video are processed asynchronously on
			// Meta's side. A fixed wait stands in for readiness polling; if
			// transcoding outlasts it the publish step fails.
			if werr := s.waitForTranscode(ctx); werr != nil {
				return "", werr
			}
		}
	case models.PostTypeStory:
		containerID, err = s.createStoryContainer(ctx, conn.AccountID, accessToken, content)
	default:
		containerID, err = s.createImageContainer(ctx, conn.AccountID, accessToken, content)
	}
	if err != nil {
		return "", err
	}

	return s.publishContainer(ctx, conn.AccountID, containerID, accessToken)
}

func (s *instagramAdapter) mediaURL(accountID string) string {
	return fmt.Sprintf("%s/%s/media", s.cfg.GraphBaseURL, accountID)
}

func (s *instagramAdapter) createImageContainer(ctx context.Context, accountID, accessToken string, content PublishContent) (string, error) {
	payload := map[string]interface{}{
		"image_url":    content.MediaURLs[0],
		"caption":      content.Caption,
		"access_token": accessToken,
	}

	result, err := postGraph(ctx, models.PlatformInstagram, s.mediaURL(accountID), payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media container ID returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramAdapter) createVideoContainer(ctx context.Context, accountID, accessToken string, content PublishContent) (string, error) {
	payload := map[string]interface{}{
		"media_type":   "REELS",
		"video_url":    content.MediaURLs[0],
		"caption":      content.Caption,
		"access_token": accessToken,
	}

	result, err := postGraph(ctx, models.PlatformInstagram, s.mediaURL(accountID), payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media container ID returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramAdapter) createStoryContainer(ctx context.Context, accountID, accessToken string, content PublishContent) (string, error) {
	payload := map[string]interface{}{
		"media_type":   "STORIES",
		"image_url":    content.MediaURLs[0],
		"access_token": accessToken,
	}

	result, err := postGraph(ctx, models.PlatformInstagram, s.mediaURL(accountID), payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media container ID returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramAdapter) createCarouselContainer(ctx context.Context, accountID, accessToken string, content PublishContent) (string, error) {
	containerIDs := make([]string, 0, len(content.MediaURLs))

	for _, mediaURL := range content.MediaURLs {
		payload := map[string]interface{}{
			"image_url":        mediaURL,
			"is_carousel_item": true,
			"access_token":     accessToken,
		}

		result, err := postGraph(ctx, models.PlatformInstagram, s.mediaURL(accountID), payload)
		if err != nil {
			return "", fmt.Errorf("error creating carousel item: %w", err)
		}
		if result.ID == "" {
			return "", fmt.Errorf("no media container ID returned from Instagram")
		}

		containerIDs = append(containerIDs, result.ID)
	}

	payload := map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      content.Caption,
		"children":     containerIDs,
		"access_token": accessToken,
	}

	result, err := postGraph(ctx, models.PlatformInstagram, s.mediaURL(accountID), payload)
	if err != nil {
		return "", fmt.Errorf("error creating carousel container: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media container ID returned from Instagram")
	}
	return result.ID, nil
}

func (s *instagramAdapter) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	url := fmt.Sprintf("%s/%s/media_publish", s.cfg.GraphBaseURL, accountID)
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	result, err := postGraph(ctx, models.PlatformInstagram, url, payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no post ID returned from Instagram")
	}

	slog.Info("published instagram post", "media_id", result.ID)
	return result.ID, nil
}

func (s *instagramAdapter) waitForTranscode(ctx context.Context) error {
	if s.cfg.TranscodeWait <= 0 {
		return nil
	}
	select {
	case <-time.After(s.cfg.TranscodeWait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
