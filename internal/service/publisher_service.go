package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	config "github.com/agencyhub/postbridge/configs"
	"github.com/agencyhub/postbridge/internal/models"
	"github.com/agencyhub/postbridge/internal/repository"
	"github.com/agencyhub/postbridge/internal/transfer"
	"github.com/agencyhub/postbridge/pkg/utils"
)

type PublisherService interface {
	Publish(ctx context.Context, postID string) (*transfer.PublishResult, error)
	SweepDue(ctx context.Context) (*transfer.SweepSummary, error)
}

type publisherService struct {
	cfg      config.Config
	pr       repository.PostRepository
	cr       repository.ConnectionRepository
	ph       repository.PublishHistoryRepository
	adapters map[string]PublishAdapter
	now      func() time.Time
}

func NewPublisherService(
	cfg config.Config,
	pr repository.PostRepository,
	cr repository.ConnectionRepository,
	ph repository.PublishHistoryRepository,
	adapters map[string]PublishAdapter) PublisherService {
	return &publisherService{
		cfg:      cfg,
		pr:       pr,
		cr:       cr,
		ph:       ph,
		adapters: adapters,
		now:      time.Now,
	}
}

// Publish runs the full publish flow for one post. Platform failures are
// folded into the returned PublishResult and the post's failed status; the
// error return is reserved for missing posts, lost claims and store errors.
func (s *publisherService) Publish(ctx context.Context, postID string) (*transfer.PublishResult, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	// Published, failed and in-flight posts are left untouched; retrying a
	// failed post is an explicit reschedule.
	if post.Status != models.PostStatusScheduled {
		return nil, ErrPostNotPublishable
	}

	targets := post.TargetPlatforms()

	// Resolve every connection before any state change so a missing one
	// fails the post without it ever entering publishing.
	conns := make(map[string]*models.PlatformConnection, len(targets))
	for _, platform := range targets {
		conn, err := s.cr.Get(ctx, post.ClientID, platform)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			msg := fmt.Sprintf("connection not found for %s", platform)
			return s.failWithoutDispatch(ctx, post, platform, msg)
		}
		conns[platform] = conn
	}

	if models.RequiresMedia(post.PostType) && len(post.MediaURLs) == 0 {
		msg := fmt.Sprintf("%s post has no media urls", post.PostType)
		return s.failWithoutDispatch(ctx, post, post.Platform, msg)
	}

	claimed, err := s.pr.ClaimForPublishing(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another sweep or the queue worker got here first.
		return nil, ErrPostNotPublishable
	}

	content := PublishContent{
		Caption:   BuildCaption(post.Caption, post.Hashtags),
		MediaURLs: post.MediaURLs,
		PostType:  post.PostType,
	}

	result := &transfer.PublishResult{PostID: post.ID}
	ids := make(map[string]string, len(targets))
	var failures []string

	for _, platform := range targets {
		platformPostID, err := s.dispatch(ctx, platform, conns[platform], content)

		record := &models.PublishRecord{
			PostID:         post.ID,
			ClientID:       post.ClientID,
			Platform:       platform,
			PlatformPostID: platformPostID,
		}
		if err != nil {
			record.ErrorMessage = err.Error()
			failures = append(failures, fmt.Sprintf("%s: %v", platform, err))
			slog.Info("publish attempt failed", "post_id", post.ID, "platform", platform, "error", err.Error())
		} else {
			ids[platform] = platformPostID
		}
		result.Platforms = append(result.Platforms, transfer.PlatformResult{
			Platform:       platform,
			PlatformPostID: platformPostID,
			Success:        err == nil,
			Error:          record.ErrorMessage,
		})

		if _, err := s.ph.Create(ctx, record); err != nil {
			slog.Info("error saving publish history", "post_id", post.ID, "error", err.Error())
		}
	}

	if len(failures) > 0 {
		msg := strings.Join(failures, "; ")
		if err := s.pr.MarkFailed(ctx, post.ID, msg); err != nil {
			return nil, err
		}
		result.Error = msg
		return result, nil
	}

	if err := s.pr.MarkPublished(ctx, post.ID, s.now(), ids[models.PlatformInstagram], ids[models.PlatformFacebook]); err != nil {
		return nil, err
	}

	result.Success = true
	result.PlatformPostID = primaryPostID(targets, ids)
	return result, nil
}

// dispatch hands the post to the platform adapter, decrypting the stored
// token first. Adapter panics are contained here so one bad platform call can
// never take down a sweep.
func (s *publisherService) dispatch(ctx context.Context, platform string, conn *models.PlatformConnection, content PublishContent) (platformPostID string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("publish adapter panic: %v", p)
		}
	}()

	adapter, ok := s.adapters[platform]
	if !ok {
		return "", fmt.Errorf("no publish adapter for platform %s", platform)
	}

	accessToken, err := utils.Decrypt(conn.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("error decrypting access token: %w", err)
	}

	return adapter.Publish(ctx, conn, accessToken, content)
}

// failWithoutDispatch marks the post failed straight from scheduled. The
// persisted trace never shows publishing for these posts.
func (s *publisherService) failWithoutDispatch(ctx context.Context, post *models.ScheduledPost, platform, msg string) (*transfer.PublishResult, error) {
	if err := s.pr.MarkFailed(ctx, post.ID, msg); err != nil {
		return nil, err
	}

	record := &models.PublishRecord{
		PostID:       post.ID,
		ClientID:     post.ClientID,
		Platform:     platform,
		ErrorMessage: msg,
	}
	if _, err := s.ph.Create(ctx, record); err != nil {
		slog.Info("error saving publish history", "post_id", post.ID, "error", err.Error())
	}

	return &transfer.PublishResult{
		PostID: post.ID,
		Error:  msg,
		Platforms: []transfer.PlatformResult{
			{Platform: platform, Error: msg},
		},
	}, nil
}

// SweepDue publishes every due post sequentially, earliest scheduled first.
// One post's failure never aborts the rest of the pass.
func (s *publisherService) SweepDue(ctx context.Context) (*transfer.SweepSummary, error) {
	posts, err := s.pr.ListDue(ctx, s.now())
	if err != nil {
		return nil, err
	}

	summary := &transfer.SweepSummary{Results: make([]transfer.PublishResult, 0, len(posts))}
	for _, post := range posts {
		result, err := s.Publish(ctx, post.ID)
		if err != nil {
			result = &transfer.PublishResult{PostID: post.ID, Error: err.Error()}
		}

		summary.Processed++
		if result.Success {
			summary.Success++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, *result)
	}

	return summary, nil
}

// primaryPostID picks the id reported at the top level of a publish result:
// the sole platform's id, or Instagram's for a combined post.
func primaryPostID(targets []string, ids map[string]string) string {
	if len(targets) == 1 {
		return ids[targets[0]]
	}
	return ids[models.PlatformInstagram]
}
