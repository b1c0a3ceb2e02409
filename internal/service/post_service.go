package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agencyhub/postbridge/internal/models"
	"github.com/agencyhub/postbridge/internal/repository"
	"github.com/agencyhub/postbridge/internal/transfer"
	"github.com/agencyhub/postbridge/pkg/utils"
)

type PostService interface {
	Create(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.ScheduledPost, time.Duration, error)
	List(ctx context.Context, clientID string) ([]*models.ScheduledPost, error)
	Info(ctx context.Context, postID string) (*models.ScheduledPost, error)
	History(ctx context.Context, postID string) ([]*models.PublishRecord, error)
	Reschedule(ctx context.Context, pr *transfer.PostReschedule) (time.Duration, error)
	Remove(ctx context.Context, postID string) error
}

type postService struct {
	pr repository.PostRepository
	ph repository.PublishHistoryRepository
}

func NewPostService(pr repository.PostRepository, ph repository.PublishHistoryRepository) PostService {
	return &postService{pr: pr, ph: ph}
}

func (s *postService) Create(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.ScheduledPost, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return nil, 0, err
	}
	if pc.ClientID == "" {
		return nil, 0, errors.New("client id cannot be empty")
	}
	if !models.ValidPlatform(pc.Platform) {
		return nil, 0, fmt.Errorf("invalid platform: %s", pc.Platform)
	}
	if !models.ValidPostType(pc.PostType) {
		return nil, 0, fmt.Errorf("invalid post type: %s", pc.PostType)
	}
	if models.RequiresMedia(pc.PostType) && len(pc.MediaURLs) == 0 {
		return nil, 0, fmt.Errorf("%s post requires at least one media url", pc.PostType)
	}
	if pc.Caption == "" && len(pc.MediaURLs) == 0 {
		return nil, 0, errors.New("post needs a caption or media")
	}

	scheduledAt, err := parseScheduledAt(pc.ScheduledAt)
	if err != nil {
		slog.Error(err.Error())
		return nil, 0, err
	}

	id, err := utils.NewID()
	if err != nil {
		return nil, 0, err
	}

	post := &models.ScheduledPost{
		ID:          id,
		ClientID:    pc.ClientID,
		Platform:    pc.Platform,
		PostType:    pc.PostType,
		MediaURLs:   pc.MediaURLs,
		Hashtags:    pc.Hashtags,
		Caption:     pc.Caption,
		ScheduledAt: scheduledAt,
		Status:      models.PostStatusScheduled,
		CreatedBy:   userID,
	}
	if pc.ContentItemID != "" {
		post.ContentItemID = sql.NullString{String: pc.ContentItemID, Valid: true}
	}

	if err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, 0, fmt.Errorf("error creating post: %w", err)
	}

	delay := time.Until(scheduledAt)
	if delay < 0 {
		delay = 0
	}

	return post, delay, nil
}

func (s *postService) List(ctx context.Context, clientID string) ([]*models.ScheduledPost, error) {
	if clientID == "" {
		err := errors.New("client id is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	return s.pr.ListByClientID(ctx, clientID)
}

func (s *postService) Info(ctx context.Context, postID string) (*models.ScheduledPost, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) History(ctx context.Context, postID string) ([]*models.PublishRecord, error) {
	return s.ph.ListByPostID(ctx, postID)
}

// Reschedule moves a scheduled or failed post back to scheduled with a new
// time and returns the delay until it is due. This is the only path that
// changes scheduled_at after creation and the only way to retry a failure.
func (s *postService) Reschedule(ctx context.Context, pr *transfer.PostReschedule) (time.Duration, error) {
	scheduledAt, err := parseScheduledAt(pr.ScheduledAt)
	if err != nil {
		slog.Error(err.Error())
		return 0, err
	}

	ok, err := s.pr.Reschedule(ctx, pr.PostID, scheduledAt)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrPostNotPublishable
	}

	delay := time.Until(scheduledAt)
	if delay < 0 {
		delay = 0
	}
	return delay, nil
}

func (s *postService) Remove(ctx context.Context, postID string) error {
	return s.pr.Remove(ctx, postID)
}

func parseScheduledAt(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	return t.UTC(), nil
}
