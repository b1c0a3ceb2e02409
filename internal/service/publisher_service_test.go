package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	config "github.com/agencyhub/postbridge/configs"
	"github.com/agencyhub/postbridge/internal/models"
	"github.com/agencyhub/postbridge/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encryptToken(t *testing.T, token string) string {
	t.Helper()
	encrypted, err := utils.Encrypt([]byte(token), []byte(testSecretKey))
	require.NoError(t, err)
	return encrypted
}

func testConnection(t *testing.T, clientID, platform string) *models.PlatformConnection {
	t.Helper()
	return &models.PlatformConnection{
		ClientID:    clientID,
		Platform:    platform,
		AccountID:   "acct-" + platform,
		AccountName: "Test " + platform,
		AccessToken: encryptToken(t, "token-"+platform),
	}
}

func scheduledPost(id, clientID, platform string, scheduledAt time.Time) *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:          id,
		ClientID:    clientID,
		Platform:    platform,
		PostType:    models.PostTypeImage,
		MediaURLs:   []string{"https://cdn.example.com/" + id + ".jpg"},
		Caption:     "caption " + id,
		ScheduledAt: scheduledAt,
		Status:      models.PostStatusScheduled,
	}
}

func newTestPublisher(pr *fakePostRepo, cr *fakeConnectionRepo, ph *fakeHistoryRepo, adapters map[string]PublishAdapter) *publisherService {
	cfg := config.Config{SecretKey: testSecretKey}
	svc := NewPublisherService(cfg, pr, cr, ph, adapters).(*publisherService)
	return svc
}

func TestPublishSuccess(t *testing.T) {
	now := time.Now()
	post := scheduledPost("p1", "client-1", models.PlatformInstagram, now.Add(-time.Minute))
	pr := newFakePostRepo(post)
	cr := newFakeConnectionRepo(testConnection(t, "client-1", models.PlatformInstagram))
	ph := &fakeHistoryRepo{}
	adapter := &fakeAdapter{id: "ig-123"}

	svc := newTestPublisher(pr, cr, ph, map[string]PublishAdapter{models.PlatformInstagram: adapter})

	result, err := svc.Publish(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ig-123", result.PlatformPostID)

	stored, _ := pr.GetByID(context.Background(), "p1")
	assert.Equal(t, models.PostStatusPublished, stored.Status)
	assert.True(t, stored.PublishedAt.Valid)
	assert.Equal(t, "ig-123", stored.InstagramPostID.String)
	assert.False(t, stored.ErrorMessage.Valid)

	assert.Equal(t, []string{
		models.PostStatusScheduled,
		models.PostStatusPublishing,
		models.PostStatusPublished,
	}, pr.statusTrace("p1"))

	records, _ := ph.ListByPostID(context.Background(), "p1")
	require.Len(t, records, 1)
	assert.Equal(t, "ig-123", records[0].PlatformPostID)
}

func TestPublishNotFound(t *testing.T) {
	pr := newFakePostRepo()
	svc := newTestPublisher(pr, newFakeConnectionRepo(), &fakeHistoryRepo{}, nil)

	_, err := svc.Publish(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

// Once a post is terminal, re-invoking the publisher without an explicit
// reschedule is a no-op: published_at and the platform post ids never change.
func TestPublishTerminalStateIsNoOp(t *testing.T) {
	publishedAt := time.Now().Add(-time.Hour)

	for _, status := range []string{models.PostStatusPublished, models.PostStatusFailed} {
		t.Run(status, func(t *testing.T) {
			post := scheduledPost("p1", "client-1", models.PlatformInstagram, time.Now().Add(-time.Hour))
			post.Status = status
			if status == models.PostStatusPublished {
				post.PublishedAt = sql.NullTime{Time: publishedAt, Valid: true}
				post.InstagramPostID = sql.NullString{String: "ig-old", Valid: true}
			}

			pr := newFakePostRepo(post)
			adapter := &fakeAdapter{id: "ig-new"}
			svc := newTestPublisher(pr, newFakeConnectionRepo(testConnection(t, "client-1", models.PlatformInstagram)),
				&fakeHistoryRepo{}, map[string]PublishAdapter{models.PlatformInstagram: adapter})

			_, err := svc.Publish(context.Background(), "p1")
			assert.ErrorIs(t, err, ErrPostNotPublishable)
			assert.Empty(t, adapter.calls)

			stored, _ := pr.GetByID(context.Background(), "p1")
			assert.Equal(t, status, stored.Status)
			if status == models.PostStatusPublished {
				assert.Equal(t, publishedAt.Unix(), stored.PublishedAt.Time.Unix())
				assert.Equal(t, "ig-old", stored.InstagramPostID.String)
			}
		})
	}
}

// Due posts are attempted strictly in ascending scheduled-time order.
func TestSweepOrdering(t *testing.T) {
	now := time.Now()
	p1 := scheduledPost("p1", "client-1", models.PlatformInstagram, now.Add(-3*time.Hour))
	p2 := scheduledPost("p2", "client-1", models.PlatformInstagram, now.Add(-2*time.Hour))
	p3 := scheduledPost("p3", "client-1", models.PlatformInstagram, now.Add(-1*time.Hour))

	pr := newFakePostRepo(p2, p3, p1)
	cr := newFakeConnectionRepo(testConnection(t, "client-1", models.PlatformInstagram))
	adapter := &fakeAdapter{id: "ig-1"}
	svc := newTestPublisher(pr, cr, &fakeHistoryRepo{}, map[string]PublishAdapter{models.PlatformInstagram: adapter})

	summary, err := svc.SweepDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Success)

	assert.Equal(t, []string{"caption p1", "caption p2", "caption p3"}, adapter.captions())
}

// One post's adapter failure must not prevent later posts from publishing.
func TestSweepIsolatesFailures(t *testing.T) {
	now := time.Now()
	p1 := scheduledPost("p1", "client-1", models.PlatformInstagram, now.Add(-2*time.Hour))
	p2 := scheduledPost("p2", "client-1", models.PlatformInstagram, now.Add(-1*time.Hour))

	pr := newFakePostRepo(p1, p2)
	cr := newFakeConnectionRepo(testConnection(t, "client-1", models.PlatformInstagram))
	adapter := &fakeAdapter{
		fn: func(content PublishContent) (string, error) {
			if content.Caption == "caption p1" {
				return "", errors.New("boom")
			}
			return "ig-2", nil
		},
	}
	svc := newTestPublisher(pr, cr, &fakeHistoryRepo{}, map[string]PublishAdapter{models.PlatformInstagram: adapter})

	summary, err := svc.SweepDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Failed)

	stored1, _ := pr.GetByID(context.Background(), "p1")
	assert.Equal(t, models.PostStatusFailed, stored1.Status)
	assert.Contains(t, stored1.ErrorMessage.String, "boom")

	stored2, _ := pr.GetByID(context.Background(), "p2")
	assert.Equal(t, models.PostStatusPublished, stored2.Status)
}

// A post without a stored connection fails straight from scheduled; the
// persisted trace never contains publishing.
func TestPublishMissingConnection(t *testing.T) {
	post := scheduledPost("p1", "client-1", models.PlatformInstagram, time.Now().Add(-time.Minute))
	pr := newFakePostRepo(post)
	adapter := &fakeAdapter{}
	svc := newTestPublisher(pr, newFakeConnectionRepo(), &fakeHistoryRepo{}, map[string]PublishAdapter{models.PlatformInstagram: adapter})

	result, err := svc.Publish(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "connection not found")
	assert.Empty(t, adapter.calls)

	stored, _ := pr.GetByID(context.Background(), "p1")
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage.String, "connection not found")
	assert.False(t, stored.PublishedAt.Valid)

	assert.Equal(t, []string{
		models.PostStatusScheduled,
		models.PostStatusFailed,
	}, pr.statusTrace("p1"))
}

func TestPublishCaptionAssembly(t *testing.T) {
	post := scheduledPost("p1", "client-1", models.PlatformInstagram, time.Now().Add(-time.Minute))
	post.Caption = "Hello"
	post.Hashtags = []string{"#a", "#b"}

	pr := newFakePostRepo(post)
	cr := newFakeConnectionRepo(testConnection(t, "client-1", models.PlatformInstagram))
	adapter := &fakeAdapter{id: "ig-1"}
	svc := newTestPublisher(pr, cr, &fakeHistoryRepo{}, map[string]PublishAdapter{models.PlatformInstagram: adapter})

	_, err := svc.Publish(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, adapter.calls, 1)
	assert.Equal(t, "Hello\n\n#a #b", adapter.calls[0].Caption)
}

// A combined-platform post publishes to Instagram then Facebook; a partial
// failure marks the post failed while the per-platform records keep the
// successful side's id.
func TestPublishBothPlatforms(t *testing.T) {
	post := scheduledPost("p1", "client-1", models.PlatformBoth, time.Now().Add(-time.Minute))
	pr := newFakePostRepo(post)
	cr := newFakeConnectionRepo(
		testConnection(t, "client-1", models.PlatformInstagram),
		testConnection(t, "client-1", models.PlatformFacebook),
	)
	ph := &fakeHistoryRepo{}
	igAdapter := &fakeAdapter{id: "ig-1"}
	fbAdapter := &fakeAdapter{id: "fb-1"}
	svc := newTestPublisher(pr, cr, ph, map[string]PublishAdapter{
		models.PlatformInstagram: igAdapter,
		models.PlatformFacebook:  fbAdapter,
	})

	result, err := svc.Publish(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ig-1", result.PlatformPostID)
	require.Len(t, result.Platforms, 2)

	stored, _ := pr.GetByID(context.Background(), "p1")
	assert.Equal(t, "ig-1", stored.InstagramPostID.String)
	assert.Equal(t, "fb-1", stored.FacebookPostID.String)
}

func TestPublishBothPlatformsPartialFailure(t *testing.T) {
	post := scheduledPost("p1", "client-1", models.PlatformBoth, time.Now().Add(-time.Minute))
	pr := newFakePostRepo(post)
	cr := newFakeConnectionRepo(
		testConnection(t, "client-1", models.PlatformInstagram),
		testConnection(t, "client-1", models.PlatformFacebook),
	)
	ph := &fakeHistoryRepo{}
	igAdapter := &fakeAdapter{id: "ig-1"}
	fbAdapter := &fakeAdapter{
		fn: func(PublishContent) (string, error) {
			return "", &PlatformAPIError{Platform: models.PlatformFacebook, Code: 190, Message: "token expired"}
		},
	}
	svc := newTestPublisher(pr, cr, ph, map[string]PublishAdapter{
		models.PlatformInstagram: igAdapter,
		models.PlatformFacebook:  fbAdapter,
	})

	result, err := svc.Publish(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "facebook")

	stored, _ := pr.GetByID(context.Background(), "p1")
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	assert.False(t, stored.PublishedAt.Valid)

	records, _ := ph.ListByPostID(context.Background(), "p1")
	require.Len(t, records, 2)
	assert.Equal(t, "ig-1", records[0].PlatformPostID)
	assert.Empty(t, records[0].ErrorMessage)
	assert.Contains(t, records[1].ErrorMessage, "token expired")
}

func TestPublishRequiresMedia(t *testing.T) {
	post := scheduledPost("p1", "client-1", models.PlatformInstagram, time.Now().Add(-time.Minute))
	post.MediaURLs = nil

	pr := newFakePostRepo(post)
	cr := newFakeConnectionRepo(testConnection(t, "client-1", models.PlatformInstagram))
	svc := newTestPublisher(pr, cr, &fakeHistoryRepo{}, map[string]PublishAdapter{models.PlatformInstagram: &fakeAdapter{}})

	result, err := svc.Publish(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no media urls")

	stored, _ := pr.GetByID(context.Background(), "p1")
	assert.Equal(t, models.PostStatusFailed, stored.Status)
}

func TestPublishContainsAdapterPanic(t *testing.T) {
	post := scheduledPost("p1", "client-1", models.PlatformInstagram, time.Now().Add(-time.Minute))
	pr := newFakePostRepo(post)
	cr := newFakeConnectionRepo(testConnection(t, "client-1", models.PlatformInstagram))
	adapter := &fakeAdapter{
		fn: func(PublishContent) (string, error) {
			panic("adapter exploded")
		},
	}
	svc := newTestPublisher(pr, cr, &fakeHistoryRepo{}, map[string]PublishAdapter{models.PlatformInstagram: adapter})

	result, err := svc.Publish(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "adapter exploded")

	stored, _ := pr.GetByID(context.Background(), "p1")
	assert.Equal(t, models.PostStatusFailed, stored.Status)
}
