package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agencyhub/postbridge/internal/models"
)

// testSecretKey is a 32-byte AES key used to encrypt fake connection tokens.
const testSecretKey = "0123456789abcdef0123456789abcdef"

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.ScheduledPost
	trace map[string][]string
}

func newFakePostRepo(posts ...*models.ScheduledPost) *fakePostRepo {
	r := &fakePostRepo{
		posts: make(map[string]*models.ScheduledPost),
		trace: make(map[string][]string),
	}
	for _, p := range posts {
		r.posts[p.ID] = p
		r.trace[p.ID] = []string{p.Status}
	}
	return r
}

func (r *fakePostRepo) statusTrace(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.trace[id]...)
}

func (r *fakePostRepo) setStatus(id, status string) {
	r.posts[id].Status = status
	r.trace[id] = append(r.trace[id], status)
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) Create(_ context.Context, _ *sql.Tx, post *models.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.Status = models.PostStatusScheduled
	r.posts[post.ID] = post
	r.trace[post.ID] = []string{post.Status}
	return nil
}

func (r *fakePostRepo) ListByClientID(_ context.Context, clientID string) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.ScheduledPost
	for _, p := range r.posts {
		if p.ClientID == clientID {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) ListDue(_ context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*models.ScheduledPost
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && !p.ScheduledAt.After(now) {
			copied := *p
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	return due, nil
}

func (r *fakePostRepo) ClaimForPublishing(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok || post.Status != models.PostStatusScheduled {
		return false, nil
	}
	r.setStatus(id, models.PostStatusPublishing)
	return true, nil
}

func (r *fakePostRepo) MarkPublished(_ context.Context, id string, publishedAt time.Time, instagramPostID, facebookPostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return fmt.Errorf("post %s not found", id)
	}
	r.setStatus(id, models.PostStatusPublished)
	post.PublishedAt = sql.NullTime{Time: publishedAt, Valid: true}
	if instagramPostID != "" {
		post.InstagramPostID = sql.NullString{String: instagramPostID, Valid: true}
	}
	if facebookPostID != "" {
		post.FacebookPostID = sql.NullString{String: facebookPostID, Valid: true}
	}
	post.ErrorMessage = sql.NullString{}
	return nil
}

func (r *fakePostRepo) MarkFailed(_ context.Context, id string, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return fmt.Errorf("post %s not found", id)
	}
	r.setStatus(id, models.PostStatusFailed)
	post.ErrorMessage = sql.NullString{String: errorMessage, Valid: true}
	return nil
}

func (r *fakePostRepo) Reschedule(_ context.Context, id string, scheduledAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	if post.Status != models.PostStatusScheduled && post.Status != models.PostStatusFailed {
		return false, nil
	}
	r.setStatus(id, models.PostStatusScheduled)
	post.ScheduledAt = scheduledAt
	post.ErrorMessage = sql.NullString{}
	return true, nil
}

func (r *fakePostRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

type fakeConnectionRepo struct {
	mu    sync.Mutex
	conns map[string]*models.PlatformConnection
	seq   int64
}

func newFakeConnectionRepo(conns ...*models.PlatformConnection) *fakeConnectionRepo {
	r := &fakeConnectionRepo{conns: make(map[string]*models.PlatformConnection)}
	for _, conn := range conns {
		r.seq++
		conn.ID = r.seq
		r.conns[conn.ClientID+"/"+conn.Platform] = conn
	}
	return r
}

func (r *fakeConnectionRepo) Get(_ context.Context, clientID, platform string) (*models.PlatformConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[clientID+"/"+platform]
	if !ok {
		return nil, nil
	}
	copied := *conn
	return &copied, nil
}

func (r *fakeConnectionRepo) Create(_ context.Context, _ *sql.Tx, conn *models.PlatformConnection) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	conn.ID = r.seq
	r.conns[conn.ClientID+"/"+conn.Platform] = conn
	return conn.ID, nil
}

func (r *fakeConnectionRepo) ListByClientID(_ context.Context, clientID string) ([]*models.PlatformConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var conns []*models.PlatformConnection
	for _, conn := range r.conns {
		if conn.ClientID == clientID {
			conns = append(conns, conn)
		}
	}
	return conns, nil
}

func (r *fakeConnectionRepo) ListExpiringBefore(_ context.Context, horizon time.Time) ([]*models.PlatformConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var conns []*models.PlatformConnection
	for _, conn := range r.conns {
		if conn.TokenExpiresAt.Valid && !conn.TokenExpiresAt.Time.After(horizon) {
			copied := *conn
			conns = append(conns, &copied)
		}
	}
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].TokenExpiresAt.Time.Before(conns[j].TokenExpiresAt.Time)
	})
	return conns, nil
}

func (r *fakeConnectionRepo) SetToken(_ context.Context, id int64, accessToken string, expiresAt sql.NullTime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conn := range r.conns {
		if conn.ID == id {
			if accessToken != "" {
				conn.AccessToken = accessToken
			}
			conn.TokenExpiresAt = expiresAt
			return nil
		}
	}
	return fmt.Errorf("connection %d not found", id)
}

func (r *fakeConnectionRepo) SetTokenByClient(_ context.Context, clientID, accessToken string, expiresAt sql.NullTime) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, conn := range r.conns {
		if conn.ClientID == clientID {
			if accessToken != "" {
				conn.AccessToken = accessToken
			}
			conn.TokenExpiresAt = expiresAt
			affected++
		}
	}
	return affected, nil
}

func (r *fakeConnectionRepo) Remove(_ context.Context, clientID, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, clientID+"/"+platform)
	return nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []*models.PublishRecord
}

func (r *fakeHistoryRepo) Create(_ context.Context, record *models.PublishRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = int64(len(r.records) + 1)
	r.records = append(r.records, record)
	return record.ID, nil
}

func (r *fakeHistoryRepo) ListByPostID(_ context.Context, postID string) ([]*models.PublishRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []*models.PublishRecord
	for _, record := range r.records {
		if record.PostID == postID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *fakeHistoryRepo) ListByClientID(_ context.Context, clientID string) ([]*models.PublishRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []*models.PublishRecord
	for _, record := range r.records {
		if record.ClientID == clientID {
			records = append(records, record)
		}
	}
	return records, nil
}

// fakeAdapter records every dispatched post and lets tests script per-post
// outcomes through fn.
type fakeAdapter struct {
	mu    sync.Mutex
	calls []PublishContent
	id    string
	fn    func(content PublishContent) (string, error)
}

func (a *fakeAdapter) Publish(_ context.Context, _ *models.PlatformConnection, _ string, content PublishContent) (string, error) {
	a.mu.Lock()
	a.calls = append(a.calls, content)
	a.mu.Unlock()

	if a.fn != nil {
		return a.fn(content)
	}
	if a.id != "" {
		return a.id, nil
	}
	return "post-id", nil
}

func (a *fakeAdapter) captions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	captions := make([]string, 0, len(a.calls))
	for _, call := range a.calls {
		captions = append(captions, call.Caption)
	}
	return captions
}
