package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/agencyhub/postbridge/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error
	ListByClientID(ctx context.Context, clientID string) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	ClaimForPublishing(ctx context.Context, id string) (bool, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time, instagramPostID, facebookPostID string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
	Reschedule(ctx context.Context, id string, scheduledAt time.Time) (bool, error)
	Remove(ctx context.Context, id string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, client_id, platform, post_type, media_urls, hashtags, caption, scheduled_at, status,
	published_at, instagram_post_id, facebook_post_id, error_message, content_item_id, created_by, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	err := row.Scan(&post.ID, &post.ClientID, &post.Platform, &post.PostType, &post.MediaURLs,
		&post.Hashtags, &post.Caption, &post.ScheduledAt, &post.Status, &post.PublishedAt,
		&post.InstagramPostID, &post.FacebookPostID, &post.ErrorMessage, &post.ContentItemID,
		&post.CreatedBy, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_posts (id, client_id, platform, post_type, media_urls, hashtags, caption, scheduled_at, status, content_item_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var err error
	args := []any{post.ID, post.ClientID, post.Platform, post.PostType, post.MediaURLs,
		post.Hashtags, post.Caption, post.ScheduledAt, models.PostStatusScheduled,
		post.ContentItemID, post.CreatedBy}

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByClientID(ctx context.Context, clientID string) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE client_id = $1 ORDER BY scheduled_at DESC`
	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ListDue returns posts ready for publishing, earliest scheduled first. The
// ordering is what gives the sweeper its fairness guarantee.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ClaimForPublishing moves a post from scheduled to publishing only if it is
// still scheduled. Overlapping sweeps and the queue worker race on this
// update; exactly one caller sees a single affected row and owns the attempt.
func (r *postRepository) ClaimForPublishing(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time, instagramPostID, facebookPostID string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			published_at = $2,
			instagram_post_id = NULLIF($3, ''),
			facebook_post_id = NULLIF($4, ''),
			error_message = NULL,
			updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, instagramPostID, facebookPostID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Reschedule resets a scheduled or failed post to scheduled with a new time.
// Published and in-flight posts are left alone.
func (r *postRepository) Reschedule(ctx context.Context, id string, scheduledAt time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			scheduled_at = $2,
			error_message = NULL,
			updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, scheduledAt, time.Now(),
		id, models.PostStatusScheduled, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
