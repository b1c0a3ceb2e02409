package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/agencyhub/postbridge/internal/models"
)

type PublishHistoryRepository interface {
	Create(ctx context.Context, record *models.PublishRecord) (int64, error)
	ListByPostID(ctx context.Context, postID string) ([]*models.PublishRecord, error)
	ListByClientID(ctx context.Context, clientID string) ([]*models.PublishRecord, error)
}

type publishHistoryRepository struct {
	db *sql.DB
}

func NewPublishHistoryRepository(db *sql.DB) PublishHistoryRepository {
	return &publishHistoryRepository{db: db}
}

func (r *publishHistoryRepository) Create(ctx context.Context, record *models.PublishRecord) (int64, error) {
	query := `
		INSERT INTO publish_history (post_id, client_id, platform, platform_post_id, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, record.PostID, record.ClientID, record.Platform,
		record.PlatformPostID, record.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *publishHistoryRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublishRecord, error) {
	query := `SELECT id, post_id, client_id, platform, platform_post_id, error_message, created_at
		FROM publish_history WHERE post_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, postID)
}

func (r *publishHistoryRepository) ListByClientID(ctx context.Context, clientID string) ([]*models.PublishRecord, error) {
	query := `SELECT id, post_id, client_id, platform, platform_post_id, error_message, created_at
		FROM publish_history WHERE client_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, clientID)
}

func (r *publishHistoryRepository) list(ctx context.Context, query string, arg any) ([]*models.PublishRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.PublishRecord
	for rows.Next() {
		var record models.PublishRecord
		err := rows.Scan(&record.ID, &record.PostID, &record.ClientID, &record.Platform,
			&record.PlatformPostID, &record.ErrorMessage, &record.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
