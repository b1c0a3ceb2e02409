package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/agencyhub/postbridge/internal/models"
)

type ConnectionRepository interface {
	Get(ctx context.Context, clientID, platform string) (*models.PlatformConnection, error)
	Create(ctx context.Context, tx *sql.Tx, conn *models.PlatformConnection) (int64, error)
	ListByClientID(ctx context.Context, clientID string) ([]*models.PlatformConnection, error)
	ListExpiringBefore(ctx context.Context, horizon time.Time) ([]*models.PlatformConnection, error)
	SetToken(ctx context.Context, id int64, accessToken string, expiresAt sql.NullTime) error
	SetTokenByClient(ctx context.Context, clientID, accessToken string, expiresAt sql.NullTime) (int64, error)
	Remove(ctx context.Context, clientID, platform string) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, client_id, platform, account_id, account_name, access_token, token_expires_at, created_at, updated_at`

func scanConnection(row interface{ Scan(...any) error }) (*models.PlatformConnection, error) {
	var conn models.PlatformConnection
	err := row.Scan(&conn.ID, &conn.ClientID, &conn.Platform, &conn.AccountID, &conn.AccountName,
		&conn.AccessToken, &conn.TokenExpiresAt, &conn.CreatedAt, &conn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) Create(ctx context.Context, tx *sql.Tx, conn *models.PlatformConnection) (int64, error) {
	insertQuery := `
		INSERT INTO platform_connections (client_id, platform, account_id, account_name, access_token, token_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client_id, platform) DO UPDATE
		SET account_id = EXCLUDED.account_id,
			account_name = EXCLUDED.account_name,
			access_token = EXCLUDED.access_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var err error
	var id int64

	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery, conn.ClientID, conn.Platform, conn.AccountID,
			conn.AccountName, conn.AccessToken, conn.TokenExpiresAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery, conn.ClientID, conn.Platform, conn.AccountID,
			conn.AccountName, conn.AccessToken, conn.TokenExpiresAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectionRepository) Get(ctx context.Context, clientID, platform string) (*models.PlatformConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM platform_connections WHERE client_id = $1 AND platform = $2`
	row := r.db.QueryRowContext(ctx, query, clientID, platform)

	conn, err := scanConnection(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return conn, nil
}

func (r *connectionRepository) ListByClientID(ctx context.Context, clientID string) ([]*models.PlatformConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM platform_connections WHERE client_id = $1`
	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var conns []*models.PlatformConnection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// ListExpiringBefore selects connections whose token expiry falls at or before
// the horizon. Connections without a recorded expiry are never picked up for
// proactive refresh.
func (r *connectionRepository) ListExpiringBefore(ctx context.Context, horizon time.Time) ([]*models.PlatformConnection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM platform_connections
		WHERE token_expires_at IS NOT NULL AND token_expires_at <= $1
		ORDER BY token_expires_at ASC`

	rows, err := r.db.QueryContext(ctx, query, horizon)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var conns []*models.PlatformConnection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// SetToken replaces the stored token and expiry after an exchange. A null
// expiry is written through: it means the exchanged token does not expire, so
// keeping a stale timestamp would wrongly flag the token as expiring.
func (r *connectionRepository) SetToken(ctx context.Context, id int64, accessToken string, expiresAt sql.NullTime) error {
	query := `
		UPDATE platform_connections
		SET access_token = COALESCE(NULLIF($2, ''), access_token),
			token_expires_at = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, accessToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; connection may not exist")
		return errors.New("no rows affected; connection may not exist")
	}
	return nil
}

// SetTokenByClient updates every connection of one client. A Meta user token
// backs both the Instagram and the Facebook connection rows, so an exchange
// for one refreshes both. The expiry is written through as-is, null included.
func (r *connectionRepository) SetTokenByClient(ctx context.Context, clientID, accessToken string, expiresAt sql.NullTime) (int64, error) {
	query := `
		UPDATE platform_connections
		SET access_token = COALESCE(NULLIF($2, ''), access_token),
			token_expires_at = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE client_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, clientID, accessToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

func (r *connectionRepository) Remove(ctx context.Context, clientID, platform string) error {
	query := `DELETE FROM platform_connections WHERE client_id = $1 AND platform = $2`
	_, err := r.db.ExecContext(ctx, query, clientID, platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
