package models

import (
	"database/sql"
	"time"
)

type PlatformConnection struct {
	ID             int64        `db:"id" json:"id"`
	ClientID       string       `db:"client_id" json:"client_id"`
	Platform       string       `db:"platform" json:"platform"`
	AccountID      string       `db:"account_id" json:"account_id"`
	AccountName    string       `db:"account_name" json:"account_name"`
	AccessToken    string       `db:"access_token" json:"access_token"`
	TokenExpiresAt sql.NullTime `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}
