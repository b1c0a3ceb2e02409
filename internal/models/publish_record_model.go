package models

import "time"

// PublishRecord is one per-platform publish attempt. A post targeting both
// platforms writes one record per platform, which is how partial success on
// combined posts stays visible after the overall status collapses to a single
// value.
type PublishRecord struct {
	ID             int64     `db:"id" json:"id"`
	PostID         string    `db:"post_id" json:"post_id"`
	ClientID       string    `db:"client_id" json:"client_id"`
	Platform       string    `db:"platform" json:"platform"`
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id"`
	ErrorMessage   string    `db:"error_message" json:"error_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
