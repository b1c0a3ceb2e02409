package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type ScheduledPost struct {
	ID              string         `db:"id" json:"id"`
	ClientID        string         `db:"client_id" json:"client_id"`
	Platform        string         `db:"platform" json:"platform"`
	PostType        string         `db:"post_type" json:"post_type"`
	MediaURLs       pq.StringArray `db:"media_urls" json:"media_urls"`
	Caption         string         `db:"caption" json:"caption"`
	Hashtags        pq.StringArray `db:"hashtags" json:"hashtags"`
	ScheduledAt     time.Time      `db:"scheduled_at" json:"scheduled_at"`
	Status          string         `db:"status" json:"status"` // scheduled, publishing, published, failed
	PublishedAt     sql.NullTime   `db:"published_at" json:"published_at"`
	InstagramPostID sql.NullString `db:"instagram_post_id" json:"instagram_post_id"`
	FacebookPostID  sql.NullString `db:"facebook_post_id" json:"facebook_post_id"`
	ErrorMessage    sql.NullString `db:"error_message" json:"error_message"`
	ContentItemID   sql.NullString `db:"content_item_id" json:"content_item_id"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        string    `db:"id" json:"id"`
	ClientID  string    `db:"client_id" json:"client_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformBoth      = "both"
)

const (
	PostTypeImage    = "image"
	PostTypeVideo    = "video"
	PostTypeCarousel = "carousel"
	PostTypeReel     = "reel"
	PostTypeStory    = "story"
)

// TargetPlatforms expands the post's platform value into the concrete
// platforms a publish attempt has to reach.
func (p *ScheduledPost) TargetPlatforms() []string {
	if p.Platform == PlatformBoth {
		return []string{PlatformInstagram, PlatformFacebook}
	}
	return []string{p.Platform}
}

// RequiresMedia reports whether the post type cannot be published without at
// least one media URL.
func RequiresMedia(postType string) bool {
	switch postType {
	case PostTypeImage, PostTypeVideo, PostTypeCarousel, PostTypeReel:
		return true
	}
	return false
}

func ValidPlatform(platform string) bool {
	switch platform {
	case PlatformInstagram, PlatformFacebook, PlatformBoth:
		return true
	}
	return false
}

func ValidPostType(postType string) bool {
	switch postType {
	case PostTypeImage, PostTypeVideo, PostTypeCarousel, PostTypeReel, PostTypeStory:
		return true
	}
	return false
}
