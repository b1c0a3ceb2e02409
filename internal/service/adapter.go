package service

import (
	"context"

	"github.com/agencyhub/postbridge/internal/models"
)

// PublishContent is the assembled outgoing post handed to an adapter: the
// final caption (hashtags already appended) plus media and type.
type PublishContent struct {
	Caption   string
	MediaURLs []string
	PostType  string
}

// PublishAdapter performs one platform's publish call sequence and returns
// the platform-assigned post id. Adapters make a single attempt per call and
// never retry; any platform error payload surfaces as *PlatformAPIError.
type PublishAdapter interface {
	Publish(ctx context.Context, conn *models.PlatformConnection, accessToken string, content PublishContent) (string, error)
}
