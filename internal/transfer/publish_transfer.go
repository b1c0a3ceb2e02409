package transfer

// PlatformResult is the outcome of one adapter call for one platform.
type PlatformResult struct {
	Platform       string `json:"platform"`
	PlatformPostID string `json:"platformPostId,omitempty"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// PublishResult is the outcome of one publish attempt for one post.
type PublishResult struct {
	PostID         string           `json:"postId"`
	Success        bool             `json:"success"`
	PlatformPostID string           `json:"platformPostId,omitempty"`
	Error          string           `json:"error,omitempty"`
	Platforms      []PlatformResult `json:"platforms,omitempty"`
}

// SweepSummary aggregates one sweeper pass over all due posts.
type SweepSummary struct {
	Processed int             `json:"processed"`
	Success   int             `json:"success"`
	Failed    int             `json:"failed"`
	Results   []PublishResult `json:"results"`
}

type PublishRequest struct {
	PostID string `json:"postId"`
}

type PostCreation struct {
	ClientID      string   `json:"clientId"`
	Platform      string   `json:"platform"`
	PostType      string   `json:"postType"`
	MediaURLs     []string `json:"mediaUrls"`
	Caption       string   `json:"caption"`
	Hashtags      []string `json:"hashtags"`
	ScheduledAt   string   `json:"scheduledAt"`
	ContentItemID string   `json:"contentItemId"`
}

type PostReschedule struct {
	PostID      string `json:"postId"`
	ScheduledAt string `json:"scheduledAt"`
}
