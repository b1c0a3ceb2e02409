package queue

import (
	"github.com/agencyhub/postbridge/internal/service"
)

// Queue holds the worker-side dependencies for scheduled publish tasks.
type Queue struct {
	publisher service.PublisherService
}

func NewQueue(publisher service.PublisherService) *Queue {
	return &Queue{publisher: publisher}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}
