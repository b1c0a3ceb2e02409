package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/agencyhub/postbridge/internal/service"
	"github.com/hibiken/asynq"
)

// HandlePublishPostTask runs one scheduled publish. Business outcomes are
// recorded on the post itself, so the handler returns nil for them; asynq
// must not retry a post the pipeline already marked failed.
func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := j.publisher.Publish(ctx, payload.PostID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) || errors.Is(err, service.ErrPostNotPublishable) {
			// Deleted, rescheduled, or already claimed by a sweep.
			log.Printf("Skipping publish task for post %s: %v", payload.PostID, err)
			return nil
		}
		return err
	}

	if !result.Success {
		log.Printf("Publish task for post %s failed: %s", payload.PostID, result.Error)
	}
	return nil
}
