package job

import (
	"context"
	"log/slog"

	"github.com/agencyhub/postbridge/internal/service"
)

type SweepJob struct {
	publisher service.PublisherService
}

func NewSweepJob(publisher service.PublisherService) *SweepJob {
	return &SweepJob{publisher: publisher}
}

// Run executes one sweep over all due posts.
func (j *SweepJob) Run() {
	ctx := context.Background()

	summary, err := j.publisher.SweepDue(ctx)
	if err != nil {
		slog.Info("sweep failed", "error", err.Error())
		return
	}

	if summary.Processed > 0 {
		slog.Info("sweep complete",
			"processed", summary.Processed,
			"success", summary.Success,
			"failed", summary.Failed)
	}
}
