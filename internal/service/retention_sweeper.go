package service

import (
	"context"
	"log"
	"time"

	"docflow/internal/port"
)

// RetentionSweeper periodically soft-marks jobs whose retention window has
// passed and releases their stored files. Job rows are marked, never
// removed; only the object behind the storage handle is deleted.
type RetentionSweeper struct {
	jobRepo  port.JobRepository
	storage  port.ObjectStorage
	interval time.Duration
}

// NewRetentionSweeper creates a new RetentionSweeper.
func NewRetentionSweeper(jobRepo port.JobRepository, storage port.ObjectStorage, interval time.Duration) *RetentionSweeper {
	return &RetentionSweeper{jobRepo: jobRepo, storage: storage, interval: interval}
}

// Start runs the sweep loop until ctx is canceled.
func (s *RetentionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("retentionSweeper: started (interval=%s)", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("retentionSweeper: shutdown complete")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionSweeper) sweep(ctx context.Context) {
	expired, err := s.jobRepo.SoftDeleteExpired(ctx, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("retentionSweeper: sweep error: %v", err)
		}
		return
	}
	if len(expired) == 0 {
		return
	}

	log.Printf("retentionSweeper: marked %d expired jobs", len(expired))

	// The job row is already marked; a failed object delete is logged, not
	// retried, so the file lingers until an operator cleans up.
	for _, job := range expired {
		if job.StorageBucket == "" || job.StorageKey == "" {
			continue
		}
		if err := s.storage.Delete(ctx, job.StorageBucket, job.StorageKey); err != nil {
			log.Printf("retentionSweeper: failed to delete object %s/%s for job %s: %v",
				job.StorageBucket, job.StorageKey, job.ID, err)
		}
	}
}
