package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"docflow/internal/domain"
	"docflow/internal/port"
)

// IngestQueueConfig holds settings for the ingest queue worker.
type IngestQueueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	JobTimeout   time.Duration
}

// IngestQueueWorker polls for pending jobs and dispatches each as an
// independent ingestion attempt. Attempts share no in-process state; the
// store is the only shared resource.
type IngestQueueWorker struct {
	jobRepo port.JobRepository
	ingest  IngestService
	cfg     IngestQueueConfig
	wg      sync.WaitGroup
}

// NewIngestQueueWorker creates a new IngestQueueWorker.
func NewIngestQueueWorker(jobRepo port.JobRepository, ingest IngestService, cfg IngestQueueConfig) *IngestQueueWorker {
	return &IngestQueueWorker{
		jobRepo: jobRepo,
		ingest:  ingest,
		cfg:     cfg,
	}
}

// failTimedOut records a failed attempt for a job whose time box expired,
// so the processing row does not sit unreachable forever.
func (w *IngestQueueWorker) failTimedOut(job *domain.DocumentJob) {
	msg := fmt.Sprintf("attempt timed out after %s", w.cfg.JobTimeout)
	log.Printf("ingestQueueWorker: job %s: %s", job.ID, msg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.jobRepo.UpdateStatus(ctx, job.TenantID, job.ID, domain.JobStatusFailed, msg, nil); err != nil {
		log.Printf("ingestQueueWorker: failed to record timeout for job %s: %v", job.ID, err)
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight attempts have finished.
func (w *IngestQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("ingestQueueWorker: started (poll=%s, concurrency=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("ingestQueueWorker: shutting down, waiting for in-flight attempts...")
			w.wg.Wait()
			log.Printf("ingestQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobRepo.ClaimPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll; exit on the next select
					continue
				}
				log.Printf("ingestQueueWorker: ClaimPending error: %v", err)
				continue
			}

			for i := range jobs {
				job := jobs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Fresh context independent of the poll context so
					// in-flight attempts complete even during shutdown. The
					// timeout time-boxes the attempt at the boundary.
					attemptCtx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
					defer cancel()

					log.Printf("ingestQueueWorker: dispatching job %s", job.ID)
					err := w.ingest.ProcessJob(attemptCtx, &job)
					if err == nil {
						return
					}

					// ProcessJob leaves the row untouched on cancellation,
					// and ClaimPending only picks pending rows. The worker
					// owns the attempt context here, so an expired time box
					// is its failure to record; anything else is logged and
					// abandoned to the operator.
					if attemptCtx.Err() != nil {
						w.failTimedOut(&job)
						return
					}
					log.Printf("ingestQueueWorker: job %s attempt aborted: %v", job.ID, err)
				}()
			}
		}
	}
}
