package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/infrastructure/metrics"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
	"github.com/johnquangdev/networking/pkg/jobcontext"
)

const (
	jobTypeAnalysis = "interaction_analysis"

	staleJobAge      = 10 * time.Minute
	staleJobInterval = 5 * time.Minute
	dequeueErrorWait = time.Second
)

// StartWorkerPool starts workerCount goroutines consuming the queue and a
// sweeper that re-queues jobs whose worker disappeared.
func (s *analysisService) StartWorkerPool(ctx context.Context, workerCount int) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}
	if s.queue == nil {
		return ucErrors.ErrAnalysisQueueUnavailable
	}

	poolCtx, cancel := context.WithCancel(ctx)
	s.workerCancel = cancel
	s.isWorkerPoolRunning = true

	if s.logger != nil {
		s.logger.Info("starting analysis worker pool", zap.Int("worker_count", workerCount))
	}

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(ctx, poolCtx, i)
	}

	s.workerWg.Add(1)
	go s.requeueStaleJobs(poolCtx)

	return nil
}

// StopWorkerPool stops taking new jobs and waits for running ones to finish
func (s *analysisService) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("stopping analysis worker pool")
	}

	s.workerCancel()
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("analysis worker pool stopped")
	}
	return nil
}

// worker pops job ids until poolCtx ends. Jobs run on ctx so that stopping
// the pool lets an in-flight job finish.
func (s *analysisService) worker(ctx, poolCtx context.Context, workerID int) {
	defer s.workerWg.Done()

	if s.logger != nil {
		s.logger.Info("analysis worker started", zap.Int("worker_id", workerID))
	}

	for {
		if poolCtx.Err() != nil {
			if s.logger != nil {
				s.logger.Info("analysis worker stopping", zap.Int("worker_id", workerID))
			}
			return
		}

		jobID, ok, err := s.queue.Dequeue(poolCtx, s.cfg.PollTimeout)
		if err != nil {
			if poolCtx.Err() != nil {
				continue
			}
			if s.logger != nil {
				s.logger.Error("failed to dequeue analysis job", zap.Int("worker_id", workerID), zap.Error(err))
			}
			select {
			case <-poolCtx.Done():
			case <-time.After(dequeueErrorWait):
			}
			continue
		}
		if !ok {
			continue
		}

		if err := s.ProcessJob(ctx, jobID, workerID); err != nil && s.logger != nil {
			s.logger.Error("analysis job failed",
				zap.Int("worker_id", workerID),
				zap.String("job_id", jobID.String()),
				zap.Error(err),
			)
		}
	}
}

// ProcessJob claims and runs one analysis job. A job already claimed by
// another worker is ignored.
func (s *analysisService) ProcessJob(ctx context.Context, jobID uuid.UUID, workerID int) error {
	claimed, err := s.jobRepo.Claim(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		if s.logger != nil {
			s.logger.Info("analysis job already claimed", zap.String("job_id", jobID.String()))
		}
		return nil
	}

	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	metrics.AnalysisWorkersActive.Inc()
	defer metrics.AnalysisWorkersActive.Dec()
	start := time.Now()

	opts := append([]jobcontext.Option{jobcontext.WithTimeout(s.cfg.JobTimeout)}, s.jobOpts...)
	jobCtx, cancel := jobcontext.JobBegin(ctx, job.ID, jobTypeAnalysis, workerID, opts...)
	defer cancel()

	var archiveKey string
	err = jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		key, err := s.Analyze(ctx, job.InteractionID)
		if key != "" {
			archiveKey = key
		}
		return err
	})

	switch {
	case errors.Is(err, ucErrors.ErrAnalysisExists):
		s.finish(start, entities.AnalysisJobStatusSkipped)
		return s.jobRepo.MarkSkipped(ctx, job.ID)

	case err != nil:
		s.finish(start, entities.AnalysisJobStatusFailed)
		if markErr := s.jobRepo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			return fmt.Errorf("%w (and %v)", err, markErr)
		}
		if jobcontext.IsRetryableError(err) && job.Attempts < job.MaxAttempts {
			if qErr := s.queue.Enqueue(ctx, job.ID); qErr != nil && s.logger != nil {
				s.logger.Error("failed to re-queue analysis job", zap.String("job_id", job.ID.String()), zap.Error(qErr))
			}
		}
		return err

	default:
		s.finish(start, entities.AnalysisJobStatusCompleted)
		if s.logger != nil {
			s.logger.Info("analysis job completed",
				zap.String("job_id", job.ID.String()),
				zap.String("interaction_id", job.InteractionID.String()),
			)
		}
		return s.jobRepo.MarkCompleted(ctx, job.ID, archiveKey)
	}
}

func (s *analysisService) finish(start time.Time, status entities.AnalysisJobStatus) {
	metrics.AnalysisJobsFinished.WithLabelValues(string(status)).Inc()
	metrics.AnalysisDuration.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())
}

// requeueStaleJobs periodically puts back jobs that sat pending or
// processing for too long. Lost processing jobs count as a failed attempt.
// A re-queued job is touched, so a pending job still waiting in the queue
// is pushed again at most once per staleJobAge.
func (s *analysisService) requeueStaleJobs(ctx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(staleJobInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepStaleJobs(ctx, time.Now().Add(-staleJobAge))
		}
	}
}

func (s *analysisService) sweepStaleJobs(ctx context.Context, before time.Time) {
	jobs, err := s.jobRepo.ListStale(ctx, before, 0)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to list stale analysis jobs", zap.Error(err))
		}
		return
	}

	for _, job := range jobs {
		if job.Status == entities.AnalysisJobStatusProcessing {
			if err := s.jobRepo.MarkFailed(ctx, job.ID, "worker lost"); err != nil {
				continue
			}
			if job.Attempts >= job.MaxAttempts {
				continue
			}
		}
		if s.logger != nil {
			s.logger.Warn("re-queueing stale analysis job",
				zap.String("job_id", job.ID.String()),
				zap.String("status", string(job.Status)),
			)
		}
		if err := s.queue.Enqueue(ctx, job.ID); err != nil {
			if s.logger != nil {
				s.logger.Error("failed to re-queue analysis job", zap.String("job_id", job.ID.String()), zap.Error(err))
			}
			continue
		}
		if err := s.jobRepo.Touch(ctx, job.ID); err != nil && s.logger != nil {
			s.logger.Error("failed to touch analysis job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	}
}
