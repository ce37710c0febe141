package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
	"github.com/johnquangdev/networking/internal/infrastructure/metrics"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
	"github.com/johnquangdev/networking/pkg/config"
	"github.com/johnquangdev/networking/pkg/jobcontext"
	"github.com/johnquangdev/networking/pkg/llm"
)

// Service defines interaction analysis methods
type Service interface {
	Enqueue(ctx context.Context, interactionID uuid.UUID) (*entities.AnalysisJob, error)
	Analyze(ctx context.Context, interactionID uuid.UUID) (archiveKey string, err error)
	ProcessJob(ctx context.Context, jobID uuid.UUID, workerID int) error
	StartWorkerPool(ctx context.Context, workerCount int) error
	StopWorkerPool() error
}

// Queue hands analysis job ids to the workers
type Queue interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
	Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error)
}

// Archiver stores raw LLM replies
type Archiver interface {
	Put(ctx context.Context, objectName string, content []byte, contentType string) error
}

type analysisService struct {
	interactionRepo repositories.InteractionRepository
	analysisRepo    repositories.AnalysisRepository
	jobRepo         repositories.AnalysisJobRepository
	queue           Queue
	completer       llm.Completer
	archive         Archiver
	cfg             config.AnalysisConfig
	logger          *zap.Logger
	jobOpts         []jobcontext.Option

	workerCancel        context.CancelFunc
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewAnalysisService constructs the analysis service. queue, completer and
// archive may be nil: without a queue nothing can be enqueued, without a
// completer every analysis fails and without an archive raw replies are dropped.
func NewAnalysisService(
	interactionRepo repositories.InteractionRepository,
	analysisRepo repositories.AnalysisRepository,
	jobRepo repositories.AnalysisJobRepository,
	queue Queue,
	completer llm.Completer,
	archive Archiver,
	cfg config.AnalysisConfig,
	logger *zap.Logger,
) Service {
	return &analysisService{
		interactionRepo: interactionRepo,
		analysisRepo:    analysisRepo,
		jobRepo:         jobRepo,
		queue:           queue,
		completer:       completer,
		archive:         archive,
		cfg:             cfg,
		logger:          logger,
	}
}

// Enqueue creates an analysis job for the interaction and queues it.
// It returns ErrAnalysisExists when the interaction was already analysed.
func (s *analysisService) Enqueue(ctx context.Context, interactionID uuid.UUID) (*entities.AnalysisJob, error) {
	exists, err := s.analysisRepo.ExistsForInteraction(ctx, interactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check analysis: %w", err)
	}
	if exists {
		return nil, ucErrors.ErrAnalysisExists
	}
	if s.queue == nil {
		return nil, ucErrors.ErrAnalysisQueueUnavailable
	}

	job := entities.NewAnalysisJob(interactionID, s.cfg.MaxAttempts)
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create analysis job: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		if markErr := s.jobRepo.MarkFailed(ctx, job.ID, "enqueue failed: "+err.Error()); markErr != nil && s.logger != nil {
			s.logger.Error("failed to mark analysis job failed", zap.String("job_id", job.ID.String()), zap.Error(markErr))
		}
		return nil, fmt.Errorf("%w: %v", ucErrors.ErrAnalysisQueueUnavailable, err)
	}

	metrics.AnalysisJobsEnqueued.Inc()
	if s.logger != nil {
		s.logger.Info("analysis job enqueued",
			zap.String("job_id", job.ID.String()),
			zap.String("interaction_id", interactionID.String()),
		)
	}
	return job, nil
}

// Analyze asks the LLM for insights on an interaction and stores them.
// Failures are returned as *AnalysisError.
func (s *analysisService) Analyze(ctx context.Context, interactionID uuid.UUID) (string, error) {
	exists, err := s.analysisRepo.ExistsForInteraction(ctx, interactionID)
	if err != nil {
		return "", newAnalysisError(err, "Analysis failed: %v", err)
	}
	if exists {
		return "", ucErrors.ErrAnalysisExists
	}

	if s.completer == nil {
		if s.logger != nil {
			s.logger.Error("no anthropic api key configured")
		}
		return "", newAnalysisError(llm.ErrMissingAPIKey, "Missing Anthropic API key")
	}

	interaction, err := s.interactionRepo.Get(ctx, interactionID)
	if err != nil {
		return "", newAnalysisError(err, "Analysis failed: %v", err)
	}

	histories := make([]ContactHistory, 0, len(interaction.Contacts))
	for _, c := range interaction.Contacts {
		recent, err := s.interactionRepo.ListByContact(ctx, c.ID, RecentInteractionsPerContact)
		if err != nil {
			return "", newAnalysisError(err, "Analysis failed: %v", err)
		}
		histories = append(histories, ContactHistory{Contact: c, Recent: recent})
	}

	reply, err := s.completer.Complete(ctx, BuildPrompt(interaction, BuildContext(histories)))
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return "", newAnalysisError(err, "Missing Anthropic API key")
		}
		return "", newAnalysisError(err, "Analysis failed: %v", err)
	}

	archiveKey := s.archiveReply(ctx, interactionID, reply)

	result, err := ParseResponse(reply)
	if err != nil {
		return archiveKey, newAnalysisError(err, "Failed to parse Claude response as JSON: %v", err)
	}

	followUp, err := ParseFollowUpDate(result.SuggestedFollowUpDate, interaction.WasAt)
	if err != nil && s.logger != nil {
		s.logger.Warn("using default follow-up date",
			zap.String("interaction_id", interactionID.String()),
			zap.Error(err),
		)
	}

	analysis := NewAnalysis(interactionID, result, followUp, s.completer.Model())
	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		return archiveKey, newAnalysisError(err, "Analysis failed: %v", err)
	}

	metrics.SentimentCategories.WithLabelValues(string(analysis.Sentiment().Category)).Inc()
	if s.logger != nil {
		s.logger.Info("interaction analysed",
			zap.String("interaction_id", interactionID.String()),
			zap.String("sentiment", string(analysis.Sentiment().Category)),
		)
	}
	return archiveKey, nil
}

// archiveReply stores the raw reply and returns its object name, or "" when
// archiving is disabled or failed.
func (s *analysisService) archiveReply(ctx context.Context, interactionID uuid.UUID, reply string) string {
	if s.archive == nil || !s.cfg.ArchiveRaw {
		return ""
	}
	key := fmt.Sprintf("analyses/%s/%s.txt", interactionID, time.Now().UTC().Format("20060102T150405.000Z"))
	if err := s.archive.Put(ctx, key, []byte(reply), "text/plain; charset=utf-8"); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to archive analysis reply",
				zap.String("interaction_id", interactionID.String()),
				zap.Error(err),
			)
		}
		return ""
	}
	return key
}
