package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

// AnalysisRepository implements the analysis repository interface using GORM
type AnalysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create stores an analysis
func (r *AnalysisRepository) Create(ctx context.Context, analysis *entities.InteractionAnalysis) error {
	if analysis == nil {
		return errors.New("analysis cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// FindByInteractionID finds the analysis of an interaction
func (r *AnalysisRepository) FindByInteractionID(ctx context.Context, interactionID uuid.UUID) (*entities.InteractionAnalysis, error) {
	var analysis entities.InteractionAnalysis
	if err := r.db.WithContext(ctx).
		Where("interaction_id = ?", interactionID).
		First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// ExistsForInteraction reports whether an interaction was already analysed
func (r *AnalysisRepository) ExistsForInteraction(ctx context.Context, interactionID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.InteractionAnalysis{}).
		Where("interaction_id = ?", interactionID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check analysis: %w", err)
	}
	return count > 0, nil
}

// AnalysisJobRepository implements the analysis job repository interface using GORM
type AnalysisJobRepository struct {
	db *gorm.DB
}

// NewAnalysisJobRepository creates a new analysis job repository
func NewAnalysisJobRepository(db *gorm.DB) *AnalysisJobRepository {
	return &AnalysisJobRepository{db: db}
}

// Create creates a job
func (r *AnalysisJobRepository) Create(ctx context.Context, job *entities.AnalysisJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create analysis job: %w", err)
	}
	return nil
}

// FindByID finds a job
func (r *AnalysisJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.AnalysisJob, error) {
	var job entities.AnalysisJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAnalysisJobNotFound
		}
		return nil, fmt.Errorf("failed to find analysis job: %w", err)
	}
	return &job, nil
}

// FindLatestByInteraction finds the newest job of an interaction
func (r *AnalysisJobRepository) FindLatestByInteraction(ctx context.Context, interactionID uuid.UUID) (*entities.AnalysisJob, error) {
	var job entities.AnalysisJob
	if err := r.db.WithContext(ctx).
		Where("interaction_id = ?", interactionID).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAnalysisJobNotFound
		}
		return nil, fmt.Errorf("failed to find analysis job: %w", err)
	}
	return &job, nil
}

// Claim moves a pending or retryable job to processing. It returns false
// when another worker already claimed it.
func (r *AnalysisJobRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&entities.AnalysisJob{}).
		Where("id = ? AND (status = ? OR (status = ? AND attempts < max_attempts))",
			id, entities.AnalysisJobStatusPending, entities.AnalysisJobStatusFailed).
		Updates(map[string]interface{}{
			"status":     entities.AnalysisJobStatusProcessing,
			"attempts":   gorm.Expr("attempts + 1"),
			"started_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim analysis job: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkCompleted marks a job completed, recording where the raw response was archived
func (r *AnalysisJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, archiveKey string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       entities.AnalysisJobStatusCompleted,
		"completed_at": now,
		"updated_at":   now,
		"last_error":   nil,
	}
	if archiveKey != "" {
		updates["archive_key"] = archiveKey
	}
	return r.update(ctx, id, updates, "mark analysis job completed")
}

// MarkSkipped marks a job whose interaction already had an analysis
func (r *AnalysisJobRepository) MarkSkipped(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.update(ctx, id, map[string]interface{}{
		"status":       entities.AnalysisJobStatusSkipped,
		"completed_at": now,
		"updated_at":   now,
	}, "mark analysis job skipped")
}

// MarkFailed records a failed attempt
func (r *AnalysisJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":     entities.AnalysisJobStatusFailed,
		"last_error": errMsg,
		"updated_at": time.Now(),
	}, "mark analysis job failed")
}

// ListStale lists pending or processing jobs not updated since before
func (r *AnalysisJobRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]*entities.AnalysisJob, error) {
	if limit == 0 {
		limit = 100
	}
	var jobs []*entities.AnalysisJob
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]entities.AnalysisJobStatus{entities.AnalysisJobStatusPending, entities.AnalysisJobStatusProcessing}, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale analysis jobs: %w", err)
	}
	return jobs, nil
}

// Touch sets updated_at of a job to now
func (r *AnalysisJobRepository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{"updated_at": time.Now()}, "touch analysis job")
}

func (r *AnalysisJobRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}, what string) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.AnalysisJob{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}
