package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/expanders360/vendor-match-backend/internal/scheduler/domain"
)

const (
	runKeyPrefix    = "sched:run:"  // Run data: sched:run:{run_id}
	jobRunSetPrefix = "sched:job:"  // Set of run IDs per job: sched:job:{job_name}
	latestKeyPrefix = "sched:last:" // Latest run ID per job: sched:last:{job_name}
	runTTL          = 7 * 24 * time.Hour
)

// RunRepository tracks scheduled job runs in Redis so operators can see
// when batches last ran and how they fared. Entries expire after a
// week.
type RunRepository struct {
	client *redis.Client
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(client *redis.Client) *RunRepository {
	return &RunRepository{client: client}
}

// Create stores a new run and indexes it for its job.
func (r *RunRepository) Create(ctx context.Context, run *domain.JobRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = domain.RunStatusRunning
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}

	runKey := r.runKey(run.ID)
	jobSetKey := r.jobRunSetKey(run.Job)
	latestKey := r.latestKey(run.Job)

	pipe := r.client.Pipeline()
	pipe.Set(ctx, runKey, data, runTTL)
	pipe.SAdd(ctx, jobSetKey, run.ID)
	pipe.Expire(ctx, jobSetKey, runTTL)
	pipe.Set(ctx, latestKey, run.ID, runTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Update rewrites an existing run's data.
func (r *RunRepository) Update(ctx context.Context, run *domain.JobRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}
	if err := r.client.Set(ctx, r.runKey(run.ID), data, runTTL).Err(); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, runID string) (*domain.JobRun, error) {
	data, err := r.client.Get(ctx, r.runKey(runID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run domain.JobRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run data: %w", err)
	}
	return &run, nil
}

// GetLatest retrieves the most recently started run for a job.
func (r *RunRepository) GetLatest(ctx context.Context, job string) (*domain.JobRun, error) {
	runID, err := r.client.Get(ctx, r.latestKey(job)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run id: %w", err)
	}
	return r.GetByID(ctx, runID)
}

// ListByJob returns all tracked run IDs for a job.
func (r *RunRepository) ListByJob(ctx context.Context, job string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.jobRunSetKey(job)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}

func (r *RunRepository) runKey(runID string) string {
	return runKeyPrefix + runID
}

func (r *RunRepository) jobRunSetKey(job string) string {
	return jobRunSetPrefix + job
}

func (r *RunRepository) latestKey(job string) string {
	return latestKeyPrefix + job
}
