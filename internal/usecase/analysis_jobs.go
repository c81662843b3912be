package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketWhisperer/internal/domain/models"
	domrepo "MarketWhisperer/internal/domain/repository"
	"MarketWhisperer/pkg/logger"
	"MarketWhisperer/pkg/queue"

	"github.com/google/uuid"
)

// AnalyzeMessageType is the queue message type carrying an AnalyzePayload.
const AnalyzeMessageType = "analyze"

// Runner is what a job executes; *Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, instruments []models.Instrument) ([]models.Whisper, error)
}

// Enqueuer is the producing side of a queue.Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// JobManager accepts analysis submissions and answers status polls.
type JobManager struct {
	store domrepo.JobStore
	queue Enqueuer
	log   *logger.Logger
	now   func() time.Time
}

func NewJobManager(store domrepo.JobStore, q Enqueuer, log *logger.Logger) *JobManager {
	return &JobManager{store: store, queue: q, log: log, now: time.Now}
}

// Submit records a PENDING job and enqueues it. The instrument slice is copied.
func (m *JobManager) Submit(ctx context.Context, instruments []models.Instrument) (string, error) {
	now := m.now().UTC()
	job := &models.AnalysisJob{
		ID:        uuid.NewString(),
		State:     models.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, job); err != nil {
		return "", fmt.Errorf("save job: %w", err)
	}

	payload := models.AnalyzePayload{
		JobID:       job.ID,
		Instruments: append([]models.Instrument(nil), instruments...),
	}
	if err := m.queue.Enqueue(ctx, AnalyzeMessageType, payload); err != nil {
		job.State = models.JobFailure
		job.Error = "failed to enqueue analysis"
		job.UpdatedAt = m.now().UTC()
		if serr := m.store.Save(context.WithoutCancel(ctx), job); serr != nil {
			m.log.Warn("failed to mark job failed", logger.String("job_id", job.ID), logger.Error(serr))
		}
		return "", fmt.Errorf("enqueue job: %w", err)
	}

	m.log.Info("analysis submitted",
		logger.String("job_id", job.ID),
		logger.Int("instruments", len(instruments)))
	return job.ID, nil
}

// Poll returns the current snapshot. Unknown or expired ids read as PENDING.
func (m *JobManager) Poll(ctx context.Context, id string) (*models.AnalysisJob, error) {
	job, err := m.store.Get(ctx, id)
	if errors.Is(err, models.ErrJobNotFound) {
		return &models.AnalysisJob{ID: id, State: models.JobPending}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	return job, nil
}

// AnalyzeJob is the queue handler that executes one analysis run.
type AnalyzeJob struct {
	runner     Runner
	store      domrepo.JobStore
	publisher  domrepo.WhisperPublisher
	metrics    domrepo.Metrics
	runTimeout time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// NewAnalyzeJob builds the handler. publisher may be nil.
func NewAnalyzeJob(runner Runner, store domrepo.JobStore, publisher domrepo.WhisperPublisher, metrics domrepo.Metrics, runTimeout time.Duration, log *logger.Logger) *AnalyzeJob {
	return &AnalyzeJob{
		runner:     runner,
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		runTimeout: runTimeout,
		log:        log,
		now:        time.Now,
	}
}

func (j *AnalyzeJob) Name() string { return "analysis_job" }

func (j *AnalyzeJob) Type() string { return AnalyzeMessageType }

func (j *AnalyzeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[models.AnalyzePayload](payload)
	if err != nil {
		return err
	}
	if p.JobID == "" {
		return fmt.Errorf("analyze payload without job id")
	}

	// state writes must land even when the run itself was cancelled
	storeCtx := context.WithoutCancel(ctx)

	job, err := j.store.Get(storeCtx, p.JobID)
	switch {
	case errors.Is(err, models.ErrJobNotFound):
		now := j.now().UTC()
		job = &models.AnalysisJob{ID: p.JobID, CreatedAt: now}
	case err != nil:
		return fmt.Errorf("load job %s: %w", p.JobID, err)
	case job.State.Terminal():
		j.log.Info("skipping finished job", logger.String("job_id", job.ID), logger.String("state", string(job.State)))
		return nil
	}

	job.State = models.JobRunning
	job.UpdatedAt = j.now().UTC()
	if err := j.store.Save(storeCtx, job); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	j.metrics.RecordJob(models.JobRunning)

	whispers, runErr := j.run(ctx, p.Instruments)

	job.UpdatedAt = j.now().UTC()
	if runErr != nil {
		job.State = models.JobFailure
		job.Error = runErr.Error()
		job.Result = nil
	} else {
		job.State = models.JobSuccess
		job.Result = whispers
	}
	if err := j.store.Save(storeCtx, job); err != nil {
		return fmt.Errorf("save job result: %w", err)
	}
	j.metrics.RecordJob(job.State)

	if runErr != nil {
		j.log.Warn("analysis job failed", logger.String("job_id", job.ID), logger.Error(runErr))
		return nil
	}

	j.log.Info("analysis job finished",
		logger.String("job_id", job.ID),
		logger.Int("whispers", len(whispers)))

	if j.publisher != nil && len(whispers) > 0 {
		if err := j.publisher.PublishWhispers(storeCtx, job.ID, whispers); err != nil {
			j.metrics.RecordError("publish")
			j.log.Warn("whisper publish failed", logger.String("job_id", job.ID), logger.Error(err))
		}
	}
	return nil
}

func (j *AnalyzeJob) run(ctx context.Context, instruments []models.Instrument) (whispers []models.Whisper, err error) {
	if j.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.runTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			j.metrics.RecordError("job_panic")
			whispers, err = nil, fmt.Errorf("analysis panicked: %v", r)
		}
	}()

	whispers, err = j.runner.Run(ctx, instruments)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("analysis timed out after %s", j.runTimeout)
	case errors.Is(err, context.Canceled):
		return nil, errors.New("analysis cancelled")
	case err != nil:
		return nil, err
	}
	if whispers == nil {
		whispers = []models.Whisper{}
	}
	return whispers, nil
}
