package video

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recipe-planner/internal/clipper"
	"recipe-planner/internal/pagination"
	"recipe-planner/internal/recipe"
)

// Processor turns one job into a stored recipe and returns its id.
type Processor interface {
	Process(ctx context.Context, job Job) (string, error)
}

// Observer receives queue metrics.
type Observer interface {
	QueueDepth(n int)
	JobFinished(status string)
}

type Options struct {
	Workers     int
	QueueSize   int
	JobTimeout  time.Duration
	MaxAttempts int
	// Backoff is the wait before the first retry; it doubles per attempt.
	Backoff time.Duration
}

func (o *Options) setDefaults() {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.QueueSize < 1 {
		o.QueueSize = 1
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 2 * time.Minute
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.Backoff <= 0 {
		o.Backoff = 2 * time.Second
	}
}

// Queue runs video jobs on a fixed set of workers. Jobs are persisted, so
// work interrupted by a shutdown is picked up again by the next Run.
type Queue struct {
	repo     *Repository
	proc     Processor
	opts     Options
	observer Observer
	logger   *zap.Logger

	jobs     chan string
	inflight sync.Map
}

func NewQueue(repo *Repository, proc Processor, opts Options, observer Observer, logger *zap.Logger) *Queue {
	opts.setDefaults()
	return &Queue{
		repo:     repo,
		proc:     proc,
		opts:     opts,
		observer: observer,
		logger:   logger,
		jobs:     make(chan string, opts.QueueSize),
	}
}

// Submit persists a job and enqueues it. A full queue rejects the job with
// ErrQueueFull and nothing is stored.
func (q *Queue) Submit(ctx context.Context, userID, rawURL string) (*Job, error) {
	u, err := clipper.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &Job{UserID: userID, URL: u, Status: StatusQueued, CreatedAt: now, UpdatedAt: now}
	if err := q.repo.Insert(ctx, job); err != nil {
		return nil, err
	}

	q.inflight.Store(job.ID, struct{}{})
	select {
	case q.jobs <- job.ID:
		q.observeDepth()
		q.logger.Info("video job queued", zap.String("id", job.ID), zap.String("user_id", userID))
		return job, nil
	default:
		q.inflight.Delete(job.ID)
		if err := q.repo.Delete(context.WithoutCancel(ctx), job.ID); err != nil {
			q.logger.Warn("failed to remove rejected video job", zap.String("id", job.ID), zap.Error(err))
		}
		return nil, ErrQueueFull
	}
}

func (q *Queue) Get(ctx context.Context, userID, id string) (*Job, error) {
	job, err := q.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrForbidden
	}
	return job, nil
}

func (q *Queue) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[Job], error) {
	return q.repo.List(ctx, userID, page)
}

// Cancel stops a job that has not started processing yet.
func (q *Queue) Cancel(ctx context.Context, userID, id string) (*Job, error) {
	if _, err := q.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	ok, err := q.repo.Transition(ctx, id, StatusCancelled, StatusQueued)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCancellable
	}
	q.finished(StatusCancelled)
	q.logger.Info("video job cancelled", zap.String("id", id))
	return q.repo.Get(ctx, id)
}

// Run requeues unfinished jobs and processes the queue until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		g.Go(func() error {
			q.worker(ctx)
			return nil
		})
	}
	g.Go(func() error {
		return q.requeue(ctx)
	})

	q.logger.Info("video queue started", zap.Int("workers", q.opts.Workers), zap.Int("capacity", q.opts.QueueSize))
	err := g.Wait()
	q.logger.Info("video queue stopped")
	return err
}

func (q *Queue) requeue(ctx context.Context) error {
	pending, err := q.repo.Pending(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	for _, job := range pending {
		if _, busy := q.inflight.LoadOrStore(job.ID, struct{}{}); busy {
			continue
		}
		if job.Status == StatusProcessing {
			if _, err := q.repo.Transition(ctx, job.ID, StatusQueued, StatusProcessing); err != nil {
				q.inflight.Delete(job.ID)
				return err
			}
		}
		select {
		case q.jobs <- job.ID:
			q.observeDepth()
		case <-ctx.Done():
			return nil
		}
	}
	if len(pending) > 0 {
		q.logger.Info("requeued unfinished video jobs", zap.Int("count", len(pending)))
	}
	return nil
}

func (q *Queue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.jobs:
			q.observeDepth()
			q.process(ctx, id)
			q.inflight.Delete(id)
		}
	}
}

func (q *Queue) process(ctx context.Context, id string) {
	log := q.logger.With(zap.String("job_id", id))
	for {
		started, err := q.repo.StartAttempt(ctx, id)
		if err != nil {
			log.Error("failed to start video job", zap.Error(err))
			return
		}
		if !started {
			// Cancelled while waiting.
			return
		}
		job, err := q.repo.Get(ctx, id)
		if err != nil {
			log.Error("failed to load video job", zap.Error(err))
			return
		}

		attemptCtx, cancel := context.WithTimeout(ctx, q.opts.JobTimeout)
		recipeID, perr := q.proc.Process(attemptCtx, *job)
		cancel()

		if perr == nil {
			q.finish(ctx, id, StatusCompleted, recipeID, "")
			log.Info("video job completed", zap.String("recipe_id", recipeID), zap.Int("attempts", job.Attempts))
			return
		}

		if ctx.Err() != nil {
			// Shutting down; the next Run picks the job up again.
			if _, err := q.repo.Transition(context.WithoutCancel(ctx), id, StatusQueued, StatusProcessing); err != nil {
				log.Warn("failed to release video job", zap.Error(err))
			}
			return
		}

		if permanent(perr) || job.Attempts >= q.opts.MaxAttempts {
			q.finish(ctx, id, StatusFailed, "", perr.Error())
			log.Warn("video job failed", zap.Int("attempts", job.Attempts), zap.Error(perr))
			return
		}

		delay := q.opts.Backoff << (job.Attempts - 1)
		log.Info("video job attempt failed, retrying",
			zap.Int("attempt", job.Attempts), zap.Duration("backoff", delay), zap.Error(perr))
		if err := q.repo.SetError(ctx, id, perr.Error()); err != nil {
			log.Warn("failed to store video job error", zap.Error(err))
		}
		if _, err := q.repo.Transition(ctx, id, StatusQueued, StatusProcessing); err != nil {
			log.Error("failed to requeue video job", zap.Error(err))
			return
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (q *Queue) finish(ctx context.Context, id, status, recipeID, errMsg string) {
	if err := q.repo.Finish(context.WithoutCancel(ctx), id, status, recipeID, errMsg); err != nil {
		q.logger.Error("failed to record video job outcome", zap.String("job_id", id), zap.Error(err))
	}
	q.finished(status)
}

func (q *Queue) finished(status string) {
	if q.observer != nil {
		q.observer.JobFinished(status)
	}
}

func (q *Queue) observeDepth() {
	if q.observer != nil {
		q.observer.QueueDepth(len(q.jobs))
	}
}

// permanent errors are not worth retrying.
func permanent(err error) bool {
	return errors.Is(err, clipper.ErrInvalidURL) ||
		errors.Is(err, recipe.ErrNoRecipe) ||
		errors.Is(err, recipe.ErrExtractorUnavailable) ||
		errors.Is(err, recipe.ErrInvalidInput)
}

// Creator stores extracted recipes.
type Creator interface {
	Create(ctx context.Context, userID string, in recipe.Input) (*recipe.Recipe, error)
}

// Importer is the Processor that analyzes the video page and stores the
// recipe for the job's user.
type Importer struct {
	analyzer *Analyzer
	recipes  Creator
}

func NewImporter(analyzer *Analyzer, recipes Creator) *Importer {
	return &Importer{analyzer: analyzer, recipes: recipes}
}

func (i *Importer) Process(ctx context.Context, job Job) (string, error) {
	in, err := i.analyzer.Analyze(ctx, job.URL)
	if err != nil {
		return "", err
	}
	rec, err := i.recipes.Create(ctx, job.UserID, *in)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}
