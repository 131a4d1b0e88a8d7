package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/rajasatyajit/TravelAdvisor/config"
	"github.com/rajasatyajit/TravelAdvisor/internal/cache"
	"github.com/rajasatyajit/TravelAdvisor/internal/cleaner"
	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
	"github.com/rajasatyajit/TravelAdvisor/internal/metrics"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// Source defines a pluggable advisory source implementation
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawAdvisory, error)
	Interval() time.Duration
}

// Store interface for advisory storage
type Store interface {
	UpsertAdvisories(ctx context.Context, advisories []models.CleanedAdvisory) error
}

// Pipeline coordinates concurrent fetching, cleaning, deduplication, and
// storing of advisories.
type Pipeline struct {
	store   Store
	cleaner *cleaner.Cleaner
	cache   *cache.InsightCache
	limiter *rate.Limiter
	sources []Source
	cfg     config.PipelineConfig
	sem     *semaphore.Weighted
	mu      sync.RWMutex
	running bool
}

// New creates a new pipeline instance
func New(store Store, cl *cleaner.Cleaner, insightCache *cache.InsightCache, sources []Source, cfg config.PipelineConfig) *Pipeline {
	p := &Pipeline{
		store:   store,
		cleaner: cl,
		cache:   insightCache,
		cfg:     cfg,
		sources: sources,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)),
		sem:     semaphore.NewWeighted(int64(cfg.WorkerCount)),
	}

	logger.Info("Pipeline initialized",
		"sources", len(p.sources),
		"rate_limit", cfg.RateLimit,
		"workers", cfg.WorkerCount,
	)

	return p
}

// Run starts the per-source pollers and runs until context is cancelled
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pipeline already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	logger.Info("Starting pipeline")

	var wg sync.WaitGroup
	errChan := make(chan error, len(p.sources))

	for _, src := range p.sources {
		src := src
		wg.Add(1)

		go func() {
			defer wg.Done()

			if err := p.runSourcePoller(ctx, src); err != nil {
				select {
				case errChan <- fmt.Errorf("source %s: %w", src.Name(), err):
				case <-ctx.Done():
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(errChan)
	}()

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
		logger.Error("Pipeline source error", "error", err)
	}

	if n := nonCancelErrors(errs); n > 0 {
		return fmt.Errorf("pipeline completed with %d errors", n)
	}

	logger.Info("Pipeline stopped")
	return nil
}

// RunOnce triggers a single run over every source in the background and
// returns the run ID immediately. Used by the admin API.
func (p *Pipeline) RunOnce(ctx context.Context) (string, error) {
	runID := uuid.NewString()

	logger.Info("Manual pipeline run requested", "run_id", runID)

	go func() {
		// detached from the request context so the run survives the response
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		for _, src := range p.sources {
			if err := p.runOnce(runCtx, src); err != nil {
				logger.Error("Manual source run failed", "run_id", runID, "source", src.Name(), "error", err)
			}
		}
		logger.Info("Manual pipeline run finished", "run_id", runID)
	}()

	return runID, nil
}

// runSourcePoller runs a single source poller
func (p *Pipeline) runSourcePoller(ctx context.Context, src Source) error {
	logger.Info("Starting source poller", "source", src.Name())

	interval := src.Interval()
	if interval <= 0 {
		interval = p.cfg.PollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial immediate run
	if err := p.runOnce(ctx, src); err != nil {
		logger.Error("Initial source run failed", "source", src.Name(), "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Source poller stopping", "source", src.Name())
			return ctx.Err()
		case <-ticker.C:
			if err := p.runOnce(ctx, src); err != nil {
				logger.Error("Source run failed", "source", src.Name(), "error", err)

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.cfg.RetryDelay):
				}
			}
		}
	}
}

// runOnce executes a single pipeline run for a source
func (p *Pipeline) runOnce(ctx context.Context, src Source) error {
	start := time.Now()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire semaphore: %w", err)
	}
	defer p.sem.Release(1)

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	defer func() {
		duration := time.Since(start)
		metrics.RecordPipelineRun(src.Name(), duration)
		logger.Debug("Pipeline run completed",
			"source", src.Name(),
			"duration_ms", duration.Milliseconds(),
		)
	}()

	// Fetch advisories with retry logic
	var raws []models.RawAdvisory
	var err error

	for attempt := 0; attempt <= p.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * p.cfg.RetryDelay
			logger.Debug("Retrying fetch", "source", src.Name(), "attempt", attempt, "delay", delay)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		raws, err = src.Fetch(ctx)
		if err == nil {
			break
		}

		logger.Warn("Fetch attempt failed",
			"source", src.Name(),
			"attempt", attempt+1,
			"error", err,
		)
	}

	if err != nil {
		metrics.RecordAdvisoryProcessed(src.Name(), "fetch_error")
		return fmt.Errorf("%s fetch failed after %d attempts: %w", src.Name(), p.cfg.RetryAttempts+1, err)
	}

	if len(raws) == 0 {
		logger.Debug("No advisories fetched", "source", src.Name())
		return nil
	}

	logger.Debug("Processing advisories", "source", src.Name(), "count", len(raws))

	batchSize := p.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(raws)
	}

	stored := 0
	for i := 0; i < len(raws); i += batchSize {
		end := i + batchSize
		if end > len(raws) {
			end = len(raws)
		}

		n, err := p.processBatch(ctx, src.Name(), raws[i:end])
		if err != nil {
			logger.Error("Batch processing failed",
				"source", src.Name(),
				"batch_start", i,
				"error", err,
			)
			metrics.RecordAdvisoryProcessed(src.Name(), "process_error")
			return err
		}
		stored += n
	}

	if stored > 0 {
		p.cache.Invalidate(ctx)
	}

	metrics.RecordAdvisoryProcessed(src.Name(), "success")
	logger.Info("Successfully processed advisories",
		"source", src.Name(),
		"fetched", len(raws),
		"stored", stored,
	)

	return nil
}

// processBatch cleans, deduplicates, and stores a batch of raw advisories,
// returning how many records were stored.
func (p *Pipeline) processBatch(ctx context.Context, sourceName string, raws []models.RawAdvisory) (int, error) {
	now := time.Now().UTC()
	for i := range raws {
		if raws[i].Source == "" {
			raws[i].Source = sourceName
		}
		if raws[i].ScrapedAt.IsZero() {
			raws[i].ScrapedAt = now
		}
	}

	cleaned, skipped := p.cleaner.CleanBatch(raws)
	for _, skip := range skipped {
		metrics.RecordAdvisoryProcessed(sourceName, "skipped")
		logger.Warn("Record skipped", "source", sourceName, "reason", skip.Error())
	}

	deduped := cleaner.Deduplicate(cleaned)
	if len(deduped) == 0 {
		return 0, nil
	}

	if err := p.store.UpsertAdvisories(ctx, deduped); err != nil {
		return 0, fmt.Errorf("store advisories: %w", err)
	}
	return len(deduped), nil
}

// IsRunning returns whether the pipeline poller loop is active
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// nonCancelErrors counts errors other than plain shutdown cancellation.
func nonCancelErrors(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			n++
		}
	}
	return n
}
