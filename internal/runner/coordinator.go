package runner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ranktest-cli/internal/model"
	"github.com/sells-group/ranktest-cli/internal/store"
)

// CoordinatorConfig controls the parallel run.
type CoordinatorConfig struct {
	// Workers is the number of parallel browser sessions.
	Workers int

	// Deadline bounds the whole run. Zero means no deadline. The deadline
	// is checked between items; an item already being processed is allowed
	// to finish.
	Deadline time.Duration
}

// WorkerFactory builds one worker per batch. Each call must return a
// worker with its own browser session.
type WorkerFactory func(id int) (*Worker, error)

// RunSummary reports what a run accomplished.
type RunSummary struct {
	// Total is the number of items submitted, before backlog filtering.
	Total int

	// Backlog is how many of those still needed processing.
	Backlog int

	// Processed counts result files written this run, degraded ones
	// included.
	Processed int

	// Failed counts items whose capture was exhausted. They stay in the
	// backlog for the next run.
	Failed int

	FailedIndices []int
	Results       []model.ResultRecord
}

// Coordinator partitions the backlog over parallel workers and collects
// their results.
type Coordinator struct {
	cfg       CoordinatorConfig
	results   *store.FileStore
	newWorker WorkerFactory
}

// NewCoordinator assembles a coordinator.
func NewCoordinator(cfg CoordinatorConfig, results *store.FileStore, newWorker WorkerFactory) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Coordinator{cfg: cfg, results: results, newWorker: newWorker}
}

// Run filters already-processed items out, splits the remainder into
// contiguous batches and processes them in parallel. Individual item and
// batch failures never abort the run; whatever completed is reported.
func (c *Coordinator) Run(ctx context.Context, items []model.WorkItem) (*RunSummary, error) {
	processedSet, err := c.results.ListProcessed()
	if err != nil {
		return nil, err
	}

	backlog := make([]model.WorkItem, 0, len(items))
	for _, item := range items {
		if _, done := processedSet[item.Index]; !done {
			backlog = append(backlog, item)
		}
	}

	summary := &RunSummary{Total: len(items), Backlog: len(backlog)}
	if len(backlog) == 0 {
		zap.L().Info("backlog empty, nothing to process",
			zap.Int("total", len(items)),
			zap.Int("already_processed", len(processedSet)),
		)
		return summary, nil
	}

	batches := Partition(backlog, c.cfg.Workers)
	zap.L().Info("starting run",
		zap.Int("total", len(items)),
		zap.Int("backlog", len(backlog)),
		zap.Int("batches", len(batches)),
	)

	var deadline time.Time
	if c.cfg.Deadline > 0 {
		deadline = time.Now().Add(c.cfg.Deadline)
	}

	var (
		processed atomic.Int64
		failed    atomic.Int64

		mu            sync.Mutex
		results       []model.ResultRecord
		failedIndices []int
	)

	progressDone := make(chan struct{})
	go c.reportProgress(len(backlog), &processed, &failed, progressDone)

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("batch panicked",
						zap.Int("batch", i),
						zap.Any("panic", r),
					)
				}
			}()

			worker, err := c.newWorker(i)
			if err != nil {
				zap.L().Error("worker construction failed, skipping batch",
					zap.Int("batch", i), zap.Error(err))
				c.failBatch(batch, &failed, &mu, &failedIndices)
				return nil
			}
			if err := worker.Setup(gctx); err != nil {
				zap.L().Error("worker setup failed, skipping batch",
					zap.Int("batch", i), zap.Error(err))
				worker.Cleanup()
				c.failBatch(batch, &failed, &mu, &failedIndices)
				return nil
			}
			defer worker.Cleanup()

			for _, item := range batch {
				if gctx.Err() != nil {
					return nil
				}
				if !deadline.IsZero() && time.Now().After(deadline) {
					zap.L().Warn("deadline reached, stopping batch",
						zap.Int("batch", i),
						zap.Int("next_index", item.Index),
					)
					return nil
				}

				rec, err := worker.Process(gctx, item)
				if err != nil {
					// Don't abort the batch on one bad item.
					failed.Add(1)
					mu.Lock()
					failedIndices = append(failedIndices, item.Index)
					mu.Unlock()
					zap.L().Error("item failed",
						zap.Int("batch", i),
						zap.Int("url_index", item.Index),
						zap.String("url", item.URL),
						zap.Error(err),
					)
					continue
				}

				processed.Add(1)
				mu.Lock()
				results = append(results, *rec)
				mu.Unlock()
			}
			return nil
		})
	}

	waitErr := g.Wait()
	close(progressDone)
	if waitErr != nil {
		return nil, eris.Wrap(waitErr, "runner: batch group")
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	sort.Ints(failedIndices)

	summary.Processed = int(processed.Load())
	summary.Failed = int(failed.Load())
	summary.FailedIndices = failedIndices
	summary.Results = results

	zap.L().Info("run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Ints("failed_indices", summary.FailedIndices),
	)
	return summary, nil
}

func (c *Coordinator) failBatch(batch []model.WorkItem, failed *atomic.Int64, mu *sync.Mutex, failedIndices *[]int) {
	failed.Add(int64(len(batch)))
	mu.Lock()
	for _, item := range batch {
		*failedIndices = append(*failedIndices, item.Index)
	}
	mu.Unlock()
}

// reportProgress logs throughput once per second until done closes.
func (c *Coordinator) reportProgress(total int, processed, failed *atomic.Int64, done <-chan struct{}) {
	start := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p := processed.Load()
			f := failed.Load()
			finished := p + f
			if finished == 0 {
				continue
			}

			elapsed := time.Since(start)
			rate := float64(finished) / elapsed.Seconds()
			remaining := int64(total) - finished
			var eta time.Duration
			if rate > 0 {
				eta = time.Duration(float64(remaining)/rate) * time.Second
			}

			zap.L().Info("progress",
				zap.Int64("done", finished),
				zap.Int("total", total),
				zap.Int64("failed", f),
				zap.Float64("per_second", rate),
				zap.Duration("eta", eta),
			)
		}
	}
}
