package runner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ranktest-cli/internal/capture"
	"github.com/sells-group/ranktest-cli/internal/classifier"
	"github.com/sells-group/ranktest-cli/internal/model"
	"github.com/sells-group/ranktest-cli/internal/resilience"
	"github.com/sells-group/ranktest-cli/internal/store"
)

// Capturer is the browser capability a worker needs. One capturer serves
// one worker; it is never shared.
type Capturer interface {
	Start(ctx context.Context) error
	Close()
	CapturePage(ctx context.Context, url, screenshotPath string) (capture.Snapshot, error)
}

// WorkerConfig holds the per-item processing parameters.
type WorkerConfig struct {
	Param          string
	ValueA         string
	ValueB         string
	ScreenshotsDir string
	Selectors      []string
	Retry          resilience.RetryConfig
}

// Worker processes one batch of items sequentially on its own browser
// session.
type Worker struct {
	id      int
	cfg     WorkerConfig
	capt    Capturer
	judge   classifier.Classifier
	results *store.FileStore
}

// NewWorker assembles a worker. Setup must be called before Process.
func NewWorker(id int, cfg WorkerConfig, capt Capturer, judge classifier.Classifier, results *store.FileStore) *Worker {
	return &Worker{id: id, cfg: cfg, capt: capt, judge: judge, results: results}
}

// Setup launches the worker's browser session.
func (w *Worker) Setup(ctx context.Context) error {
	if err := w.capt.Start(ctx); err != nil {
		return eris.Wrapf(err, "runner: worker %d setup", w.id)
	}
	return nil
}

// Cleanup releases the browser session. Safe to call after a failed Setup.
func (w *Worker) Cleanup() {
	w.capt.Close()
}

// Process handles one item end to end: render both variants, extract
// titles, judge the pair and persist the result file. A nil record with a
// non-nil error means capture was exhausted and the item stays in the
// backlog. A failed judgment still produces a record, marked degraded, so
// the item does not block resumption forever.
func (w *Worker) Process(ctx context.Context, item model.WorkItem) (*model.ResultRecord, error) {
	urlA, err := VariantURL(item.URL, w.cfg.Param, w.cfg.ValueA)
	if err != nil {
		return nil, err
	}
	urlB, err := VariantURL(item.URL, w.cfg.Param, w.cfg.ValueB)
	if err != nil {
		return nil, err
	}

	capA, err := w.captureVariant(ctx, item.Index, "variant_a", urlA)
	if err != nil {
		return nil, eris.Wrapf(err, "runner: item %d variant A", item.Index)
	}
	capB, err := w.captureVariant(ctx, item.Index, "variant_b", urlB)
	if err != nil {
		return nil, eris.Wrapf(err, "runner: item %d variant B", item.Index)
	}

	rec := model.ResultRecord{
		Index:       item.Index,
		OriginalURL: item.URL,
		Visits:      item.Visits,
		VariantA: model.VariantResult{
			URL:           urlA,
			Screenshot:    capA.snapshot.ScreenshotFile,
			H1Title:       capA.page.H1Title,
			ProductCount:  capA.page.ProductCount,
			ProductTitles: capA.page.ProductTitles,
		},
		VariantB: model.VariantResult{
			URL:           urlB,
			Screenshot:    capB.snapshot.ScreenshotFile,
			H1Title:       capB.page.H1Title,
			ProductCount:  capB.page.ProductCount,
			ProductTitles: capB.page.ProductTitles,
		},
	}

	judgment := w.judgePair(ctx, item, capA, capB)
	rec.Analysis = model.Analysis{
		Winner:         model.Winner(judgment.Winner),
		Confidence:     judgment.Confidence,
		Reasoning:      judgment.Reasoning,
		KeyDifferences: judgment.KeyDifferences,
		DuplicateNotes: judgment.DuplicateNotes,
	}
	rec.VariantA.Score = judgment.ScoreA
	rec.VariantA.Duplicates = judgment.DuplicatesInA
	rec.VariantA.UniqueProducts = judgment.UniqueProductsA
	rec.VariantB.Score = judgment.ScoreB
	rec.VariantB.Duplicates = judgment.DuplicatesInB
	rec.VariantB.UniqueProducts = judgment.UniqueProductsB

	if err := w.results.Write(rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// capturedVariant bundles everything rendering one variant produced.
type capturedVariant struct {
	snapshot   capture.Snapshot
	page       capture.PageData
	screenshot []byte
}

func (w *Worker) captureVariant(ctx context.Context, index int, variant, url string) (capturedVariant, error) {
	path := filepath.Join(w.cfg.ScreenshotsDir, capture.ScreenshotName(index, variant, url))

	retry := w.cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("browser", "capture "+variant)
	}

	snap, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (capture.Snapshot, error) {
		return w.capt.CapturePage(ctx, url, path)
	})
	if err != nil {
		return capturedVariant{}, err
	}

	shot, err := os.ReadFile(path)
	if err != nil {
		return capturedVariant{}, eris.Wrap(err, "runner: read screenshot")
	}

	return capturedVariant{
		snapshot:   snap,
		page:       capture.Extract(snap.HTML, w.cfg.Selectors),
		screenshot: shot,
	}, nil
}

// judgePair asks the classifier once. On failure the degraded judgment is
// returned so the record is still written.
func (w *Worker) judgePair(ctx context.Context, item model.WorkItem, capA, capB capturedVariant) *classifier.Judgment {
	judgment, err := w.judge.Classify(ctx, classifier.Request{
		Query:       queryFromTitle(capA.page.H1Title, capB.page.H1Title),
		TitlesA:     capA.page.ProductTitles,
		TitlesB:     capB.page.ProductTitles,
		ScreenshotA: capA.screenshot,
		ScreenshotB: capB.screenshot,
	})
	if err != nil {
		zap.L().Warn("classification failed, writing degraded result",
			zap.Int("worker", w.id),
			zap.Int("url_index", item.Index),
			zap.Error(err),
		)
		return classifier.Degraded()
	}
	return judgment
}

// queryFromTitle derives the search intent from the page headings. Both
// variants render the same listing, so the first non-empty heading stands
// for the query.
func queryFromTitle(titleA, titleB string) string {
	for _, t := range []string{titleA, titleB} {
		if t != "" && t != "No H1 found" && t != "Error extracting" {
			return t
		}
	}
	return "the listing page"
}
