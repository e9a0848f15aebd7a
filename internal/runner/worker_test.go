package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ranktest-cli/internal/capture"
	"github.com/sells-group/ranktest-cli/internal/classifier"
	"github.com/sells-group/ranktest-cli/internal/model"
	"github.com/sells-group/ranktest-cli/internal/resilience"
	"github.com/sells-group/ranktest-cli/internal/store"
)

const listingHTML = `<html><body><h1>Hardloopschoenen</h1>
<article><h3>Runner Pro 2</h3></article>
<article><h3>Trail Max</h3></article>
</body></html>`

// fakeCapturer renders canned HTML and can fail a configured number of
// times before succeeding.
type fakeCapturer struct {
	mu          sync.Mutex
	failFirst   int
	failStart   bool
	calls       int
	closed      bool
	capturedURL []string
}

func (f *fakeCapturer) Start(ctx context.Context) error {
	if f.failStart {
		return errors.New("chrome not found")
	}
	return nil
}

func (f *fakeCapturer) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeCapturer) CapturePage(ctx context.Context, url, screenshotPath string) (capture.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return capture.Snapshot{}, errors.New("navigation timeout")
	}
	if err := os.WriteFile(screenshotPath, []byte("png-bytes"), 0o644); err != nil {
		return capture.Snapshot{}, err
	}
	f.capturedURL = append(f.capturedURL, url)
	return capture.Snapshot{HTML: listingHTML, ScreenshotFile: filepath.Base(screenshotPath)}, nil
}

// fakeClassifier returns a fixed judgment or error and records requests.
type fakeClassifier struct {
	mu       sync.Mutex
	err      error
	judgment classifier.Judgment
	requests []classifier.Request
}

func (f *fakeClassifier) Classify(ctx context.Context, req classifier.Request) (*classifier.Judgment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	j := f.judgment
	return &j, nil
}

func winnerAJudgment() classifier.Judgment {
	return classifier.Judgment{
		Winner: "A", Confidence: 0.9,
		ScoreA: 8, ScoreB: 6,
		Reasoning:       "better top results",
		DuplicatesInA:   1, DuplicatesInB: 3,
		UniqueProductsA: 7, UniqueProductsB: 5,
	}
}

func testWorkerConfig(t *testing.T) WorkerConfig {
	t.Helper()
	return WorkerConfig{
		Param:          "opt_seg",
		ValueA:         "5",
		ValueB:         "6",
		ScreenshotsDir: t.TempDir(),
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
		},
	}
}

func TestWorkerProcess_WritesResult(t *testing.T) {
	results, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	capt := &fakeCapturer{}
	judge := &fakeClassifier{judgment: winnerAJudgment()}
	w := NewWorker(0, testWorkerConfig(t), capt, judge, results)

	rec, err := w.Process(context.Background(), model.WorkItem{
		Index: 7, URL: "https://shop.example/schoenen", Visits: 1200,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, rec.Index)
	assert.Equal(t, model.WinnerA, rec.Analysis.Winner)
	assert.Equal(t, 8.0, rec.VariantA.Score)
	assert.Equal(t, 3, rec.VariantB.Duplicates)
	assert.Contains(t, rec.VariantA.URL, "opt_seg=5")
	assert.Contains(t, rec.VariantB.URL, "opt_seg=6")
	assert.Equal(t, "Hardloopschoenen", rec.VariantA.H1Title)
	assert.Equal(t, []string{"Runner Pro 2", "Trail Max"}, rec.VariantA.ProductTitles)

	// The result file is the resumption marker.
	processed, err := results.ListProcessed()
	require.NoError(t, err)
	assert.Contains(t, processed, 7)

	// Both screenshots reached the classifier.
	require.Len(t, judge.requests, 1)
	assert.Equal(t, []byte("png-bytes"), judge.requests[0].ScreenshotA)
	assert.Equal(t, []byte("png-bytes"), judge.requests[0].ScreenshotB)
	assert.Equal(t, "Hardloopschoenen", judge.requests[0].Query)
}

func TestWorkerProcess_RetriesCapture(t *testing.T) {
	results, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	// First two attempts fail, third succeeds; variant B then passes on
	// its first attempt.
	capt := &fakeCapturer{failFirst: 2}
	judge := &fakeClassifier{judgment: winnerAJudgment()}
	w := NewWorker(0, testWorkerConfig(t), capt, judge, results)

	rec, err := w.Process(context.Background(), model.WorkItem{Index: 1, URL: "https://shop.example/a"})
	require.NoError(t, err)
	assert.Equal(t, model.WinnerA, rec.Analysis.Winner)
	assert.Equal(t, 4, capt.calls)
}

func TestWorkerProcess_CaptureExhaustedLeavesBacklog(t *testing.T) {
	results, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	capt := &fakeCapturer{failFirst: 99}
	judge := &fakeClassifier{judgment: winnerAJudgment()}
	w := NewWorker(0, testWorkerConfig(t), capt, judge, results)

	rec, err := w.Process(context.Background(), model.WorkItem{Index: 2, URL: "https://shop.example/b"})
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 3, capt.calls)

	// No result file: the item must still count as backlog next run.
	processed, err := results.ListProcessed()
	require.NoError(t, err)
	assert.Empty(t, processed)

	// The classifier was never consulted.
	assert.Empty(t, judge.requests)
}

func TestWorkerProcess_ClassifierFailureWritesDegraded(t *testing.T) {
	results, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	capt := &fakeCapturer{}
	judge := &fakeClassifier{err: errors.New("api overloaded")}
	w := NewWorker(0, testWorkerConfig(t), capt, judge, results)

	rec, err := w.Process(context.Background(), model.WorkItem{Index: 3, URL: "https://shop.example/c"})
	require.NoError(t, err)

	assert.True(t, rec.Degraded())
	assert.Equal(t, model.WinnerUnknown, rec.Analysis.Winner)
	assert.Equal(t, 0.5, rec.Analysis.Confidence)
	assert.Equal(t, 0.0, rec.VariantA.Score)
	assert.Equal(t, -1, rec.VariantA.Duplicates)
	assert.Equal(t, -1, rec.VariantB.UniqueProducts)

	// One call only: a failed judgment is never retried.
	assert.Len(t, judge.requests, 1)

	// Degraded results still leave the backlog.
	processed, err := results.ListProcessed()
	require.NoError(t, err)
	assert.Contains(t, processed, 3)
}
