// Package store persists per-item result files and run history.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ranktest-cli/internal/model"
)

// Result file prefixes. ResultPrefix is what this tool writes;
// LegacyPrefix is recognized on read so results from earlier run styles
// keep counting as processed.
const (
	ResultPrefix = "ranktest_result_"
	LegacyPrefix = "legacy_result_"

	CompiledFile   = "compiled_results.json"
	StatisticsFile = "statistics.json"
)

var resultPrefixes = []string{ResultPrefix, LegacyPrefix}

// FileStore is the content-addressed result store: one JSON file per
// processed item index. The files on disk, not any in-memory state, decide
// what is still in the backlog.
type FileStore struct {
	dir string
}

// NewFileStore creates the results directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "store: create results dir")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the results directory.
func (s *FileStore) Dir() string { return s.dir }

// ListProcessed scans every known result-file naming pattern and returns
// the union of indices found. Filenames that don't parse are skipped.
func (s *FileStore) ListProcessed() (map[int]struct{}, error) {
	processed := make(map[int]struct{})
	for _, prefix := range resultPrefixes {
		matches, err := filepath.Glob(filepath.Join(s.dir, prefix+"*.json"))
		if err != nil {
			return nil, eris.Wrap(err, "store: glob result files")
		}
		for _, path := range matches {
			if idx, ok := parseIndex(filepath.Base(path)); ok {
				processed[idx] = struct{}{}
			}
		}
	}
	return processed, nil
}

// Write serializes one result record to its index-keyed file, overwriting
// any previous file with the same name.
func (s *FileStore) Write(rec model.ResultRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "store: marshal result %d", rec.Index)
	}
	path := filepath.Join(s.dir, resultFileName(rec.Index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: write result %d", rec.Index)
	}
	return nil
}

// Compile loads every result file across all naming patterns, deduplicates
// by index and returns the records sorted ascending by index. When two
// files carry the same index the one with the newer modification time wins;
// on equal times the ranktest prefix takes precedence over the legacy one.
// Unparsable files are logged and skipped.
func (s *FileStore) Compile() ([]model.ResultRecord, error) {
	byIndex := make(map[int]loaded)

	for _, prefix := range resultPrefixes {
		matches, err := filepath.Glob(filepath.Join(s.dir, prefix+"*.json"))
		if err != nil {
			return nil, eris.Wrap(err, "store: glob result files")
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				zap.L().Error("store: read result file", zap.String("path", path), zap.Error(err))
				continue
			}
			var rec model.ResultRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				zap.L().Error("store: skip corrupt result file", zap.String("path", path), zap.Error(err))
				continue
			}
			if rec.Index <= 0 {
				zap.L().Error("store: skip result file without index", zap.String("path", path))
				continue
			}

			cur := loaded{rec: rec, native: prefix == ResultPrefix}
			if info, err := os.Stat(path); err == nil {
				cur.modTime = info.ModTime()
			}

			prev, exists := byIndex[rec.Index]
			if !exists || cur.supersedes(prev) {
				byIndex[rec.Index] = cur
			}
		}
	}

	records := make([]model.ResultRecord, 0, len(byIndex))
	for _, l := range byIndex {
		records = append(records, l.rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Index < records[j].Index })
	return records, nil
}

// WriteCompiled fully overwrites the compiled-results artifact.
func (s *FileStore) WriteCompiled(records []model.ResultRecord) (string, error) {
	return s.writeJSON(CompiledFile, records)
}

// WriteStatistics fully overwrites the statistics artifact.
func (s *FileStore) WriteStatistics(stats model.SummaryStatistics) (string, error) {
	return s.writeJSON(StatisticsFile, stats)
}

func (s *FileStore) writeJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "store: marshal %s", name)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "store: write %s", name)
	}
	return path, nil
}

func resultFileName(index int) string {
	return ResultPrefix + pad3(index) + ".json"
}

func pad3(index int) string {
	s := strconv.Itoa(index)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// parseIndex pulls the trailing index out of a result filename.
func parseIndex(name string) (int, bool) {
	name = strings.TrimSuffix(name, ".json")
	cut := strings.LastIndex(name, "_")
	if cut < 0 {
		return 0, false
	}
	idx, err := strconv.Atoi(name[cut+1:])
	if err != nil || idx <= 0 {
		return 0, false
	}
	return idx, true
}

// loaded pairs a parsed record with the metadata used to resolve duplicate
// indices deterministically.
type loaded struct {
	rec     model.ResultRecord
	modTime time.Time
	native  bool
}

func (l loaded) supersedes(prev loaded) bool {
	if l.modTime.After(prev.modTime) {
		return true
	}
	if prev.modTime.After(l.modTime) {
		return false
	}
	return l.native && !prev.native
}
