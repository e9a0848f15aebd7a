// Package runner coordinates parallel processing of the work-item backlog.
package runner

import (
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ranktest-cli/internal/model"
)

// Partition splits items into at most workers contiguous, near-equal
// batches: the first len%workers batches carry one extra item, so 10 items
// over 3 workers yields [4,3,3]. Contiguity keeps each worker on a
// predictable index range. Fewer items than workers yields fewer batches,
// never empty ones.
func Partition(items []model.WorkItem, workers int) [][]model.WorkItem {
	if len(items) == 0 || workers <= 0 {
		return nil
	}
	if workers > len(items) {
		workers = len(items)
	}

	base := len(items) / workers
	extra := len(items) % workers
	batches := make([][]model.WorkItem, 0, workers)
	start := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < extra {
			size++
		}
		batches = append(batches, items[start:start+size])
		start += size
	}
	return batches
}

// VariantURL sets param=value on base, preserving every other query
// parameter the URL already carries.
func VariantURL(base, param, value string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", eris.Wrapf(err, "runner: parse url %s", base)
	}
	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
