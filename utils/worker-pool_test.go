package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessBatchKeepsOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results := ProcessBatch(NewParallelProcessor(8), items, func(index int, item int) int {
		return item * item
	}, "squares")

	assert.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	results := ProcessBatch(NewParallelProcessor(0), []string{}, func(int, string) error { return nil }, "none")
	assert.Empty(t, results)
}

func TestProcessBatchProgress(t *testing.T) {
	var out bytes.Buffer
	pp := NewParallelProcessor(2)
	pp.Progress = &out

	ProcessBatch(pp, []string{"a", "b", "c"}, func(_ int, s string) string { return strings.ToUpper(s) }, "files")

	assert.Contains(t, out.String(), "files: 3/3 (100.0%)")
}

func TestProgressTracker(t *testing.T) {
	tracker := NewProgressTracker(4, "test", nil)
	tracker.Increment()
	tracker.Increment()

	processed, total, percentage := tracker.progress()
	assert.Equal(t, int64(2), processed)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, 50.0, percentage)
}
