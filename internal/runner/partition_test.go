package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ranktest-cli/internal/model"
)

func makeItems(n int) []model.WorkItem {
	items := make([]model.WorkItem, n)
	for i := range items {
		items[i] = model.WorkItem{Index: i + 1, URL: "https://shop.example/list"}
	}
	return items
}

func TestPartition_BalancedContiguousBatches(t *testing.T) {
	batches := Partition(makeItems(10), 3)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 3)

	// Contiguity: batch boundaries never interleave indices.
	assert.Equal(t, 1, batches[0][0].Index)
	assert.Equal(t, 4, batches[0][3].Index)
	assert.Equal(t, 5, batches[1][0].Index)
	assert.Equal(t, 7, batches[1][2].Index)
	assert.Equal(t, 8, batches[2][0].Index)
	assert.Equal(t, 10, batches[2][2].Index)
}

func TestPartition_ExtraItemsSpreadAcrossLeadingBatches(t *testing.T) {
	batches := Partition(makeItems(7), 3)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 2)

	// The union covers the backlog exactly, in order.
	var got []int
	for _, b := range batches {
		for _, item := range b {
			got = append(got, item.Index)
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, got)
}

func TestPartition_EvenSplit(t *testing.T) {
	batches := Partition(makeItems(9), 3)

	require.Len(t, batches, 3)
	for _, b := range batches {
		assert.Len(t, b, 3)
	}
}

func TestPartition_FewerItemsThanWorkers(t *testing.T) {
	batches := Partition(makeItems(2), 6)

	// One item per batch, never an empty batch.
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 1)
	assert.Len(t, batches[1], 1)
}

func TestPartition_Empty(t *testing.T) {
	assert.Nil(t, Partition(nil, 4))
	assert.Nil(t, Partition(makeItems(3), 0))
}

func TestVariantURL_SetsParam(t *testing.T) {
	got, err := VariantURL("https://shop.example/schoenen", "opt_seg", "5")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/schoenen?opt_seg=5", got)
}

func TestVariantURL_PreservesOtherParams(t *testing.T) {
	got, err := VariantURL("https://shop.example/schoenen?sort=price&page=2", "opt_seg", "6")
	require.NoError(t, err)
	assert.Contains(t, got, "opt_seg=6")
	assert.Contains(t, got, "sort=price")
	assert.Contains(t, got, "page=2")
}

func TestVariantURL_OverwritesExistingValue(t *testing.T) {
	got, err := VariantURL("https://shop.example/schoenen?opt_seg=5", "opt_seg", "6")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/schoenen?opt_seg=6", got)
}
