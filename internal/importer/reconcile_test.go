package importer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateQuota_WouldBeExceededThenTruncate(t *testing.T) {
	selection := []int{9, 0, 1, 2, 3, 4, 5, 6, 7, 8}

	d := EvaluateQuota(ResourceInventoryItems, len(selection), 95, 100)

	assert.Equal(t, QuotaWouldBeExceeded, d.Outcome)
	assert.Equal(t, 5, d.RemainingCapacity)

	var wouldExceed *QuotaWouldBeExceededError
	require.True(t, errors.As(d.Err(), &wouldExceed))
	assert.Equal(t, 5, wouldExceed.RemainingCapacity)

	truncated := Truncate(selection, d.RemainingCapacity)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, truncated)
	assert.Equal(t, truncated, Truncate(truncated, d.RemainingCapacity))
}

func TestEvaluateQuota_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		resource  Resource
		selected  int
		current   int
		limit     int
		outcome   QuotaOutcome
		remaining int
	}{
		{"unlimited limit", ResourceInventoryItems, 500, 10, Unlimited, QuotaUnlimited, Unlimited},
		{"no resource", ResourceNone, 500, 10, 20, QuotaUnlimited, Unlimited},
		{"within", ResourceInventoryItems, 5, 90, 100, QuotaWithin, 10},
		{"exactly at limit after import", ResourceInventoryItems, 10, 90, 100, QuotaWithin, 10},
		{"already at limit", ResourceInventoryItems, 1, 100, 100, QuotaAlreadyExceeded, 0},
		{"over limit", ResourceRevenueEntries, 1, 120, 100, QuotaAlreadyExceeded, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateQuota(tt.resource, tt.selected, tt.current, tt.limit)
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.remaining, d.RemainingCapacity)
		})
	}
}

func TestQuotaDecision_AlreadyExceededError(t *testing.T) {
	err := EvaluateQuota(ResourceInventoryItems, 1, 100, 100).Err()

	var blocked *QuotaAlreadyExceededError
	require.True(t, errors.As(err, &blocked))
	assert.Equal(t, 100, blocked.Limit)
	assert.NoError(t, EvaluateQuota(ResourceInventoryItems, 1, 1, 100).Err())
}

func TestTruncate_Unlimited(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Truncate([]int{3, 1, 2, 2}, Unlimited))
	assert.Equal(t, []int{}, Truncate([]int{3, 1}, 0))
}

func TestSplitPersistedDuplicates(t *testing.T) {
	header := []string{"Tracking Number", "Delivery State", "COD Amount"}
	var rows [][]string
	for i := 0; i < 14; i++ {
		rows = append(rows, []string{fmt.Sprintf("TN%d", i), "Delivered", "10"})
	}
	parsed := parseTable(t, FormatBosta, header, rows...)

	persisted := NewKeySet()
	for i := 0; i < 12; i++ {
		persisted.Add(fmt.Sprintf("tn%d", i))
	}
	selection := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

	split := SplitPersistedDuplicates(parsed.Rows, selection, persisted)

	assert.Equal(t, []int{12, 13}, split.Accepted)
	assert.Len(t, split.Rejected, 12)
	assert.Len(t, split.Preview, DuplicatePreviewCap)
	assert.Equal(t, "TN0", split.Preview[0])

	var dupErr *PersistedDuplicateError
	require.True(t, errors.As(split.Err(), &dupErr))
	assert.Equal(t, 12, dupErr.Count)
	assert.Equal(t, 2, dupErr.Remaining)
}

func TestSplitPersistedDuplicates_NoneFound(t *testing.T) {
	parsed := parseTable(t, FormatBosta,
		[]string{"Tracking Number", "Delivery State", "COD Amount"},
		[]string{"TN1", "Delivered", "10"},
	)

	split := SplitPersistedDuplicates(parsed.Rows, []int{0}, NewKeySet("TN9"))

	assert.Equal(t, []int{0}, split.Accepted)
	assert.NoError(t, split.Err())
}
