package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bostaRows(t *testing.T, n int) []NormalizedRow {
	t.Helper()
	var rows [][]string
	for i := 0; i < n; i++ {
		rows = append(rows, []string{fmt.Sprintf("TN%d", i), "Delivered", "10"})
	}
	return parseTable(t, FormatBosta, []string{"Tracking Number", "Delivery State", "COD Amount"}, rows...).Rows
}

func TestCommitExecutor_ContinuesPastFailures(t *testing.T) {
	rows := bostaRows(t, 23)
	exec := NewCommitExecutor(0, logrus.NewEntry(logrus.New()))

	var calls sync.Map
	report := exec.Run(context.Background(), rows, func(ctx context.Context, row NormalizedRow) error {
		_, loaded := calls.LoadOrStore(row.NaturalKey(), true)
		assert.False(t, loaded, "row attempted twice")
		if row.NaturalKey() == "tn4" || row.NaturalKey() == "tn17" {
			return errors.New("insert failed")
		}
		return nil
	})

	assert.Equal(t, 23, report.Attempted)
	assert.Equal(t, 21, report.Succeeded)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, RowFailure{Row: 6, Key: "tn4", Reason: "insert failed"}, report.Failed[0])
	assert.Equal(t, "tn17", report.Failed[1].Key)
	require.Len(t, report.Batches, 3)
	assert.Equal(t, 10, report.Batches[0].Succeeded+report.Batches[0].Failed)
	assert.Equal(t, 3, report.Batches[2].Succeeded)
	assert.Equal(t, 2, report.Batches[0].StartRow)
	assert.Equal(t, 11, report.Batches[0].EndRow)
}

func TestCommitExecutor_BoundsConcurrencyToBatch(t *testing.T) {
	rows := bostaRows(t, 25)
	exec := NewCommitExecutor(DefaultCommitBatchSize, nil)

	var inFlight, peak int32
	var mu sync.Mutex
	var finished []int

	exec.Run(context.Background(), rows, func(ctx context.Context, row NormalizedRow) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)

		mu.Lock()
		finished = append(finished, row.SourceRow())
		mu.Unlock()
		return nil
	})

	assert.LessOrEqual(t, int(peak), DefaultCommitBatchSize)
	require.Len(t, finished, 25)
	// Every row of batch i settles before any row of batch i+1 starts.
	for i, row := range finished {
		batch := (row - 2) / DefaultCommitBatchSize
		assert.Equal(t, i/DefaultCommitBatchSize, batch)
	}
}

func TestCommitExecutor_IgnoresCancellation(t *testing.T) {
	rows := bostaRows(t, 12)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var attempted int32
	report := NewCommitExecutor(10, nil).Run(ctx, rows, func(ctx context.Context, row NormalizedRow) error {
		atomic.AddInt32(&attempted, 1)
		return ctx.Err()
	})

	assert.Equal(t, int32(12), attempted)
	assert.Equal(t, 12, report.Succeeded)
	assert.Empty(t, report.Failed)
}

func TestCommitExecutor_NoRows(t *testing.T) {
	report := NewCommitExecutor(10, nil).Run(context.Background(), nil, func(ctx context.Context, row NormalizedRow) error {
		t.Fatal("create must not be called")
		return nil
	})

	assert.Equal(t, 0, report.Attempted)
	assert.Empty(t, report.Batches)
}
