package importer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultCommitBatchSize bounds how many creates run concurrently.
const DefaultCommitBatchSize = 10

// CreateFunc persists one accepted row.
type CreateFunc func(ctx context.Context, row NormalizedRow) error

// RowFailure records a create call that failed.
type RowFailure struct {
	Row    int    `json:"row"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// BatchResult summarises one batch of the commit.
type BatchResult struct {
	BatchNumber  int   `json:"batchNumber"`
	StartRow     int   `json:"startRow"`
	EndRow       int   `json:"endRow"`
	Succeeded    int   `json:"succeeded"`
	Failed       int   `json:"failed"`
	ProcessingMs int64 `json:"processingMs"`
}

// CommitReport is the outcome of a commit run. Failed is in file order.
type CommitReport struct {
	Attempted    int           `json:"attempted"`
	Succeeded    int           `json:"succeeded"`
	Failed       []RowFailure  `json:"failed"`
	Batches      []BatchResult `json:"batches"`
	ProcessingMs int64         `json:"processingMs"`
}

// CommitExecutor writes rows in fixed-size batches. Writes within a batch run
// concurrently; the next batch starts only after the current one settles.
// A failed row never aborts the run.
type CommitExecutor struct {
	BatchSize int
	Logger    *logrus.Entry
}

func NewCommitExecutor(batchSize int, logger *logrus.Entry) *CommitExecutor {
	if batchSize <= 0 {
		batchSize = DefaultCommitBatchSize
	}
	return &CommitExecutor{BatchSize: batchSize, Logger: logger}
}

// Run attempts every row exactly once. Cancelling ctx does not stop a run
// that has started; values carried by ctx are preserved.
func (e *CommitExecutor) Run(ctx context.Context, rows []NormalizedRow, create CreateFunc) CommitReport {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	size := e.BatchSize
	if size <= 0 {
		size = DefaultCommitBatchSize
	}

	report := CommitReport{Attempted: len(rows), Failed: []RowFailure{}}
	for batchStart := 0; batchStart < len(rows); batchStart += size {
		batch := rows[batchStart:min(batchStart+size, len(rows))]
		batchBegan := time.Now()

		errs := make([]error, len(batch))
		var g errgroup.Group
		for i, row := range batch {
			g.Go(func() error {
				errs[i] = create(ctx, row)
				return nil
			})
		}
		_ = g.Wait()

		result := BatchResult{
			BatchNumber: batchStart/size + 1,
			StartRow:    batch[0].SourceRow(),
			EndRow:      batch[len(batch)-1].SourceRow(),
		}
		for i, err := range errs {
			if err == nil {
				result.Succeeded++
				continue
			}
			result.Failed++
			row := batch[i]
			report.Failed = append(report.Failed, RowFailure{Row: row.SourceRow(), Key: row.NaturalKey(), Reason: err.Error()})
			if e.Logger != nil {
				e.Logger.WithFields(logrus.Fields{
					"row":   row.SourceRow(),
					"key":   row.NaturalKey(),
					"batch": result.BatchNumber,
				}).WithError(err).Warn("Failed to create imported row")
			}
		}
		result.ProcessingMs = time.Since(batchBegan).Milliseconds()

		report.Succeeded += result.Succeeded
		report.Batches = append(report.Batches, result)
	}

	report.ProcessingMs = time.Since(start).Milliseconds()
	return report
}
