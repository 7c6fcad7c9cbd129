package models

import (
	"time"

	"github.com/google/uuid"

	"masareefy-import-service/internal/importer"
)

// ImportState is a step of the import workflow.
type ImportState string

const (
	ImportStateUploading                 ImportState = "UPLOADING"
	ImportStatePreviewing                ImportState = "PREVIEWING"
	ImportStateAwaitingDuplicateDecision ImportState = "AWAITING_DUPLICATE_DECISION"
	ImportStateAwaitingQuotaDecision     ImportState = "AWAITING_QUOTA_DECISION"
	ImportStateCommitting                ImportState = "COMMITTING"
	ImportStateDone                      ImportState = "DONE"
	ImportStateFailed                    ImportState = "FAILED"
)

// ImportSession is the server-side state of one upload between preview and
// commit. Only the decoded table is kept; rows are re-derived on load.
type ImportSession struct {
	ID       uuid.UUID   `json:"id"`
	TenantID string      `json:"tenantId"`
	UserID   string      `json:"userId,omitempty"`
	Format   string      `json:"format"`
	Filename string      `json:"filename"`
	State    ImportState `json:"state"`

	Table *importer.RawTable `json:"table"`

	// Selection is the row set carried between decision steps.
	Selection         []int                    `json:"selection,omitempty"`
	AutoCreateUnknown bool                     `json:"autoCreateUnknown,omitempty"`
	Duplicates        *importer.DuplicateSplit `json:"duplicates,omitempty"`
	SkippedDuplicates int                      `json:"skippedDuplicates,omitempty"`
	Quota             *importer.QuotaDecision  `json:"quota,omitempty"`
	Report            *importer.CommitReport   `json:"report,omitempty"`
	FailureReason     string                   `json:"failureReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PreviewRow is one classified row as shown to the user.
type PreviewRow struct {
	importer.RowClassification
	Data importer.NormalizedRow `json:"data"`
}

// PreviewResult is returned by preview and session lookups.
type PreviewResult struct {
	SessionID        uuid.UUID                 `json:"sessionId"`
	Format           string                    `json:"format"`
	Filename         string                    `json:"filename"`
	State            ImportState               `json:"state"`
	Columns          importer.FieldMap         `json:"columns"`
	Rows             []PreviewRow              `json:"rows"`
	Stats            importer.ImportStatistics `json:"stats"`
	DefaultSelection []int                     `json:"defaultSelection"`
	Duplicates       *importer.DuplicateSplit  `json:"duplicates,omitempty"`
	Quota            *importer.QuotaDecision   `json:"quota,omitempty"`
	Report           *importer.CommitReport    `json:"report,omitempty"`
	ExpiresAt        time.Time                 `json:"expiresAt"`
}

// ConfirmImportRequest selects the rows to commit. A nil Selection means the
// default selection (all valid rows).
type ConfirmImportRequest struct {
	Selection         *[]int `json:"selection"`
	AutoCreateUnknown bool   `json:"autoCreateUnknown"`
}

// DecisionRequest answers a duplicate or quota prompt.
type DecisionRequest struct {
	Action string `json:"action" binding:"required"`
}

// Decision actions
const (
	ActionSkip     = "skip"
	ActionTruncate = "truncate"
	ActionCancel   = "cancel"
)

// ConfirmResult reports where the workflow stopped.
type ConfirmResult struct {
	SessionID  uuid.UUID                `json:"sessionId"`
	State      ImportState              `json:"state"`
	Selected   int                      `json:"selected"`
	Duplicates *importer.DuplicateSplit `json:"duplicates,omitempty"`
	Quota      *importer.QuotaDecision  `json:"quota,omitempty"`
	Report     *importer.CommitReport   `json:"report,omitempty"`
	Created    int                      `json:"autoCreated,omitempty"`
}

// FormatInfo describes a format for the upload screen.
type FormatInfo struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	Description   string                    `json:"description"`
	Target        string                    `json:"target"`
	AcceptedTypes []string                  `json:"acceptedTypes"`
	Columns       []importer.TemplateColumn `json:"columns"`
}
