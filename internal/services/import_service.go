package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"masareefy-import-service/internal/events"
	"masareefy-import-service/internal/importer"
	"masareefy-import-service/internal/metrics"
	"masareefy-import-service/internal/models"
	"masareefy-import-service/internal/repository"
)

var (
	ErrInvalidAction = errors.New("invalid decision action")
	ErrSessionBusy   = errors.New("import session is busy")
)

// EventPublisher is the subset of the NATS publisher the workflow uses.
type EventPublisher interface {
	PublishImportCompleted(ctx context.Context, event events.ImportEvent) error
	PublishImportFailed(ctx context.Context, event events.ImportEvent) error
}

// ImportService runs uploads through the import pipeline and drives the
// session state machine from preview to commit.
type ImportService struct {
	repo      repository.ImportRepositoryInterface
	sessions  repository.SessionStore
	publisher EventPublisher
	executor  *importer.CommitExecutor
	logger    *logrus.Entry
	now       func() time.Time
}

// NewImportService creates a new ImportService. publisher may be nil.
func NewImportService(repo repository.ImportRepositoryInterface, sessions repository.SessionStore, publisher EventPublisher, batchSize int, logger *logrus.Logger) *ImportService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("component", "import-service")
	return &ImportService{
		repo:      repo,
		sessions:  sessions,
		publisher: publisher,
		executor:  importer.NewCommitExecutor(batchSize, entry),
		logger:    entry,
		now:       time.Now,
	}
}

// loadedSession is a stored session with its rows derived again from the table.
type loadedSession struct {
	session *models.ImportSession
	format  *importer.Format
	parsed  *importer.Parsed
	cls     *importer.Classification
}

// Formats lists every supported format with its template columns.
func (s *ImportService) Formats() []models.FormatInfo {
	all := importer.Formats()
	out := make([]models.FormatInfo, 0, len(all))
	for _, f := range all {
		kinds := make([]string, len(f.AcceptedKinds))
		for i, k := range f.AcceptedKinds {
			kinds[i] = string(k)
		}
		out = append(out, models.FormatInfo{
			ID:            string(f.ID),
			Name:          f.Name,
			Description:   f.Description,
			Target:        string(f.Target),
			AcceptedTypes: kinds,
			Columns:       importer.TemplateColumns(f),
		})
	}
	return out
}

// Preview decodes an upload, classifies its rows and opens a session.
func (s *ImportService) Preview(ctx context.Context, tenantID, userID, formatID, filename string, data []byte) (*models.PreviewResult, error) {
	f, err := importer.LookupFormat(formatID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.ImportSession{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    userID,
		Format:    string(f.ID),
		Filename:  filename,
		State:     models.ImportStateUploading,
		CreatedAt: now,
	}

	table, parsed, err := decodeUpload(f, filename, data)
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues(string(f.ID), "rejected").Inc()
		s.logger.WithFields(logrus.Fields{
			"tenantId": tenantID,
			"format":   f.ID,
			"filename": filename,
		}).WithError(err).Info("Rejected import upload")
		return nil, err
	}

	return s.open(ctx, session, f, table, parsed)
}

// Reupload replaces the file of an existing session and previews it again.
func (s *ImportService) Reupload(ctx context.Context, tenantID string, id uuid.UUID, filename string, data []byte) (*models.PreviewResult, error) {
	release, err := s.claim(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := s.sessions.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	f, err := importer.LookupFormat(session.Format)
	if err != nil {
		return nil, err
	}
	if err := s.move(session, EventReupload); err != nil {
		return nil, err
	}
	session.Filename = filename

	table, parsed, err := decodeUpload(f, filename, data)
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues(string(f.ID), "rejected").Inc()
		if moveErr := s.move(session, EventParseFailed); moveErr != nil {
			return nil, moveErr
		}
		session.FailureReason = err.Error()
		if saveErr := s.save(ctx, session); saveErr != nil {
			s.logger.WithError(saveErr).Error("Failed to save import session")
		}
		s.publishFailed(ctx, session, f, err.Error())
		return nil, err
	}

	return s.open(ctx, session, f, table, parsed)
}

func decodeUpload(f *importer.Format, filename string, data []byte) (*importer.RawTable, *importer.Parsed, error) {
	kind, err := f.KindOf(filename)
	if err != nil {
		return nil, nil, err
	}
	table, err := importer.Decode(kind, data, f.PreferredSheet)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := importer.Parse(f, table)
	if err != nil {
		return nil, nil, err
	}
	return table, parsed, nil
}

// open moves an uploading session to PREVIEWING with a fresh table.
func (s *ImportService) open(ctx context.Context, session *models.ImportSession, f *importer.Format, table *importer.RawTable, parsed *importer.Parsed) (*models.PreviewResult, error) {
	cls, err := s.classify(ctx, session.TenantID, f, parsed)
	if err != nil {
		return nil, err
	}
	if err := s.move(session, EventParsed); err != nil {
		return nil, err
	}

	session.Table = table
	session.Selection = cls.DefaultSelection()
	session.AutoCreateUnknown = false
	session.Duplicates = nil
	session.SkippedDuplicates = 0
	session.Quota = nil
	session.Report = nil
	session.FailureReason = ""

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	metrics.PreviewsTotal.WithLabelValues(string(f.ID), "parsed").Inc()
	metrics.RowsTotal.WithLabelValues(string(f.ID), string(importer.StatusValid)).Add(float64(cls.Stats.ValidRows))
	metrics.RowsTotal.WithLabelValues(string(f.ID), string(importer.StatusInvalid)).Add(float64(cls.Stats.InvalidRows))
	metrics.RowsTotal.WithLabelValues(string(f.ID), string(importer.StatusDuplicate)).Add(float64(cls.Stats.DuplicateRows))

	s.logger.WithFields(logrus.Fields{
		"tenantId":   session.TenantID,
		"sessionId":  session.ID,
		"format":     f.ID,
		"totalRows":  cls.Stats.TotalRows,
		"validRows":  cls.Stats.ValidRows,
		"duplicates": cls.Stats.DuplicateRows,
	}).Info("Import preview ready")

	return s.preview(&loadedSession{session: session, format: f, parsed: parsed, cls: cls}), nil
}

// classify looks up the tenant's SKUs for formats that reference inventory.
func (s *ImportService) classify(ctx context.Context, tenantID string, f *importer.Format, parsed *importer.Parsed) (*importer.Classification, error) {
	var existing importer.KeySet
	if f.Target != importer.TargetShipment {
		skus, err := s.repo.ListInventorySKUs(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory SKUs: %w", err)
		}
		existing = importer.NewKeySet(skus...)
	}
	return importer.Classify(parsed.Rows, existing), nil
}

// load rebuilds a session's parsed rows and classification. When event is
// given, a session that cannot take it is rejected before any parsing.
func (s *ImportService) load(ctx context.Context, tenantID string, id uuid.UUID, event ...ImportEvent) (*loadedSession, error) {
	session, err := s.sessions.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	for _, ev := range event {
		if !CanApply(session.State, ev) {
			_, err := Transition(session.State, ev)
			return nil, err
		}
	}
	f, err := importer.LookupFormat(session.Format)
	if err != nil {
		return nil, err
	}
	if session.Table == nil {
		return nil, fmt.Errorf("import session %s has no table", id)
	}

	parsed, err := importer.Parse(f, session.Table)
	if err != nil {
		return nil, err
	}
	cls, err := s.classify(ctx, tenantID, f, parsed)
	if err != nil {
		return nil, err
	}
	return &loadedSession{session: session, format: f, parsed: parsed, cls: cls}, nil
}

// Get returns the current preview of a session.
func (s *ImportService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.PreviewResult, error) {
	ls, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.preview(ls), nil
}

// claim takes the session lock for one state-changing request.
func (s *ImportService) claim(ctx context.Context, tenantID string, id uuid.UUID) (func(), error) {
	release, err := s.sessions.Lock(ctx, tenantID, id)
	if errors.Is(err, repository.ErrSessionLocked) {
		return nil, ErrSessionBusy
	}
	return release, err
}

// Discard drops a session. A committing session cannot be discarded.
func (s *ImportService) Discard(ctx context.Context, tenantID string, id uuid.UUID) error {
	release, err := s.claim(ctx, tenantID, id)
	if err != nil {
		return err
	}
	defer release()

	session, err := s.sessions.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if session.State == models.ImportStateCommitting {
		return ErrSessionBusy
	}
	return s.sessions.Delete(ctx, tenantID, id)
}

// Confirm fixes the row selection and runs the duplicate and quota gates.
// The commit starts when neither gate needs a decision.
func (s *ImportService) Confirm(ctx context.Context, tenantID string, id uuid.UUID, req models.ConfirmImportRequest) (*models.ConfirmResult, error) {
	release, err := s.claim(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer release()

	ls, err := s.load(ctx, tenantID, id, EventConfirm)
	if err != nil {
		return nil, err
	}
	if err := s.move(ls.session, EventConfirm); err != nil {
		return nil, err
	}

	selection := ls.cls.DefaultSelection()
	if req.Selection != nil {
		selection, err = validateSelection(ls.cls, *req.Selection)
		if err != nil {
			return nil, err
		}
	}
	if len(selection) == 0 {
		return nil, fmt.Errorf("%w: no rows selected", importer.ErrInvalidSelection)
	}

	ls.session.Selection = selection
	ls.session.AutoCreateUnknown = req.AutoCreateUnknown
	ls.session.Duplicates = nil
	ls.session.SkippedDuplicates = 0
	ls.session.Quota = nil

	return s.advance(ctx, ls)
}

// validateSelection accepts any row of the preview. Invalid and duplicate
// rows may be added by hand; the commit reports them per row.
func validateSelection(cls *importer.Classification, selection []int) ([]int, error) {
	for _, i := range selection {
		if !cls.Selectable(i) {
			return nil, fmt.Errorf("%w: row index %d is out of range", importer.ErrInvalidSelection, i)
		}
	}
	return importer.NormalizeSelection(selection), nil
}

// ResolveDuplicates answers the persisted-duplicate prompt.
func (s *ImportService) ResolveDuplicates(ctx context.Context, tenantID string, id uuid.UUID, action string) (*models.ConfirmResult, error) {
	var event ImportEvent
	switch action {
	case models.ActionSkip:
		event = EventSkipDuplicates
	case models.ActionCancel:
		event = EventCancel
	default:
		return nil, fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidAction, action, models.ActionSkip, models.ActionCancel)
	}

	release, err := s.claim(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer release()

	ls, err := s.load(ctx, tenantID, id, event)
	if err != nil {
		return nil, err
	}
	session := ls.session

	switch action {
	case models.ActionSkip:
		if session.Duplicates != nil && len(session.Duplicates.Accepted) == 0 {
			return nil, fmt.Errorf("%w: every selected row was imported before", importer.ErrInvalidSelection)
		}
		if err := s.move(session, EventSkipDuplicates); err != nil {
			return nil, err
		}
		metrics.DecisionsTotal.WithLabelValues("duplicates", action).Inc()
		if session.Duplicates != nil {
			session.SkippedDuplicates += len(session.Duplicates.Rejected)
			session.Selection = session.Duplicates.Accepted
		}
		return s.advance(ctx, ls)

	case models.ActionCancel:
		if err := s.move(session, EventCancel); err != nil {
			return nil, err
		}
		metrics.DecisionsTotal.WithLabelValues("duplicates", action).Inc()
		s.resetDecision(ls)
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return s.result(session), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
}

// ResolveQuota answers the quota prompt.
func (s *ImportService) ResolveQuota(ctx context.Context, tenantID string, id uuid.UUID, action string) (*models.ConfirmResult, error) {
	var event ImportEvent
	switch action {
	case models.ActionTruncate:
		event = EventTruncate
	case models.ActionCancel:
		event = EventCancel
	default:
		return nil, fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidAction, action, models.ActionTruncate, models.ActionCancel)
	}

	release, err := s.claim(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	defer release()

	ls, err := s.load(ctx, tenantID, id, event)
	if err != nil {
		return nil, err
	}
	session := ls.session

	switch action {
	case models.ActionTruncate:
		if err := s.move(session, EventTruncate); err != nil {
			return nil, err
		}
		metrics.DecisionsTotal.WithLabelValues("quota", action).Inc()
		capacity := importer.Unlimited
		if session.Quota != nil {
			capacity = session.Quota.RemainingCapacity
		}
		session.Selection = importer.Truncate(session.Selection, capacity)
		return s.commit(ctx, ls)

	case models.ActionCancel:
		if err := s.move(session, EventCancel); err != nil {
			return nil, err
		}
		metrics.DecisionsTotal.WithLabelValues("quota", action).Inc()
		s.resetDecision(ls)
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return s.result(session), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
}

func (s *ImportService) resetDecision(ls *loadedSession) {
	ls.session.Selection = ls.cls.DefaultSelection()
	ls.session.Duplicates = nil
	ls.session.SkippedDuplicates = 0
	ls.session.Quota = nil
}

// advance runs the gates for a PREVIEWING session.
func (s *ImportService) advance(ctx context.Context, ls *loadedSession) (*models.ConfirmResult, error) {
	session := ls.session
	f := ls.format
	log := s.logger.WithFields(logrus.Fields{
		"tenantId":  session.TenantID,
		"sessionId": session.ID,
		"format":    f.ID,
	})

	if f.PersistedDuplicates && len(session.Selection) > 0 {
		keys := importer.SelectionKeys(ls.parsed.Rows, session.Selection)
		existing, err := s.repo.ExistingTrackingNumbers(ctx, session.TenantID, f.Provider, keys)
		if err != nil {
			return nil, fmt.Errorf("failed to check previously imported rows: %w", err)
		}
		split := importer.SplitPersistedDuplicates(ls.parsed.Rows, session.Selection, importer.NewKeySet(existing...))
		if len(split.Rejected) > 0 {
			if err := s.move(session, EventDuplicatesFound); err != nil {
				return nil, err
			}
			session.Duplicates = &split
			if err := s.save(ctx, session); err != nil {
				return nil, err
			}
			log.WithField("duplicates", len(split.Rejected)).Info("Import waiting for duplicate decision")
			return s.result(session), nil
		}
	}

	current, limit := 0, importer.Unlimited
	if f.Resource != importer.ResourceNone {
		var err error
		current, limit, err = s.repo.ResourceUsage(ctx, session.TenantID, f.Resource)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s usage: %w", f.Resource, err)
		}
	}
	decision := importer.EvaluateQuota(f.Resource, len(session.Selection), current, limit)
	session.Quota = &decision

	switch decision.Outcome {
	case importer.QuotaAlreadyExceeded:
		quotaErr := decision.Err()
		if err := s.move(session, EventQuotaBlocked); err != nil {
			return nil, err
		}
		session.FailureReason = quotaErr.Error()
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"current": current, "limit": limit}).Warn("Import blocked by quota")
		s.publishFailed(ctx, session, f, quotaErr.Error())
		return nil, quotaErr

	case importer.QuotaWouldBeExceeded:
		if err := s.move(session, EventQuotaExceeded); err != nil {
			return nil, err
		}
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"selected":  decision.Selected,
			"remaining": decision.RemainingCapacity,
		}).Info("Import waiting for quota decision")
		return s.result(session), nil
	}

	if err := s.move(session, EventCommitStarted); err != nil {
		return nil, err
	}
	return s.commit(ctx, ls)
}

// commit writes the selection of a COMMITTING session. Once started it runs
// to completion even if ctx is cancelled.
func (s *ImportService) commit(ctx context.Context, ls *loadedSession) (*models.ConfirmResult, error) {
	session := ls.session
	f := ls.format
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	created := 0
	if session.AutoCreateUnknown && f.ID == importer.FormatShopifyOrders {
		created = s.createPlaceholders(ctx, ls)
	}

	rows := make([]importer.NormalizedRow, 0, len(session.Selection))
	for _, i := range session.Selection {
		rows = append(rows, ls.parsed.Rows[i])
	}

	report := s.executor.Run(ctx, rows, s.creator(session, f))
	session.Report = &report
	if err := s.move(session, EventCommitFinished); err != nil {
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		s.logger.WithField("sessionId", session.ID).WithError(err).Error("Failed to save committed import session")
	}

	metrics.CommittedRowsTotal.WithLabelValues(string(f.ID), "succeeded").Add(float64(report.Succeeded))
	metrics.CommittedRowsTotal.WithLabelValues(string(f.ID), "failed").Add(float64(len(report.Failed)))
	metrics.CommitDuration.WithLabelValues(string(f.ID)).Observe(float64(report.ProcessingMs) / 1000)

	history := &models.ImportHistory{
		ID:        session.ID,
		TenantID:  session.TenantID,
		UserID:    session.UserID,
		Format:    session.Format,
		Filename:  session.Filename,
		TotalRows: ls.cls.Stats.TotalRows,
		Selected:  report.Attempted,
		Succeeded: report.Succeeded,
		Failed:    len(report.Failed),
		Skipped:   session.SkippedDuplicates,
		Stats:     statsJSON(ls.cls.Stats),
	}
	if err := s.repo.RecordImport(ctx, history); err != nil {
		s.logger.WithField("sessionId", session.ID).WithError(err).Error("Failed to record import history")
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":     session.TenantID,
		"sessionId":    session.ID,
		"format":       f.ID,
		"attempted":    report.Attempted,
		"succeeded":    report.Succeeded,
		"failed":       len(report.Failed),
		"autoCreated":  created,
		"processingMs": report.ProcessingMs,
	}).Info("Import committed")

	s.publishCompleted(ctx, session, f, report)

	result := s.result(session)
	result.Created = created
	return result, nil
}

func (s *ImportService) creator(session *models.ImportSession, f *importer.Format) importer.CreateFunc {
	tenantID, importID := session.TenantID, session.ID
	return func(ctx context.Context, row importer.NormalizedRow) error {
		switch r := row.(type) {
		case *importer.BostaShipmentRow:
			return s.repo.CreateShipment(ctx, shipmentFromBosta(tenantID, f.Provider, importID, r))
		case *importer.ShipbluTrackingRow:
			return s.repo.CreateShipment(ctx, shipmentFromShipblu(tenantID, f.Provider, importID, r))
		case *importer.ShopifyProductRow:
			return s.repo.CreateInventoryItem(ctx, itemFromShopifyProduct(tenantID, importID, r))
		case *importer.TemplateInventoryRow:
			return s.repo.CreateInventoryItem(ctx, itemFromTemplate(tenantID, importID, r))
		case *importer.ShopifyOrderRow:
			return s.repo.CreateRevenueEntry(ctx, revenueFromShopifyOrder(tenantID, importID, r))
		}
		return fmt.Errorf("no record mapping for %s rows", row.Format())
	}
}

// createPlaceholders adds an inventory item for each distinct unknown SKU in
// the selection. Failures are logged and do not stop the commit.
func (s *ImportService) createPlaceholders(ctx context.Context, ls *loadedSession) int {
	session := ls.session
	selected := make(map[int]bool, len(session.Selection))
	for _, i := range session.Selection {
		selected[i] = true
	}
	seen := importer.NewKeySet()
	created := 0
	for _, i := range ls.cls.UnknownReferences() {
		if !selected[i] {
			continue
		}
		row, ok := ls.parsed.Rows[i].(*importer.ShopifyOrderRow)
		if !ok || seen.Has(row.LineItemSKU) {
			continue
		}
		seen.Add(row.LineItemSKU)

		if err := s.repo.CreateInventoryItem(ctx, placeholderItem(session.TenantID, session.ID, row)); err != nil {
			s.logger.WithFields(logrus.Fields{
				"sessionId": session.ID,
				"sku":       row.LineItemSKU,
			}).WithError(err).Warn("Failed to create placeholder inventory item")
			continue
		}
		created++
	}
	return created
}

func (s *ImportService) move(session *models.ImportSession, event ImportEvent) error {
	next, err := Transition(session.State, event)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"sessionId": session.ID,
		"event":     event,
		"from":      session.State,
		"to":        next,
	}).Debug("Import session transition")
	session.State = next
	return nil
}

func (s *ImportService) save(ctx context.Context, session *models.ImportSession) error {
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save import session: %w", err)
	}
	return nil
}

func (s *ImportService) preview(ls *loadedSession) *models.PreviewResult {
	session := ls.session
	rows := make([]models.PreviewRow, len(ls.parsed.Rows))
	for i, row := range ls.parsed.Rows {
		rows[i] = models.PreviewRow{RowClassification: ls.cls.Rows[i], Data: row}
	}

	selection := ls.cls.DefaultSelection()
	if selection == nil {
		selection = []int{}
	}

	return &models.PreviewResult{
		SessionID:        session.ID,
		Format:           session.Format,
		Filename:         session.Filename,
		State:            session.State,
		Columns:          ls.parsed.Fields,
		Rows:             rows,
		Stats:            ls.cls.Stats,
		DefaultSelection: selection,
		Duplicates:       session.Duplicates,
		Quota:            session.Quota,
		Report:           session.Report,
		ExpiresAt:        session.UpdatedAt.Add(s.sessions.TTL()),
	}
}

func (s *ImportService) result(session *models.ImportSession) *models.ConfirmResult {
	return &models.ConfirmResult{
		SessionID:  session.ID,
		State:      session.State,
		Selected:   len(session.Selection),
		Duplicates: session.Duplicates,
		Quota:      session.Quota,
		Report:     session.Report,
	}
}

func (s *ImportService) importEvent(session *models.ImportSession, f *importer.Format) events.ImportEvent {
	return events.ImportEvent{
		TenantID:  session.TenantID,
		ImportID:  session.ID.String(),
		UserID:    session.UserID,
		Format:    session.Format,
		Filename:  session.Filename,
		Target:    string(f.Target),
		Selected:  len(session.Selection),
		Skipped:   session.SkippedDuplicates,
		Timestamp: s.now().UTC(),
	}
}

func (s *ImportService) publishCompleted(ctx context.Context, session *models.ImportSession, f *importer.Format, report importer.CommitReport) {
	if s.publisher == nil {
		return
	}
	event := s.importEvent(session, f)
	event.Succeeded = report.Succeeded
	event.Failed = len(report.Failed)
	if err := s.publisher.PublishImportCompleted(ctx, event); err != nil {
		s.logger.WithField("sessionId", session.ID).WithError(err).Warn("Failed to publish import.completed event")
	}
}

func (s *ImportService) publishFailed(ctx context.Context, session *models.ImportSession, f *importer.Format, reason string) {
	if s.publisher == nil {
		return
	}
	event := s.importEvent(session, f)
	event.Reason = reason
	if err := s.publisher.PublishImportFailed(ctx, event); err != nil {
		s.logger.WithField("sessionId", session.ID).WithError(err).Warn("Failed to publish import.failed event")
	}
}

func statsJSON(stats importer.ImportStatistics) *models.JSON {
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil
	}
	var out models.JSON
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}
