package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"masareefy-import-service/internal/importer"
	"masareefy-import-service/internal/middleware"
	"masareefy-import-service/internal/models"
	"masareefy-import-service/internal/repository"
	"masareefy-import-service/internal/services"
)

// multipartOverhead is the slack allowed on top of the file size limit for
// the multipart envelope.
const multipartOverhead = 1 << 20

type ImportHandler struct {
	service        *services.ImportService
	maxUploadBytes int64
	logger         *logrus.Entry
}

func NewImportHandler(service *services.ImportService, maxUploadBytes int64, logger *logrus.Logger) *ImportHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImportHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.WithField("component", "import-handler"),
	}
}

func errorResponse(c *gin.Context, status int, code, message string, details *models.JSON) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message, Details: details},
	})
}

// respondError maps workflow errors onto the error envelope.
func (h *ImportHandler) respondError(c *gin.Context, err error) {
	var (
		unsupported *importer.UnsupportedFileTypeError
		empty       *importer.EmptyOrHeaderOnlyFileError
		missing     *importer.MissingColumnsError
		exceeded    *importer.QuotaAlreadyExceededError
	)

	switch {
	case errors.As(err, &unsupported):
		accepted := make([]string, len(unsupported.Accepted))
		for i, k := range unsupported.Accepted {
			accepted[i] = string(k)
		}
		errorResponse(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE", err.Error(), &models.JSON{"accepted": accepted})
	case errors.As(err, &empty):
		errorResponse(c, http.StatusBadRequest, "EMPTY_FILE", err.Error(), nil)
	case errors.As(err, &missing):
		errorResponse(c, http.StatusUnprocessableEntity, "MISSING_COLUMNS", err.Error(), &models.JSON{
			"fields":  missing.Fields,
			"columns": missing.Labels,
		})
	case errors.As(err, &exceeded):
		errorResponse(c, http.StatusConflict, "QUOTA_EXCEEDED", err.Error(), &models.JSON{
			"resource": exceeded.Resource,
			"current":  exceeded.Current,
			"limit":    exceeded.Limit,
		})
	case errors.Is(err, importer.ErrUnreadableFile):
		errorResponse(c, http.StatusBadRequest, "UNREADABLE_FILE", err.Error(), nil)
	case errors.Is(err, importer.ErrUnknownFormat):
		errorResponse(c, http.StatusNotFound, "UNKNOWN_FORMAT", err.Error(), nil)
	case errors.Is(err, importer.ErrInvalidSelection):
		errorResponse(c, http.StatusBadRequest, "INVALID_SELECTION", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidAction):
		errorResponse(c, http.StatusBadRequest, "INVALID_ACTION", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidTransition):
		errorResponse(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, services.ErrSessionBusy):
		errorResponse(c, http.StatusConflict, "SESSION_BUSY", err.Error(), nil)
	case errors.Is(err, repository.ErrSessionNotFound):
		errorResponse(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Import session not found or expired", nil)
	default:
		h.logger.WithField("path", c.FullPath()).WithError(err).Error("Import request failed")
		errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process import", nil)
	}
}

// respondConfirm answers confirm and decision calls. A workflow paused on a
// prompt is reported as a conflict carrying the prompt details.
func (h *ImportHandler) respondConfirm(c *gin.Context, result *models.ConfirmResult) {
	switch result.State {
	case models.ImportStateAwaitingDuplicateDecision:
		var dupErr *importer.PersistedDuplicateError
		if result.Duplicates != nil && errors.As(result.Duplicates.Err(), &dupErr) {
			errorResponse(c, http.StatusConflict, "PERSISTED_DUPLICATES", dupErr.Error(), &models.JSON{
				"sessionId": result.SessionID,
				"state":     result.State,
				"count":     dupErr.Count,
				"remaining": dupErr.Remaining,
				"sample":    dupErr.Sample,
			})
			return
		}
	case models.ImportStateAwaitingQuotaDecision:
		var quotaErr *importer.QuotaWouldBeExceededError
		if result.Quota != nil && errors.As(result.Quota.Err(), &quotaErr) {
			errorResponse(c, http.StatusConflict, "QUOTA_WOULD_BE_EXCEEDED", quotaErr.Error(), &models.JSON{
				"sessionId":         result.SessionID,
				"state":             result.State,
				"resource":          quotaErr.Resource,
				"selected":          quotaErr.Selected,
				"current":           quotaErr.Current,
				"limit":             quotaErr.Limit,
				"remainingCapacity": quotaErr.RemainingCapacity,
			})
			return
		}
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

func (h *ImportHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid session ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// readUpload returns the name and bytes of the multipart "file" field.
func (h *ImportHandler) readUpload(c *gin.Context) (string, []byte, bool) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", h.tooLargeMessage(), nil)
			return "", nil, false
		}
		errorResponse(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file", nil)
		return "", nil, false
	}
	defer file.Close()

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		errorResponse(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", h.tooLargeMessage(), nil)
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "FILE_REQUIRED", "Failed to read uploaded file", nil)
		return "", nil, false
	}
	return header.Filename, data, true
}

func (h *ImportHandler) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds the %d MB upload limit", h.maxUploadBytes>>20)
}

// ListFormats lists supported import formats
// GET /api/v1/imports/formats
func (h *ImportHandler) ListFormats(c *gin.Context) {
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: h.service.Formats()})
}

// GetTemplate returns the template of a format as json, csv or xlsx
// GET /api/v1/imports/formats/:format/template?format=csv
func (h *ImportHandler) GetTemplate(c *gin.Context) {
	f, err := importer.LookupFormat(c.Param("format"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	table, err := importer.Template(f.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	columns := importer.TemplateColumns(f)

	switch c.DefaultQuery("format", "json") {
	case "csv":
		h.generateCSVTemplate(c, f, table)
	case "xlsx":
		h.generateXLSXTemplate(c, f, table, columns)
	default:
		c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: gin.H{
			"format":  f.ID,
			"columns": columns,
			"header":  table.Header,
			"rows":    table.Rows,
		}})
	}
}

func templateFilename(f *importer.Format, ext string) string {
	return fmt.Sprintf("%s_import_template.%s", f.ID, ext)
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, f *importer.Format, table *importer.RawTable) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", templateFilename(f, "csv")))

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(table.Header)
	for _, row := range table.Rows {
		_ = writer.Write(row)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.WithError(err).Error("Failed to write CSV template")
	}
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, f *importer.Format, table *importer.RawTable, columns []importer.TemplateColumn) {
	wb := excelize.NewFile()
	defer wb.Close()

	sheetName := f.PreferredSheet
	if sheetName == "" {
		sheetName = "Import"
	}
	_ = wb.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Header
		style := headerStyle
		if col.Required {
			headerText += " *"
			style = requiredStyle
		}
		_ = wb.SetCellValue(sheetName, cell, headerText)
		_ = wb.SetCellStyle(sheetName, cell, cell, style)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		_ = wb.SetColWidth(sheetName, colName, colName, 20)
	}

	for rowIdx, row := range table.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		_ = wb.SetSheetRow(sheetName, cell, &values)
	}

	if err := writeInstructions(wb, f, columns); err != nil {
		h.logger.WithError(err).Warn("Failed to add instructions sheet")
	}

	sheetIdx, _ := wb.GetSheetIndex(sheetName)
	wb.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", templateFilename(f, "xlsx")))

	if err := wb.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write XLSX template")
	}
}

func writeInstructions(wb *excelize.File, f *importer.Format, columns []importer.TemplateColumn) error {
	const sheet = "Instructions"
	if _, err := wb.NewSheet(sheet); err != nil {
		return err
	}

	lines := [][]interface{}{
		{f.Name},
		{f.Description},
		{"Columns marked * are required. Header names are matched case-insensitively."},
		{},
		{"Column", "Required", "Example"},
	}
	for _, col := range columns {
		required := "No"
		if col.Required {
			required = "Yes"
		}
		lines = append(lines, []interface{}{col.Header, required, col.Example})
	}

	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow(sheet, cell, &line); err != nil {
			return err
		}
	}
	return wb.SetColWidth(sheet, "A", "C", 30)
}

// Preview uploads a file and returns the classified rows
// POST /api/v1/imports/formats/:format/preview
func (h *ImportHandler) Preview(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.service.Preview(c.Request.Context(),
		middleware.GetTenantID(c), middleware.GetUserID(c), c.Param("format"), filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// GetSession returns the preview of an open session
// GET /api/v1/imports/sessions/:id
func (h *ImportHandler) GetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	result, err := h.service.Get(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ReuploadSession replaces the file of a session
// PUT /api/v1/imports/sessions/:id/file
func (h *ImportHandler) ReuploadSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	result, err := h.service.Reupload(c.Request.Context(), middleware.GetTenantID(c), id, filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: result})
}

// ConfirmImport commits the selected rows
// POST /api/v1/imports/sessions/:id/confirm
func (h *ImportHandler) ConfirmImport(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req models.ConfirmImportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
	}

	result, err := h.service.Confirm(c.Request.Context(), middleware.GetTenantID(c), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondConfirm(c, result)
}

// ResolveDuplicates answers the persisted duplicate prompt
// POST /api/v1/imports/sessions/:id/duplicates
func (h *ImportHandler) ResolveDuplicates(c *gin.Context) {
	h.decide(c, h.service.ResolveDuplicates)
}

// ResolveQuota answers the quota prompt
// POST /api/v1/imports/sessions/:id/quota
func (h *ImportHandler) ResolveQuota(c *gin.Context) {
	h.decide(c, h.service.ResolveQuota)
}

type decisionFunc func(ctx context.Context, tenantID string, id uuid.UUID, action string) (*models.ConfirmResult, error)

func (h *ImportHandler) decide(c *gin.Context, resolve decisionFunc) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req models.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	result, err := resolve(c.Request.Context(), middleware.GetTenantID(c), id, normalizeAction(req.Action))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondConfirm(c, result)
}

// DiscardSession drops a session
// DELETE /api/v1/imports/sessions/:id
func (h *ImportHandler) DiscardSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.service.Discard(c.Request.Context(), middleware.GetTenantID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	message := "Import session discarded"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// normalizeAction lower-cases a decision action.
func normalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
