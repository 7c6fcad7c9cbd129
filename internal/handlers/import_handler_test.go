package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"masareefy-import-service/internal/importer"
	"masareefy-import-service/internal/models"
	"masareefy-import-service/internal/repository"
	"masareefy-import-service/internal/services"
)

const testTenant = "tenant-1"

// MockImportRepository is a mock implementation of ImportRepositoryInterface
type MockImportRepository struct {
	mock.Mock
}

func (m *MockImportRepository) ListInventorySKUs(ctx context.Context, tenantID string) ([]string, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockImportRepository) ExistingTrackingNumbers(ctx context.Context, tenantID, provider string, keys []string) ([]string, error) {
	args := m.Called(ctx, tenantID, provider, keys)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockImportRepository) ResourceUsage(ctx context.Context, tenantID string, resource importer.Resource) (int, int, error) {
	args := m.Called(ctx, tenantID, resource)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockImportRepository) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockImportRepository) CreateRevenueEntry(ctx context.Context, entry *models.RevenueEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockImportRepository) CreateShipment(ctx context.Context, shipment *models.ShipmentRecord) error {
	return m.Called(ctx, shipment).Error(0)
}

func (m *MockImportRepository) RecordImport(ctx context.Context, history *models.ImportHistory) error {
	return m.Called(ctx, history).Error(0)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

type sessionData struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
	Selected  int    `json:"selected"`
}

var bostaCSV = "Tracking Number,Delivery State,COD Amount\nTN1,Delivered,100\nTN2,Returned,50\nTN3,In transit,75\n"

func setupTestRouter(repo *MockImportRepository, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := repository.NewMemorySessionStore(30 * time.Minute)
	svc := services.NewImportService(repo, store, nil, 10, logger)
	h := NewImportHandler(svc, maxUpload, logger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("tenant_id", testTenant)
		c.Set("user_id", "user-1")
		c.Next()
	})

	imports := r.Group("/api/v1/imports")
	imports.GET("/formats", h.ListFormats)
	imports.GET("/formats/:format/template", h.GetTemplate)
	imports.POST("/formats/:format/preview", h.Preview)
	imports.GET("/sessions/:id", h.GetSession)
	imports.PUT("/sessions/:id/file", h.ReuploadSession)
	imports.POST("/sessions/:id/confirm", h.ConfirmImport)
	imports.POST("/sessions/:id/duplicates", h.ResolveDuplicates)
	imports.POST("/sessions/:id/quota", h.ResolveQuota)
	imports.DELETE("/sessions/:id", h.DiscardSession)
	return r
}

func uploadRequest(t *testing.T, method, path, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp envelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func previewBosta(t *testing.T, r *gin.Engine) sessionData {
	t.Helper()
	w, resp := serve(r, uploadRequest(t, http.MethodPost, "/api/v1/imports/formats/bosta/preview", "deliveries.csv", bostaCSV))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data sessionData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.SessionID)
	return data
}

func TestListFormats_Handler(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	w, resp := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/imports/formats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var formats []models.FormatInfo
	require.NoError(t, json.Unmarshal(resp.Data, &formats))
	assert.Len(t, formats, 5)
}

func TestGetTemplate_Handler_CSV(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/imports/formats/template/template?format=csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "template_import_template.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	expected, err := importer.Template(importer.FormatTemplate)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, expected.Header, records[0])
	assert.Len(t, records, len(expected.Rows)+1)
}

func TestGetTemplate_Handler_XLSX(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/imports/formats/bosta/template?format=xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)

	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	f, err := importer.LookupFormat("bosta")
	require.NoError(t, err)
	columns := importer.TemplateColumns(f)

	sheets := wb.GetSheetList()
	assert.Contains(t, sheets, "Instructions")

	rows, err := wb.GetRows(sheets[0])
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	first := columns[0].Header
	if columns[0].Required {
		first += " *"
	}
	assert.Equal(t, first, rows[0][0])
}

func TestGetTemplate_Handler_UnknownFormat(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	w, resp := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/imports/formats/aramex/template", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_FORMAT", resp.Error.Code)
}

func TestPreview_Handler_Success(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	data := previewBosta(t, r)

	assert.Equal(t, string(models.ImportStatePreviewing), data.State)
}

func TestPreview_Handler_MissingFile(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	w, resp := serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/imports/formats/bosta/preview", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FILE_REQUIRED", resp.Error.Code)
}

func TestPreview_Handler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		code     string
	}{
		{"unsupported type", "deliveries.pdf", bostaCSV, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE"},
		{"header only", "deliveries.csv", "Tracking Number,Delivery State,COD Amount\n", http.StatusBadRequest, "EMPTY_FILE"},
		{"missing columns", "deliveries.csv", "SKU,Price\nA,1\n", http.StatusUnprocessableEntity, "MISSING_COLUMNS"},
	}

	r := setupTestRouter(new(MockImportRepository), 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := serve(r, uploadRequest(t, http.MethodPost, "/api/v1/imports/formats/bosta/preview", tt.filename, tt.content))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestPreview_Handler_MissingColumnsDetails(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	_, resp := serve(r, uploadRequest(t, http.MethodPost, "/api/v1/imports/formats/bosta/preview", "d.csv", "SKU,Price\nA,1\n"))

	require.Equal(t, "MISSING_COLUMNS", resp.Error.Code)
	assert.ElementsMatch(t, []interface{}{"trackingNumber", "deliveryState", "codAmount"}, resp.Error.Details["fields"])
}

func TestPreview_Handler_FileTooLarge(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 16)

	w, resp := serve(r, uploadRequest(t, http.MethodPost, "/api/v1/imports/formats/bosta/preview", "deliveries.csv", bostaCSV))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", resp.Error.Code)
}

func TestConfirm_Handler_Commits(t *testing.T) {
	repo := new(MockImportRepository)
	r := setupTestRouter(repo, 0)
	session := previewBosta(t, r)

	repo.On("ExistingTrackingNumbers", mock.Anything, testTenant, "bosta", mock.Anything).Return([]string{}, nil)
	repo.On("CreateShipment", mock.Anything, mock.Anything).Return(nil)
	repo.On("RecordImport", mock.Anything, mock.Anything).Return(nil)

	w, resp := serve(r, jsonRequest(http.MethodPost, "/api/v1/imports/sessions/"+session.SessionID+"/confirm", `{"selection":[0,2]}`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data sessionData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, string(models.ImportStateDone), data.State)
	assert.Equal(t, 2, data.Selected)
	repo.AssertNumberOfCalls(t, "CreateShipment", 2)
}

func TestConfirm_Handler_EmptyBodyUsesDefaultSelection(t *testing.T) {
	repo := new(MockImportRepository)
	r := setupTestRouter(repo, 0)
	session := previewBosta(t, r)

	repo.On("ExistingTrackingNumbers", mock.Anything, testTenant, "bosta", mock.Anything).Return([]string{}, nil)
	repo.On("CreateShipment", mock.Anything, mock.Anything).Return(nil)
	repo.On("RecordImport", mock.Anything, mock.Anything).Return(nil)

	w, _ := serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/imports/sessions/"+session.SessionID+"/confirm", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	repo.AssertNumberOfCalls(t, "CreateShipment", 3)
}

func TestConfirm_Handler_PersistedDuplicates(t *testing.T) {
	repo := new(MockImportRepository)
	r := setupTestRouter(repo, 0)
	session := previewBosta(t, r)

	repo.On("ExistingTrackingNumbers", mock.Anything, testTenant, "bosta", []string{"tn1", "tn2", "tn3"}).Return([]string{"tn2"}, nil).Once()

	w, resp := serve(r, jsonRequest(http.MethodPost, "/api/v1/imports/sessions/"+session.SessionID+"/confirm", `{}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PERSISTED_DUPLICATES", resp.Error.Code)
	assert.Equal(t, float64(1), resp.Error.Details["count"])
	assert.Equal(t, float64(2), resp.Error.Details["remaining"])
	assert.Equal(t, []interface{}{"TN2"}, resp.Error.Details["sample"])

	repo.On("ExistingTrackingNumbers", mock.Anything, testTenant, "bosta", []string{"tn1", "tn3"}).Return([]string{}, nil).Once()
	repo.On("CreateShipment", mock.Anything, mock.Anything).Return(nil)
	repo.On("RecordImport", mock.Anything, mock.Anything).Return(nil)

	w, resp = serve(r, jsonRequest(http.MethodPost, "/api/v1/imports/sessions/"+session.SessionID+"/duplicates", `{"action":"Skip"}`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data sessionData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, string(models.ImportStateDone), data.State)
	repo.AssertNumberOfCalls(t, "CreateShipment", 2)
}

func TestConfirm_Handler_QuotaWouldBeExceeded(t *testing.T) {
	repo := new(MockImportRepository)
	r := setupTestRouter(repo, 0)

	rows := make([]string, 0, 4)
	for i := 1; i <= 4; i++ {
		rows = append(rows, fmt.Sprintf("Item %d,SKU-%d,Tops,5,100,60", i, i))
	}
	content := "Name,SKU,Category,Stock,Selling Price,Cost\n" + strings.Join(rows, "\n") + "\n"

	repo.On("ListInventorySKUs", mock.Anything, testTenant).Return([]string{}, nil)
	repo.On("ResourceUsage", mock.Anything, testTenant, importer.ResourceInventoryItems).Return(48, 50, nil)

	w, resp := serve(r, uploadRequest(t, http.MethodPost, "/api/v1/imports/formats/template/preview", "inventory.csv", content))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session sessionData
	require.NoError(t, json.Unmarshal(resp.Data, &session))

	w, resp = serve(r, jsonRequest(http.MethodPost, "/api/v1/imports/sessions/"+session.SessionID+"/confirm", `{}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "QUOTA_WOULD_BE_EXCEEDED", resp.Error.Code)
	assert.Equal(t, float64(2), resp.Error.Details["remainingCapacity"])

	w, resp = serve(r, jsonRequest(http.MethodPost, "/api/v1/imports/sessions/"+session.SessionID+"/quota", `{"action":"cancel"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	assert.Equal(t, string(models.ImportStatePreviewing), session.State)
	repo.AssertNotCalled(t, "CreateInventoryItem", mock.Anything, mock.Anything)
}

func TestConfirm_Handler_InvalidSelection(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)
	session := previewBosta(t, r)

	w, resp := serve(r, jsonRequest(http.MethodPost, "/api/v1/imports/sessions/"+session.SessionID+"/confirm", `{"selection":[9]}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SELECTION", resp.Error.Code)
}

func TestConfirm_Handler_SessionBusy(t *testing.T) {
	repo := new(MockImportRepository)
	r := setupTestRouter(repo, 0)
	session := previewBosta(t, r)
	path := "/api/v1/imports/sessions/" + session.SessionID + "/confirm"

	entered := make(chan struct{})
	proceed := make(chan struct{})
	repo.On("ExistingTrackingNumbers", mock.Anything, testTenant, "bosta", mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-proceed
		}).Return([]string{}, nil).Once()
	repo.On("CreateShipment", mock.Anything, mock.Anything).Return(nil)
	repo.On("RecordImport", mock.Anything, mock.Anything).Return(nil)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		w, _ := serve(r, jsonRequest(http.MethodPost, path, `{}`))
		done <- w
	}()

	<-entered
	w, resp := serve(r, jsonRequest(http.MethodPost, path, `{}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SESSION_BUSY", resp.Error.Code)

	close(proceed)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
	repo.AssertNumberOfCalls(t, "CreateShipment", 3)
}

func TestConfirm_Handler_InvalidID(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)

	w, resp := serve(r, jsonRequest(http.MethodPost, "/api/v1/imports/sessions/not-a-uuid/confirm", `{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
}

func TestDecision_Handler_Errors(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)
	session := previewBosta(t, r)
	path := "/api/v1/imports/sessions/" + session.SessionID

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing action", path + "/duplicates", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown action", path + "/duplicates", `{"action":"overwrite"}`, http.StatusBadRequest, "INVALID_ACTION"},
		{"no pending prompt", path + "/quota", `{"action":"truncate"}`, http.StatusConflict, "INVALID_TRANSITION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := serve(r, jsonRequest(http.MethodPost, tt.path, tt.body))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestSession_Handler_GetReuploadDiscard(t *testing.T) {
	r := setupTestRouter(new(MockImportRepository), 0)
	session := previewBosta(t, r)
	path := "/api/v1/imports/sessions/" + session.SessionID

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := serve(r, uploadRequest(t, http.MethodPut, path+"/file", "deliveries.csv", "Tracking Number,Delivery State,COD Amount\nTN9,Delivered,10\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data sessionData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, session.SessionID, data.SessionID)
	assert.Equal(t, string(models.ImportStatePreviewing), data.State)

	w, _ = serve(r, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = serve(r, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.Code)
}
