package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/n2digital-pt/lead-lens-n2/middleware"
	"github.com/n2digital-pt/lead-lens-n2/models"
	ai "github.com/n2digital-pt/lead-lens-n2/services/intelligence"
	"github.com/n2digital-pt/lead-lens-n2/utils"
	"github.com/n2digital-pt/lead-lens-n2/web"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAnalysisID = "0f8fad5b-d9cb-469f-a165-70867728950e"

type fakeLeadService struct {
	analysis *models.Analysis
	err      error

	sessionID string
	image     models.ImageLeadRequest
	search    models.MapSearchRequest
	audit     models.TextAuditRequest
}

func (f *fakeLeadService) AnalyzeImage(_ context.Context, sessionID string, req models.ImageLeadRequest) (*models.Analysis, error) {
	f.sessionID, f.image = sessionID, req
	return f.analysis, f.err
}

func (f *fakeLeadService) SearchMaps(_ context.Context, sessionID string, req models.MapSearchRequest) (*models.Analysis, error) {
	f.sessionID, f.search = sessionID, req
	return f.analysis, f.err
}

func (f *fakeLeadService) AuditText(_ context.Context, sessionID string, req models.TextAuditRequest) (*models.Analysis, error) {
	f.sessionID, f.audit = sessionID, req
	return f.analysis, f.err
}

func (f *fakeLeadService) GetAnalysis(_ context.Context, id string) (*models.Analysis, error) {
	if f.analysis == nil || f.analysis.ID != id {
		return nil, ai.ErrNotFound
	}
	return f.analysis, nil
}

func sampleAnalysis() *models.Analysis {
	return &models.Analysis{
		ID:   testAnalysisID,
		Mode: models.ModeSearch,
		Text: "## Leads\n1. Cafe A\n## Pitch\nOla, vimos o vosso cafe.",
		HTML: "<h2>Leads</h2><ol><li>Cafe A</li></ol><h2>Pitch</h2><p>Ola, vimos o vosso cafe.</p>",
		Citations: []models.Citation{
			{Kind: models.CitationPlace, Title: "Cafe A", Address: "Rua 1, Porto", URI: "https://maps.example/a", PlaceID: "p1"},
		},
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestRouter(t *testing.T, svc ai.LeadService) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(middleware.SessionMiddleware(false))
	tmpl, err := web.Templates()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)

	leads := NewLeadHandler(svc, 1024)
	pages := NewPageHandler(svc, false, "English")
	r.GET("/", pages.IndexPageHandler)
	r.GET("/leads/:id", pages.LeadPageHandler)
	r.POST("/api/leads/image", leads.AnalyzeImageHandler)
	r.POST("/api/leads/search", leads.SearchMapsHandler)
	r.POST("/api/leads/audit", leads.AuditTextHandler)
	r.GET("/api/leads/:id", leads.GetAnalysisHandler)
	r.GET("/api/leads/:id/citations.csv", leads.ExportCitationsHandler)
	r.GET("/api/leads/:id/pitch", leads.PitchHandler)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestAnalyzeImageHandler(t *testing.T) {
	svc := &fakeLeadService{analysis: sampleAnalysis()}
	r := newTestRouter(t, svc)

	body, contentType := multipartBody(t, map[string]string{"businessName": "Cafe A", "notes": "corner shop", "language": "Portuguese"}, "image", "shop.png", []byte("\x89PNG\r\n\x1a\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/leads/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got models.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, testAnalysisID, got.ID)

	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), svc.image.Image)
	assert.Equal(t, "shop.png", svc.image.FileName)
	assert.Equal(t, "Cafe A", svc.image.BusinessName)
	assert.Equal(t, "corner shop", svc.image.Notes)
	assert.Equal(t, "Portuguese", svc.image.Language)
	assert.NotEmpty(t, svc.sessionID)
}

func TestAnalyzeImageHandler_MissingFile(t *testing.T) {
	svc := &fakeLeadService{analysis: sampleAnalysis()}
	r := newTestRouter(t, svc)

	body, contentType := multipartBody(t, map[string]string{"businessName": "Cafe A"}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/leads/image", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please choose a photo to analyse", decodeError(t, w).Message)
	assert.Empty(t, svc.image.FileName, "the service is never called")
}

func TestSearchMapsHandler(t *testing.T) {
	svc := &fakeLeadService{analysis: sampleAnalysis()}
	r := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/leads/search", strings.NewReader(`{"query":"cafes in Porto","latitude":41.15,"longitude":-8.61}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cafes in Porto", svc.search.Query)
	require.NotNil(t, svc.search.Latitude)
	assert.Equal(t, 41.15, *svc.search.Latitude)

	req = httptest.NewRequest(http.MethodPost, "/api/leads/search", strings.NewReader(`{"query":`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditTextHandler_ServiceError(t *testing.T) {
	svc := &fakeLeadService{err: &ai.InputError{Field: "description", Reason: "is required"}}
	r := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/leads/audit", strings.NewReader(`{"description":"","website":"salon.example"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Please check the form", resp.Message)
	assert.Equal(t, "description: is required", resp.Details)
	assert.Equal(t, "salon.example", svc.audit.Website)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"input", &ai.InputError{Field: "query", Reason: "is required"}, http.StatusBadRequest},
		{"unsupported image", fmt.Errorf("%w: text/plain", ai.ErrUnsupportedImage), http.StatusUnsupportedMediaType},
		{"too large", ai.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
		{"busy", ai.ErrBusy, http.StatusConflict},
		{"no credential", ai.ErrMissingCredential, http.StatusServiceUnavailable},
		{"not found", ai.ErrNotFound, http.StatusNotFound},
		{"timeout", &ai.VendorError{Op: "generate", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"vendor", &ai.VendorError{Op: "generate", Err: errors.New("quota")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decodeError(t, w).Message)
		})
	}
}

func TestGetAnalysisHandler(t *testing.T) {
	r := newTestRouter(t, &fakeLeadService{analysis: sampleAnalysis()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/"+testAnalysisID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "This analysis is no longer available", decodeError(t, w).Message)
}

func TestExportCitationsHandler(t *testing.T) {
	r := newTestRouter(t, &fakeLeadService{analysis: sampleAnalysis()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/"+testAnalysisID+"/citations.csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="leadlens-search-0f8fad5b.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "type,name,address,link\nplace,Cafe A,\"Rua 1, Porto\",https://maps.example/a\n", w.Body.String())
}

func TestPitchHandler(t *testing.T) {
	r := newTestRouter(t, &fakeLeadService{analysis: sampleAnalysis()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads/"+testAnalysisID+"/pitch", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Ola, vimos o vosso cafe.", w.Body.String())
}
