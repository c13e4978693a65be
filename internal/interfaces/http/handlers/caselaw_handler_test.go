package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/interfaces/http/handlers"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReader struct {
	lastFilter caselaw.QueryFilter
	lastPage   caselaw.Page
	result     caselaw.QueryResult
	stats      caselaw.Statistics
	err        error
}

func (r *stubReader) List(_ context.Context, f caselaw.QueryFilter, p caselaw.Page) (*caselaw.QueryResult, error) {
	r.lastFilter, r.lastPage = f, p
	if r.err != nil {
		return nil, r.err
	}
	result := r.result
	return &result, nil
}

func (r *stubReader) Statistics(context.Context, string) (*caselaw.Statistics, error) {
	if r.err != nil {
		return nil, r.err
	}
	stats := r.stats
	return &stats, nil
}

func (r *stubReader) GetCase(_ context.Context, tid int64) (*caselaw.CaseSummary, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &caselaw.CaseSummary{TID: tid, Title: "CIT v. Example"}, nil
}

func (r *stubReader) GetCaseDetail(_ context.Context, tid int64) (*caselaw.CaseDetail, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &caselaw.CaseDetail{TID: tid, Doc: "judgment text"}, nil
}

func newCaseRouter(reader *stubReader) *gin.Engine {
	r := gin.New()
	h := handlers.NewCaseLawHandler(reader)
	r.GET("/api/case-laws", h.List)
	r.GET("/api/case-laws/:tid", h.Get)
	r.GET("/api/case-laws/:tid/detail", h.GetDetail)
	r.GET("/api/cases/statistics", h.Statistics)
	return r
}

func get(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestList_ParsesFiltersAndPaging(t *testing.T) {
	reader := &stubReader{result: caselaw.QueryResult{
		Records: []caselaw.CaseSummary{{TID: 1}},
		Total:   57,
	}}
	router := newCaseRouter(reader)

	w, body := get(t, router,
		"/api/case-laws?page=3&limit=10&category=gst&year=2024&taxSection=section_148_it&query=reassessment&sortBy=numcitedby&sortOrder=desc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `true`, string(body["success"]))
	assert.JSONEq(t, `57`, string(body["total"]))

	assert.Equal(t, caselaw.CategoryGST, reader.lastFilter.Category)
	assert.Equal(t, "2024", reader.lastFilter.Year)
	assert.Equal(t, caselaw.Section148IT, reader.lastFilter.TaxSection)
	assert.Equal(t, "reassessment", reader.lastFilter.SearchText)
	assert.Equal(t, 3, reader.lastPage.Number)
	assert.Equal(t, 10, reader.lastPage.Limit)
	assert.Equal(t, "numcitedby", reader.lastPage.SortBy)
}

func TestList_DefaultsAndLimitCap(t *testing.T) {
	reader := &stubReader{}
	router := newCaseRouter(reader)

	w, _ := get(t, router, "/api/case-laws?limit=5000")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, reader.lastPage.Number)
	assert.Equal(t, 100, reader.lastPage.Limit)
}

func TestList_RejectsUnknownCategory(t *testing.T) {
	router := newCaseRouter(&stubReader{})

	w, body := get(t, router, "/api/case-laws?category=MARITIME")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `false`, string(body["success"]))
}

func TestList_RejectsUnknownTaxSection(t *testing.T) {
	router := newCaseRouter(&stubReader{})

	w, _ := get(t, router, "/api/case-laws?taxSection=SECTION_999_IT")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_StoreErrorMasked(t *testing.T) {
	reader := &stubReader{err: appErrors.New(appErrors.CodeDBQueryError, "dial tcp 10.0.0.5:5432: connection refused")}
	router := newCaseRouter(reader)

	w, body := get(t, router, "/api/case-laws")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, string(body["error"]), "10.0.0.5", "internals never leak")
}

func TestStatistics(t *testing.T) {
	reader := &stubReader{stats: caselaw.Statistics{
		CategoryCounts: []caselaw.CategoryCount{{Category: caselaw.CategoryITAT, Count: 12}},
		Total:          12,
	}}
	router := newCaseRouter(reader)

	w, body := get(t, router, "/api/cases/statistics?year=2024")

	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		CategoryCounts []caselaw.CategoryCount `json:"categoryCounts"`
		Total          int64                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body["data"], &data))
	assert.EqualValues(t, 12, data.Total)
	require.Len(t, data.CategoryCounts, 1)
	assert.Equal(t, caselaw.CategoryITAT, data.CategoryCounts[0].Category)
}

func TestGet_InvalidTID(t *testing.T) {
	router := newCaseRouter(&stubReader{})

	w, body := get(t, router, "/api/case-laws/abc")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(body["error"]), "CASE_002")
}

func TestGet_NotFound(t *testing.T) {
	reader := &stubReader{err: appErrors.New(appErrors.ErrCodeCaseNotFound, "case law not found")}
	router := newCaseRouter(reader)

	w, body := get(t, router, "/api/case-laws/123")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, string(body["error"]), "CASE_001")
}

func TestGetDetail(t *testing.T) {
	router := newCaseRouter(&stubReader{})

	w, body := get(t, router, "/api/case-laws/42/detail")

	assert.Equal(t, http.StatusOK, w.Code)
	var detail caselaw.CaseDetail
	require.NoError(t, json.Unmarshal(body["data"], &detail))
	assert.EqualValues(t, 42, detail.TID)
	assert.Equal(t, "judgment text", detail.Doc)
}
