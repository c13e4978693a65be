package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// CaseReader is the read-path surface the handler drives.  Satisfied by
// *query.Service.
type CaseReader interface {
	List(ctx context.Context, f caselaw.QueryFilter, p caselaw.Page) (*caselaw.QueryResult, error)
	Statistics(ctx context.Context, year string) (*caselaw.Statistics, error)
	GetCase(ctx context.Context, tid int64) (*caselaw.CaseSummary, error)
	GetCaseDetail(ctx context.Context, tid int64) (*caselaw.CaseDetail, error)
}

// CaseLawHandler serves the case-law browse, lookup and statistics endpoints.
type CaseLawHandler struct {
	reader CaseReader
}

func NewCaseLawHandler(reader CaseReader) *CaseLawHandler {
	return &CaseLawHandler{reader: reader}
}

// List handles GET /api/case-laws.  Filters: category, year, taxSection and
// query (free text); paging: page, limit, sortBy, sortOrder.
func (h *CaseLawHandler) List(c *gin.Context) {
	filter := caselaw.QueryFilter{
		Year:       c.Query("year"),
		SearchText: c.Query("query"),
	}

	if raw := c.Query("category"); raw != "" {
		category, ok := caselaw.ParseCategory(raw)
		if !ok {
			respondBadRequest(c, "unknown category: "+raw)
			return
		}
		filter.Category = category
	}
	if raw := c.Query("taxSection"); raw != "" {
		section, ok := caselaw.ParseTaxSection(raw)
		if !ok {
			respondBadRequest(c, "unknown tax section: "+raw)
			return
		}
		filter.TaxSection = section
	}

	pageNum, limit := parsePagination(c)
	page := caselaw.Page{
		Number:    pageNum,
		Limit:     limit,
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	result, err := h.reader.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, result.Records, result.Total)
}

// Statistics handles GET /api/cases/statistics, optionally narrowed by year.
func (h *CaseLawHandler) Statistics(c *gin.Context) {
	stats, err := h.reader.Statistics(c.Request.Context(), c.Query("year"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{
		"categoryCounts": stats.CategoryCounts,
		"total":          stats.Total,
	})
}

// Get handles GET /api/case-laws/:tid.
func (h *CaseLawHandler) Get(c *gin.Context) {
	tid, ok := parseTID(c)
	if !ok {
		return
	}
	summary, err := h.reader.GetCase(c.Request.Context(), tid)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, summary)
}

// GetDetail handles GET /api/case-laws/:tid/detail.
func (h *CaseLawHandler) GetDetail(c *gin.Context) {
	tid, ok := parseTID(c)
	if !ok {
		return
	}
	detail, err := h.reader.GetCaseDetail(c.Request.Context(), tid)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, detail)
}

func parseTID(c *gin.Context) (int64, bool) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil || tid <= 0 {
		respondError(c, appErrors.New(appErrors.ErrCodeCaseInvalidTID, "document id must be a positive integer"))
		return 0, false
	}
	return tid, true
}
