// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// errorBody is the standard error payload.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondData writes the standard success envelope.
func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// respondPage writes the success envelope for paginated results, with the
// unpaginated total alongside.
func respondPage(c *gin.Context, data interface{}, total int64) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "total": total})
}

// respondError maps an application error to its HTTP status.  Server-side
// codes are masked so internals never leak into API responses.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if errors.IsServerError(code) {
		message = errors.DefaultMessageForCode(code)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errorBody{Code: code.String(), Message: message},
	})
}

// respondBadRequest rejects a malformed request parameter.
func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   errorBody{Code: errors.ErrCodeBadRequest.String(), Message: message},
	})
}

// parsePagination reads the page and limit query parameters, clamping limit
// to the store's cap.
func parsePagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = defaultPageSize

	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := c.Query("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			if l > maxPageSize {
				l = maxPageSize
			}
			limit = l
		}
	}
	return page, limit
}
