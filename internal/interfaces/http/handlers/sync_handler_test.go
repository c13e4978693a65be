package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncapp "github.com/taxdesk/caselaw-intelligence/internal/application/sync"
	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/interfaces/http/handlers"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

type stubRunner struct {
	lastTarget syncapp.Target
	result     *syncapp.Result
	err        error
}

func (r *stubRunner) Run(_ context.Context, target syncapp.Target) (*syncapp.Result, error) {
	r.lastTarget = target
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func newSyncRouter(runner *stubRunner) *gin.Engine {
	r := gin.New()
	r.POST("/api/sync", handlers.NewSyncHandler(runner).Trigger)
	return r
}

func postSync(t *testing.T, router *gin.Engine, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)

	var parsed map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestTrigger_BroadRunOnEmptyBody(t *testing.T) {
	runner := &stubRunner{result: &syncapp.Result{
		NewSummaries:   4,
		TotalProcessed: 5,
		Errors:         1,
		Duration:       3 * time.Second,
	}}
	router := newSyncRouter(runner)

	w, body := postSync(t, router, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, syncapp.Target{}, runner.lastTarget)

	var data map[string]int64
	require.NoError(t, json.Unmarshal(body["data"], &data))
	assert.EqualValues(t, 4, data["newSummaries"])
	assert.EqualValues(t, 5, data["totalProcessed"])
	assert.EqualValues(t, 1, data["errors"])
	assert.EqualValues(t, 3000, data["durationMs"])
}

func TestTrigger_TargetedRun(t *testing.T) {
	runner := &stubRunner{result: &syncapp.Result{}}
	router := newSyncRouter(runner)

	w, _ := postSync(t, router, `{"category":"gst"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, caselaw.CategoryGST, runner.lastTarget.Category)

	w, _ = postSync(t, router, `{"taxSection":"SECTION_74_GST"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, caselaw.Section74GST, runner.lastTarget.TaxSection)
}

func TestTrigger_RejectsUnknownTarget(t *testing.T) {
	router := newSyncRouter(&stubRunner{result: &syncapp.Result{}})

	w, _ := postSync(t, router, `{"category":"MARITIME"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = postSync(t, router, `{"taxSection":"SECTION_1_VAT"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrigger_ConcurrentRunConflicts(t *testing.T) {
	runner := &stubRunner{err: appErrors.New(appErrors.ErrCodeSyncInProgress, "sync already in progress")}
	router := newSyncRouter(runner)

	w, body := postSync(t, router, `{"category":"ITAT"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, string(body["error"]), "SYNC_001")
}
