package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunvalleybronze/dropmirror/internal/mirror"
	"github.com/sunvalleybronze/dropmirror/internal/server/handlers/api"
	"github.com/sunvalleybronze/dropmirror/internal/sitemap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	report *mirror.Report
	err    error
	state  mirror.State
	last   *mirror.Report
}

func (f *fakeEngine) Run(ctx context.Context) (*mirror.Report, error) {
	return f.report, f.err
}

func (f *fakeEngine) State() mirror.State        { return f.state }
func (f *fakeEngine) LastReport() *mirror.Report { return f.last }

type fakeSitemap struct {
	err error
}

func (f *fakeSitemap) Update(context.Context) (*sitemap.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sitemap.Result{URLs: 3, Bytes: 412}, nil
}

func setupRouter(h *SyncHandler) *gin.Engine {
	r := gin.New()
	r.Any("/dropbox/synchronizeDropboxToS3", h.Synchronize)
	r.GET("/sync/status", h.Status)
	r.POST("/sitemap/update", h.UpdateSitemap)
	return r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestSyncHandler_Synchronize(t *testing.T) {
	report := &mirror.Report{
		RunID:     "run-1",
		Transfers: mirror.Counter{Attempted: 2, Succeeded: 2},
		Bytes:     2048,
	}
	r := setupRouter(New(&fakeEngine{report: report}, &fakeSitemap{}))

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := serve(r, method, "/dropbox/synchronizeDropboxToS3")
		require.Equal(t, http.StatusOK, w.Code, method)

		var res struct {
			Message string         `json:"message"`
			Report  map[string]any `json:"report"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, report.Summary(), res.Message)
		assert.Equal(t, "run-1", res.Report["runId"])
	}
}

func TestSyncHandler_SynchronizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "run in progress",
			err:    mirror.ErrRunInProgress,
			status: http.StatusConflict,
			code:   api.CodeSyncInProgress,
		},
		{
			name:   "lock held elsewhere",
			err:    &mirror.RunError{RunID: "r", Cause: mirror.ErrLockHeld},
			status: http.StatusConflict,
			code:   api.CodeSyncInProgress,
		},
		{
			name:   "fetch failed",
			err:    &mirror.RunError{RunID: "r", Cause: &mirror.FetchError{Tree: "source", Cause: fmt.Errorf("dial tcp: timeout")}},
			status: http.StatusBadGateway,
			code:   api.CodeSyncFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(New(&fakeEngine{err: tt.err}, &fakeSitemap{}))
			w := serve(r, http.MethodPost, "/dropbox/synchronizeDropboxToS3")
			require.Equal(t, tt.status, w.Code)

			var apiErr api.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestSyncHandler_Status(t *testing.T) {
	r := setupRouter(New(&fakeEngine{state: mirror.StateApplying}, &fakeSitemap{}))
	w := serve(r, http.MethodGet, "/sync/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"Applying"}`, w.Body.String())
}

func TestSyncHandler_UpdateSitemap(t *testing.T) {
	r := setupRouter(New(&fakeEngine{}, &fakeSitemap{}))
	w := serve(r, http.MethodPost, "/sitemap/update")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"urls":3,"bytes":412}`, w.Body.String())

	r = setupRouter(New(&fakeEngine{}, &fakeSitemap{err: errors.New("access denied")}))
	w = serve(r, http.MethodPost, "/sitemap/update")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
