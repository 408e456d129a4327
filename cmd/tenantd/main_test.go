package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantscope/pkg/pg"
	"github.com/dmitrymomot/tenantscope/pkg/queue"
	"github.com/dmitrymomot/tenantscope/pkg/requestid"
	"github.com/dmitrymomot/tenantscope/pkg/tenant"
	"github.com/dmitrymomot/tenantscope/pkg/tenantctx"
)

type recordingRepo struct {
	tasks []*queue.Task
}

func (r *recordingRepo) CreateTask(_ context.Context, task *queue.Task) error {
	r.tasks = append(r.tasks, task)
	return nil
}

func newTestAPI(t *testing.T) (*api, *recordingRepo) {
	t.Helper()

	store := tenantctx.NewStore()
	repo := &recordingRepo{}
	enq, err := queue.NewEnqueuer(repo, queue.WithTenantEncoder(store))
	require.NoError(t, err)

	return &api{
		store: store,
		enq:   enq,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, repo
}

func TestRoutes(t *testing.T) {
	a, repo := newTestAPI(t)
	h := a.routes(tenant.Config{Header: tenant.DefaultHeader})

	t.Run("health skips tenant resolution", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ALIVE", w.Body.String())
		assert.NotEmpty(t, w.Header().Get(requestid.Header))
	})

	t.Run("whoami requires tenant", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("whoami returns serialized frame", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(tenant.DefaultHeader, "acme")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"tenant_id":"acme"`)
		assert.Contains(t, w.Body.String(), `"request_id"`)
	})

	t.Run("invoice task carries tenant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(`{"number":42}`))
		req.Header.Set(tenant.DefaultHeader, "acme")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, repo.tasks, 1)
		sf, err := tenantctx.Decode(repo.tasks[0].TenantContext)
		require.NoError(t, err)
		require.NotNil(t, sf.TenantID)
		assert.Equal(t, "acme", *sf.TenantID)
	})

	t.Run("db route without database", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/db/tenant", nil)
		req.Header.Set(tenant.DefaultHeader, "acme")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotImplemented, w.Code)
	})
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReadiness(t *testing.T) {
	a, _ := newTestAPI(t)
	var down bool
	a.checks = []func(context.Context) error{pg.Healthcheck(pingFunc(func(context.Context) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	}))}
	h := a.routes(tenant.Config{Header: tenant.DefaultHeader})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "READY", w.Body.String())

	down = true
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NOT_READY", w.Body.String())
}
