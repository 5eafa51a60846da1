package handler_test

import (
	"bountywatch/internal/api/handler"
	"bountywatch/internal/monitor"
	"bountywatch/pkg/controller"
	"bountywatch/pkg/domain"
	"bountywatch/pkg/logger"
	"bountywatch/pkg/serrors"
	"bountywatch/pkg/targets"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mockmonitor "bountywatch/internal/monitor/mock"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func newServer(t *testing.T, deps handler.Deps) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	handler.New(deps).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func do(t *testing.T, method, url string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return resp.StatusCode, body
}

func TestNotify_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockmonitor.NewMockMonitor(ctrl)
	m.EXPECT().Run(gomock.Any()).Return(monitor.Result{
		New:   1,
		Total: 7,
		Targets: []targets.Target{
			{URL: "https://a.com", Asset: "a.com", Program: "P", Platform: domain.PlatformHackerOne},
		},
	}, nil).Times(2)
	srv := newServer(t, handler.Deps{Monitor: m})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		status, body := do(t, method, srv.URL+"/api/notify")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, map[string]any{
			"success": true,
			"new":     float64(1),
			"total":   float64(7),
			"targets": []any{map[string]any{
				"url": "https://a.com", "asset": "a.com", "program": "P", "platform": "HackerOne",
			}},
		}, body)
	}
}

func TestNotify_EmptyTargets(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockmonitor.NewMockMonitor(ctrl)
	m.EXPECT().Run(gomock.Any()).Return(monitor.Result{Total: 3}, nil)
	srv := newServer(t, handler.Deps{Monitor: m})

	status, body := do(t, http.MethodGet, srv.URL+"/api/notify")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []any{}, body["targets"])
	require.Equal(t, float64(0), body["new"])
}

func TestNotify_Failure(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockmonitor.NewMockMonitor(ctrl)
	m.EXPECT().Run(gomock.Any()).Return(monitor.Result{},
		serrors.Wrap(serrors.ErrUnavailable, errors.New("503"), "could not fetch feeds"))
	srv := newServer(t, handler.Deps{Monitor: m})

	status, body := do(t, http.MethodPost, srv.URL+"/api/notify")
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, map[string]any{"success": false, "error": "could not fetch feeds: 503"}, body)
}

func TestNotify_Serialized(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockmonitor.NewMockMonitor(ctrl)

	var running, overlapped atomic.Int32
	m.EXPECT().Run(gomock.Any()).DoAndReturn(func(context.Context) (monitor.Result, error) {
		if running.Add(1) > 1 {
			overlapped.Add(1)
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)

		return monitor.Result{}, nil
	}).Times(4)
	srv := newServer(t, handler.Deps{Monitor: m})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/notify", "application/json", nil) //nolint: noctx
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	require.Zero(t, overlapped.Load())
}

func TestNotify_IgnoresRequestCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockmonitor.NewMockMonitor(ctrl)

	type ctxKey struct{}
	m.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) (monitor.Result, error) {
		require.NoError(t, ctx.Err())
		require.Nil(t, ctx.Done())
		require.Equal(t, "kept", ctx.Value(ctxKey{}))

		return monitor.Result{Total: 1}, nil
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "kept"))
	cancel()
	req := httptest.NewRequestWithContext(ctx, http.MethodPost, "/api/notify", nil)
	rec := httptest.NewRecorder()

	handler.New(handler.Deps{Monitor: m}).Notify(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotify_AccessLogCarriesRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mockmonitor.NewMockMonitor(ctrl)
	m.EXPECT().Run(gomock.Any()).Return(monitor.Result{RunID: "run-7", New: 2, Total: 9}, nil)

	core, logs := observer.New(zap.InfoLevel)
	req := httptest.NewRequest(http.MethodPost, "/api/notify", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), zap.New(core)))
	controller.WithLogger(http.HandlerFunc(handler.New(handler.Deps{Monitor: m}).Notify)).
		ServeHTTP(httptest.NewRecorder(), req)

	access := logs.FilterMessage("Access log").All()
	require.Len(t, access, 1)
	fields := access[0].ContextMap()
	require.Equal(t, "run-7", fields["run_id"])
	require.Equal(t, true, fields["run_success"])
	require.EqualValues(t, 2, fields["new_assets"])
	require.EqualValues(t, 9, fields["total_assets"])
}

func TestHealth(t *testing.T) {
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	srv := newServer(t, handler.Deps{TelegramConfigured: true, Now: func() time.Time { return now }})

	status, body := do(t, http.MethodGet, srv.URL+"/api/health")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{
		"status":              "healthy",
		"service":             "bountywatch",
		"timestamp":           "2024-03-04 05:06:07",
		"telegram_configured": true,
	}, body)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t, handler.Deps{})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, srv.URL+"/api/notify", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
