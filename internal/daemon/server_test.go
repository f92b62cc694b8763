package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/leima/exporter"
)

func newTestServer(t *testing.T, runner ScanRunner) (*Daemon, *exporter.Registry, *httptest.Server) {
	t.Helper()
	registry := exporter.NewRegistry()
	d := New(Config{RequiredTags: []string{"env"}}, runner, registry)

	prom := prometheus.NewRegistry()
	require.NoError(t, prom.Register(exporter.NewCollector(registry)))

	srv := httptest.NewServer(d.Handler(prom))
	t.Cleanup(srv.Close)
	return d, registry, srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHandler_HealthInitializing(t *testing.T) {
	_, _, srv := newTestServer(t, &fakeRunner{})

	code, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "initializing")
}

func TestHandler_HealthAfterFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("aws exploded")}
	d, _, srv := newTestServer(t, runner)
	d.runCycle(context.Background())

	code, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "aws exploded")

	// Same answer on the alias path
	code, _ = get(t, srv.URL+"/-/healthy")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHandler_ReadyOnlyAfterFirstPublish(t *testing.T) {
	runner := &fakeRunner{result: healthyResult()}
	d, _, srv := newTestServer(t, runner)

	code, _ := get(t, srv.URL+"/-/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	d.runCycle(context.Background())

	code, body := get(t, srv.URL+"/-/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Ready")
}

func TestHandler_MetricsServeLastSnapshot(t *testing.T) {
	runner := &fakeRunner{result: healthyResult()}
	d, _, srv := newTestServer(t, runner)
	d.runCycle(context.Background())

	code, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `resources_scanned_total{account_id="1",account_name="prod",region="us-east-1"} 1`)
}

func TestHandler_TriggerScan(t *testing.T) {
	runner := &fakeRunner{
		result:  healthyResult(),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	d, _, srv := newTestServer(t, runner)

	// GET is not allowed
	code, _ := get(t, srv.URL+"/scan")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	done := make(chan struct{})
	go func() {
		d.runCycle(context.Background())
		close(done)
	}()
	<-runner.started

	resp, err := http.Post(srv.URL+"/scan", "text/plain", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "trigger during a scan is rejected")

	close(runner.block)
	<-done

	resp, err = http.Post(srv.URL+"/scan", "text/plain", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHandler_RootStatusPage(t *testing.T) {
	runner := &fakeRunner{result: healthyResult()}
	d, _, srv := newTestServer(t, runner)

	code, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Last scan: never")

	d.runCycle(context.Background())

	_, body = get(t, srv.URL+"/")
	assert.Contains(t, body, "Last scan: 2")
	assert.Contains(t, body, "Status: OK")

	code, _ = get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, code)
}
