package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/battray/pkg/display"
	"github.com/charlie0129/battray/pkg/events"
	"github.com/charlie0129/battray/pkg/metrics"
	"github.com/charlie0129/battray/pkg/types"
	"github.com/charlie0129/battray/pkg/version"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPINoSnapshotYet(t *testing.T) {
	l := newTestLoop(t, newTestBus(), LoopOptions{})
	router := setupRoutes(l, events.NewHub(), nil)

	for _, p := range []string{"/snapshot", "/summary", "/batteries"} {
		w := do(t, router, http.MethodGet, p, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, p)
	}

	w := do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPISnapshot(t *testing.T) {
	l := newTestLoop(t, newTestBus(), LoopOptions{})
	l.redraw()
	router := setupRoutes(l, events.NewHub(), nil)

	w := do(t, router, http.MethodGet, "/snapshot", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap types.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Len(t, snap.Batteries, 2)
	assert.Equal(t, uint64(8000), snap.Summary.TotalCapacity)
	assert.Equal(t, uint64(5500), snap.Summary.TotalCharge)
	require.NotNil(t, snap.Summary.Percent)
	assert.InDelta(t, 68.75, *snap.Summary.Percent, 1e-9)

	w = do(t, router, http.MethodGet, "/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary types.SummarySnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.True(t, summary.AnyCharging)
	assert.Contains(t, w.Body.String(), `"ratePercentPerSecond": null`)

	w = do(t, router, http.MethodGet, "/batteries", "")
	require.Equal(t, http.StatusOK, w.Code)
	var bats []types.BatterySnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bats))
	require.Len(t, bats, 2)
	assert.Equal(t, int64(200), bats[1].Wear)
}

func TestAPIDrawMode(t *testing.T) {
	l := newTestLoop(t, newTestBus(), LoopOptions{Interval: time.Hour})
	runLoop(t, l)
	router := setupRoutes(l, events.NewHub(), nil)

	w := do(t, router, http.MethodGet, "/draw-mode", "")
	require.Equal(t, http.StatusOK, w.Code)
	var dm types.DrawMode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dm))
	assert.Equal(t, "total", dm.Mode)
	assert.Equal(t, []string{"total", "batteries", "wear", "rate"}, dm.Modes)

	tests := []struct {
		body string
		code int
		want string
	}{
		{body: `"wear"`, code: http.StatusOK, want: "wear"},
		{body: "next", code: http.StatusOK, want: "rate"},
		{body: `"next"`, code: http.StatusOK, want: "total"},
		{body: "prev", code: http.StatusOK, want: "rate"},
		{body: "bogus", code: http.StatusBadRequest, want: "rate"},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodPut, "/draw-mode", tt.body)
		assert.Equal(t, tt.code, w.Code, tt.body)
		assert.Equal(t, tt.want, l.Mode().String(), tt.body)
	}
}

func TestAPIVersion(t *testing.T) {
	l := newTestLoop(t, newTestBus(), LoopOptions{})
	router := setupRoutes(l, events.NewHub(), nil)

	w := do(t, router, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)

	var v string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, version.Version, v)
}

func TestAPIMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := newTestLoop(t, newTestBus(), LoopOptions{Metrics: metrics.New(reg)})
	l.redraw()
	l.tick()
	router := setupRoutes(l, events.NewHub(), reg)

	w := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "battray_polls_total 1")
	assert.Contains(t, body, `battray_battery_charge{index="0"} 2500`)
	assert.Contains(t, body, "battray_batteries_present 2")
}

func TestAPIEvents(t *testing.T) {
	bus := newTestBus()
	hub := events.NewHub()
	l := newTestLoop(t, bus, LoopOptions{Hub: hub, Interval: time.Hour})
	runLoop(t, l)

	srv := httptest.NewServer(setupRoutes(l, hub, nil))
	defer srv.Close()

	require.Eventually(t, func() bool {
		_, ok := l.Snapshot()
		return ok
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	r := bufio.NewReader(resp.Body)
	first := readEventName(t, r)
	assert.Equal(t, events.BatterySnapshot, first)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	_, err = l.RequestMode(ctx, display.ModeWear.String())
	require.NoError(t, err)

	assert.Equal(t, events.DrawModeChanged, readEventName(t, r))
	assert.Equal(t, events.BatterySnapshot, readEventName(t, r))
}

// readEventName reads one SSE frame and returns its event name.
func readEventName(t *testing.T, r *bufio.Reader) string {
	t.Helper()

	name := ""
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			t.Fatal("event stream ended")
		}
		require.NoError(t, err)

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if name != "" {
				return name
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "event:"); ok {
			name = strings.TrimSpace(v)
		}
	}
}
