package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotab/internal/pipeline"
	"geotab/internal/storage"
)

// feed is a resultSource whose subscribers all read one channel.
type feed chan pipeline.Result

func (f feed) Subscribe() (<-chan pipeline.Result, func()) { return f, func() {} }

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHealthAndRuns(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.RecordRunQueued(storage.RunRecord{ID: "run-1", RunType: "tabulate", Status: "queued", InputPath: "/v/GO_0017"}))
	require.NoError(t, store.RecordRunResult("run-1", "completed", map[string]any{"succeeded": 2}, ""))
	require.NoError(t, store.RecordVolume(storage.VolumeResult{RunID: "run-1", VolumeID: "GO_0017", Observations: 3, Succeeded: 2, Failed: 1, Tables: []string{"GO_0017_inventory.csv"}}))
	require.NoError(t, store.RecordObservationFailure(storage.ObservationFailure{RunID: "run-1", VolumeID: "GO_0017", Observation: "C1", Severity: "warn", Message: "no kernels"}))

	ts := httptest.NewServer(NewServer("", store, make(feed), nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/runs")
	require.NoError(t, err)
	var runs []storage.RunRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	resp.Body.Close()
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)

	resp, err = http.Get(ts.URL + "/runs/run-1")
	require.NoError(t, err)
	var detail RunDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	resp.Body.Close()
	assert.EqualValues(t, 2, detail.Meta["succeeded"])
	require.Len(t, detail.Volumes, 1)
	assert.Equal(t, 1, detail.Volumes[0].Failed)
	require.Len(t, detail.Failures, 1)
	assert.Equal(t, "no kernels", detail.Failures[0].Message)

	resp, err = http.Get(ts.URL + "/runs/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunStream(t *testing.T) {
	results := make(feed, 1)
	ts := httptest.NewServer(NewServer("", newStore(t), results, nil).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	results <- pipeline.Result{
		Job:   pipeline.Job{ID: "run-2", Type: pipeline.JobTabulate, InputPath: "/v/GO_0018"},
		Error: errors.New("archive missing"),
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var ev RunEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &ev))
	assert.Equal(t, RunEvent{ID: "run-2", Type: "tabulate", Input: "/v/GO_0018", Status: "failed", Error: "archive missing"}, ev)
}

func TestWebSocketReceivesRunEvents(t *testing.T) {
	results := make(feed)
	s := NewServer("", newStore(t), results, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.run(ctx, results)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration races the first result, so keep publishing until one lands.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		tick := time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				select {
				case results <- pipeline.Result{Job: pipeline.Job{ID: "run-3", Type: pipeline.JobCumulative}}:
				case <-stop:
					return
				}
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev RunEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "run-3", ev.ID)
	assert.Equal(t, "completed", ev.Status)
}
