package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"geotab/internal/backplane"
	"geotab/internal/config"
	"geotab/internal/grpcserver"
	"geotab/internal/pipeline"
	"geotab/internal/storage"
)

func TestTabulatePlansEveryVolumeOfCollection(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	input := collection(t, "GO_0xxx", "GO_0001", "GO_0002", "GO_0017", "notes")
	output := filepath.Join(t.TempDir(), "tables")

	out, err := execute(root, "tabulate", "--input", input, "--output", output, "--exclude", "GO_0002", "--selection", "S", "--first", "5")
	if err != nil {
		t.Fatalf("tabulate failed: %v\n%s", err, out)
	}

	jobs := fakePipe.submitted()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	wantIDs := []string{"GO_0001", "GO_0017"}
	for i, job := range jobs {
		if job.Type != pipeline.JobTabulate {
			t.Fatalf("expected type %s, got %s", pipeline.JobTabulate, job.Type)
		}
		if got := job.Options["volume"]; got != wantIDs[i] {
			t.Fatalf("job %d: expected volume %s, got %v", i, wantIDs[i], got)
		}
		if want := filepath.Join(output, wantIDs[i]); job.Output != want {
			t.Fatalf("job %d: expected output %s, got %s", i, want, job.Output)
		}
		if job.Options["selection"] != "S" || job.Options["first"] != 5 {
			t.Fatalf("job %d: unexpected options %v", i, job.Options)
		}
	}
}

func TestTabulateNewOnlySkipsTabulatedVolumes(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	input := collection(t, "GO_0xxx", "GO_0001", "GO_0002")
	touch(t, filepath.Join(input, "GO_0001", "GO_0001_inventory.csv"))

	if _, err := execute(root, "tabulate", "--input", input, "--output", "", "--new-only"); err != nil {
		t.Fatalf("tabulate failed: %v", err)
	}

	jobs := fakePipe.submitted()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Options["volume"] != "GO_0002" {
		t.Fatalf("expected GO_0002, got %v", jobs[0].Options["volume"])
	}
	if jobs[0].Output != filepath.Join(input, "GO_0002") {
		t.Fatalf("expected tables beside the archive, got %s", jobs[0].Output)
	}
}

func TestTabulateExplicitDirectories(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	input := collection(t, "COISS_2xxx", "COISS_2001")
	dir := filepath.Join(input, "COISS_2001") + string(filepath.Separator)

	if _, err := execute(root, "tabulate", "--input", input, "--output", "", dir); err != nil {
		t.Fatalf("tabulate failed: %v", err)
	}
	jobs := fakePipe.submitted()
	if len(jobs) != 1 || jobs[0].Options["volume"] != "COISS_2001" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
}

func TestTabulateRejectsBadSelection(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	input := collection(t, "GO_0xxx", "GO_0001")

	if _, err := execute(root, "tabulate", "--input", input, "--selection", "X"); err == nil {
		t.Fatalf("expected error for selection X")
	}
	if n := len(fakePipe.submitted()); n != 0 {
		t.Fatalf("expected no jobs, got %d", n)
	}
}

func TestRunJobsAggregatesFailures(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	var jobs []pipeline.Job
	for _, id := range []string{"a", "b", "c"} {
		jobs = append(jobs, pipeline.Job{ID: id, Type: pipeline.JobTabulate, InputPath: "/volumes/" + id})
	}
	fakePipe.fail("a", errors.New("archive missing"))
	fakePipe.fail("c", errors.New("column overflow"))

	err := root.runJobs(context.Background(), jobs)
	if err == nil {
		t.Fatalf("expected error from failed jobs")
	}
	msg := err.Error()
	for _, want := range []string{"2 of 3 jobs failed", "/volumes/a: archive missing", "/volumes/c: column overflow"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestRunJobsThrottlesSubmissions(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	jobs := make([]pipeline.Job, 3*maxInFlight)
	for i := range jobs {
		jobs[i] = pipeline.Job{ID: newRunID(), Type: pipeline.JobTabulate}
	}
	if err := root.runJobs(context.Background(), jobs); err != nil {
		t.Fatalf("runJobs failed: %v", err)
	}
	if n := len(fakePipe.submitted()); n != len(jobs) {
		t.Fatalf("expected %d jobs, got %d", len(jobs), n)
	}
	if peak := fakePipe.peakInFlight(); peak > maxInFlight {
		t.Fatalf("expected at most %d jobs in flight, got %d", maxInFlight, peak)
	}
}

func TestEnqueueAndWaitPropagatesErrors(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	job := pipeline.Job{ID: "err-job", Type: pipeline.JobCumulative}
	fakePipe.fail("err-job", context.DeadlineExceeded)
	if err := root.enqueueAndWait(context.Background(), job); err == nil {
		t.Fatalf("expected error from pipeline result")
	}
}

func TestEnqueueHonorsCanceledContext(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := root.enqueue(ctx, pipeline.Job{ID: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := len(fakePipe.submitted()); n != 0 {
		t.Fatalf("expected no jobs, got %d", n)
	}
}

func TestCumulativeJobOptions(t *testing.T) {
	root, fakePipe := newTestRoot(t)
	input := filepath.Join(t.TempDir(), "GO_0xxx")

	if _, err := execute(root, "cumulative", "--input", input, "--selection", "D"); err != nil {
		t.Fatalf("cumulative failed: %v", err)
	}
	jobs := fakePipe.submitted()
	if len(jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.Type != pipeline.JobCumulative {
		t.Fatalf("expected type %s, got %s", pipeline.JobCumulative, job.Type)
	}
	if job.Options["collection"] != "GO_0xxx" || job.Options["selection"] != "D" {
		t.Fatalf("unexpected options %v", job.Options)
	}
}

func TestServeCommandUsesInjectedFunction(t *testing.T) {
	root, _ := newTestRoot(t)
	var called bool
	root.serveFn = func(ctx context.Context, addr string, store *storage.Store, pipe pipelineClient, log *slog.Logger) error {
		called = true
		if addr != "127.0.0.1:9999" {
			t.Errorf("unexpected addr %s", addr)
		}
		return context.Canceled
	}
	if _, err := execute(root, "serve", "--addr", "127.0.0.1:9999", "--grpc-addr", "127.0.0.1:0"); err != nil {
		t.Fatalf("serve failed: %v", err)
	}
	if !called {
		t.Fatalf("serve function was not invoked")
	}
}

func TestHealthCommandReportsServing(t *testing.T) {
	root, _ := newTestRoot(t)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- grpcserver.New("", nil).Serve(ctx, lis) }()
	defer func() {
		cancel()
		<-done
	}()

	out, err := execute(root, "health", "--addr", lis.Addr().String())
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if !strings.Contains(out, "SERVING") {
		t.Fatalf("expected SERVING in %q", out)
	}
}

func TestGapTablePrintsOneLinePerCount(t *testing.T) {
	root, _ := newTestRoot(t)
	out, err := execute(root, "gaptable", "--max", "4", "--tests", "200")
	if err != nil {
		t.Fatalf("gaptable failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[3]), "3,") {
		t.Fatalf("expected row for n=3, got %q", lines[3])
	}
}

func TestFindObservation(t *testing.T) {
	src := &listSource{obs: []backplane.Observation{
		{ID: 1, Basename: "C0349632100R"},
		{ID: 2, Basename: "C0349632200R"},
	}}
	obs, err := findObservation(context.Background(), src, "C0349632200R")
	if err != nil {
		t.Fatalf("findObservation failed: %v", err)
	}
	if obs.ID != 2 {
		t.Fatalf("expected observation 2, got %d", obs.ID)
	}
	if _, err := findObservation(context.Background(), src, "C0000000000R"); err == nil {
		t.Fatalf("expected error for unknown observation")
	}
}

func TestConfigCommands(t *testing.T) {
	root, _ := newTestRoot(t)

	showOut, err := execute(root, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"Current configuration", "Tiling minimum: 100 samples", "(built-in tilings)"} {
		if !strings.Contains(showOut, want) {
			t.Fatalf("expected %q in configuration output, got %q", want, showOut)
		}
	}

	validOut, err := execute(root, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(validOut, "configuration is valid") {
		t.Fatalf("unexpected validate output %q", validOut)
	}

	root.cfg.Processing.Selection = "Q"
	if _, err := execute(root, "config", "validate"); err == nil {
		t.Fatalf("expected validation error for selection Q")
	}

	versionOut, err := execute(root, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(versionOut, "geotab v"+Version) {
		t.Fatalf("expected version string, got %q", versionOut)
	}
}

// Test helpers

func newTestRoot(t *testing.T) (*Root, *fakePipeline) {
	t.Helper()

	t.Setenv("GEOTAB_CONFIG", filepath.Join(t.TempDir(), "absent.json"))
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	tmp := t.TempDir()
	cfg.Paths.OutputTree = filepath.Join(tmp, "output")
	cfg.Paths.DatabasePath = filepath.Join(tmp, "geotab.db")

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pipe := newFakePipeline()
	root := NewRoot(pipe, cfg, logger, nil, nil, nil)
	return root, pipe
}

func execute(root *Root, args ...string) (string, error) {
	cmd := newRootCmd(root)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// collection creates a collection directory holding the named volumes.
func collection(t *testing.T, name string, volumes ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	for _, v := range volumes {
		if err := os.MkdirAll(filepath.Join(dir, v), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", v, err)
		}
	}
	return dir
}

type fakePipeline struct {
	mu        sync.Mutex
	jobs      []pipeline.Job
	subs      map[int]chan pipeline.Result
	nextSubID int
	jobErrors map[string]error
	inFlight  int
	peak      int
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		subs:      make(map[int]chan pipeline.Result),
		jobErrors: make(map[string]error),
	}
}

func (f *fakePipeline) Submit(job pipeline.Job) error {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
	subs := make([]chan pipeline.Result, 0, len(f.subs))
	for _, ch := range f.subs {
		subs = append(subs, ch)
	}
	err := f.jobErrors[job.ID]
	f.mu.Unlock()

	go func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
		res := pipeline.Result{Job: job, Error: err, Meta: map[string]any{"ok": true}}
		for _, ch := range subs {
			ch <- res
		}
	}()
	return nil
}

func (f *fakePipeline) Subscribe() (<-chan pipeline.Result, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSubID
	f.nextSubID++
	ch := make(chan pipeline.Result, maxInFlight)
	f.subs[id] = ch
	unsub := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
	return ch, unsub
}

func (f *fakePipeline) fail(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobErrors[id] = err
}

// submitted returns the jobs in submission order, volume jobs sorted by
// volume.
func (f *fakePipeline) submitted() []pipeline.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]pipeline.Job(nil), f.jobs...)
	sort.SliceStable(out, func(i, j int) bool {
		vi, _ := out[i].Options["volume"].(string)
		vj, _ := out[j].Options["volume"].(string)
		return vi < vj
	})
	return out
}

func (f *fakePipeline) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

type listSource struct {
	obs []backplane.Observation
}

func (s *listSource) Observations(ctx context.Context) ([]backplane.Observation, error) {
	return s.obs, nil
}

func (s *listSource) Provider(ctx context.Context, obs backplane.Observation) (backplane.Provider, error) {
	return nil, backplane.ErrDataUnavailable
}

func (s *listSource) Close() error { return nil }

func touch(t *testing.T, path string) {
	t.Helper()
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("failed to touch %s: %v", path, err)
	}
}
