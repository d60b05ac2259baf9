package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Pipedeck/internal/catalog"
	"github.com/shaiso/Pipedeck/internal/config"
	"github.com/shaiso/Pipedeck/internal/domain"
	"github.com/shaiso/Pipedeck/internal/remote"
	"github.com/shaiso/Pipedeck/internal/selection"
)

// fakeBackend — scripted backend double.
type fakeBackend struct {
	mu sync.Mutex

	validateResult *domain.ValidationResult
	validateErr    error
	lastValidate   remote.ValidateRequest

	executeResp *remote.ExecuteResponse
	executeErr  error
	lastExecute remote.ExecuteRequest

	// statusReplies are consumed one per GetStatus call;
	// the last one is repeated once the queue is drained.
	statusReplies []statusReply
	statusCalls   int

	cancelResp  *remote.CancelResponse
	cancelErr   error
	cancelCalls []string
}

type statusReply struct {
	snapshot *domain.StatusSnapshot
	err      error
}

func (f *fakeBackend) Validate(_ context.Context, req remote.ValidateRequest) (*domain.ValidationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastValidate = req
	return f.validateResult, f.validateErr
}

func (f *fakeBackend) Execute(_ context.Context, req remote.ExecuteRequest) (*remote.ExecuteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastExecute = req
	return f.executeResp, f.executeErr
}

func (f *fakeBackend) GetStatus(_ context.Context, _ string) (*domain.StatusSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.statusCalls
	if idx >= len(f.statusReplies) {
		idx = len(f.statusReplies) - 1
	}
	f.statusCalls++

	r := f.statusReplies[idx]
	return r.snapshot, r.err
}

func (f *fakeBackend) Cancel(_ context.Context, runID string) (*remote.CancelResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls = append(f.cancelCalls, runID)
	return f.cancelResp, f.cancelErr
}

func (f *fakeBackend) statusCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func newTestController(t *testing.T, backend *fakeBackend) (*Controller, *selection.State) {
	t.Helper()

	cat := catalog.New(nil, map[string]domain.Stage{
		"fetch": {Name: "fetch"},
		"clean": {Name: "clean", Dependencies: []string{"fetch"}},
	})
	sel := selection.NewState(cat)
	cfg := config.NewState()

	c := New(Config{
		Backend:      backend,
		Selection:    sel,
		Configs:      cfg,
		PollInterval: 5 * time.Millisecond,
	})
	t.Cleanup(c.Close)

	return c, sel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

// --- Validate ---

func TestValidate_NoPipeline(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{})

	err := c.Validate(context.Background())
	if !errors.Is(err, ErrNoPipeline) {
		t.Errorf("expected ErrNoPipeline, got %v", err)
	}
}

func TestValidate_StoresResult(t *testing.T) {
	backend := &fakeBackend{
		validateResult: &domain.ValidationResult{
			Valid:    false,
			Errors:   map[string][]string{"clean": {"mode is required"}},
			Warnings: []string{"fetch: high limit"},
		},
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("clean")

	if err := c.Validate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := c.Session()
	if session.ValidationResult == nil || session.ValidationResult.Valid {
		t.Fatalf("validation result not stored: %+v", session.ValidationResult)
	}
	// Structured validation errors never land in the transport error log
	if len(session.Errors) != 0 {
		t.Errorf("session.Errors = %v, want empty", session.Errors)
	}

	// Request carries the dependency-closed selection
	if len(backend.lastValidate.Stages) != 2 {
		t.Errorf("validate stages = %v, want closure of clean", backend.lastValidate.Stages)
	}
}

func TestValidate_TransportError(t *testing.T) {
	backend := &fakeBackend{validateErr: errors.New("connection refused")}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	err := c.Validate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	session := c.Session()
	if len(session.Errors) != 1 || !strings.Contains(session.Errors[0], "connection refused") {
		t.Errorf("session.Errors = %v", session.Errors)
	}
	if session.ValidationInFlight {
		t.Error("ValidationInFlight should be cleared")
	}
}

// --- Execute ---

func TestExecute_NoPipeline(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{})

	if err := c.Execute(context.Background()); !errors.Is(err, ErrNoPipeline) {
		t.Errorf("expected ErrNoPipeline, got %v", err)
	}
}

func TestExecute_TransportError(t *testing.T) {
	backend := &fakeBackend{executeErr: errors.New("dial tcp: timeout")}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	if err := c.Execute(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	session := c.Session()
	if session.RunID != "" {
		t.Error("RunID must stay empty on transport failure")
	}
	if len(session.Errors) != 1 {
		t.Errorf("session.Errors = %v", session.Errors)
	}
}

func TestExecute_RejectedByBackend(t *testing.T) {
	backend := &fakeBackend{
		executeResp: &remote.ExecuteResponse{Error: "pipeline is busy"},
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	// Rejection is not a transport error: Execute returns nil
	if err := c.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := c.Session()
	if session.RunID != "" {
		t.Error("RunID must stay empty on rejection")
	}
	if len(session.Errors) != 1 || session.Errors[0] != "pipeline is busy" {
		t.Errorf("session.Errors = %v", session.Errors)
	}

	// Polling must not start
	time.Sleep(30 * time.Millisecond)
	if backend.statusCallCount() != 0 {
		t.Error("GetStatus should never be called after a rejected execute")
	}
}

func TestExecute_StartsPollingUntilTerminal(t *testing.T) {
	backend := &fakeBackend{
		executeResp: &remote.ExecuteResponse{PipelineID: "run-1", Status: domain.RunStatusPending},
		statusReplies: []statusReply{
			{snapshot: &domain.StatusSnapshot{Status: domain.RunStatusRunning, CurrentStage: "fetch"}},
			{snapshot: &domain.StatusSnapshot{Status: domain.RunStatusRunning, CurrentStage: "clean"}},
			{snapshot: &domain.StatusSnapshot{Status: domain.RunStatusCompleted, ElapsedSeconds: 42}},
		},
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("clean")

	if err := c.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session := c.Session()
	if session.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", session.RunID)
	}
	if session.Status == nil || session.Status.Status != domain.RunStatusPending {
		t.Errorf("initial status = %+v, want pending", session.Status)
	}
	if backend.lastExecute.Metadata.ExperimentID == "" {
		t.Error("execute must carry a fresh experiment id")
	}

	waitFor(t, func() bool {
		s := c.Session()
		return s.Status != nil && s.Status.Status == domain.RunStatusCompleted
	})

	// Loop stops on the terminal snapshot: call count settles
	settled := backend.statusCallCount()
	time.Sleep(30 * time.Millisecond)
	if backend.statusCallCount() != settled {
		t.Error("polling should stop after a terminal status")
	}
}

func TestExecute_FreshExperimentIDPerCall(t *testing.T) {
	backend := &fakeBackend{
		executeResp: &remote.ExecuteResponse{Error: "busy"},
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	_ = c.Execute(context.Background())
	first := backend.lastExecute.Metadata.ExperimentID
	_ = c.Execute(context.Background())
	second := backend.lastExecute.Metadata.ExperimentID

	if first == "" || first == second {
		t.Errorf("experiment ids must differ: %q vs %q", first, second)
	}
}

// --- Polling ---

func TestPolling_TransportErrorsAreRetriedSilently(t *testing.T) {
	backend := &fakeBackend{
		executeResp: &remote.ExecuteResponse{PipelineID: "run-1"},
		statusReplies: []statusReply{
			{err: errors.New("temporary network failure")},
			{err: errors.New("temporary network failure")},
			{snapshot: &domain.StatusSnapshot{Status: domain.RunStatusCompleted}},
		},
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	if err := c.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, func() bool {
		s := c.Session()
		return s.Status != nil && s.Status.Status == domain.RunStatusCompleted
	})

	// Poll failures are logged, never recorded in the session
	if got := c.Session().Errors; len(got) != 0 {
		t.Errorf("session.Errors = %v, want empty", got)
	}
}

func TestPolling_StopsOnEveryTerminalStatus(t *testing.T) {
	terminals := []domain.RunStatus{
		domain.RunStatusCompleted,
		domain.RunStatusFailed,
		domain.RunStatusError,
		domain.RunStatusCancelled,
	}

	for _, status := range terminals {
		t.Run(string(status), func(t *testing.T) {
			backend := &fakeBackend{
				executeResp: &remote.ExecuteResponse{PipelineID: "run-1"},
				statusReplies: []statusReply{
					{snapshot: &domain.StatusSnapshot{Status: status}},
				},
			}
			c, sel := newTestController(t, backend)
			sel.SelectPipeline("papers")
			sel.Toggle("fetch")

			if err := c.Execute(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			waitFor(t, func() bool {
				s := c.Session()
				return s.Status != nil && s.Status.Status == status
			})

			settled := backend.statusCallCount()
			time.Sleep(30 * time.Millisecond)
			if backend.statusCallCount() != settled {
				t.Errorf("polling did not stop on %s", status)
			}
		})
	}
}

func TestApplySnapshot_DiscardsStale(t *testing.T) {
	c, _ := newTestController(t, &fakeBackend{})

	c.mu.Lock()
	c.session.RunID = "run-2"
	c.mu.Unlock()

	// Snapshot from a previous run is discarded
	if c.applySnapshot("run-1", 1, &domain.StatusSnapshot{Status: domain.RunStatusRunning}) {
		t.Error("snapshot for a stale run id must be discarded")
	}

	// Fresh snapshot applies
	if !c.applySnapshot("run-2", 2, &domain.StatusSnapshot{Status: domain.RunStatusRunning}) {
		t.Error("snapshot for the current run must apply")
	}

	// A slower response with an older sequence arrives later: last-issued-wins
	if c.applySnapshot("run-2", 1, &domain.StatusSnapshot{Status: domain.RunStatusPending}) {
		t.Error("out-of-order snapshot must be discarded")
	}

	if got := c.Session().Status.Status; got != domain.RunStatusRunning {
		t.Errorf("status = %s, want running", got)
	}
}

// --- Cancel ---

func TestCancel_NoActiveRun(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestController(t, backend)

	if err := c.Cancel(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.cancelCalls) != 0 {
		t.Error("backend must not be called without a run id")
	}
}

func TestCancel_DoesNotChangeLocalStatus(t *testing.T) {
	backend := &fakeBackend{
		executeResp: &remote.ExecuteResponse{PipelineID: "run-1"},
		statusReplies: []statusReply{
			{snapshot: &domain.StatusSnapshot{Status: domain.RunStatusRunning}},
		},
		cancelResp: &remote.CancelResponse{Success: true},
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	if err := c.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool {
		s := c.Session()
		return s.Status != nil && s.Status.Status == domain.RunStatusRunning
	})

	if err := c.Cancel(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.cancelCalls) != 1 || backend.cancelCalls[0] != "run-1" {
		t.Errorf("cancelCalls = %v", backend.cancelCalls)
	}
	// Cancel itself flips nothing locally: the poll loop will observe
	// the cancelled status on a later tick
	if got := c.Session().Status.Status; got != domain.RunStatusRunning {
		t.Errorf("status = %s, want running right after cancel", got)
	}
}

func TestCancel_TransportError(t *testing.T) {
	backend := &fakeBackend{
		executeResp: &remote.ExecuteResponse{PipelineID: "run-1"},
		statusReplies: []statusReply{
			{snapshot: &domain.StatusSnapshot{Status: domain.RunStatusRunning}},
		},
		cancelErr: errors.New("gateway timeout"),
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	if err := c.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Cancel(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	found := false
	for _, msg := range c.Session().Errors {
		if strings.Contains(msg, "gateway timeout") {
			found = true
		}
	}
	if !found {
		t.Errorf("cancel failure should be recorded: %v", c.Session().Errors)
	}
}

// --- Session maintenance ---

func TestClearErrors(t *testing.T) {
	backend := &fakeBackend{validateErr: errors.New("boom")}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	_ = c.Validate(context.Background())
	_ = c.Validate(context.Background())

	if got := len(c.Session().Errors); got != 2 {
		t.Fatalf("errors = %d, want 2 (append-only)", got)
	}

	c.ClearErrors()
	if got := len(c.Session().Errors); got != 0 {
		t.Errorf("errors = %d after ClearErrors, want 0", got)
	}
}

func TestReset(t *testing.T) {
	backend := &fakeBackend{
		executeResp: &remote.ExecuteResponse{PipelineID: "run-1"},
		statusReplies: []statusReply{
			{snapshot: &domain.StatusSnapshot{Status: domain.RunStatusRunning}},
		},
	}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	if err := c.Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.Reset()

	session := c.Session()
	if session.RunID != "" || session.Status != nil || session.ValidationResult != nil {
		t.Errorf("session not zeroed: %+v", session)
	}

	// Polling stopped: call count settles
	settled := backend.statusCallCount()
	time.Sleep(30 * time.Millisecond)
	if backend.statusCallCount() != settled {
		t.Error("polling should stop after Reset")
	}
}

func TestSession_ReturnsCopy(t *testing.T) {
	backend := &fakeBackend{validateErr: errors.New("boom")}
	c, sel := newTestController(t, backend)
	sel.SelectPipeline("papers")
	sel.Toggle("fetch")

	_ = c.Validate(context.Background())

	s := c.Session()
	s.Errors[0] = "mutated"

	if c.Session().Errors[0] == "mutated" {
		t.Error("Session must return a deep enough copy")
	}
}
