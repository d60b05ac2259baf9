package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shaiso/Pipedeck/internal/domain"
)

func TestListStages_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/stages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"pipelines": {"papers": {"name": "papers", "stages": ["fetch"]}},
			"stages": {"fetch": {"name": "fetch"}}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.ListStages(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := resp.Pipelines["papers"]; !ok {
		t.Errorf("pipelines = %v", resp.Pipelines)
	}
	if _, ok := resp.Stages["fetch"]; !ok {
		t.Errorf("stages = %v", resp.Stages)
	}
}

func TestListStages_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"pipelines": {}, "stages": {}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.ListStages(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestListStages_GivesUpAfterBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListStages(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrBackendStatus) {
		t.Errorf("expected ErrBackendStatus, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want exactly the retry budget", got)
	}
}

func TestListStages_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such resource", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ListStages(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (client errors are not retried)", got)
	}

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("expected StatusError 404, got %v", err)
	}
}

func TestGetStageSchema_FillsStageName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stages/fetch/config" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"fields": [{"name": "limit", "kind": "int"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	schema, err := c.GetStageSchema(context.Background(), "fetch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The stage name is filled in when the backend omits it
	if schema.Stage != "fetch" {
		t.Errorf("Stage = %q, want fetch", schema.Stage)
	}
	if len(schema.Fields) != 1 || schema.Fields[0].Name != "limit" {
		t.Errorf("Fields = %+v", schema.Fields)
	}
}

func TestExecute_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Execute(context.Background(), ExecuteRequest{Pipeline: "papers"})
	if err == nil {
		t.Fatal("expected error")
	}
	// Control operations never retry: a second execute must come
	// from the user, not the transport layer
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestExecute_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pipelines/execute" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.Write([]byte(`{"pipeline_id": "run-7", "status": "pending"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Execute(context.Background(), ExecuteRequest{
		Pipeline: "papers",
		Stages:   []string{"fetch"},
		Metadata: ExecuteMetadata{ExperimentID: "exp-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.PipelineID != "run-7" || resp.Status != domain.RunStatusPending {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetStatus_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": `))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetStatus(context.Background(), "run-1")
	if !errors.Is(err, ErrDecodeResponse) {
		t.Errorf("expected ErrDecodeResponse, got %v", err)
	}
}

func TestCancel_EscapesRunID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Cancel(context.Background(), "run/7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false")
	}
	if gotPath != "/pipelines/run%2F7/cancel" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestStatusError_Message(t *testing.T) {
	e := &StatusError{Method: "GET", Path: "/stages", Code: 503, Body: "overloaded"}
	want := "GET /stages: HTTP 503: overloaded"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	bare := &StatusError{Method: "POST", Path: "/pipelines/execute", Code: 500}
	if bare.Error() != "POST /pipelines/execute: HTTP 500" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
