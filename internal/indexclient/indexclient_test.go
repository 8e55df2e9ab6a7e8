package indexclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotifyYankStateChanged(t *testing.T) {
	var got struct {
		method string
		path   string
		event  yankEvent
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got.event); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	if err := c.NotifyYankStateChanged(context.Background(), "foo/bar", "1.0.0", true); err != nil {
		t.Fatalf("NotifyYankStateChanged: %v", err)
	}

	if got.method != http.MethodPut {
		t.Errorf("method = %s, want PUT", got.method)
	}
	if got.path != "/index/crates/foo~bar/1.0.0/yanked" {
		t.Errorf("path = %s", got.path)
	}
	if got.event.Crate != "foo/bar" || got.event.Version != "1.0.0" || !got.event.Yanked {
		t.Errorf("event = %+v", got.event)
	}
	if got.event.EventID == "" {
		t.Error("event_id missing")
	}
}

func TestNotifyYankStateChanged_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	if err := c.NotifyYankStateChanged(context.Background(), "widget", "1.0.0", true); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestNotifyYankStateChanged_BreakerOpensAfterFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, TripThreshold: 2})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := c.NotifyYankStateChanged(ctx, "widget", "1.0.0", true); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}
	if !c.Tripped() {
		t.Fatal("breaker should be open after reaching threshold")
	}

	// An open breaker fails fast without touching the network.
	before := hits
	if err := c.NotifyYankStateChanged(ctx, "widget", "1.0.0", true); err == nil {
		t.Fatal("expected fail-fast error while breaker is open")
	}
	if hits != before {
		t.Errorf("open breaker still hit the server (%d -> %d)", before, hits)
	}
}

func TestNotifyYankStateChanged_SuccessKeepsBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, TripThreshold: 2})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := c.NotifyYankStateChanged(ctx, "widget", "1.0.0", i%2 == 0); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if c.Tripped() {
		t.Error("breaker tripped on a healthy endpoint")
	}
}
