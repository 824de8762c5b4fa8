package loader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/n9te9/hive-query-router/internal/loader"
)

func TestHiveLoader_FirstFetchSetsETagThenReturnsUnchanged(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		if r.Header.Get("x-hive-cdn-key") != "secret" {
			t.Errorf("missing or wrong x-hive-cdn-key header: %q", r.Header.Get("x-hive-cdn-key"))
		}
		if r.Header.Get("user-agent") != "hive-router/1.2.3" {
			t.Errorf("unexpected user-agent: %q", r.Header.Get("user-agent"))
		}

		if r.Header.Get("If-None-Match") == "v1" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", "v1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("type Query { ok: Boolean }"))
	}))
	defer srv.Close()

	hl := &loader.HiveLoader{
		Endpoint:      srv.URL,
		CDNKey:        "secret",
		RouterVersion: "1.2.3",
	}

	result, err := hl.Load(context.Background())
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	changed, ok := result.(loader.Changed)
	if !ok {
		t.Fatalf("expected Changed on first fetch, got %#v", result)
	}
	if changed.SDL != "type Query { ok: Boolean }" {
		t.Errorf("unexpected SDL: %q", changed.SDL)
	}

	result, err = hl.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if _, ok := result.(loader.Unchanged); !ok {
		t.Fatalf("expected Unchanged once the ETag matches, got %#v", result)
	}

	if got := atomic.LoadInt32(&requests); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestHiveLoader_RetriesTransientFailureThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("type Query { ok: Boolean }"))
	}))
	defer srv.Close()

	hl := &loader.HiveLoader{
		Endpoint:      srv.URL,
		CDNKey:        "secret",
		RouterVersion: "1.2.3",
		Retry: loader.RetryOption{
			MaxAttempts: 3,
			Backoff:     time.Millisecond,
			Timeout:     time.Second,
		},
	}

	result, err := hl.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := result.(loader.Changed); !ok {
		t.Fatalf("expected Changed after retry succeeded, got %#v", result)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestHiveLoader_ExhaustsRetriesAndReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	hl := &loader.HiveLoader{
		Endpoint:      srv.URL,
		CDNKey:        "secret",
		RouterVersion: "1.2.3",
		Retry: loader.RetryOption{
			MaxAttempts: 2,
			Backoff:     time.Millisecond,
			Timeout:     time.Second,
		},
	}

	if _, err := hl.Load(context.Background()); err == nil {
		t.Fatal("expected an error once retries are exhausted")
	}
}
