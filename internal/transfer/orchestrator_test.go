package transfer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"retroref/internal/fileutil"
	"retroref/internal/integrity"
	"retroref/internal/sources"
)

func newOrchestrator(t *testing.T, store *integrity.Store) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	o := &Orchestrator{
		Store:        store,
		Backend:      &HTTPFetcher{Client: &http.Client{Timeout: 5 * time.Second}},
		Workers:      2,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		StagingDir:   filepath.Join(dir, "staging"),
	}
	return o, filepath.Join(dir, "library")
}

func openStore(t *testing.T) *integrity.Store {
	t.Helper()
	store, err := integrity.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunCommitsRemoteCandidates(t *testing.T) {
	t.Parallel()

	payload := []byte("rom payload bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	store := openStore(t)
	o, destDir := newOrchestrator(t, store)

	refs := []sources.CandidateRef{{
		Name: "Game (USA).nes",
		URL:  srv.URL + "/Game%20%28USA%29.nes",
		Size: int64(len(payload)),
	}}
	summary, err := o.Run(context.Background(), "nes", refs, destDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Committed) != 1 || len(summary.Failed) != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	task := summary.Committed[0]
	if task.State != StateCommitted {
		t.Fatalf("state = %s", task.State)
	}

	final := filepath.Join(destDir, "Game (USA).nes")
	digest, err := fileutil.DigestFile(final)
	if err != nil {
		t.Fatalf("digest committed file: %v", err)
	}
	if digest != task.Digest {
		t.Fatalf("committed digest %+v, task digest %+v", digest, task.Digest)
	}

	entry, ok, err := store.Lookup(context.Background(), "nes", "Game (USA).nes")
	if err != nil || !ok {
		t.Fatalf("cache entry missing: ok=%v err=%v", ok, err)
	}
	if entry.SHA256 != digest.SHA256 || entry.Size != digest.Size {
		t.Fatalf("cache entry %+v does not match digest %+v", entry, digest)
	}
}

func TestRunCacheHitSkipsFetch(t *testing.T) {
	t.Parallel()

	payload := []byte("stable rom content")
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fetches.Add(1)
		}
		w.Write(payload)
	}))
	defer srv.Close()

	store := openStore(t)
	o, destDir := newOrchestrator(t, store)
	refs := []sources.CandidateRef{{
		Name: "Game (USA).nes",
		URL:  srv.URL + "/game.nes",
		Size: int64(len(payload)),
	}}

	if _, err := o.Run(context.Background(), "nes", refs, destDir); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := fetches.Load()
	if first == 0 {
		t.Fatal("first run performed no fetch")
	}

	summary, err := o.Run(context.Background(), "nes", refs, destDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if fetches.Load() != first {
		t.Fatalf("second run fetched from the network: %d -> %d", first, fetches.Load())
	}
	if summary.CacheHits != 1 || len(summary.Committed) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.BytesTransferred != 0 {
		t.Fatalf("cache hit counted transferred bytes: %d", summary.BytesTransferred)
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "no", http.StatusMethodNotAllowed)
			return
		}
		if attempts.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "finally")
	}))
	defer srv.Close()

	o, destDir := newOrchestrator(t, nil)
	refs := []sources.CandidateRef{{Name: "game.nes", URL: srv.URL + "/game.nes"}}

	summary, err := o.Run(context.Background(), "nes", refs, destDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Committed) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := summary.Committed[0].Attempts; got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestRunFailsAfterRetryBudget(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "always down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	o, destDir := newOrchestrator(t, nil)
	refs := []sources.CandidateRef{{Name: "game.nes", URL: srv.URL + "/game.nes"}}

	summary, err := o.Run(context.Background(), "nes", refs, destDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Failed) != 1 || len(summary.Committed) != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	task := summary.Failed[0]
	if task.State != StateFailed || task.Err == nil {
		t.Fatalf("task = %+v", task)
	}
	if task.Attempts != o.MaxRetries+1 {
		t.Fatalf("attempts = %d, want %d", task.Attempts, o.MaxRetries+1)
	}
	if fileutil.FileExists(filepath.Join(destDir, "game.nes")) {
		t.Fatal("failed task left a file at the final destination")
	}
}

func TestRunSizeMismatchFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "short")
	}))
	defer srv.Close()

	o, destDir := newOrchestrator(t, nil)
	refs := []sources.CandidateRef{{Name: "game.nes", URL: srv.URL + "/game.nes", Size: 999}}

	summary, err := o.Run(context.Background(), "nes", refs, destDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Failed) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if fileutil.FileExists(filepath.Join(destDir, "game.nes")) {
		t.Fatal("unverified file exposed at the final destination")
	}
}

func TestRunToleratesRoundedSizeHint(t *testing.T) {
	t.Parallel()

	// 1000 bytes listed as "1.0K" parses to 1024; the transfer must still
	// verify and later cache-hit against the exact recorded size.
	payload := bytes.Repeat([]byte("x"), 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	store := openStore(t)
	o, destDir := newOrchestrator(t, store)
	refs := []sources.CandidateRef{{Name: "game.nes", URL: srv.URL + "/game.nes", Size: 1024}}

	summary, err := o.Run(context.Background(), "nes", refs, destDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Committed) != 1 || len(summary.Failed) != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	summary, err = o.Run(context.Background(), "nes", refs, destDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.CacheHits != 1 {
		t.Fatalf("rounded hint defeated the cache: %+v", summary)
	}
}

func TestRunLocalCandidates(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "Game (USA).sfc")
	if err := os.WriteFile(srcPath, []byte("local rom"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	store := openStore(t)
	o, destDir := newOrchestrator(t, store)
	refs := []sources.CandidateRef{{Name: "Game (USA).sfc", Path: srcPath, Size: 9}}

	summary, err := o.Run(context.Background(), "snes", refs, destDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Committed) != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if !fileutil.FileExists(filepath.Join(destDir, "Game (USA).sfc")) {
		t.Fatal("local candidate not committed")
	}
}

func TestProbeFallsBackToBuiltin(t *testing.T) {
	t.Parallel()

	backend := Probe("builtin", 2, time.Second, nil)
	if backend.Name() != "builtin" {
		t.Fatalf("backend = %q", backend.Name())
	}
	// An unknown preference behaves like builtin rather than failing.
	backend = Probe("", 2, time.Second, nil)
	if backend.Name() != "builtin" {
		t.Fatalf("backend = %q", backend.Name())
	}
}
