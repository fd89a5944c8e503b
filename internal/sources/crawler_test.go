package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"retroref/internal/systems"
)

func newCrawler(t *testing.T, system string) *Crawler {
	t.Helper()
	return &Crawler{
		Catalog:     systems.Default(),
		System:      system,
		MaxDepth:    3,
		Concurrency: 2,
		Timeout:     5 * time.Second,
	}
}

func TestCrawlerEnumerate(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/roms/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><pre>
<a href="../">Parent Directory</a>
<a href="?C=N;O=D">Name</a>
<a href="usa/">usa/</a>
<a href="Super%20Mario%20World%20%28USA%29.sfc">Super Mario World (USA).sfc</a>  12-Mar-2020 13:37  512K
<a href="notes.txt">notes.txt</a>
</pre></body></html>`)
	})
	mux.HandleFunc("/roms/usa/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body>
<a href="Chrono%20Trigger%20%28USA%29.zip">Chrono Trigger (USA).zip</a> 4194304
</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	refs, err := newCrawler(t, "snes").Enumerate(context.Background(), srv.URL+"/roms/")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(refs), refs)
	}

	byName := make(map[string]CandidateRef, len(refs))
	for _, ref := range refs {
		if !ref.Remote() {
			t.Fatalf("remote candidate missing URL: %+v", ref)
		}
		byName[ref.Name] = ref
	}

	mario, ok := byName["Super Mario World (USA).sfc"]
	if !ok {
		t.Fatal("root-level candidate missing")
	}
	if mario.Size != 512*1024 {
		t.Fatalf("size hint = %d, want 524288", mario.Size)
	}
	chrono, ok := byName["Chrono Trigger (USA).zip"]
	if !ok {
		t.Fatal("subdirectory candidate missing")
	}
	if chrono.Size != 4194304 {
		t.Fatalf("size hint = %d, want 4194304", chrono.Size)
	}
}

func TestCrawlerTableIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/roms/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><table>
<tr><th>Name</th><th>Last modified</th><th>Size</th></tr>
<tr><td><a href="Chrono%20Trigger%20%28USA%29.sfc">Chrono Trigger (USA).sfc</a></td><td>2023-03-17 17:04</td><td>4.0M</td></tr>
<tr><td><a href="Earthbound%20%28USA%29.sfc">Earthbound (USA).sfc</a></td><td>17-Mar-2023 17:04</td><td>-</td></tr>
</table></body></html>
<address>Apache Server at example.com Port 80</address>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	refs, err := newCrawler(t, "snes").Enumerate(context.Background(), srv.URL+"/roms/")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(refs), refs)
	}

	byName := make(map[string]CandidateRef, len(refs))
	for _, ref := range refs {
		byName[ref.Name] = ref
	}
	// The date cell is skipped; the size comes from the size cell.
	if got := byName["Chrono Trigger (USA).sfc"].Size; got != 4*1024*1024 {
		t.Fatalf("size hint = %d, want 4194304", got)
	}
	// A "-" size cell yields no hint, and neither the timestamp nor the
	// footer after the last row may stand in for one.
	if got := byName["Earthbound (USA).sfc"].Size; got != 0 {
		t.Fatalf("size hint = %d, want 0", got)
	}
}

func TestParseSizeHint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"4.0M", 4 * 1024 * 1024},
		{" 512K ", 512 * 1024},
		{"123456", 123456},
		{"1.5KiB", 1536},
		{"-", 0},
		{"", 0},
		{"2023-03-17 17:04", 0},
		{"17-Mar-2023 17:04", 0},
		{"17-Mar-2023 13:37  4.0M", 4 * 1024 * 1024},
		{"17-Mar-2023 13:37  123456", 123456},
	}
	for _, tc := range cases {
		if got := parseSizeHint(tc.in); got != tc.want {
			t.Errorf("parseSizeHint(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestCrawlerCyclicLinksTerminate(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/a/", func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		io.WriteString(w, `<a href="b/">b/</a><a href="Game%20%28USA%29.nes">Game (USA).nes</a>`)
	})
	mux.HandleFunc("/a/b/", func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		// Links back to an already-expanded page.
		io.WriteString(w, `<a href="/a/">mirror</a><a href="/a/b/">self</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	crawler := newCrawler(t, "")
	crawler.MaxDepth = 10
	refs, err := crawler.Enumerate(context.Background(), srv.URL+"/a/")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(refs))
	}
	if got := fetches.Load(); got != 2 {
		t.Fatalf("expected each page fetched once, got %d fetches", got)
	}
}

func TestCrawlerDepthBound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<a href="deeper/">deeper/</a><a href="rom%d.nes">rom</a>`, len(r.URL.Path))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	crawler := newCrawler(t, "")
	crawler.MaxDepth = 2
	refs, err := crawler.Enumerate(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	// Depths 0, 1, and 2 yield one file each; depth 3 is never fetched.
	if len(refs) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(refs), refs)
	}
}

func TestCrawlerSkipsFailedSubtree(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/roms/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<a href="broken/">broken/</a><a href="ok/">ok/</a>`)
	})
	mux.HandleFunc("/roms/broken/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/roms/ok/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<a href="Game%20%28USA%29.nes">Game (USA).nes</a>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	refs, err := newCrawler(t, "").Enumerate(context.Background(), srv.URL+"/roms/")
	if err != nil {
		t.Fatalf("sibling subtrees should survive one failure: %v", err)
	}
	if len(refs) != 1 || refs[0].Name != "Game (USA).nes" {
		t.Fatalf("expected the surviving sibling's candidate, got %+v", refs)
	}
}

func TestCrawlerRootFailureIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newCrawler(t, "").Enumerate(context.Background(), srv.URL+"/roms/"); err == nil {
		t.Fatal("expected error when the root index is unreachable")
	}
}
