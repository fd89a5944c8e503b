package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"retroref/internal/fileutil"
	"retroref/internal/testsupport"
	"retroref/internal/transfer"
)

func writeROM(t *testing.T, dir, name string) {
	t.Helper()
	if err := fileutil.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("rom: "+name), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(testsupport.NewConfig(t), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestRunLocalEndToEnd(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeROM(t, src, "Super Mario World (USA).sfc")
	writeROM(t, src, "Super Mario World (Europe).sfc")
	writeROM(t, src, "Super Mario World (Japan).sfc")
	writeROM(t, src, "Star Fox (USA) (Beta).sfc")
	writeROM(t, src, "Seiken Densetsu 3 (Japan).sfc")

	mgr := newManager(t)
	result, err := mgr.Run(context.Background(), Options{
		Source:  src,
		Systems: []string{"snes"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Fatal || result.ZeroSelection {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Reports) != 1 {
		t.Fatalf("reports = %+v", result.Reports)
	}

	rep := result.Reports[0]
	if rep.System != "snes" || rep.Candidates != 5 {
		t.Fatalf("report = %+v", rep)
	}
	// Two canonical games plus one excluded beta.
	if rep.Selected != 2 || rep.Excluded != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Committed != 2 || len(rep.Failures) != 0 {
		t.Fatalf("report = %+v", rep)
	}

	destDir := filepath.Join(mgr.cfg.Paths.DestDir, "snes")
	for _, name := range []string{"Super Mario World (USA).sfc", "Seiken Densetsu 3 (Japan).sfc"} {
		if !fileutil.FileExists(filepath.Join(destDir, name)) {
			t.Fatalf("winner %s not committed", name)
		}
	}
	if fileutil.FileExists(filepath.Join(destDir, "Super Mario World (Europe).sfc")) {
		t.Fatal("runner-up committed")
	}
}

func TestRunSecondPassHitsCache(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeROM(t, src, "Contra (USA).nes")

	mgr := newManager(t)
	opts := Options{Source: src, Systems: []string{"nes"}}

	if _, err := mgr.Run(context.Background(), opts); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := mgr.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := result.Reports[0].CacheHits; got != 1 {
		t.Fatalf("cache hits = %d, want 1", got)
	}
	if got := result.Reports[0].Transferred; got != 0 {
		t.Fatalf("transferred = %d, want 0", got)
	}
}

func TestRunDryRunTransfersNothing(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeROM(t, src, "Contra (USA).nes")

	mgr := newManager(t)
	result, err := mgr.Run(context.Background(), Options{
		Source:  src,
		Systems: []string{"nes"},
		DryRun:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reports[0].Selected != 1 || result.Reports[0].Committed != 0 {
		t.Fatalf("report = %+v", result.Reports[0])
	}
	if fileutil.FileExists(filepath.Join(mgr.cfg.Paths.DestDir, "nes", "Contra (USA).nes")) {
		t.Fatal("dry run committed a file")
	}
}

func TestRunUnknownSystem(t *testing.T) {
	t.Parallel()

	mgr := newManager(t)
	if _, err := mgr.Run(context.Background(), Options{Source: t.TempDir(), Systems: []string{"vectrex9000"}}); err == nil {
		t.Fatal("expected error for unknown system")
	}
}

func TestRunSystemAliasResolution(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeROM(t, src, "Contra (USA).nes")

	mgr := newManager(t)
	result, err := mgr.Run(context.Background(), Options{
		Source:  src,
		Systems: []string{"Nintendo Entertainment System"},
		DryRun:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reports[0].System != "nes" {
		t.Fatalf("alias not resolved: %+v", result.Reports[0])
	}
}

func TestRunConnectionsOverrideRebuildsBackend(t *testing.T) {
	t.Parallel()

	mgr := newManager(t)
	override := mgr.cfg.Transfer.ConnectionsPerFile + 3

	backend := mgr.transferBackend(Options{Connections: override})
	fetcher, ok := backend.(*transfer.HTTPFetcher)
	if !ok {
		t.Fatalf("backend = %T", backend)
	}
	if fetcher.Connections != override {
		t.Fatalf("connections = %d, want %d", fetcher.Connections, override)
	}

	// Without an override the shared backend is reused as-is.
	if got := mgr.transferBackend(Options{}); got != mgr.backend {
		t.Fatalf("zero override replaced the shared backend: %T", got)
	}
	if got := mgr.transferBackend(Options{Connections: mgr.cfg.Transfer.ConnectionsPerFile}); got != mgr.backend {
		t.Fatal("matching override replaced the shared backend")
	}
}

func TestRunZeroSelectionFlagged(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeROM(t, src, "Demo Disc (USA) (Demo).nes")

	mgr := newManager(t)
	result, err := mgr.Run(context.Background(), Options{Source: src, Systems: []string{"nes"}, DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.ZeroSelection {
		t.Fatalf("zero-selection run not flagged: %+v", result.Reports[0])
	}
}

func TestRunEnumerationFailureIsFatalFlag(t *testing.T) {
	t.Parallel()

	mgr := newManager(t)
	result, err := mgr.Run(context.Background(), Options{
		Source:  filepath.Join(t.TempDir(), "missing"),
		Systems: []string{"nes"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Fatal {
		t.Fatalf("missing source not flagged fatal: %+v", result)
	}
}
