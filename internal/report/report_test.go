package report

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderer := NewRenderer(&buf, Capability{})
	renderer.Render([]SystemReport{
		{
			System:      "snes",
			Candidates:  120,
			Selected:    40,
			Excluded:    80,
			Committed:   39,
			CacheHits:   10,
			Transferred: 512 * 1024 * 1024,
			Failures:    []Failure{{Name: "Game (USA).sfc", Detail: "size mismatch"}},
		},
		{System: "nes", Candidates: 5, Selected: 0, Excluded: 5},
	})

	out := buf.String()
	for _, want := range []string{
		"snes", "120", "40", "Cache Hits",
		"snes failures", "Game (USA).sfc", "size mismatch",
		"nes: no selections",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	// Non-terminal writers must stay plain ASCII.
	if strings.Contains(out, "✗") || strings.Contains(out, "\x1b[") {
		t.Fatalf("plain capability emitted glyphs or color:\n%s", out)
	}
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewRenderer(&buf, Capability{}).Render(nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestOKGlyph(t *testing.T) {
	t.Parallel()

	if got := NewRenderer(&bytes.Buffer{}, Capability{}).OKGlyph(); got != "ok" {
		t.Fatalf("plain glyph = %q", got)
	}
	fancy := NewRenderer(&bytes.Buffer{}, Capability{Glyphs: true}).OKGlyph()
	if !strings.Contains(fancy, "✓") {
		t.Fatalf("terminal glyph = %q", fancy)
	}
}

func TestDetectCapabilityNonFile(t *testing.T) {
	t.Parallel()

	cap := DetectCapability(&bytes.Buffer{})
	if cap.Color || cap.Glyphs {
		t.Fatalf("buffer writer reported terminal capability: %+v", cap)
	}
}
