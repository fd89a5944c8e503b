package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// Capability captures what the output device can display. Decided once at
// startup and threaded through rendering; nothing else branches on the
// terminal.
type Capability struct {
	Color  bool
	Glyphs bool
}

// DetectCapability probes the writer. Only real terminals get color and
// non-ASCII glyphs; pipes and files get plain ASCII.
func DetectCapability(w io.Writer) Capability {
	file, ok := w.(*os.File)
	if !ok {
		return Capability{}
	}
	fd := file.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return Capability{Color: tty, Glyphs: tty}
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// Failure is one task that ended permanently Failed.
type Failure struct {
	Name   string
	Detail string
}

// SystemReport aggregates one system's run for the end-of-run summary.
type SystemReport struct {
	System      string
	Candidates  int
	Selected    int
	Excluded    int
	Committed   int
	CacheHits   int
	Transferred int64
	Failures    []Failure
}

// Renderer writes the human-readable end-of-run report.
type Renderer struct {
	out io.Writer
	cap Capability
}

func NewRenderer(out io.Writer, cap Capability) *Renderer {
	return &Renderer{out: out, cap: cap}
}

// Render prints the per-system summary table followed by failure detail
// lines. It reports nothing but presentation; outcomes come from the caller.
func (r *Renderer) Render(reports []SystemReport) {
	if len(reports) == 0 {
		return
	}

	headers := []string{"System", "Candidates", "Selected", "Excluded", "Committed", "Cache Hits", "Failed", "Transferred"}
	rows := make([][]string, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, []string{
			rep.System,
			fmt.Sprintf("%d", rep.Candidates),
			fmt.Sprintf("%d", rep.Selected),
			fmt.Sprintf("%d", rep.Excluded),
			fmt.Sprintf("%d", rep.Committed),
			fmt.Sprintf("%d", rep.CacheHits),
			fmt.Sprintf("%d", len(rep.Failures)),
			humanize.Bytes(uint64(rep.Transferred)),
		})
	}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	fmt.Fprintln(r.out, renderTable(headers, rows, aligns))

	for _, rep := range reports {
		if len(rep.Failures) == 0 {
			continue
		}
		fmt.Fprintln(r.out, r.headline(fmt.Sprintf("%s failures", rep.System)))
		for _, failure := range rep.Failures {
			fmt.Fprintf(r.out, "  %s %s: %s\n", r.failGlyph(), failure.Name, failure.Detail)
		}
	}

	for _, rep := range reports {
		if rep.Selected == 0 {
			fmt.Fprintln(r.out, r.warnLine(fmt.Sprintf("%s: no selections", rep.System)))
		}
	}
}

func (r *Renderer) headline(text string) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(text))
	if r.cap.Color {
		return ansiRed + line + ansiReset
	}
	return line
}

func (r *Renderer) warnLine(text string) string {
	if r.cap.Color {
		return ansiYellow + text + ansiReset
	}
	return text
}

func (r *Renderer) failGlyph() string {
	if r.cap.Glyphs {
		return "✗"
	}
	return "x"
}

// OKGlyph is exposed for command output that marks successes.
func (r *Renderer) OKGlyph() string {
	if r.cap.Glyphs {
		return ansiGreen + "✓" + ansiReset
	}
	return "ok"
}
