package sources

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"retroref/internal/logging"
	"retroref/internal/services"
	"retroref/internal/systems"
)

// Local enumerates ROM files in one directory. Immediate children only; the
// destination layout is one flat directory per system, so recursion would
// only pick up scratch data.
type Local struct {
	Root    string
	System  string
	Catalog *systems.Catalog
	Filter  *Filter
	Logger  *slog.Logger
}

// Enumerate lists matching files in Root. Results follow directory order,
// which os.ReadDir already sorts by name.
func (l *Local) Enumerate(ctx context.Context) ([]CandidateRef, error) {
	entries, err := readDirContext(ctx, l.Root)
	if err != nil {
		return nil, services.Wrap(services.ErrEnumeration, "sources", "local-enumerate",
			"list source directory", err)
	}

	logger := l.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var refs []CandidateRef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !l.Catalog.IsROMFile(name) {
			continue
		}
		if !l.systemMatches(name) {
			continue
		}
		if !l.Filter.Admit(name) {
			logger.Debug("candidate filtered out", logging.String("name", name))
			continue
		}
		ref := CandidateRef{Name: name, Path: filepath.Join(l.Root, name)}
		if info, err := entry.Info(); err == nil {
			ref.Size = info.Size()
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// systemMatches admits files whose extension belongs to the declared system.
// Archives are admitted unconditionally because the archived extension is not
// visible from the name.
func (l *Local) systemMatches(name string) bool {
	if l.System == "" {
		return true
	}
	system := l.Catalog.SystemForExtension(filepath.Ext(name))
	if system == "" {
		// Unknown to the extension table but passed IsROMFile: an archive.
		return true
	}
	return strings.EqualFold(system, l.System)
}

// readDirContext honors cancellation before touching the filesystem; the
// listing itself is a single fast syscall.
func readDirContext(ctx context.Context, dir string) ([]os.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadDir(dir)
}
