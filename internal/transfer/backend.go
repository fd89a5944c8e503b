package transfer

import (
	"context"
	"log/slog"
	"net/http"
	"os/exec"
	"time"

	"retroref/internal/logging"
	"retroref/internal/sources"
)

// Backend fetches one candidate into a staging path. Implementations must
// not touch the final destination; verification and commit stay with the
// orchestrator so scheduling and caching are backend-agnostic.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, ref sources.CandidateRef, staging string) error
}

// Probe selects a backend. "builtin" always works; "aria2c" and "curl"
// require the binary on PATH and fall back to the built-in fetcher when
// missing; "auto" prefers aria2c, then curl, then built-in.
func Probe(preferred string, connections int, timeout time.Duration, logger *slog.Logger) Backend {
	if logger == nil {
		logger = logging.NewNop()
	}
	builtin := &HTTPFetcher{
		Client:      &http.Client{Timeout: timeout},
		Connections: connections,
	}

	lookup := func(binary string) Backend {
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil
		}
		return &ExternalTool{Binary: path, Tool: binary, Connections: connections}
	}

	var backend Backend
	switch preferred {
	case "aria2c", "curl":
		backend = lookup(preferred)
		if backend == nil {
			logger.Warn("configured download tool not found, using built-in fetcher",
				logging.String("tool", preferred))
		}
	case "auto":
		if backend = lookup("aria2c"); backend == nil {
			backend = lookup("curl")
		}
	}
	if backend == nil {
		backend = builtin
	}
	logger.Info("transfer backend selected", logging.String("backend", backend.Name()))
	return backend
}
