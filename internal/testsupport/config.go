package testsupport

import (
	"path/filepath"
	"testing"

	"retroref/internal/config"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory so tests never touch the user's library or cache.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DestDir = filepath.Join(root, "library")
	cfg.Paths.StagingDir = filepath.Join(root, "staging")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.MappingsDir = filepath.Join(root, "mappings")
	cfg.Transfer.Backend = "builtin"
	cfg.Transfer.MaxRetries = 1
	cfg.Transfer.RetryBackoffSeconds = 1
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "error"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
