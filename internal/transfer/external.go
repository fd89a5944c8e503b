package transfer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"retroref/internal/fileutil"
	"retroref/internal/services"
	"retroref/internal/sources"
)

// ExternalTool delegates remote fetches to aria2c or curl. Local candidates
// never go through the external binary.
type ExternalTool struct {
	// Binary is the resolved executable path; Tool is its short name.
	Binary      string
	Tool        string
	Connections int
}

func (t *ExternalTool) Name() string { return t.Tool }

func (t *ExternalTool) Fetch(ctx context.Context, ref sources.CandidateRef, staging string) error {
	if err := fileutil.EnsureDir(filepath.Dir(staging)); err != nil {
		return err
	}
	if !ref.Remote() {
		_, err := fileutil.CopyFile(staging, ref.Path)
		return err
	}

	var args []string
	switch t.Tool {
	case "aria2c":
		connections := t.Connections
		if connections < 1 {
			connections = 1
		}
		args = []string{
			"--max-connection-per-server=" + strconv.Itoa(connections),
			"--split=" + strconv.Itoa(connections),
			"--auto-file-renaming=false",
			"--allow-overwrite=true",
			"--quiet=true",
			"--dir=" + filepath.Dir(staging),
			"--out=" + filepath.Base(staging),
			ref.URL,
		}
	case "curl":
		args = []string{"--fail", "--location", "--silent", "--show-error",
			"--output", staging, ref.URL}
	default:
		return fmt.Errorf("unsupported download tool %q", t.Tool)
	}

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		// External tool failures are indistinguishable from network faults;
		// leave them to the retry budget.
		return services.Wrap(services.ErrTransient, "transfer", t.Tool, detail, err)
	}
	return nil
}
