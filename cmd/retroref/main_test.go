package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	cfgPath := filepath.Join(root, "retroref.toml")
	content := fmt.Sprintf(`[paths]
dest_dir = %q
staging_dir = %q
log_dir = %q
mappings_dir = %q

[transfer]
backend = "builtin"

[logging]
format = "json"
level = "error"
`,
		filepath.Join(root, "library"),
		filepath.Join(root, "staging"),
		filepath.Join(root, "logs"),
		filepath.Join(root, "mappings"))
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	src := t.TempDir()
	for _, name := range []string{"Contra (USA).nes", "Contra (Europe).nes", "Probotector (Europe) (Beta).nes"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte("rom"), 0o644); err != nil {
			t.Fatalf("write rom: %v", err)
		}
	}

	out, err := runCommand(t, "--config", cfgPath, "scan", "--source", src, "--system", "nes")
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	if !strings.Contains(out, "nes") || !strings.Contains(out, "complete") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	// Dry run must not create the destination system directory contents.
	if entries, _ := os.ReadDir(filepath.Join(filepath.Dir(cfgPath), "library", "nes")); len(entries) != 0 {
		t.Fatalf("scan materialized files: %v", entries)
	}
}

func TestScanCommandZeroSelectionExitsNonZero(t *testing.T) {
	cfgPath := writeTestConfig(t)
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "Demo Disc (USA) (Demo).nes"), []byte("rom"), 0o644); err != nil {
		t.Fatalf("write rom: %v", err)
	}

	_, err := runCommand(t, "--config", cfgPath, "scan", "--source", src, "--system", "nes")
	if err == nil {
		t.Fatal("expected error for zero-selection run")
	}
}

func TestSystemsCommand(t *testing.T) {
	out, err := runCommand(t, "systems")
	if err != nil {
		t.Fatalf("systems: %v", err)
	}
	for _, want := range []string{"snes", ".sfc", "genesis"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing sections:\n%s", data)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
}
