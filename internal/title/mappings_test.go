package title

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMappingFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write mapping file: %v", err)
	}
}

func TestLoadMappingsResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeMappingFile(t, dir, "snes.json", `{
		"_meta": {"note": "maintained by hand"},
		"rpg": {
			"Seiken Densetsu 3": "Trials of Mana",
			"Dragon Quest III": "Dragon Warrior III"
		}
	}`)

	m, err := LoadMappings(dir)
	if err != nil {
		t.Fatalf("LoadMappings: %v", err)
	}

	got := m.Resolve("snes", Normalize("Seiken Densetsu 3"))
	if want := Normalize("Trials of Mana"); got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}

	// Roman numerals normalize on both sides of the table.
	got = m.Resolve("snes", Normalize("Dragon Quest 3"))
	if want := Normalize("Dragon Warrior 3"); got != want {
		t.Fatalf("Resolve numeral = %q, want %q", got, want)
	}

	// Unknown titles and unknown systems pass through unchanged.
	if got := m.Resolve("snes", "chrono trigger"); got != "chrono trigger" {
		t.Fatalf("unknown title mutated to %q", got)
	}
	if got := m.Resolve("genesis", "seiken densetsu 3"); got != "seiken densetsu 3" {
		t.Fatalf("unknown system mutated to %q", got)
	}
}

func TestLoadMappingsMissingDirectory(t *testing.T) {
	t.Parallel()

	m, err := LoadMappings(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing directory should not error: %v", err)
	}
	if got := m.Resolve("snes", "anything"); got != "anything" {
		t.Fatalf("empty mappings mutated input to %q", got)
	}
	if systems := m.Systems(); len(systems) != 0 {
		t.Fatalf("expected no systems, got %v", systems)
	}
}
