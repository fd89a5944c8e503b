package title

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Mappings holds the curated per-system tables of normalized Japan-language
// titles to their normalized English counterparts. Consumed read-only; the
// tables are maintained by external tooling.
type Mappings struct {
	entries map[string]map[string]string
}

// LoadMappings reads every <system>.json table beneath dir. A missing
// directory yields an empty mapping set, not an error: fan-translation
// grouping is then limited to exact normalized-title matches.
func LoadMappings(dir string) (*Mappings, error) {
	m := &Mappings{entries: make(map[string]map[string]string)}
	if strings.TrimSpace(dir) == "" {
		return m, nil
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("read mappings directory: %w", err)
	}

	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".json") {
			continue
		}
		system := strings.TrimSuffix(item.Name(), ".json")
		table, err := loadTable(filepath.Join(dir, item.Name()))
		if err != nil {
			return nil, fmt.Errorf("load mapping table for %s: %w", system, err)
		}
		if len(table) > 0 {
			m.entries[strings.ToLower(system)] = table
		}
	}
	return m, nil
}

// loadTable flattens a categorized mapping file. Top-level keys starting with
// an underscore are metadata and skipped.
func loadTable(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var categorized map[string]json.RawMessage
	if err := json.Unmarshal(raw, &categorized); err != nil {
		return nil, err
	}

	flat := make(map[string]string)
	for category, payload := range categorized {
		if strings.HasPrefix(category, "_") {
			continue
		}
		var entries map[string]string
		if err := json.Unmarshal(payload, &entries); err != nil {
			// Category holds something other than a table; tolerate it the
			// same way metadata keys are tolerated.
			continue
		}
		for src, dst := range entries {
			flat[Normalize(src)] = Normalize(dst)
		}
	}
	return flat, nil
}

// Resolve substitutes the mapped English title for a normalized title when
// the per-system table knows it; otherwise the input is returned unchanged.
// Exact match only.
func (m *Mappings) Resolve(system, normalized string) string {
	if m == nil {
		return normalized
	}
	table, ok := m.entries[strings.ToLower(strings.TrimSpace(system))]
	if !ok {
		return normalized
	}
	if mapped, ok := table[normalized]; ok {
		return mapped
	}
	return normalized
}

// Systems returns the systems that have at least one mapping entry.
func (m *Mappings) Systems() []string {
	out := make([]string, 0, len(m.entries))
	for system := range m.entries {
		out = append(out, system)
	}
	return out
}
