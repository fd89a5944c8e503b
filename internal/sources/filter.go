package sources

import (
	"fmt"
	"path"
	"strings"

	"retroref/internal/services"
)

// Filter applies include/exclude patterns to candidate filenames. Patterns
// are path.Match globs, and also match as plain substrings so "kart" catches
// every Mario Kart variant. Matching is case-insensitive. An empty include
// list admits everything; exclude patterns win over include patterns.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates the patterns up front so a malformed glob surfaces as a
// configuration error instead of silently admitting nothing.
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	for _, raw := range include {
		pattern, err := normalizePattern(raw)
		if err != nil {
			return nil, err
		}
		if pattern != "" {
			f.include = append(f.include, pattern)
		}
	}
	for _, raw := range exclude {
		pattern, err := normalizePattern(raw)
		if err != nil {
			return nil, err
		}
		if pattern != "" {
			f.exclude = append(f.exclude, pattern)
		}
	}
	return f, nil
}

func normalizePattern(raw string) (string, error) {
	pattern := strings.ToLower(strings.TrimSpace(raw))
	if pattern == "" {
		return "", nil
	}
	if _, err := path.Match(pattern, "probe"); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "sources", "filter",
			fmt.Sprintf("invalid pattern %q", raw), err)
	}
	return pattern, nil
}

// Admit reports whether a filename passes the filter.
func (f *Filter) Admit(name string) bool {
	if f == nil {
		return true
	}
	lowered := strings.ToLower(name)
	for _, pattern := range f.exclude {
		if ok, _ := path.Match(pattern, lowered); ok {
			return false
		}
		if strings.Contains(lowered, pattern) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if ok, _ := path.Match(pattern, lowered); ok {
			return true
		}
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}
