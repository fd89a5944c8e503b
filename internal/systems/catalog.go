package systems

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// Catalog maps file extensions and folder names onto canonical system
// identifiers. It is built once at startup and passed by reference into the
// enumerator and workflow so tests can substitute a reduced catalog.
type Catalog struct {
	extensions map[string]string
	aliases    map[string]string
	known      map[string]struct{}
}

// NewCatalog builds a catalog from explicit tables. Keys are normalized to
// lower case; extension keys must include the leading dot.
func NewCatalog(extensions map[string]string, aliases map[string]string, known []string) *Catalog {
	c := &Catalog{
		extensions: make(map[string]string, len(extensions)),
		aliases:    make(map[string]string, len(aliases)),
		known:      make(map[string]struct{}, len(known)),
	}
	for ext, system := range extensions {
		c.extensions[strings.ToLower(ext)] = system
	}
	for alias, system := range aliases {
		c.aliases[strings.ToLower(alias)] = system
	}
	for _, system := range known {
		c.known[strings.ToLower(system)] = struct{}{}
	}
	return c
}

// Default returns the catalog of systems retroref ships with.
func Default() *Catalog {
	return NewCatalog(defaultExtensions, defaultAliases, defaultKnown)
}

// IsKnown reports whether the identifier names a system in the catalog.
func (c *Catalog) IsKnown(system string) bool {
	_, ok := c.known[strings.ToLower(strings.TrimSpace(system))]
	return ok
}

// Known returns the sorted list of system identifiers.
func (c *Catalog) Known() []string {
	out := make([]string, 0, len(c.known))
	for system := range c.known {
		out = append(out, system)
	}
	sort.Strings(out)
	return out
}

// Resolve normalizes a folder name to a canonical system identifier.
// Returns the empty string when the name matches nothing in the catalog.
func (c *Catalog) Resolve(folder string) string {
	name := strings.ToLower(strings.TrimSpace(folder))
	if name == "" {
		return ""
	}
	if system, ok := c.aliases[name]; ok {
		return system
	}
	if _, ok := c.known[name]; ok {
		return name
	}
	return ""
}

// SystemForExtension returns the system associated with a file extension
// (including the leading dot), or the empty string for unmapped extensions.
func (c *Catalog) SystemForExtension(ext string) string {
	return c.extensions[strings.ToLower(ext)]
}

// IsROMExtension reports whether the extension belongs to any catalogued
// system or to a generic archive container.
func (c *Catalog) IsROMExtension(ext string) bool {
	ext = strings.ToLower(ext)
	if _, ok := archiveExtensions[ext]; ok {
		return true
	}
	_, ok := c.extensions[ext]
	return ok
}

// IsROMFile reports whether a file name (or URL path) carries a ROM or
// archive extension. Query strings and fragments are stripped first.
func (c *Catalog) IsROMFile(name string) bool {
	clean := stripQuery(name)
	if decoded, err := url.PathUnescape(clean); err == nil {
		clean = decoded
	}
	return c.IsROMExtension(path.Ext(clean))
}

// DetectFromPath walks URL or path segments from the leaf upward looking for
// a system folder name. Mirrors Redump/Myrient style layouts where the system
// directory encloses region subfolders.
func (c *Catalog) DetectFromPath(rawPath string) string {
	clean := stripQuery(rawPath)
	if idx := strings.Index(clean, "://"); idx >= 0 {
		clean = clean[idx+3:]
	}
	segments := strings.Split(clean, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		segment := segments[i]
		if decoded, err := url.PathUnescape(segment); err == nil {
			segment = decoded
		}
		if system := c.Resolve(segment); system != "" {
			return system
		}
	}
	return ""
}

// Extensions returns the extensions mapped to a system, sorted.
func (c *Catalog) Extensions(system string) []string {
	system = strings.ToLower(strings.TrimSpace(system))
	var out []string
	for ext, mapped := range c.extensions {
		if mapped == system {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// Aliases returns the folder-name aliases and their targets.
func (c *Catalog) Aliases() map[string]string {
	out := make(map[string]string, len(c.aliases))
	for alias, system := range c.aliases {
		out[alias] = system
	}
	return out
}

func stripQuery(value string) string {
	if idx := strings.IndexAny(value, "?#"); idx >= 0 {
		return value[:idx]
	}
	return value
}

// archiveExtensions are container formats accepted for any system.
var archiveExtensions = map[string]struct{}{
	".zip": {},
	".7z":  {},
	".rar": {},
}
