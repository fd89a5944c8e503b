// Package romname parses loosely structured ROM release names into structured
// metadata: base title, region, revision, and release-status flags. Tagging
// conventions are matched heuristically; unusual names degrade gracefully
// rather than failing.
package romname
