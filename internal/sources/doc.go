// Package sources enumerates candidate ROM files from a local directory or a
// remote HTML directory index, applying shared include/exclude name filters
// before anything reaches the parser.
package sources
