// Package systems defines the catalog of known game systems: which file
// extensions belong to them, which folder names identify them, and how to
// detect a system from a source path.
package systems
