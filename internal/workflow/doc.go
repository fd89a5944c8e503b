// Package workflow drives a curation run end to end: enumerate, parse,
// select, log, transfer, one system at a time, under a destination lock.
package workflow
