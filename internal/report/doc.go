// Package report renders the end-of-run summary. Terminal capability is
// probed once; all other code stays presentation-agnostic.
package report
