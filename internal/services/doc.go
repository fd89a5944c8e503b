// Package services defines the shared error taxonomy used to classify
// failures as fatal, skippable, or retryable across the curation pipeline.
package services
