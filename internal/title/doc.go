// Package title canonicalizes game titles for grouping: normalization,
// curated Japan-to-English mapping tables, and word-overlap similarity
// scoring for audit tooling.
package title
