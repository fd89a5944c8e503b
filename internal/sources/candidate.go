package sources

// CandidateRef is one addressable source item discovered during enumeration.
// Exactly one of Path or URL is set. Immutable once yielded.
type CandidateRef struct {
	// Name is the display name of the item, usually the filename.
	Name string
	// Path is the absolute local path when the item came from a directory walk.
	Path string
	// URL is the absolute remote URL when the item came from an index crawl.
	URL string
	// Size is a size hint in bytes; zero when the source did not report one.
	Size int64
}

// Remote reports whether the candidate must be fetched over the network.
func (r CandidateRef) Remote() bool {
	return r.URL != ""
}

// Locator returns the canonical address of the candidate, used for ordering
// and log output.
func (r CandidateRef) Locator() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Path
}
