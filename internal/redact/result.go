package redact

// Result contains the redacted text and match counts.
// Matched values are never included.
type Result struct {
	// Redacted is the text with matches replaced by markers.
	Redacted string `json:"redacted"`

	// ByCategory maps rule categories to match counts.
	ByCategory map[string]int `json:"by_category"`

	// Total is the number of replaced matches.
	Total int `json:"total"`
}

// HasMatches returns true if anything was redacted.
func (r *Result) HasMatches() bool {
	return r.Total > 0
}
