package model

// Kind identifies what the caller submitted for analysis
type Kind string

const (
	KindURL  Kind = "url"  // A page to fetch and extract
	KindText Kind = "text" // Free text pasted by the user
)

// Valid reports whether k is a known request kind
func (k Kind) Valid() bool {
	return k == KindURL || k == KindText
}

// AnalysisRequest is a single unit of work accepted from a form, the JSON API, or the CLI
type AnalysisRequest struct {
	Kind       Kind   `json:"type"`
	RawContent string `json:"content"`
}

// Text length bounds, applied after sanitization
const (
	MinTextLength = 50
	MaxTextLength = 20000
)
