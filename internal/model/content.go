package model

// ExtractedContent is the readable part of a fetched page
type ExtractedContent struct {
	Title  string `json:"title"`
	Body   string `json:"content"`
	Domain string `json:"domain"`
	URL    string `json:"url"`
}

// TextSummary describes a free-text submission in the response
type TextSummary struct {
	Preview string `json:"content"` // First 500 characters, "..." appended when cut
	Length  int    `json:"length"`  // Length in characters after sanitization
}

// HeuristicScores are rule-based estimates in [1,10]; nil means "not computed"
type HeuristicScores struct {
	DomainCredibility *int `json:"domain_credibility,omitempty"`
	TextQuality       *int `json:"text_quality,omitempty"`
}
