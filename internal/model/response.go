package model

import "time"

// VerificationStatus is the outcome of a call to the verification API
type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationWarning VerificationStatus = "warning" // Not configured, or empty reply
	VerificationError   VerificationStatus = "error"   // Retries exhausted or non-retryable failure
)

// VerificationResult is what the verification client returns. It never carries a Go error;
// failures are described in ReplyText with Status set accordingly.
type VerificationResult struct {
	ReplyText string             `json:"content"`
	Citations []string           `json:"citations,omitempty"`
	Status    VerificationStatus `json:"status"`
	Attempts  int                `json:"attempts,omitempty"`
	Model     string             `json:"model,omitempty"`
}

// ResponseStatus is the top-level status of an analysis
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
)

// AnalysisResponse aggregates everything produced for one request
type AnalysisResponse struct {
	ID          string              `json:"id"`
	Kind        Kind                `json:"type"`
	Status      ResponseStatus      `json:"status"`
	ContentData *ExtractedContent   `json:"content_data,omitempty"`
	TextData    *TextSummary        `json:"text_data,omitempty"`
	Scores      HeuristicScores     `json:"scores"`
	KeyPoints   []string            `json:"key_points,omitempty"`
	Analysis    *VerificationResult `json:"analysis,omitempty"`
	Error       string              `json:"error,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Failed reports whether content resolution failed for this response
func (r *AnalysisResponse) Failed() bool {
	return r.Status == StatusError
}
