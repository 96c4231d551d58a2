package crew

import (
	"regexp"
	"strconv"
	"strings"
)

// Classification is the final verdict on a piece of content
type Classification string

const (
	FakeNews     Classification = "FAKE NEWS"
	Verified     Classification = "VERIFIED"
	Inconclusive Classification = "INCONCLUSIVE"
)

// RiskLevel tells the reader how careful to be with the content
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Decision is the parsed output of the final task
type Decision struct {
	Classification Classification `json:"classification"`
	Confidence     float64        `json:"confidence"` // 0..1
	RiskLevel      RiskLevel      `json:"risk_level"`
	Summary        string         `json:"summary,omitempty"`

	// ModelConfidence is the confidence the decision agent stated, before
	// blending with Factors
	ModelConfidence float64            `json:"model_confidence"`
	Factors         map[string]float64 `json:"factors,omitempty"`

	statedConfidence bool
}

var (
	classificationLine = regexp.MustCompile(`(?i)classification\W{0,5}(fake news|verified|inconclusive)`)
	anyClassification  = regexp.MustCompile(`(?i)\b(fake news|verified|inconclusive)\b`)
	confidenceLine     = regexp.MustCompile(`(?i)confidence[^0-9\n]{0,40}(\d{1,3}(?:\.\d+)?)\s*%`)
	summaryLine        = regexp.MustCompile(`(?im)^\W*summary\W*:\s*(.+)$`)
	credibilityLine    = regexp.MustCompile(`(?i)credibility score[^0-9\n]{0,20}(\d{1,3}(?:\.\d+)?)(?:\s*/\s*(\d{1,3}))?`)
	claimVerdictLine   = regexp.MustCompile(`(?im)^\W*(?:claim|status|verdict|verification)[^:\n]{0,60}:\W*(true|false|inconclusive|verified|unverified)\b`)
)

// ParseDecision reads the classification, confidence and summary from the
// decision agent's reply. Missing values fall back to INCONCLUSIVE and 0.
// The risk level is always derived, never read.
func ParseDecision(text string) Decision {
	d := Decision{Classification: Inconclusive}

	if m := classificationLine.FindStringSubmatch(text); m != nil {
		d.Classification = Classification(strings.ToUpper(m[1]))
	} else if m := anyClassification.FindStringSubmatch(text); m != nil {
		d.Classification = Classification(strings.ToUpper(m[1]))
	}

	if m := confidenceLine.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			d.Confidence = clamp01(v / 100)
			d.ModelConfidence = d.Confidence
			d.statedConfidence = true
		}
	}

	if m := summaryLine.FindStringSubmatch(text); m != nil {
		d.Summary = strings.TrimSpace(m[1])
	}

	d.RiskLevel = Risk(d.Confidence, d.Classification == FakeNews)
	return d
}

// Risk maps confidence to a risk level. A confident fake verdict is high
// risk; a confident genuine verdict is low risk, and low confidence in a
// genuine verdict is itself high risk.
func Risk(confidence float64, isFake bool) RiskLevel {
	switch {
	case confidence >= 0.8:
		if isFake {
			return RiskHigh
		}
		return RiskLow
	case confidence >= 0.6:
		return RiskMedium
	default:
		if isFake {
			return RiskLow
		}
		return RiskHigh
	}
}

// WithFactors blends the stated confidence with ConfidenceScore(factors),
// averaging the two, and derives the risk level again. Without a stated
// confidence the factor score is used alone. Unknown factors are ignored.
func (d Decision) WithFactors(factors map[string]float64) Decision {
	known := make(map[string]float64, len(factors))
	for name, v := range factors {
		if _, ok := factorWeights[name]; ok {
			known[name] = clamp01(v)
		}
	}
	if len(known) == 0 {
		return d
	}

	score := ConfidenceScore(known)
	if d.statedConfidence {
		d.Confidence = (d.ModelConfidence + score) / 2
	} else {
		d.Confidence = score
	}
	d.Factors = known
	d.RiskLevel = Risk(d.Confidence, d.Classification == FakeNews)
	return d
}

// TaskFactors reads confidence factors out of the task outputs.
//
// source_credibility comes from the "Credibility score" of assess_source,
// and content_quality from contentQuality (0..1, zero when unknown). Both
// support the verdict in its direction: low credibility backs FAKE NEWS,
// high credibility backs VERIFIED, and neither says anything about
// INCONCLUSIVE. fact_verification is the share of claims in verify_facts
// that reached a definite verdict.
func TaskFactors(outputs map[string]string, class Classification, contentQuality float64) map[string]float64 {
	factors := make(map[string]float64)

	aligned := func(v float64) (float64, bool) {
		switch class {
		case FakeNews:
			return 1 - v, true
		case Verified:
			return v, true
		default:
			return 0, false
		}
	}

	if m := credibilityLine.FindStringSubmatch(outputs["assess_source"]); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			denom := 100.0
			if m[2] != "" {
				if d, err := strconv.ParseFloat(m[2], 64); err == nil && d > 0 {
					denom = d
				}
			}
			if f, ok := aligned(clamp01(v / denom)); ok {
				factors["source_credibility"] = f
			}
		}
	}

	if contentQuality > 0 {
		if f, ok := aligned(clamp01(contentQuality)); ok {
			factors["content_quality"] = f
		}
	}

	var definite, total int
	for _, m := range claimVerdictLine.FindAllStringSubmatch(outputs["verify_facts"], -1) {
		total++
		switch strings.ToLower(m[1]) {
		case "true", "false", "verified":
			definite++
		}
	}
	if total > 0 {
		factors["fact_verification"] = float64(definite) / float64(total)
	}

	return factors
}

// factorWeights weight the inputs to ConfidenceScore
var factorWeights = map[string]float64{
	"source_credibility": 0.3,
	"fact_verification":  0.4,
	"content_quality":    0.2,
	"consistency":        0.1,
}

// ConfidenceScore averages the known factors by weight. Unknown factors are
// ignored; with no known factor the score is 0.
func ConfidenceScore(factors map[string]float64) float64 {
	var sum, total float64
	for name, v := range factors {
		w, ok := factorWeights[name]
		if !ok {
			continue
		}
		sum += v * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
