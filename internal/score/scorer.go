package score

import (
	"github.com/ppiankov/newsverify/internal/model"
)

// Scorer computes the heuristic scores attached to every analysis
type Scorer struct {
	credibility *CredibilityClassifier
}

// NewScorer creates a scorer. A nil config uses the built-in domain lists.
func NewScorer(cfg *model.ScoreConfig) *Scorer {
	if cfg == nil {
		return &Scorer{credibility: defaultClassifier}
	}
	return &Scorer{
		credibility: NewCredibilityClassifier(cfg.ReputableDomains, cfg.SuspiciousDomains),
	}
}

// Score rates text and, when domain is non-empty, the source domain
func (s *Scorer) Score(domain, text string) model.HeuristicScores {
	var scores model.HeuristicScores

	if domain != "" {
		c := s.credibility.Classify(domain)
		scores.DomainCredibility = &c
	}

	q := TextQuality(text)
	scores.TextQuality = &q

	return scores
}
