package score

import (
	"strings"
)

// Domain credibility scores
const (
	CredibilityNeutral    = 5
	CredibilityReputable  = 8
	CredibilitySuspicious = 3
)

// DefaultReputable are matched as substrings of the lowercased domain
var DefaultReputable = []string{
	"bbc.com",
	"bbc.co.uk",
	"reuters.com",
	"apnews.com",
	"nytimes.com",
	"theguardian.com",
	"washingtonpost.com",
	"npr.org",
	"pbs.org",
	"economist.com",
	"ft.com",
	"wsj.com",
	"bloomberg.com",
	"nature.com",
	"science.org",
	".gov",
	".edu",
}

// DefaultSuspiciousTLDs are free or throwaway TLDs, matched as suffixes
var DefaultSuspiciousTLDs = []string{".tk", ".ml", ".ga", ".cf", ".gq"}

// DefaultSuspiciousTokens are clickbait words, matched as substrings
var DefaultSuspiciousTokens = []string{"fake", "hoax", "clickbait", "viral", "shocking"}

// CredibilityClassifier rates a domain from fixed allow and deny lists
type CredibilityClassifier struct {
	reputable       []string
	suspiciousTLDs  []string
	suspiciousWords []string
}

// NewCredibilityClassifier builds a classifier from the default lists plus
// any extra entries. Extra suspicious entries that start with a dot are
// treated as TLD suffixes, anything else as a substring.
func NewCredibilityClassifier(extraReputable, extraSuspicious []string) *CredibilityClassifier {
	c := &CredibilityClassifier{
		reputable:       append([]string(nil), DefaultReputable...),
		suspiciousTLDs:  append([]string(nil), DefaultSuspiciousTLDs...),
		suspiciousWords: append([]string(nil), DefaultSuspiciousTokens...),
	}

	for _, d := range extraReputable {
		if d = normalizeDomain(d); d != "" {
			c.reputable = append(c.reputable, d)
		}
	}
	for _, d := range extraSuspicious {
		d = normalizeDomain(d)
		switch {
		case d == "":
		case strings.HasPrefix(d, "."):
			c.suspiciousTLDs = append(c.suspiciousTLDs, d)
		default:
			c.suspiciousWords = append(c.suspiciousWords, d)
		}
	}

	return c
}

// Classify returns the credibility score for domain. A suspicious match
// overrides a reputable one.
func (c *CredibilityClassifier) Classify(domain string) int {
	host := normalizeDomain(domain)
	score := CredibilityNeutral

	for _, r := range c.reputable {
		if strings.Contains(host, r) {
			score = CredibilityReputable
			break
		}
	}

	if c.suspicious(host) {
		score = CredibilitySuspicious
	}

	return score
}

func (c *CredibilityClassifier) suspicious(host string) bool {
	for _, tld := range c.suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	for _, w := range c.suspiciousWords {
		if strings.Contains(host, w) {
			return true
		}
	}
	return false
}

var defaultClassifier = NewCredibilityClassifier(nil, nil)

// DomainCredibility scores domain against the built-in lists only
func DomainCredibility(domain string) int {
	return defaultClassifier.Classify(domain)
}

// normalizeDomain lowercases and strips any port and trailing dot
func normalizeDomain(domain string) string {
	host := strings.ToLower(strings.TrimSpace(domain))
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	return strings.TrimSuffix(host, ".")
}
