// Package extract pulls short summary sentences out of article text.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Key point bounds, in characters
const (
	DefaultMaxKeyPoints = 5
	minKeyPointLen      = 20
	maxKeyPointLen      = 200
)

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits text on runs of sentence terminators and returns
// the trimmed, non-empty pieces in order.
func SplitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceTerminators.Split(text, -1) {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// KeyPoints returns up to max sentences whose length is between 20 and 200
// characters, in document order. max <= 0 uses DefaultMaxKeyPoints.
func KeyPoints(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxKeyPoints
	}

	var points []string
	for _, s := range SplitSentences(text) {
		n := utf8.RuneCountInString(s)
		if n < minKeyPointLen || n > maxKeyPointLen {
			continue
		}
		points = append(points, s)
		if len(points) == max {
			break
		}
	}
	return points
}
