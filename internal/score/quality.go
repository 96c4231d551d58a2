package score

import (
	"regexp"
	"strings"
	"unicode"
)

// Text quality bands
const (
	qualityBase = 5
	qualityMin  = 1
	qualityMax  = 10

	goodWordLenMin = 4.0
	goodWordLenMax = 7.0
	badWordLenMin  = 3.0
	badWordLenMax  = 10.0

	goodSentenceMin = 8.0
	goodSentenceMax = 25.0
	badSentenceMin  = 4.0
	badSentenceMax  = 40.0

	maxUppercaseRatio = 0.10
	uppercasePenalty  = 2
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// TextQuality rates writing quality from word length, sentence length and
// the share of uppercase letters. Text without words scores the minimum.
func TextQuality(text string) int {
	words := countWords(text)
	if len(words) == 0 {
		return qualityMin
	}

	score := qualityBase

	chars := 0
	for _, n := range words {
		chars += n
	}
	avgWord := float64(chars) / float64(len(words))
	switch {
	case avgWord >= goodWordLenMin && avgWord <= goodWordLenMax:
		score++
	case avgWord < badWordLenMin || avgWord > badWordLenMax:
		score--
	}

	sentences, sentenceWords := 0, 0
	for _, s := range sentenceBoundary.Split(text, -1) {
		if n := len(countWords(s)); n > 0 {
			sentences++
			sentenceWords += n
		}
	}
	if sentences > 0 {
		avgSentence := float64(sentenceWords) / float64(sentences)
		switch {
		case avgSentence >= goodSentenceMin && avgSentence <= goodSentenceMax:
			score++
		case avgSentence < badSentenceMin || avgSentence > badSentenceMax:
			score--
		}
	}

	if uppercaseRatio(text) > maxUppercaseRatio {
		score -= uppercasePenalty
	}

	return clamp(score, qualityMin, qualityMax)
}

// countWords returns the letter/digit count of every whitespace separated
// token that has at least one letter or digit.
func countWords(text string) []int {
	var counts []int
	for _, tok := range strings.Fields(text) {
		n := 0
		for _, r := range tok {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				n++
			}
		}
		if n > 0 {
			counts = append(counts, n)
		}
	}
	return counts
}

func uppercaseRatio(text string) float64 {
	letters, upper := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
