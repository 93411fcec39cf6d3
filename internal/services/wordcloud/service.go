// Package wordcloud derives token frequency summaries from item text for
// downstream visualization.
package wordcloud

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/buzzmon/internal/models"
)

// minTokenLength drops single-character tokens, which carry no meaning in
// a frequency summary
const minTokenLength = 2

// Service tokenizes item text and counts token frequencies
type Service struct{}

// NewService creates a word cloud service
func NewService() *Service {
	return &Service{}
}

// Generate tokenizes the item's combined text and returns unique tokens with
// their frequencies, most frequent first. Ties keep first-seen order so the
// output is deterministic for a given input.
func (s *Service) Generate(item models.ContentItem) []models.WordCloudEntry {
	tokens := tokenize(item.CombinedText())
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	entries := make([]models.WordCloudEntry, 0, len(order))
	for _, tok := range order {
		entries = append(entries, models.WordCloudEntry{
			Word:      tok,
			Frequency: counts[tok],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Frequency > entries[j].Frequency
	})

	return entries
}

// tokenize lowercases, splits on anything that is not a letter or digit and
// drops tokens below the minimum length. Unicode letters stay intact for
// Vietnamese text.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	fields := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) >= minTokenLength {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
