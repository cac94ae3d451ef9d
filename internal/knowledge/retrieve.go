package knowledge

import (
	"sort"
	"strings"
	"unicode"
)

// Tokenize lower-cases text, turns every rune outside [a-z0-9] and whitespace
// into a separator, and returns the distinct remaining words.
func Tokenize(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))

	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(cleaned) {
		tokens[field] = struct{}{}
	}
	return tokens
}

type scored struct {
	text  string
	score int
}

// Retrieve ranks documents by how many of their tags occur in query and returns
// the text of the best MaxResults. Documents with no overlap are never returned;
// equal scores keep corpus order. The result is never nil.
func (c *Corpus) Retrieve(query string) []string {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []string{}
	}

	var hits []scored
	for _, e := range c.docs {
		score := 0
		for tag := range e.tags {
			if _, ok := tokens[tag]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{text: e.doc.Text, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.text
	}
	return out
}
