package extract

import (
	"regexp"
	"strings"
)

// Pattern is a sequence of token matchers. A pattern matches greedily: each
// optional element is taken when it matches.
type Pattern []Element

// Element matches a single token.
type Element struct {
	Match    func(token) bool
	Optional bool
}

var numberRE = regexp.MustCompile(`^\d+(?:[.,]\d+)*$`)

var integerRE = regexp.MustCompile(`^\d+$`)

var prepositions = map[string]bool{
	"in": true, "of": true, "for": true, "at": true, "by": true, "from": true,
	"over": true, "during": true, "on": true, "since": true, "with": true,
}

func word(w string) Element {
	return Element{Match: func(t token) bool { return t.lower == w }}
}

func wordIn(words ...string) Element {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return Element{Match: func(t token) bool { return set[t.lower] }}
}

func preposition() Element {
	return Element{Match: func(t token) bool { return t.tag == "IN" || prepositions[t.lower] }}
}

func number() Element {
	return Element{Match: isNumber}
}

func optional(e Element) Element {
	e.Optional = true
	return e
}

func isNumber(t token) bool {
	return numberRE.MatchString(t.text)
}

// matchAt returns the length of the match of p at tokens[start:], or 0.
func (p Pattern) matchAt(tokens []token, start int) int {
	i := start
	for _, el := range p {
		if i < len(tokens) && el.Match(tokens[i]) {
			i++
			continue
		}
		if !el.Optional {
			return 0
		}
	}
	return i - start
}

// matchMetrics returns the surface text of the longest pattern match at every
// token position. Matches starting at different positions may overlap.
func matchMetrics(patterns []Pattern, tokens []token) []string {
	metrics := []string{}
	for start := range tokens {
		best := 0
		for _, p := range patterns {
			if n := p.matchAt(tokens, start); n > best {
				best = n
			}
		}
		if best > 0 {
			metrics = append(metrics, joinTokens(tokens[start:start+best]))
		}
	}
	return metrics
}

func joinTokens(tokens []token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}
