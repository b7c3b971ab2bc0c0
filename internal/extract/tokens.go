package extract

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

type token struct {
	text  string
	lower string
	tag   string
}

// tokenize splits text into tagged tokens. If the tagger fails the text is
// split on whitespace and punctuation with empty tags.
func tokenize(text string) []token {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return splitFields(text)
	}

	tokens := make([]token, 0, len(doc.Tokens()))
	for _, t := range doc.Tokens() {
		tokens = append(tokens, newToken(t.Text, t.Tag))
	}
	return tokens
}

func splitFields(text string) []token {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '?' || r == '!' || r == ';' || r == ':'
	})
	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimRight(f, ".")
		if f != "" {
			tokens = append(tokens, newToken(f, ""))
		}
	}
	return tokens
}

func newToken(text, tag string) token {
	return token{text: text, lower: strings.ToLower(text), tag: tag}
}

var irregular = map[string]string{
	"grew": "grow", "grown": "grow",
	"rose": "rise", "risen": "rise",
	"fell": "fall", "fallen": "fall",
	"gave": "give", "given": "give",
	"shown": "show",
	"told":  "tell",
	"vs.":   "vs",
}

// lemmas returns candidate base forms of a word, the word itself first.
func lemmas(lower string) []string {
	out := []string{lower}
	if base, ok := irregular[lower]; ok {
		out = append(out, base)
	}
	for _, rule := range []struct{ suffix, repl string }{
		{"ies", "y"}, {"ied", "y"},
		{"ing", ""}, {"ing", "e"},
		{"ed", ""}, {"ed", "e"},
		{"es", ""}, {"s", ""},
	} {
		if len(lower) > len(rule.suffix)+2 && strings.HasSuffix(lower, rule.suffix) {
			out = append(out, strings.TrimSuffix(lower, rule.suffix)+rule.repl)
		}
	}
	return out
}

func isCapitalized(text string) bool {
	for _, r := range text {
		return unicode.IsUpper(r)
	}
	return false
}
