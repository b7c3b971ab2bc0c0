package extract

import (
	"regexp"
	"strings"
)

const months = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

// dateRE recognizes date and period expressions. Alternatives are ordered
// longest first so leftmost-first matching keeps whole expressions.
var dateRE = regexp.MustCompile(`(?i)\b(?:` +
	`\d{4}-\d{2}-\d{2}` +
	`|(?:q[1-4]|h[12])\s*(?:fy\s*)?'?\d{2,4}` +
	`|fy\s*'?\d{2,4}` +
	`|(?:` + months + `)\.?(?:\s+\d{1,2}(?:st|nd|rd|th)?,?)?(?:\s+\d{4})?` +
	`|may\s+\d{1,4}(?:st|nd|rd|th)?(?:,?\s+\d{4})?` +
	`|(?:last|past|previous|next|coming)\s+(?:\d+\s+)?(?:fiscal\s+)?(?:years?|quarters?|months?|weeks?|days?)` +
	`|(?:this|current)\s+(?:fiscal\s+)?(?:year|quarter|month)` +
	`|today|yesterday` +
	`|(?:19|20)\d{2}` +
	`)\b`)

var (
	startCues = map[string]bool{"from": true, "start": true, "starting": true, "since": true, "after": true, "between": true}
	endCues   = map[string]bool{"to": true, "end": true, "ending": true, "until": true, "till": true, "through": true, "before": true, "and": true}
)

type dateSpans struct {
	all   []string
	start []string
	end   []string
}

// findDates finds date spans and buckets them into start and end bounds by the
// word preceding each span, falling back to first seen as start and every
// later span as end.
func findDates(text string) dateSpans {
	spans := dateSpans{all: []string{}, start: []string{}, end: []string{}}
	for _, loc := range dateRE.FindAllStringIndex(text, -1) {
		span := text[loc[0]:loc[1]]
		spans.all = append(spans.all, span)

		switch cue := precedingWord(text[:loc[0]]); {
		case startCues[cue]:
			spans.start = append(spans.start, span)
		case endCues[cue]:
			spans.end = append(spans.end, span)
		case len(spans.start) == 0:
			spans.start = append(spans.start, span)
		default:
			spans.end = append(spans.end, span)
		}
	}
	return spans
}

func precedingWord(prefix string) string {
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[len(fields)-1], ",.;:"))
}
