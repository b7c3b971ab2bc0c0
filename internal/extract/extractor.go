// Package extract turns a user utterance into candidate entities and a coarse
// intent. Extraction is a best-effort heuristic: it never fails, and false
// positives are expected downstream.
package extract

import (
	"regexp"
	"strings"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

var properNounTags = map[string]bool{"NNP": true, "NNPS": true}

// Extractor recognizes entities and intent using a fixed set of resources.
type Extractor struct {
	res      Resources
	stop     map[string]bool
	maxWords int
}

// NewExtractor creates an extractor over the given resources.
func NewExtractor(res Resources) *Extractor {
	e := &Extractor{res: res, stop: make(map[string]bool)}
	for name := range res.Companies {
		if n := len(strings.Fields(name)); n > e.maxWords {
			e.maxWords = n
		}
	}
	for _, w := range commonWords {
		e.stop[w] = true
	}
	for w := range res.Lexicon {
		e.stop[w] = true
	}
	for w := range res.Timeframes {
		e.stop[w] = true
	}
	for w := range res.LimitTriggers {
		e.stop[w] = true
	}
	for w := range res.Industries {
		e.stop[strings.ToLower(w)] = true
	}
	for _, w := range metricWords {
		e.stop[w] = true
	}
	return e
}

// Extract returns the entity bag and intent of text. It depends on nothing
// but the text and the extractor's resources.
func (e *Extractor) Extract(text string) (model.EntityBag, model.Intent) {
	tokens := tokenize(text)
	dates := findDates(text)

	entities := model.NewEntityBag()
	entities.Companies = e.companies(tokens)
	entities.Metrics = matchMetrics(e.res.Metrics, tokens)
	entities.StartDate = dates.start
	entities.EndDate = dates.end
	if len(dates.all) > 0 {
		entities.TimePeriod = dates.all[0]
	}
	entities.Industry = e.industry(tokens)
	entities.Limit = e.limits(tokens)

	return entities, e.intent(tokens)
}

// companies returns known company names and runs of capitalized tokens that
// are not common words, in document order.
func (e *Extractor) companies(tokens []token) []string {
	companies := []string{}
	for i := 0; i < len(tokens); {
		if name, n := e.knownCompany(tokens, i); n > 0 {
			companies = append(companies, name)
			i += n
			continue
		}
		if !e.orgCandidate(tokens[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(tokens) && e.orgCandidate(tokens[j]) {
			if _, n := e.knownCompany(tokens, j); n > 0 {
				break
			}
			j++
		}
		companies = append(companies, joinTokens(tokens[i:j]))
		i = j
	}
	return companies
}

func (e *Extractor) knownCompany(tokens []token, start int) (string, int) {
	for n := e.maxWords; n >= 1; n-- {
		if start+n > len(tokens) {
			continue
		}
		words := make([]string, n)
		for k := 0; k < n; k++ {
			words[k] = tokens[start+k].lower
		}
		if name, ok := e.res.Companies[strings.Join(words, " ")]; ok {
			return name, n
		}
	}
	return "", 0
}

// orgCandidate reports whether t may be part of an unknown company name: a
// capitalized proper noun outside the stop list. Tokens from the untagged
// fallback split are judged on capitalization alone.
func (e *Extractor) orgCandidate(t token) bool {
	if !isCapitalized(t.text) || e.stop[t.lower] {
		return false
	}
	if t.tag != "" && !properNounTags[t.tag] {
		return false
	}
	if isNumber(t) || periodTokenRE.MatchString(t.text) || dateRE.MatchString(t.text) {
		return false
	}
	for _, lemma := range lemmas(t.lower) {
		if e.stop[lemma] {
			return false
		}
	}
	return true
}

// industry returns the first token found in the industry vocabulary.
func (e *Extractor) industry(tokens []token) string {
	for _, t := range tokens {
		if name, ok := e.res.Industries[t.text]; ok {
			return name
		}
	}
	return ""
}

// limits returns every integer directly preceded by a limit trigger word.
func (e *Extractor) limits(tokens []token) []string {
	limits := []string{}
	for i := 1; i < len(tokens); i++ {
		if e.res.LimitTriggers[tokens[i-1].lower] && integerRE.MatchString(tokens[i].text) {
			limits = append(limits, tokens[i].text)
		}
	}
	return limits
}

// intent takes the action of the first token whose lemma is in the lexicon,
// and independently the timeframe of the first timeframe cue.
func (e *Extractor) intent(tokens []token) model.Intent {
	action := model.ActionUnknown
	timeframe := model.TimeframeCurrent

	actionFound, timeframeFound := false, false
	for _, t := range tokens {
		if !actionFound {
			for _, lemma := range lemmas(t.lower) {
				if a, ok := e.res.Lexicon[lemma]; ok {
					action, actionFound = a, true
					break
				}
			}
		}
		if !timeframeFound {
			if tf, ok := e.res.Timeframes[t.lower]; ok {
				timeframe, timeframeFound = tf, true
			}
		}
		if actionFound && timeframeFound {
			break
		}
	}

	intent, err := model.NewIntent(action, timeframe)
	if err != nil {
		return model.UnknownIntent()
	}
	return intent
}

var periodTokenRE = regexp.MustCompile(`(?i)^(?:q[1-4]|h[12]|fy'?\d{0,4})$`)

var commonWords = []string{
	"what", "what's", "which", "who", "how", "when", "where", "why",
	"please", "can", "could", "would", "should", "is", "are", "do", "does",
	"the", "a", "an", "and", "or", "of", "for", "in", "on", "me", "my", "i",
	"let", "find", "about", "between", "also", "hi", "hello", "hey", "thanks",
	"company", "companies", "industry", "sector", "quarter", "year", "fy",
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
}

var metricWords = []string{
	"revenue", "profit", "income", "earnings", "ebitda", "sales", "eps",
	"net", "gross", "margin", "operating", "loss", "debt", "equity", "ratio",
	"share", "employee", "count",
}
