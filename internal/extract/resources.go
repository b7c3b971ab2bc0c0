package extract

import (
	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

// Resources are the fixed recognizer tables the extractor runs against.
type Resources struct {
	// Companies maps lowercased multi- or single-word company names to the
	// canonical spelling stored in the graph.
	Companies map[string]string

	// Industries maps an exact token to the industry it names.
	Industries map[string]string

	// Lexicon maps a verb lemma to the action it signals.
	Lexicon map[string]model.Action

	// Timeframes maps a cue word to the timeframe it signals.
	Timeframes map[string]model.Timeframe

	// LimitTriggers are the words that turn a following number into a limit.
	LimitTriggers map[string]bool

	// Metrics are token-sequence patterns for financial metric phrases.
	Metrics []Pattern
}

// DefaultResources returns the tables for Indian listed companies and the
// metrics stored in the knowledge graph.
func DefaultResources() Resources {
	return Resources{
		Companies: map[string]string{
			"tcs":                       "TCS",
			"tata consultancy services": "TCS",
			"infosys":                   "Infosys",
			"wipro":                     "Wipro",
			"hcl technologies":          "HCL Technologies",
			"hcl tech":                  "HCL Technologies",
			"reliance industries":       "Reliance Industries",
			"reliance":                  "Reliance Industries",
			"hdfc bank":                 "HDFC Bank",
			"bharti airtel":             "Bharti Airtel",
			"airtel":                    "Bharti Airtel",
		},
		Industries: map[string]string{
			"IT":                 "IT Services",
			"Conglomerate":       "Conglomerate",
			"Conglomerates":      "Conglomerate",
			"Banking":            "Banking",
			"Banks":              "Banking",
			"Telecommunications": "Telecommunications",
			"Telecom":            "Telecommunications",
		},
		Lexicon: map[string]model.Action{
			"compare":   model.ActionCompare,
			"versus":    model.ActionCompare,
			"vs":        model.ActionCompare,
			"contrast":  model.ActionCompare,
			"benchmark": model.ActionCompare,

			"trend":    model.ActionTrend,
			"change":   model.ActionTrend,
			"grow":     model.ActionTrend,
			"decline":  model.ActionTrend,
			"increase": model.ActionTrend,
			"decrease": model.ActionTrend,
			"rise":     model.ActionTrend,
			"fall":     model.ActionTrend,

			"show":    model.ActionDisplay,
			"display": model.ActionDisplay,
			"give":    model.ActionDisplay,
			"provide": model.ActionDisplay,
			"list":    model.ActionDisplay,
			"tell":    model.ActionDisplay,

			"rank":    model.ActionRank,
			"top":     model.ActionRank,
			"best":    model.ActionRank,
			"highest": model.ActionRank,
			"lowest":  model.ActionRank,
			"leading": model.ActionRank,

			"analyze":  model.ActionAnalyze,
			"analyse":  model.ActionAnalyze,
			"evaluate": model.ActionAnalyze,
			"assess":   model.ActionAnalyze,
			"explain":  model.ActionAnalyze,
			"examine":  model.ActionAnalyze,

			"predict":  model.ActionPredict,
			"forecast": model.ActionPredict,
			"project":  model.ActionPredict,
			"estimate": model.ActionPredict,
			"expect":   model.ActionPredict,
		},
		Timeframes: map[string]model.Timeframe{
			"last":       model.TimeframePast,
			"previous":   model.TimeframePast,
			"past":       model.TimeframePast,
			"ago":        model.TimeframePast,
			"historical": model.TimeframePast,
			"earlier":    model.TimeframePast,
			"prior":      model.TimeframePast,
			"was":        model.TimeframePast,
			"were":       model.TimeframePast,
			"did":        model.TimeframePast,
			"yesterday":  model.TimeframePast,

			"next":      model.TimeframeFuture,
			"upcoming":  model.TimeframeFuture,
			"future":    model.TimeframeFuture,
			"will":      model.TimeframeFuture,
			"forecast":  model.TimeframeFuture,
			"predict":   model.TimeframeFuture,
			"projected": model.TimeframeFuture,
			"expected":  model.TimeframeFuture,
			"coming":    model.TimeframeFuture,
			"outlook":   model.TimeframeFuture,

			"current":   model.TimeframeCurrent,
			"currently": model.TimeframeCurrent,
			"now":       model.TimeframeCurrent,
			"today":     model.TimeframeCurrent,
			"latest":    model.TimeframeCurrent,
			"present":   model.TimeframeCurrent,
		},
		LimitTriggers: map[string]bool{
			"top":   true,
			"limit": true,
			"fetch": true,
			"get":   true,
		},
		Metrics: []Pattern{
			{wordIn("revenue", "profit", "income", "earnings", "ebitda", "sales", "eps"), preposition(), number()},
			{wordIn("revenue", "profit", "income", "earnings", "ebitda", "sales", "eps"), optional(number())},
			{word("net"), wordIn("income", "profit", "loss")},
			{word("gross"), wordIn("margin", "profit")},
			{word("operating"), wordIn("income", "profit", "margin")},
			{word("debt"), word("to"), word("equity")},
			{word("earnings"), word("per"), word("share")},
			{word("employee"), word("count")},
		},
	}
}
