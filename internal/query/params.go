package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

var parameterRE = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExtractParameters returns the named parameters referenced by query, in
// order of first appearance.
func ExtractParameters(query string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range parameterRE.FindAllStringSubmatch(query, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// BindParameters binds every parameter of query from entities. Parameter
// names are the entity keys or one of their aliases:
//
//	companies   companyName, companyNames
//	metrics     metricName, metricNames
//	time_period timePeriod, date
//	startDate, endDate, industry, limit
//
// limit is coerced to an integer and date bounds take their first element.
// A parameter with no matching non-empty entity value binds to nil.
func BindParameters(query string, entities model.EntityBag) map[string]any {
	params := make(map[string]any)
	for _, name := range ExtractParameters(query) {
		params[name] = bindValue(name, entities)
	}
	return params
}

func bindValue(name string, entities model.EntityBag) any {
	switch name {
	case "companies", "companyName", "companyNames":
		return sequence(entities.Companies)
	case "metrics", "metricName", "metricNames":
		return sequence(entities.Metrics)
	case "time_period", "timePeriod", "date":
		if entities.HasPeriod() {
			return entities.TimePeriod
		}
	case "startDate":
		return first(entities.StartDate)
	case "endDate":
		return first(entities.EndDate)
	case "industry":
		if entities.Industry != "" {
			return entities.Industry
		}
	case "limit":
		if len(entities.Limit) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(entities.Limit[0])); err == nil {
				return n
			}
		}
	}
	return nil
}

func sequence(values []string) any {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func first(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
