package query

import (
	"strings"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

const templateMatch = "MATCH (c:Company)-[:HAS_METRIC]->(mv:MetricValue)-[:OF_METRIC]->(m:Metric)"

// TemplateGenerator renders fixed queries keyed by intent action. Entity
// values are written into the query text as literals, so it must only serve
// trusted input.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a template generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate returns the query for intent and entities. Identical inputs give
// identical output.
func (g *TemplateGenerator) Generate(intent model.Intent, entities model.EntityBag) string {
	switch intent.Action {
	case model.ActionCompare:
		return g.render(entities, "ORDER BY m.name, c.name")
	case model.ActionTrend:
		return g.render(entities, "ORDER BY mv.date")
	default:
		return g.render(entities, "")
	}
}

func (g *TemplateGenerator) render(entities model.EntityBag, orderBy string) string {
	var b strings.Builder
	b.WriteString(templateMatch)
	b.WriteString("\nWHERE c.name IN ")
	b.WriteString(listLiteral(entities.Companies))
	b.WriteString(" AND m.name IN ")
	b.WriteString(listLiteral(entities.Metrics))
	b.WriteString("\nRETURN c.name AS company, m.name AS metric, mv.value AS value, mv.date AS date")
	if orderBy != "" {
		b.WriteString("\n")
		b.WriteString(orderBy)
	}
	return b.String()
}

func listLiteral(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
