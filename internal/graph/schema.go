package graph

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchema []byte

// Schema describes the labels, relationships and properties of the knowledge
// graph. It is read once at startup and never mutated.
type Schema struct {
	Nodes         []Node         `yaml:"nodes" json:"nodes"`
	Relationships []Relationship `yaml:"relationships" json:"relationships"`
	Examples      []Example      `yaml:"examples" json:"examples"`
}

// Node is a node label and its properties.
type Node struct {
	Label       string     `yaml:"label" json:"label"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Properties  []Property `yaml:"properties" json:"properties"`
}

// Property is a node property.
type Property struct {
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type" json:"type"`
	Unique bool   `yaml:"unique" json:"unique,omitempty"`
}

// Relationship is a relationship type between two labels.
type Relationship struct {
	Type        string `yaml:"type" json:"type"`
	From        string `yaml:"from" json:"from"`
	To          string `yaml:"to" json:"to"`
	Cardinality string `yaml:"cardinality" json:"cardinality,omitempty"`
}

// Example is a sample query shown to the model.
type Example struct {
	Description string `yaml:"description" json:"description,omitempty"`
	Query       string `yaml:"query" json:"query"`
}

// DefaultSchema returns the built-in schema of the financial knowledge graph.
func DefaultSchema() *Schema {
	s, err := ParseSchema(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("graph: invalid built-in schema: %v", err))
	}
	return s
}

// LoadSchema reads a schema file. An empty path selects the default schema.
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and checks a YAML schema.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	if len(s.Nodes) == 0 {
		return nil, fmt.Errorf("schema defines no nodes")
	}

	labels := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.Label == "" {
			return nil, fmt.Errorf("schema node without label")
		}
		labels[n.Label] = true
	}
	for _, r := range s.Relationships {
		if !labels[r.From] || !labels[r.To] {
			return nil, fmt.Errorf("relationship %s joins unknown labels %s and %s", r.Type, r.From, r.To)
		}
	}
	return &s, nil
}

// Describe renders the schema as text for model prompts.
func (s *Schema) Describe() string {
	var b strings.Builder
	b.WriteString("Nodes:\n")
	for _, n := range s.Nodes {
		props := make([]string, len(n.Properties))
		for i, p := range n.Properties {
			props[i] = p.Name + ": " + p.Type
			if p.Unique {
				props[i] += ", unique"
			}
		}
		fmt.Fprintf(&b, "- (:%s {%s})", n.Label, strings.Join(props, "; "))
		if n.Description != "" {
			b.WriteString(" ")
			b.WriteString(n.Description)
		}
		b.WriteString("\n")
	}

	if len(s.Relationships) > 0 {
		b.WriteString("Relationships:\n")
		for _, r := range s.Relationships {
			fmt.Fprintf(&b, "- (:%s)-[:%s]->(:%s)", r.From, r.Type, r.To)
			if r.Cardinality != "" {
				b.WriteString(" " + r.Cardinality)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// DescribeExamples renders the example queries as a numbered list.
func (s *Schema) DescribeExamples() string {
	var b strings.Builder
	for i, ex := range s.Examples {
		fmt.Fprintf(&b, "%d. %s:\n%s\n", i+1, ex.Description, strings.TrimRight(ex.Query, "\n"))
	}
	return b.String()
}
