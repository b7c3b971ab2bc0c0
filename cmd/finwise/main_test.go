package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractCmd(t *testing.T) {
	out, err := execute(t, "extract", "--template", "Compare", "revenue", "of", "TCS", "and", "Infosys")
	require.NoError(t, err)

	var got struct {
		Entities struct {
			Companies []string `json:"companies"`
			Metrics   []string `json:"metrics"`
		} `json:"entities"`
		Intent struct {
			Action     string `json:"action"`
			Comparison bool   `json:"comparison"`
		} `json:"intent"`
		Query string `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, []string{"TCS", "Infosys"}, got.Entities.Companies)
	assert.Equal(t, "compare", got.Intent.Action)
	assert.True(t, got.Intent.Comparison)
	assert.Contains(t, got.Query, "ORDER BY m.name, c.name")
}

func TestSchemaCmd(t *testing.T) {
	out, err := execute(t, "schema", "--examples")
	require.NoError(t, err)

	assert.Contains(t, out, "Nodes:\n")
	assert.Contains(t, out, "(:Company")
	assert.Contains(t, out, "1. ")
}

func TestSchemaCmd_MissingFile(t *testing.T) {
	_, err := execute(t, "schema", "--file", "missing.yaml")
	assert.Error(t, err)
}

func TestAskCmd_RequiresQuestion(t *testing.T) {
	_, err := execute(t, "ask")
	assert.Error(t, err)
}
