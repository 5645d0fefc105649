package gbnf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitObjectAllRequired(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}, "b": {"type": "number"}},
		"required": ["a", "b"]
	}`)
	name, err := c.visit(context.Background(), schema, "root")
	require.NoError(t, err)

	rhs, ok := c.table.rules.Get(name)
	require.True(t, ok)
	assert.NotContains(t, rhs, "?", "an all-required object has no optional alternation")
	assert.Contains(t, rhs, "root-a-kv")
	assert.Contains(t, rhs, "root-b-kv")
}

func TestVisitObjectAllOptionalProducesOnePerBranch(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}, "b": {"type": "number"}, "c": {"type": "boolean"}}
	}`)
	name, err := c.visit(context.Background(), schema, "root")
	require.NoError(t, err)

	rhs, ok := c.table.rules.Get(name)
	require.True(t, ok)
	// Exactly one top-level alternation, one branch per optional property.
	assert.Equal(t, 2, countTopLevelBars(rhs))
}

func TestVisitObjectMixedRequiredAndOptional(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}, "b": {"type": "number"}},
		"required": ["a"]
	}`)
	name, err := c.visit(context.Background(), schema, "root")
	require.NoError(t, err)

	rhs, ok := c.table.rules.Get(name)
	require.True(t, ok)
	assert.Contains(t, rhs, "root-a-kv")
	assert.Contains(t, rhs, "(")
	assert.Contains(t, rhs, ")?")
}

func TestVisitObjectEmptyPropertiesStillBraces(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{"type": "object"}`)
	name, err := c.visit(context.Background(), schema, "root")
	require.NoError(t, err)

	rhs, ok := c.table.rules.Get(name)
	require.True(t, ok)
	assert.Contains(t, rhs, `"{"`)
	assert.Contains(t, rhs, `"}"`)
}

func TestVisitAllOfMergesObjectMembers(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{
		"allOf": [
			{"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"]},
			{"type": "object", "properties": {"b": {"type": "number"}}, "required": ["b"]}
		]
	}`)
	name, err := c.visit(context.Background(), schema, "root")
	require.NoError(t, err)

	rhs, ok := c.table.rules.Get(name)
	require.True(t, ok)
	assert.Contains(t, rhs, "root-a-kv")
	assert.Contains(t, rhs, "root-b-kv")
}

func TestVisitObjectAdditionalPropertiesSchema(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}},
		"required": ["a"],
		"additionalProperties": {"type": "number"}
	}`)
	name, err := c.visit(context.Background(), schema, "root")
	require.NoError(t, err)

	rhs, ok := c.table.rules.Get(name)
	require.True(t, ok)
	assert.Contains(t, rhs, "root-additional-kvs")
	assert.True(t, c.table.has("root-additional-kv"))
	assert.True(t, c.table.has("root-additional-kvs"))

	kvRhs, ok := c.table.rules.Get("root-additional-kv")
	require.True(t, ok)
	assert.Contains(t, kvRhs, "string")
	assert.Contains(t, kvRhs, "number")
}

func TestVisitObjectAdditionalPropertiesFalseOmitsRule(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}},
		"additionalProperties": false
	}`)
	_, err := c.visit(context.Background(), schema, "root")
	require.NoError(t, err)
	assert.False(t, c.table.has("root-additional-kv"))
}

func TestVisitAllOfRejectsNonObjectMember(t *testing.T) {
	c := newTestConverter()
	schema := mustParseSchema(t, `{"allOf": [{"type": "string"}]}`)
	_, err := c.visit(context.Background(), schema, "root")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedSchema)
}

// countTopLevelBars counts "|" occurrences not nested inside parentheses.
func countTopLevelBars(rhs string) int {
	depth := 0
	count := 0
	for _, r := range rhs {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case '|':
			if depth == 1 {
				count++
			}
		}
	}
	return count
}
