package gbnf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaPreservesPropertyOrder(t *testing.T) {
	schema := mustParseSchema(t, `{
		"type": "object",
		"properties": {"z": {"type": "string"}, "a": {"type": "number"}, "m": {"type": "boolean"}}
	}`)
	require.NotNil(t, schema.Properties)

	var keys []string
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestParseSchemaBooleanLiterals(t *testing.T) {
	trueSchema := mustParseSchema(t, `true`)
	require.NotNil(t, trueSchema.Boolean)
	assert.True(t, *trueSchema.Boolean)

	falseSchema := mustParseSchema(t, `false`)
	require.NotNil(t, falseSchema.Boolean)
	assert.False(t, *falseSchema.Boolean)
}

func TestParseSchemaTypeSingleAndArray(t *testing.T) {
	single := mustParseSchema(t, `{"type": "string"}`)
	assert.Equal(t, SchemaType{"string"}, single.Type)

	multi := mustParseSchema(t, `{"type": ["string", "null"]}`)
	assert.Equal(t, SchemaType{"string", "null"}, multi.Type)
}

func TestParseSchemaConstDistinguishesNullFromAbsent(t *testing.T) {
	withNullConst := mustParseSchema(t, `{"const": null}`)
	require.NotNil(t, withNullConst.Const)
	assert.True(t, withNullConst.Const.IsSet)
	assert.Nil(t, withNullConst.Const.Value)

	withoutConst := mustParseSchema(t, `{"type": "string"}`)
	assert.Nil(t, withoutConst.Const)
}

func TestSchemaIsEmpty(t *testing.T) {
	assert.True(t, (&Schema{}).IsEmpty())
	assert.True(t, (*Schema)(nil).IsEmpty())
	assert.False(t, mustParseSchema(t, `{"type": "string"}`).IsEmpty())
	assert.False(t, mustParseSchema(t, `{"properties": {"a": {}}}`).IsEmpty())
}
