package gbnf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseSchema(t *testing.T, raw string) *Schema {
	t.Helper()
	s, err := parseSchema([]byte(raw))
	require.NoError(t, err)
	return s
}

func TestRefResolverLocalPointer(t *testing.T) {
	root := mustParseSchema(t, `{
		"$defs": {"Name": {"type": "string", "minLength": 1}},
		"properties": {"name": {"$ref": "#/$defs/Name"}}
	}`)
	resolver := newRefResolver(root, nil)

	target, ok, err := resolver.begin(context.Background(), "#/$defs/Name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, target.hasType("string"))
	resolver.end("#/$defs/Name")
}

func TestRefResolverPropertiesAndItemsPointers(t *testing.T) {
	root := mustParseSchema(t, `{
		"properties": {"tags": {"type": "array", "items": {"type": "string"}}}
	}`)
	resolver := newRefResolver(root, nil)

	target, err := resolver.resolvePointer(root, "/properties/tags/items")
	require.NoError(t, err)
	assert.True(t, target.hasType("string"))
}

func TestRefResolverPrefixItemsAndUnionPointers(t *testing.T) {
	root := mustParseSchema(t, `{
		"prefixItems": [{"type": "string"}, {"type": "number"}],
		"anyOf": [{"type": "boolean"}, {"type": "null"}]
	}`)
	resolver := newRefResolver(root, nil)

	second, err := resolver.resolvePointer(root, "/prefixItems/1")
	require.NoError(t, err)
	assert.True(t, second.hasType("number"))

	nullBranch, err := resolver.resolvePointer(root, "/anyOf/1")
	require.NoError(t, err)
	assert.True(t, nullBranch.hasType("null"))
}

func TestRefResolverUnresolvedPointer(t *testing.T) {
	root := mustParseSchema(t, `{"$defs": {"Name": {"type": "string"}}}`)
	resolver := newRefResolver(root, nil)

	_, err := resolver.resolvePointer(root, "/$defs/Missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedRef)
}

func TestRefResolverUnsupportedRefScheme(t *testing.T) {
	root := mustParseSchema(t, `{}`)
	resolver := newRefResolver(root, nil)

	_, _, err := resolver.begin(context.Background(), "urn:not-supported")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedRef)
}

func TestRefResolverRemoteFetch(t *testing.T) {
	root := mustParseSchema(t, `{}`)
	var requested string
	fetch := func(_ context.Context, url string) ([]byte, error) {
		requested = url
		return []byte(`{"$defs": {"Name": {"type": "string"}}}`), nil
	}
	resolver := newRefResolver(root, fetch)

	target, ok, err := resolver.begin(context.Background(), "https://example.com/schema.json#/$defs/Name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/schema.json", requested)
	assert.True(t, target.hasType("string"))

	// A second lookup against the same document must not refetch it.
	requested = ""
	resolver.end("https://example.com/schema.json#/$defs/Name")
	_, ok, err = resolver.begin(context.Background(), "https://example.com/schema.json#/$defs/Name")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, requested)
}

func TestRefResolverNoopFetchRejectsRemote(t *testing.T) {
	root := mustParseSchema(t, `{}`)
	resolver := newRefResolver(root, nil)

	_, _, err := resolver.begin(context.Background(), "https://example.com/schema.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailure)
}

func TestRefResolverCycleDetection(t *testing.T) {
	root := mustParseSchema(t, `{
		"$defs": {"Node": {"type": "object", "properties": {"next": {"$ref": "#/$defs/Node"}}}}
	}`)
	resolver := newRefResolver(root, nil)

	_, ok, err := resolver.begin(context.Background(), "#/$defs/Node")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = resolver.begin(context.Background(), "#/$defs/Node")
	require.NoError(t, err)
	assert.False(t, ok, "a ref still in progress must report as a cycle, not resolve again")

	resolver.end("#/$defs/Node")
}
