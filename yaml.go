package gbnf

import (
	"context"

	"github.com/goccy/go-yaml"
)

// CompileYAML decodes a YAML-encoded JSON Schema document and compiles
// it the same way Compile does. Schemas feeding this compiler arrive as
// YAML as often as JSON in practice, so this is a thin convenience
// rather than a distinct code path: the YAML is decoded into the same
// generic tree JSON would produce, then re-marshaled to JSON and parsed
// as a Schema.
func CompileYAML(source []byte) (string, error) {
	return NewConverter().CompileYAML(context.Background(), source)
}

// CompileYAML decodes and compiles a YAML-encoded JSON Schema document
// with this Converter's configuration.
func (c *Converter) CompileYAML(ctx context.Context, source []byte) (string, error) {
	raw, err := yaml.YAMLToJSON(source)
	if err != nil {
		return "", err
	}
	return c.CompileBytes(ctx, raw)
}
