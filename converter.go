package gbnf

import (
	"context"
	"log/slog"
)

// Converter compiles a single JSON Schema document into GBNF grammar
// text. Its rule table, reference-resolution state and warning buffer
// all accumulate across one Convert call and are reset at the start of
// the next, so calls made one after another are independent; it is not
// safe for concurrent use, and a concurrent compile needs its own
// Converter (NewConverter is cheap).
type Converter struct {
	fetch  FetchFunc
	dotall bool
	logger *slog.Logger

	table        *ruleTable
	resolver     *refResolver
	refRuleNames map[string]string
	errs         []string
	warnings     []string
}

// Convert compiles schema into GBNF source text rooted at a "root"
// rule. Problems are accumulated rather than raised immediately: a
// broken subschema is swapped for the unconstrained "value" rule so the
// rest of the document still compiles, and every problem collected along
// the way is returned together as a single *ConversionError once
// compilation finishes.
func (c *Converter) Convert(ctx context.Context, schema *Schema) (string, error) {
	c.table = newRuleTable()
	c.resolver = newRefResolver(schema, c.fetch)
	c.refRuleNames = make(map[string]string)
	c.errs = nil
	c.warnings = nil

	name, err := c.visit(ctx, schema, "root")
	if err != nil {
		c.errs = append(c.errs, err.Error())
	} else if name != "root" {
		c.table.rules.Set("root", name)
	}

	if len(c.errs) > 0 {
		return "", &ConversionError{Messages: c.errs}
	}
	return c.table.render(), nil
}

// Warnings returns the non-fatal problems recorded during the most
// recent Convert call — currently only unsupported regex group syntax
// that was worked around rather than rejected.
func (c *Converter) Warnings() []string {
	return c.warnings
}

// visitOrRecover visits schema and, on failure, records the error and
// substitutes the unconstrained "value" rule so a sibling subschema's
// problem doesn't stop the rest of the document from compiling.
func (c *Converter) visitOrRecover(ctx context.Context, schema *Schema, proposedName string) string {
	name, err := c.visit(ctx, schema, proposedName)
	if err == nil {
		return name
	}
	c.errs = append(c.errs, err.Error())
	fallback, _ := c.table.ensureBuiltin("value")
	return fallback
}

// Compile compiles schema (a JSON Schema document) into GBNF grammar
// text using the package defaults: no remote $ref fetching and "."
// matching everything but a newline.
func Compile(schema []byte) (string, error) {
	return NewConverter().CompileBytes(context.Background(), schema)
}

// CompileBytes parses raw JSON into a Schema and compiles it.
func (c *Converter) CompileBytes(ctx context.Context, raw []byte) (string, error) {
	schema, err := parseSchema(raw)
	if err != nil {
		return "", err
	}
	return c.Convert(ctx, schema)
}
