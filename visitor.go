package gbnf

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
)

func (s *Schema) hasType(t string) bool {
	for _, x := range s.Type {
		if x == t {
			return true
		}
	}
	return false
}

// isObjectLike reports whether a schema describes a JSON object, either
// explicitly ("type": "object") or implicitly (no type, but properties
// or a non-true additionalProperties).
func (s *Schema) isObjectLike() bool {
	if s.hasType("object") {
		return true
	}
	if len(s.Type) > 0 {
		return false
	}
	if s.Properties != nil && s.Properties.Len() > 0 {
		return true
	}
	if ap := s.AdditionalProperties; ap != nil {
		return ap.Boolean == nil || !*ap.Boolean
	}
	return false
}

func (s *Schema) isArrayLike() bool {
	if s.hasType("array") {
		return true
	}
	if len(s.Type) > 0 {
		return false
	}
	return s.Items != nil || len(s.PrefixItems) > 0
}

func (s *Schema) isStringLike() bool {
	if s.hasType("string") {
		return true
	}
	if len(s.Type) > 0 {
		return false
	}
	return s.Pattern != nil || s.Format != nil || s.MinLength != nil || s.MaxLength != nil
}

// visit dispatches on a schema's shape and returns the name of the rule
// that matches it, registering whatever new rules the shape needs along
// the way. Cases are tried in the priority order a schema combining
// several keywords needs resolved deterministically: $ref and boolean
// schemas short-circuit everything else; oneOf/anyOf beat a multi-entry
// "type" array; that beats const/enum; unions beat allOf; allOf beats
// the structural (array/object/string) cases; those beat the remaining
// scalar types; an empty schema falls back to the unconstrained "value"
// rule.
func (c *Converter) visit(ctx context.Context, schema *Schema, proposedName string) (string, error) {
	if schema.IsEmpty() {
		return c.table.ensureBuiltin("value")
	}

	if schema.Ref != "" {
		return c.visitRef(ctx, schema, proposedName)
	}

	if schema.Boolean != nil {
		if *schema.Boolean {
			return c.table.ensureBuiltin("value")
		}
		return "", fmt.Errorf("%w: boolean schema \"false\" for %q matches nothing", ErrUnrecognizedSchema, proposedName)
	}

	if len(schema.OneOf) > 0 {
		return c.visitUnion(ctx, schema.OneOf, proposedName)
	}
	if len(schema.AnyOf) > 0 {
		return c.visitUnion(ctx, schema.AnyOf, proposedName)
	}

	if len(schema.Type) > 1 {
		return c.visitTypeUnion(ctx, schema, proposedName)
	}

	if schema.Const != nil && schema.Const.IsSet {
		return c.visitConst(schema.Const, proposedName)
	}

	if len(schema.Enum) > 0 {
		return c.visitEnum(schema.Enum, proposedName)
	}

	if len(schema.AllOf) > 0 {
		return c.visitAllOf(ctx, schema, proposedName)
	}

	switch {
	case schema.isArrayLike():
		return c.visitArray(ctx, schema, proposedName)
	case schema.isObjectLike():
		return c.visitObject(ctx, schema, proposedName)
	case schema.isStringLike():
		return c.visitString(ctx, schema, proposedName)
	case schema.hasType("number"):
		return c.table.ensureBuiltin("number")
	case schema.hasType("integer"):
		return c.table.ensureBuiltin("integer")
	case schema.hasType("boolean"):
		return c.table.ensureBuiltin("boolean")
	case schema.hasType("null"):
		return c.table.ensureBuiltin("null")
	}

	return "", fmt.Errorf("%w: schema for %q matched no known shape", ErrUnrecognizedSchema, proposedName)
}

func refRuleName(ref string) string {
	ref = strings.TrimSuffix(ref, "/")
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

func (c *Converter) reserveRefName(ref string) string {
	name := sanitizeName(refRuleName(ref))
	if !c.table.has(name) && !isReservedName(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !c.table.has(candidate) && !isReservedName(candidate) {
			return candidate
		}
	}
}

// visitRef resolves a "$ref", reusing the rule already assigned to it
// when the same ref is seen again — including when that second sighting
// is a cycle back to a ref still being expanded higher up the stack.
func (c *Converter) visitRef(ctx context.Context, schema *Schema, _ string) (string, error) {
	ref := schema.Ref
	if name, ok := c.refRuleNames[ref]; ok {
		return name, nil
	}

	target, ok, err := c.resolver.begin(ctx, ref)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: cyclic reference %q with no reserved rule name", ErrUnresolvedRef, ref)
	}
	defer c.resolver.end(ref)

	name := c.reserveRefName(ref)
	c.refRuleNames[ref] = name

	childName, err := c.visit(ctx, target, name)
	if err != nil {
		return "", err
	}
	if childName != name {
		c.table.rules.Set(name, childName)
	}
	return name, nil
}

func (c *Converter) visitConst(cv *ConstValue, proposedName string) (string, error) {
	raw, err := json.Marshal(cv.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrecognizedSchema, err)
	}
	return c.table.addRule(proposedName, formatLiteral(string(raw))), nil
}

func (c *Converter) visitEnum(values []any, proposedName string) (string, error) {
	alts := make([]string, len(values))
	for i, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnrecognizedSchema, err)
		}
		alts[i] = formatLiteral(string(raw))
	}
	return c.table.addRule(proposedName, strings.Join(alts, " | ")), nil
}

// visitTypeUnion handles a "type" keyword given as an array of two or
// more names (the common ["T","null"] nullable idiom, or any other
// multi-type union) by synthesizing one single-type schema per entry,
// carrying over the structural keywords each type shape consults, and
// dispatching the result through the same union machinery oneOf/anyOf
// use. Since a type array outranks const/enum in dispatch priority, the
// synthesized branches drop const/enum rather than re-introduce them at
// branch level, where they'd otherwise win right back.
func (c *Converter) visitTypeUnion(ctx context.Context, schema *Schema, proposedName string) (string, error) {
	members := make([]*Schema, len(schema.Type))
	for i, t := range schema.Type {
		branch := *schema
		branch.Type = SchemaType{t}
		branch.Const = nil
		branch.Enum = nil
		members[i] = &branch
	}
	return c.visitUnion(ctx, members, proposedName)
}

func (c *Converter) visitUnion(ctx context.Context, members []*Schema, proposedName string) (string, error) {
	alts := make([]string, len(members))
	for i, m := range members {
		alts[i] = c.visitOrRecover(ctx, m, fmt.Sprintf("%s-%d", proposedName, i+1))
	}
	return c.table.addRule(proposedName, strings.Join(alts, " | ")), nil
}

// visitAllOf merges every allOf member's properties/required into one
// synthetic object schema. Every member must resolve to an object shape
// (directly, or via $ref); a non-object member is reported rather than
// guessed at, since the upstream JSON Schema spec leaves that case
// undefined.
func (c *Converter) visitAllOf(ctx context.Context, schema *Schema, proposedName string) (string, error) {
	merged := &Schema{AdditionalProperties: schema.AdditionalProperties}

	members := append([]*Schema{}, schema.AllOf...)
	if schema.Properties != nil || schema.Required != nil {
		members = append([]*Schema{{
			Properties:           schema.Properties,
			Required:             schema.Required,
			AdditionalProperties: schema.AdditionalProperties,
		}}, members...)
	}

	for _, m := range members {
		resolved := m
		if m.Ref != "" {
			target, ok, err := c.resolver.begin(ctx, m.Ref)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", fmt.Errorf("%w: cyclic allOf member %q", ErrUnrecognizedSchema, m.Ref)
			}
			resolved = target
			c.resolver.end(m.Ref)
		}
		if !resolved.isObjectLike() {
			return "", fmt.Errorf("%w: allOf member for %q is not an object schema", ErrUnrecognizedSchema, proposedName)
		}
		if resolved.Properties != nil {
			if merged.Properties == nil {
				merged.Properties = newPropertyMap()
			}
			for pair := resolved.Properties.Oldest(); pair != nil; pair = pair.Next() {
				merged.Properties.Set(pair.Key, pair.Value)
			}
		}
		merged.Required = append(merged.Required, resolved.Required...)
	}

	return c.visitObject(ctx, merged, proposedName)
}

func (c *Converter) visitString(ctx context.Context, schema *Schema, proposedName string) (string, error) {
	spaceName, err := c.table.ensureBuiltin("space")
	if err != nil {
		return "", err
	}

	if schema.Pattern != nil {
		body, warnings, err := compileRegex(*schema.Pattern, c.dotall)
		c.recordWarnings(*schema.Pattern, warnings)
		if err != nil {
			return "", err
		}
		rhs := fmt.Sprintf(`"\"" %s "\"" %s`, body, spaceName)
		return c.table.addRule(proposedName, rhs), nil
	}

	if schema.Format != nil {
		if ruleName, ok := formatStringRule(*schema.Format); ok {
			name, err := c.table.ensureBuiltin(ruleName)
			if err != nil {
				return "", err
			}
			return c.table.addRule(proposedName, name), nil
		}
	}

	min := 0
	if schema.MinLength != nil {
		min = int(*schema.MinLength)
	}
	var max *int
	if schema.MaxLength != nil {
		m := int(*schema.MaxLength)
		max = &m
	}
	if min == 0 && max == nil {
		return c.table.ensureBuiltin("string")
	}

	charName, err := c.table.ensureBuiltin("char")
	if err != nil {
		return "", err
	}
	rhs := fmt.Sprintf(`"\"" %s "\"" %s`, buildRepetition(charName, min, max), spaceName)
	return c.table.addRule(proposedName, rhs), nil
}

func (c *Converter) recordWarnings(pattern string, warnings []string) {
	for _, w := range warnings {
		c.warnings = append(c.warnings, w)
		c.logger.Warn("pattern compiled with warnings", "pattern", pattern, "warning", w)
	}
}

// visitArray builds the rule for an array schema: prefixItems produce
// mandatory positional rules, items (or the implicit "any value" item
// when neither prefixItems nor items is given) produces the repeated
// tail, and minItems/maxItems bound the total item count, prefix
// items included.
func (c *Converter) visitArray(ctx context.Context, schema *Schema, proposedName string) (string, error) {
	spaceName, err := c.table.ensureBuiltin("space")
	if err != nil {
		return "", err
	}
	sep := fmt.Sprintf(`"," %s`, spaceName)

	prefixNames := make([]string, len(schema.PrefixItems))
	for i, p := range schema.PrefixItems {
		prefixNames[i] = c.visitOrRecover(ctx, p, fmt.Sprintf("%s-item-%d", proposedName, i+1))
	}

	hasTail := schema.Items != nil || len(prefixNames) == 0
	var tailName string
	if hasTail {
		tailName = c.visitOrRecover(ctx, schema.Items, proposedName+"-item")
	}

	min := 0
	if schema.MinItems != nil {
		min = int(*schema.MinItems)
	}
	var max *int
	if schema.MaxItems != nil {
		m := int(*schema.MaxItems)
		max = &m
	}

	var body string
	switch {
	case len(prefixNames) > 0 && !hasTail:
		body = strings.Join(prefixNames, " "+sep+" ")
	case len(prefixNames) > 0 && hasTail:
		extraMin := min - len(prefixNames)
		if extraMin < 0 {
			extraMin = 0
		}
		var extraMax *int
		if max != nil {
			m := *max - len(prefixNames)
			if m < 0 {
				m = 0
			}
			extraMax = &m
		}
		prefixJoined := strings.Join(prefixNames, " "+sep+" ")
		if extraMin > 0 {
			body = prefixJoined + " " + sep + " " + arrayRepetition(tailName, sep, extraMin, extraMax)
		} else if extraMax == nil {
			body = prefixJoined + fmt.Sprintf(" (%s %s)*", sep, tailName)
		} else if tail := nestedOptionalSep(tailName, sep, *extraMax); tail != "" {
			body = prefixJoined + " " + tail
		} else {
			body = prefixJoined
		}
	default:
		body = arrayRepetition(tailName, sep, min, max)
	}

	rhs := fmt.Sprintf(`"[" %s %s "]" %s`, spaceName, body, spaceName)
	return c.table.addRule(proposedName, rhs), nil
}

// arrayRepetition builds a comma-separated repetition of itemRule, from
// min to max (nil meaning unbounded) occurrences, self-wrapping as
// optional when min is zero.
func arrayRepetition(itemRule, sep string, min int, max *int) string {
	count := min
	if count < 0 {
		count = 0
	}
	elements := make([]string, count)
	for i := range elements {
		elements[i] = itemRule
	}
	joined := strings.Join(elements, " "+sep+" ")

	if max == nil {
		if count == 0 {
			return fmt.Sprintf("(%s (%s %s)*)?", itemRule, sep, itemRule)
		}
		return joined + fmt.Sprintf(" (%s %s)*", sep, itemRule)
	}

	extra := *max - count
	if extra <= 0 {
		return joined
	}
	if joined == "" {
		// No mandatory items precede this tail, so its first occurrence
		// must not carry a leading separator — mirrors
		// objectOptionalChain's firstIsOptional split for the same
		// reason: the very first element emitted has nothing before it.
		rest := nestedOptionalSep(itemRule, sep, extra-1)
		if rest == "" {
			return fmt.Sprintf("(%s)?", itemRule)
		}
		return fmt.Sprintf("(%s %s)?", itemRule, rest)
	}
	tail := nestedOptionalSep(itemRule, sep, extra)
	return joined + " " + tail
}

func nestedOptionalSep(itemRule, sep string, depth int) string {
	if depth <= 0 {
		return ""
	}
	inner := nestedOptionalSep(itemRule, sep, depth-1)
	if inner == "" {
		return fmt.Sprintf("(%s %s)?", sep, itemRule)
	}
	return fmt.Sprintf("(%s %s %s)?", sep, itemRule, inner)
}
