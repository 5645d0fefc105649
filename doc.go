// Package gbnf compiles JSON Schema documents into an equivalent
// context-free grammar in a small EBNF-like notation (GBNF), suitable
// for driving a constrained-decoding token sampler so that generated
// text is guaranteed to be schema-valid JSON.
//
// The compiler supports a practical subset of JSON Schema: $ref
// resolution (including cycle breaking), oneOf/anyOf/allOf, const and
// enum, typed objects with required/optional properties, typed arrays
// with prefixItems and item-count bounds, and a useful subset of
// ECMA-262 regular expressions for pattern and format validation.
package gbnf
