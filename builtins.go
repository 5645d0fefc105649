package gbnf

import (
	"fmt"
	"regexp"
)

// builtinRule is a primitive or format production shared by every
// compiled grammar. Rules are pulled into a Converter's rule table the
// first time something references them by name, not upfront — most
// grammars only need a handful of the catalog.
type builtinRule struct {
	rhs  string
	deps []string
}

var digit = "[0-9]"
var hexDigit = "[0-9a-fA-F]"

func digits(n int) string { return buildRepetition(digit, n, &n) }
func hexDigits(n int) string { return buildRepetition(hexDigit, n, &n) }

// primitiveCatalog holds the JSON-value primitives every grammar can
// draw on: whitespace, the JSON literals, numbers, strings and the two
// recursive container rules.
var primitiveCatalog = map[string]builtinRule{
	"space": {
		rhs: `" "?`,
	},
	"boolean": {
		rhs:  `("true" | "false") space`,
		deps: []string{"space"},
	},
	"null": {
		rhs:  `"null" space`,
		deps: []string{"space"},
	},
	"integral-part": {
		rhs: `"0" | [1-9] [0-9]*`,
	},
	"decimal-part": {
		rhs: `[0-9]+`,
	},
	"number": {
		rhs:  `"-"? integral-part ("." decimal-part)? ([eE] [-+]? [0-9]+)? space`,
		deps: []string{"integral-part", "decimal-part", "space"},
	},
	"integer": {
		rhs:  `"-"? integral-part space`,
		deps: []string{"integral-part", "space"},
	},
	"char": {
		rhs: `[^"\\` + "\\x7F\\x00-\\x1F" + `] | "\\" (["\\/bfnrt] | "u" ` + hexDigits(4) + `)`,
	},
	"string": {
		rhs:  `"\"" char* "\"" space`,
		deps: []string{"char", "space"},
	},
	"value": {
		rhs:  `object | array | string | number | boolean | null`,
		deps: []string{"object", "array", "string", "number", "boolean", "null"},
	},
	"object": {
		rhs: `"{" space (string ":" space value ("," space string ":" space value)*)? "}" space`,
		deps: []string{"space", "string", "value"},
	},
	"array": {
		rhs:  `"[" space (value ("," space value)*)? "]" space`,
		deps: []string{"space", "value"},
	},
	"uuid": {
		rhs: `"\"" ` + hexDigits(8) + ` "-" ` + hexDigits(4) + ` "-" ` + hexDigits(4) + ` "-" ` + hexDigits(4) + ` "-" ` + hexDigits(12) + ` "\""`,
	},
}

// formatCatalog holds the "format" keyword's bare (unquoted) patterns —
// suitable for composing into a larger rule — plus the "-string"
// variant that wraps the bare pattern in the JSON string quotes, which
// is what gets emitted when "format" is the only constraint on a string
// schema.
var formatCatalog = map[string]builtinRule{
	"date": {
		rhs: digits(4) + ` "-" ("0" [1-9] | "1" [0-2]) "-" ("0" [1-9] | [12] [0-9] | "3" [01])`,
	},
	"time": {
		rhs: `([01] [0-9] | "2" [0-3]) ":" [0-5] [0-9] ":" [0-5] [0-9] ("." [0-9]+)? ("Z" | ("+" | "-") ([01] [0-9] | "2" [0-3]) ":" [0-5] [0-9])`,
	},
	"date-time": {
		rhs:  `date "T" time`,
		deps: []string{"date", "time"},
	},
	"date-string": {
		rhs:  `"\"" date "\"" space`,
		deps: []string{"date", "space"},
	},
	"time-string": {
		rhs:  `"\"" time "\"" space`,
		deps: []string{"time", "space"},
	},
	"date-time-string": {
		rhs:  `"\"" date-time "\"" space`,
		deps: []string{"date-time", "space"},
	},
	"uuid-string": {
		rhs:  `uuid space`,
		deps: []string{"uuid", "space"},
	},
}

var uuidFormatPattern = regexp.MustCompile(`^uuid[1-5]?$`)

// lookupBuiltin finds name in either catalog, reporting which one.
func lookupBuiltin(name string) (builtinRule, bool) {
	if r, ok := primitiveCatalog[name]; ok {
		return r, true
	}
	if r, ok := formatCatalog[name]; ok {
		return r, true
	}
	return builtinRule{}, false
}

// formatStringRule returns the "<format>-string" catalog name for a
// format keyword, if one is registered; most "format" values have no
// built-in grammar and fall back to the plain string rule. Versioned
// UUID spellings ("uuid1".."uuid5", as well as bare "uuid") all bind
// the same uuid-string rule.
func formatStringRule(format string) (string, bool) {
	if uuidFormatPattern.MatchString(format) {
		return "uuid-string", true
	}
	name := fmt.Sprintf("%s-string", format)
	_, ok := formatCatalog[name]
	return name, ok
}
