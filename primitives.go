package gbnf

import (
	"fmt"
	"strings"
)

// formatLiteral renders s as a double-quoted GBNF string terminal,
// escaping the characters that would otherwise break out of the quotes.
func formatLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// escapeCharClassRune escapes a rune for use inside a GBNF "[...]"
// character class, where ']', '\\', '^' and '-' are significant.
func escapeCharClassRune(r rune) string {
	switch r {
	case ']', '\\', '^', '-':
		return "\\" + string(r)
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	default:
		return string(r)
	}
}

// formatCharClass renders items (literal characters and "a-z"-style
// ranges, already escaped) as a GBNF character class, negated when
// negate is set.
func formatCharClass(items []string, negate bool) string {
	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('^')
	}
	for _, item := range items {
		b.WriteString(item)
	}
	b.WriteByte(']')
	return b.String()
}

// buildRepetition expands a {min,max} repetition of itemRule into GBNF.
// The common cases collapse to the native '?', '+' and '*' quantifiers;
// everything else is unrolled into min mandatory copies followed by a
// nested-optional tail of up to (max-min) further copies, so the grammar
// never needs a counted-repeat construct GBNF doesn't have. max == nil
// means unbounded.
func buildRepetition(itemRule string, min int, max *int) string {
	if min == 0 && max != nil && *max == 1 {
		return itemRule + "?"
	}
	if min == 1 && max == nil {
		return itemRule + "+"
	}
	if min == 0 && max == nil {
		return itemRule + "*"
	}

	var mandatory []string
	for i := 0; i < min; i++ {
		mandatory = append(mandatory, itemRule)
	}

	if max == nil {
		mandatory = append(mandatory, itemRule+"*")
		return strings.Join(mandatory, " ")
	}

	extra := *max - min
	if extra <= 0 {
		return strings.Join(mandatory, " ")
	}
	tail := nestedOptional(itemRule, extra)
	if len(mandatory) == 0 {
		return tail
	}
	return strings.Join(mandatory, " ") + " " + tail
}

// nestedOptional builds "(item (item (item)?)?)?" depth levels deep, the
// standard way to express "up to N more" without a counted repeat.
func nestedOptional(itemRule string, depth int) string {
	if depth <= 0 {
		return ""
	}
	inner := nestedOptional(itemRule, depth-1)
	if inner == "" {
		return fmt.Sprintf("(%s)?", itemRule)
	}
	return fmt.Sprintf("(%s %s)?", itemRule, inner)
}
