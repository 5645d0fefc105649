package gbnf

import (
	"fmt"
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var nameSanitizer = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// ruleTable is the deterministic, insertion-ordered name -> production
// table a grammar is built from. Insertion order is the emission order
// of the final GBNF text, so every compile of the same schema produces
// byte-identical output.
type ruleTable struct {
	rules *orderedmap.OrderedMap[string, string]
}

func newRuleTable() *ruleTable {
	return &ruleTable{rules: orderedmap.New[string, string]()}
}

// sanitizeName strips characters a GBNF rule name can't contain,
// collapsing runs of them to a single hyphen.
func sanitizeName(name string) string {
	name = nameSanitizer.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "rule"
	}
	return name
}

// isReservedName reports whether name belongs to the built-in catalogs,
// which addRule must never let a schema-derived rule shadow.
func isReservedName(name string) bool {
	_, ok := lookupBuiltin(name)
	return ok
}

// addRule reserves a name for rhs and returns the name actually used.
// A name already holding an identical production is reused, so
// structurally identical subschemas collapse onto one rule. A name
// already taken by something else — including a reserved builtin name —
// gets an integer suffix appended until a free one is found.
func (rt *ruleTable) addRule(proposedName, rhs string) string {
	name := sanitizeName(proposedName)

	if !isReservedName(name) {
		if existing, ok := rt.rules.Get(name); ok {
			if existing == rhs {
				return name
			}
		} else {
			rt.rules.Set(name, rhs)
			return name
		}
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if isReservedName(candidate) {
			continue
		}
		existing, ok := rt.rules.Get(candidate)
		if !ok {
			rt.rules.Set(candidate, rhs)
			return candidate
		}
		if existing == rhs {
			return candidate
		}
	}
}

// ensureBuiltin pulls a built-in rule, and transitively its
// dependencies, into the table under its catalog name. Catalog names
// are never disambiguated: every grammar that needs "string" gets the
// same "string" rule.
func (rt *ruleTable) ensureBuiltin(name string) (string, error) {
	if _, ok := rt.rules.Get(name); ok {
		return name, nil
	}
	builtin, ok := lookupBuiltin(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPrimitive, name)
	}
	for _, dep := range builtin.deps {
		if _, err := rt.ensureBuiltin(dep); err != nil {
			return "", err
		}
	}
	rt.rules.Set(name, builtin.rhs)
	return name, nil
}

// has reports whether name is already present in the table.
func (rt *ruleTable) has(name string) bool {
	_, ok := rt.rules.Get(name)
	return ok
}

// render emits the table as GBNF source, one "name ::= rhs" line per
// rule, "root" forced first regardless of when it was inserted.
func (rt *ruleTable) render() string {
	var b strings.Builder
	if rhs, ok := rt.rules.Get("root"); ok {
		fmt.Fprintf(&b, "root ::= %s\n", rhs)
	}
	for pair := rt.rules.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == "root" {
			continue
		}
		fmt.Fprintf(&b, "%s ::= %s\n", pair.Key, pair.Value)
	}
	return b.String()
}
