package gbnf

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func newPropertyMap() PropertyMap {
	return orderedmap.New[string, *Schema]()
}

// visitObject builds the rule for an object schema. Required properties
// are emitted in schema declaration order as mandatory key-value pairs.
// Optional properties are combined into one parenthesized alternation
// where each branch picks a different optional property as "the first
// one present" and follows it with the later ones, each as its own
// optional key-value pair, so every subset of optional properties is reachable without
// enumerating all of them: one alternative per optional property, each
// an O(N) chain, for O(N^2) total grammar size rather than the O(N!) a
// naive per-subset enumeration would need.
func (c *Converter) visitObject(ctx context.Context, schema *Schema, proposedName string) (string, error) {
	spaceName, err := c.table.ensureBuiltin("space")
	if err != nil {
		return "", err
	}

	required := map[string]bool{}
	for _, r := range schema.Required {
		required[r] = true
	}

	var requiredNames, optionalNames []string
	kvRuleNames := map[string]string{}

	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			propName, propSchema := pair.Key, pair.Value

			valueRule := c.visitOrRecover(ctx, propSchema, fmt.Sprintf("%s-%s", proposedName, propName))

			keyJSON, err := json.Marshal(propName)
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrUnrecognizedSchema, err)
			}
			kvRhs := fmt.Sprintf(`%s %s ":" %s %s`, formatLiteral(string(keyJSON)), spaceName, spaceName, valueRule)
			kvName := c.table.addRule(fmt.Sprintf("%s-%s-kv", proposedName, propName), kvRhs)
			kvRuleNames[propName] = kvName

			if required[propName] {
				requiredNames = append(requiredNames, propName)
			} else {
				optionalNames = append(optionalNames, propName)
			}
		}
	}

	// additionalProperties:false excludes arbitrary extra keys entirely;
	// an object schema or bare "true" gets one "additional-kvs" rule
	// folded into the optional chain as a "*" entry, so the permutation
	// factoring below covers "any number of extra keys" the same way it
	// covers ordinary optional properties.
	if ap := schema.AdditionalProperties; ap != nil && !(ap.Boolean != nil && !*ap.Boolean) {
		stringName, err := c.table.ensureBuiltin("string")
		if err != nil {
			return "", err
		}
		var valueRule string
		if ap.Boolean != nil && *ap.Boolean {
			valueRule, err = c.table.ensureBuiltin("value")
			if err != nil {
				return "", err
			}
		} else {
			valueRule = c.visitOrRecover(ctx, ap, proposedName+"-additional-value")
		}
		additionalKvRhs := fmt.Sprintf(`%s ":" %s %s`, stringName, spaceName, valueRule)
		additionalKvName := c.table.addRule(proposedName+"-additional-kv", additionalKvRhs)
		additionalKvsRhs := fmt.Sprintf(`%s ( "," %s %s )*`, additionalKvName, spaceName, additionalKvName)
		kvRuleNames["*"] = c.table.addRule(proposedName+"-additional-kvs", additionalKvsRhs)
		optionalNames = append(optionalNames, "*")
	}

	var b strings.Builder
	b.WriteString(`"{" `)
	b.WriteString(spaceName)

	for i, propName := range requiredNames {
		if i > 0 {
			fmt.Fprintf(&b, ` "," %s`, spaceName)
		}
		fmt.Fprintf(&b, " %s", kvRuleNames[propName])
	}

	if len(optionalNames) > 0 {
		b.WriteString(" (")
		if len(requiredNames) > 0 {
			fmt.Fprintf(&b, ` "," %s (`, spaceName)
		}

		branches := make([]string, len(optionalNames))
		for i := range optionalNames {
			branches[i] = objectOptionalChain(optionalNames[i:], kvRuleNames, spaceName, false)
		}
		b.WriteString(strings.Join(branches, " | "))

		if len(requiredNames) > 0 {
			b.WriteString(" )")
		}
		b.WriteString(" )?")
	}

	b.WriteString(` "}" `)
	b.WriteString(spaceName)

	return c.table.addRule(proposedName, b.String()), nil
}

// objectOptionalChain builds the "kv ( , kv )? ( , kv )? ..." chain for
// a suffix of the optional-property list. The first key is mandatory
// within this branch — it's what makes the branch distinct from the
// others — unless firstIsOptional, in which case it is wrapped too.
func objectOptionalChain(keys []string, kvRuleNames map[string]string, spaceName string, firstIsOptional bool) string {
	k := keys[0]
	rest := keys[1:]

	var res string
	if firstIsOptional {
		res = fmt.Sprintf(`( "," %s %s )?`, spaceName, kvRuleNames[k])
	} else {
		res = kvRuleNames[k]
	}
	if len(rest) > 0 {
		res += " " + objectOptionalChain(rest, kvRuleNames, spaceName, true)
	}
	return res
}
