package gbnf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/kaptinlin/jsonpointer"
)

// FetchFunc retrieves the raw JSON document a "https://" $ref points at.
// The converter Compile builds defaults to a no-op fetcher that rejects
// every remote ref; WithDefaultHTTPFetch (loaders.go) installs a real
// one for callers that want it.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

func noopFetch(_ context.Context, url string) ([]byte, error) {
	return nil, fmt.Errorf("%w: remote fetch not configured for %s", ErrFetchFailure, url)
}

// refResolver dereferences "$ref" values against the root schema and
// any documents retrieved through fetch. Cycle breaking is the caller's
// responsibility: begin/end let the schema visitor mark a ref as "on
// the current expansion path" so a schema that refers back to itself
// can fall back to a recursive rule reference instead of looping
// forever trying to inline it.
type refResolver struct {
	root       *Schema
	fetch      FetchFunc
	documents  map[string]*Schema
	inProgress map[string]bool
}

func newRefResolver(root *Schema, fetch FetchFunc) *refResolver {
	if fetch == nil {
		fetch = noopFetch
	}
	return &refResolver{
		root:       root,
		fetch:      fetch,
		documents:  make(map[string]*Schema),
		inProgress: make(map[string]bool),
	}
}

// begin resolves ref to its target schema and marks ref as in progress.
// ok is false with a nil error when ref is already in progress — the
// cycle signal. Every successful begin must be paired with an end once
// the caller is done expanding the target.
func (r *refResolver) begin(ctx context.Context, ref string) (target *Schema, ok bool, err error) {
	if r.inProgress[ref] {
		return nil, false, nil
	}
	target, err = r.lookup(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	r.inProgress[ref] = true
	return target, true, nil
}

func (r *refResolver) end(ref string) {
	delete(r.inProgress, ref)
}

func (r *refResolver) lookup(ctx context.Context, ref string) (*Schema, error) {
	switch {
	case strings.HasPrefix(ref, "#/"):
		return r.resolvePointer(r.root, ref[1:])
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return r.resolveRemote(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRef, ref)
	}
}

func (r *refResolver) resolveRemote(ctx context.Context, ref string) (*Schema, error) {
	url, fragment, _ := strings.Cut(ref, "#")

	doc, ok := r.documents[url]
	if !ok {
		raw, err := r.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		doc = &Schema{}
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
		}
		r.documents[url] = doc
	}

	return r.resolvePointer(doc, fragment)
}

// resolvePointer walks a JSON pointer (the fragment after "#", leading
// slash included) against a Schema tree. Only the segments a grammar
// compiler actually needs to walk through are supported: $defs,
// properties, items, additionalProperties and the allOf/anyOf/oneOf/
// prefixItems arrays.
func (r *refResolver) resolvePointer(doc *Schema, ptr string) (*Schema, error) {
	if ptr == "" || ptr == "/" {
		return doc, nil
	}
	tokens := jsonpointer.Parse(ptr)

	current := doc
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "$defs", "definitions":
			i++
			if i >= len(tokens) {
				return nil, fmt.Errorf("%w: %q missing a definition name", ErrUnresolvedRef, ptr)
			}
			child, ok := current.Defs[tokens[i]]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = child
		case "properties":
			i++
			if i >= len(tokens) || current.Properties == nil {
				return nil, fmt.Errorf("%w: %q missing a property name", ErrUnresolvedRef, ptr)
			}
			child, ok := current.Properties.Get(tokens[i])
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = child
		case "items":
			if current.Items == nil {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = current.Items
		case "additionalProperties":
			if current.AdditionalProperties == nil {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = current.AdditionalProperties
		case "prefixItems":
			idx, err := indexToken(tokens, &i, ptr)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(current.PrefixItems) {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = current.PrefixItems[idx]
		case "allOf":
			idx, err := indexToken(tokens, &i, ptr)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(current.AllOf) {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = current.AllOf[idx]
		case "anyOf":
			idx, err := indexToken(tokens, &i, ptr)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(current.AnyOf) {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = current.AnyOf[idx]
		case "oneOf":
			idx, err := indexToken(tokens, &i, ptr)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(current.OneOf) {
				return nil, fmt.Errorf("%w: %q", ErrUnresolvedRef, ptr)
			}
			current = current.OneOf[idx]
		default:
			return nil, fmt.Errorf("%w: unsupported pointer segment %q in %q", ErrUnresolvedRef, tokens[i], ptr)
		}
	}
	return current, nil
}

// indexToken reads the next pointer token as an array index, advancing
// *i past it.
func indexToken(tokens []string, i *int, ptr string) (int, error) {
	*i++
	if *i >= len(tokens) {
		return 0, fmt.Errorf("%w: %q missing an index", ErrUnresolvedRef, ptr)
	}
	n, err := strconv.Atoi(tokens[*i])
	if err != nil {
		return 0, fmt.Errorf("%w: %q has a non-numeric index", ErrUnresolvedRef, ptr)
	}
	return n, nil
}
