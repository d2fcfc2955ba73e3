package checkout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldErrors is a server validation payload mirroring the shape of the
// submitted form: intermediate nodes are nested objects and every leaf is a
// non-empty list of messages. Absence of a key means the field is fine.
type FieldErrors map[string]any

// DecodeFieldErrors converts the raw JSON members of a 400 response body
// into a queryable error tree.
func DecodeFieldErrors(raw map[string]json.RawMessage) (FieldErrors, error) {
	tree := make(FieldErrors, len(raw))
	for key, value := range raw {
		var node any
		if err := json.Unmarshal(value, &node); err != nil {
			return nil, fmt.Errorf("checkout: decode field errors for %q: %w", key, err)
		}
		tree[key] = node
	}
	return tree, nil
}

// Extract walks the error tree along a dot separated field path (e.g.
// "shipping_address.postcode") and returns the messages stored at the leaf.
// A missing segment anywhere along the path returns nil; absence is a
// normal, queryable state rather than a failure.
func (e FieldErrors) Extract(path string) []string {
	if e == nil {
		return nil
	}

	var node any = map[string]any(e)
	for _, field := range strings.Split(path, ".") {
		branch, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = branch[field]
		if !ok {
			return nil
		}
	}

	return messageList(node)
}

// Has reports whether a top level field produced any error.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func messageList(node any) []string {
	switch leaf := node.(type) {
	case []string:
		return leaf
	case []any:
		messages := make([]string, 0, len(leaf))
		for _, item := range leaf {
			if msg, ok := item.(string); ok {
				messages = append(messages, msg)
			}
		}
		if len(messages) == 0 {
			return nil
		}
		return messages
	default:
		return nil
	}
}
