package schema

import (
	"github.com/withceleste/celeste-go/core/parse"
)

// ParseContent decodes provider output produced under this normalized schema
// and inverts the top-level array wrapping.
//
// The items wrapper is unwrapped only when the originally requested type was
// a list and the decoded value is an object containing exactly that key; any
// other shape is returned as decoded (or as the raw string when undecodable)
// for the caller to report as a validation error.
//
// ParseContent is idempotent on already-typed values: passing a previously
// parsed result back returns it unchanged.
func (n *Normalized) ParseContent(content any) (any, error) {
	text, isText := content.(string)
	if !isText {
		return content, nil
	}

	decoded, err := parse.AnyJSON(text)
	if err != nil {
		return text, nil
	}

	if n.kind == KindList && n.wrapped {
		if obj, ok := decoded.(map[string]any); ok && len(obj) == 1 {
			if inner, found := obj[wrapperKey]; found {
				if list, isList := inner.([]any); isList {
					return list, nil
				}
			}
		}
	}

	return decoded, nil
}
