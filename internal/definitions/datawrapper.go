// Where: internal/definitions/datawrapper.go
// What: Nested-key accessor over the raw configuration document.
// Why: Keep a raw escape hatch while typed views do the interpretation.
package definitions

import "fmt"

// DataWrapper provides nested string-keyed access into the loosely-typed
// document loaded from the configuration file. Entities never rewrite
// fields in place; the only write path is SetDefault, used to stamp
// identity tokens, and Set, used by reload to carry tokens forward.
type DataWrapper struct {
	data map[string]any
}

// NewDataWrapper wraps the provided document node. A nil map is allowed
// and behaves as an empty document for reads; writes allocate lazily is
// not supported, so callers that intend to write must pass a real map.
func NewDataWrapper(data map[string]any) DataWrapper {
	return DataWrapper{data: data}
}

// Data exposes the backing document node.
func (w DataWrapper) Data() map[string]any {
	return w.data
}

// Has reports whether the nested key path exists in the document.
func (w DataWrapper) Has(keys ...string) bool {
	node := w.data
	for i, key := range keys {
		value, ok := node[key]
		if !ok {
			return false
		}
		if i == len(keys)-1 {
			return true
		}
		node, ok = value.(map[string]any)
		if !ok {
			return false
		}
	}
	return len(keys) > 0
}

// Get fetches the value at the nested key path, or nil when absent.
func (w DataWrapper) Get(keys ...string) any {
	node := w.data
	for i, key := range keys {
		value, ok := node[key]
		if !ok {
			return nil
		}
		if i == len(keys)-1 {
			return value
		}
		node, ok = value.(map[string]any)
		if !ok {
			return nil
		}
	}
	return nil
}

// GetString fetches the value at the key path rendered as a string.
// Missing and nil values become the empty string.
func (w DataWrapper) GetString(keys ...string) string {
	value := w.Get(keys...)
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// GetBool fetches the value at the key path as a bool, defaulting false.
func (w DataWrapper) GetBool(keys ...string) bool {
	value, _ := w.Get(keys...).(bool)
	return value
}

// GetFirst fetches the value for the first key group that exists in the
// document, or nil when none do.
func (w DataWrapper) GetFirst(groups ...[]string) any {
	for _, keys := range groups {
		if w.Has(keys...) {
			return w.Get(keys...)
		}
	}
	return nil
}

// GetList fetches the value at the key path as a list. A missing key
// returns nil, an explicit null returns an empty list, and scalar values
// are wrapped into single-element lists.
func (w DataWrapper) GetList(keys ...string) []any {
	if !w.Has(keys...) {
		return nil
	}
	value := w.Get(keys...)
	if value == nil {
		return []any{}
	}
	if items, ok := value.([]any); ok {
		return items
	}
	return []any{value}
}

// GetFirstList behaves like GetList for the first key group present.
func (w DataWrapper) GetFirstList(groups ...[]string) []any {
	for _, keys := range groups {
		if w.Has(keys...) {
			return w.GetList(keys...)
		}
	}
	return nil
}

// GetStringList fetches the key path as a list of strings, rendering
// non-string members with their default formatting.
func (w DataWrapper) GetStringList(keys ...string) []string {
	return toStrings(w.GetList(keys...))
}

// GetFirstStringList behaves like GetStringList for the first key group
// present in the document.
func (w DataWrapper) GetFirstStringList(groups ...[]string) []string {
	return toStrings(w.GetFirstList(groups...))
}

// SetDefault writes the value at the nested key path only when the leaf
// key is not already present, creating intermediate maps as needed.
func (w DataWrapper) SetDefault(value any, keys ...string) {
	w.write(value, false, keys)
}

// Set writes the value at the nested key path unconditionally.
func (w DataWrapper) Set(value any, keys ...string) {
	w.write(value, true, keys)
}

func (w DataWrapper) write(value any, overwrite bool, keys []string) {
	if len(keys) == 0 || w.data == nil {
		return
	}
	node := w.data
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		node = child
	}
	leaf := keys[len(keys)-1]
	if _, exists := node[leaf]; overwrite || !exists {
		node[leaf] = value
	}
}

func toStrings(items []any) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}
