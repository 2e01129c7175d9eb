package scope

import (
	"sort"
	"strings"
)

// Tree is a free-form option tree. Nested sections are map[string]any values;
// everything else is a leaf. Trees are produced by the cluster document
// parser and are treated as immutable once handed to the resolver.
type Tree map[string]any

// Entry is a single leaf reported by Filter.
type Entry struct {
	// Path is the dotted path of the leaf (e.g. "replication.failover").
	Path string

	// Value is the leaf value.
	Value any
}

// Get returns the value at the given dotted path. The second return value
// reports whether the path is set.
func (t Tree) Get(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	parts := strings.Split(path, ".")
	var cur any = map[string]any(t)
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetString returns the string value at the given dotted path. It reports
// false when the path is unset or holds a non-string value.
func (t Tree) GetString(path string) (string, bool) {
	v, ok := t.Get(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetBool returns the boolean value at the given dotted path.
func (t Tree) GetBool(path string) (bool, bool) {
	v, ok := t.Get(path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetStrings returns the value at the given dotted path as a string slice.
// Sequence values of other element types report false.
func (t Tree) GetStrings(path string) ([]string, bool) {
	v, ok := t.Get(path)
	if !ok {
		return nil, false
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Set stores a value at the given dotted path, creating intermediate
// sections as needed. Existing non-section values along the path are
// replaced by sections.
func (t Tree) Set(path string, value any) {
	parts := strings.Split(path, ".")
	cur := map[string]any(t)
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Clone returns a deep copy of the tree. Sections and sequences are copied;
// scalar leaves are shared.
func (t Tree) Clone() Tree {
	return Tree(cloneValue(map[string]any(t)).(map[string]any))
}

// Filter walks all leaves in path order and returns the entries accepted by
// the predicate. A nil predicate accepts every leaf.
func (t Tree) Filter(pred func(path string, value any) bool) []Entry {
	var entries []Entry
	walkLeaves("", map[string]any(t), func(path string, value any) {
		if pred == nil || pred(path, value) {
			entries = append(entries, Entry{Path: path, Value: value})
		}
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// Merge deep-merges the given trees, later trees winning on conflicts.
// Sections are merged recursively; any other value is replaced wholesale.
// The inputs are not modified.
func Merge(trees ...Tree) Tree {
	out := make(map[string]any)
	for _, t := range trees {
		mergeInto(out, map[string]any(t))
	}
	return Tree(out)
}

func mergeInto(dst, src map[string]any) {
	for key, val := range src {
		if srcSection, ok := val.(map[string]any); ok {
			if dstSection, ok := dst[key].(map[string]any); ok {
				mergeInto(dstSection, srcSection)
				continue
			}
			dst[key] = cloneValue(srcSection)
			continue
		}
		dst[key] = cloneValue(val)
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func walkLeaves(prefix string, section map[string]any, fn func(path string, value any)) {
	for key, val := range section {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := val.(map[string]any); ok {
			walkLeaves(path, sub, fn)
			continue
		}
		fn(path, val)
	}
}
