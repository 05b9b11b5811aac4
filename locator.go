package resilientgraphql

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Direction selects which pageInfo flag and cursor a Pager follows.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ParseDirection accepts "forward"/"after" and "backward"/"before".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "after", "":
		return Forward, nil
	case "backward", "before":
		return Backward, nil
	}
	return Forward, argumentErrorf("unknown pagination direction %q", s)
}

func (d Direction) flagKey() string {
	if d == Backward {
		return "hasPreviousPage"
	}
	return "hasNextPage"
}

func (d Direction) cursorKey() string {
	if d == Backward {
		return "startCursor"
	}
	return "endCursor"
}

// DefaultVariable is the query variable a cursor is bound to: "after" or "before".
func (d Direction) DefaultVariable() string {
	if d == Backward {
		return "before"
	}
	return "after"
}

// Locator finds the pageInfo-shaped object of a response. The set of
// locators is closed: DefaultTreeSearch, ExplicitPath and CustomExtractor.
type Locator interface {
	locate(tree map[string]any, dir Direction) (map[string]any, error)
}

// maxSearchDepth bounds DefaultTreeSearch; deeper nodes are ignored.
const maxSearchDepth = 64

type treeSearch struct{}

// DefaultTreeSearch walks the whole response and returns the first object
// whose direction flag is true and which carries a cursor. Within an object, keys are visited in sorted
// order, object values before list values.
func DefaultTreeSearch() Locator { return treeSearch{} }

func (treeSearch) locate(tree map[string]any, dir Direction) (map[string]any, error) {
	type frame struct {
		node  any
		depth int
	}
	stack := []frame{{node: tree}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxSearchDepth {
			continue
		}

		switch n := f.node.(type) {
		case map[string]any:
			if _, ok := extractCursor(n, dir); ok {
				return n, nil
			}
			var objects, lists []any
			for _, k := range sortedKeys(n) {
				switch v := n[k].(type) {
				case map[string]any:
					objects = append(objects, v)
				case []any:
					lists = append(lists, v)
				}
			}
			children := append(objects, lists...)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: children[i], depth: f.depth + 1})
			}
		case []any:
			for i := len(n) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: n[i], depth: f.depth + 1})
			}
		}
	}
	return nil, nil
}

type explicitPath struct {
	original   []string
	normalized []string
}

// ExplicitPath looks up pageInfo under keys. A trailing "pageInfo" is
// optional and a leading "data" is added when missing, so
// ("product", "variants") reads data.product.variants.pageInfo. List
// elements may be addressed by numeric keys. A null anywhere along the path
// means there is no further page.
func ExplicitPath(keys ...string) Locator {
	original := append([]string(nil), keys...)
	normalized := append([]string(nil), keys...)
	if n := len(normalized); n > 0 && normalized[n-1] == "pageInfo" {
		normalized = normalized[:n-1]
	}
	if len(normalized) == 0 || normalized[0] != "data" {
		normalized = append([]string{"data"}, normalized...)
	}
	return explicitPath{original: original, normalized: normalized}
}

func (p explicitPath) locate(tree map[string]any, _ Direction) (map[string]any, error) {
	var cur any = tree
	steps := append(append([]string(nil), p.normalized...), "pageInfo")
	for i, key := range steps {
		switch node := cur.(type) {
		case nil:
			// A null connection on the way down has no further page.
			return nil, nil
		case map[string]any:
			v, ok := node[key]
			if !ok && i < len(steps)-1 {
				return nil, p.mismatch(key, i, "an object without that key")
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, p.mismatch(key, i, fmt.Sprintf("a list of %d element(s)", len(node)))
			}
			cur = node[idx]
		default:
			return nil, p.mismatch(key, i, describe(node))
		}
	}
	switch v := cur.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, p.mismatch("pageInfo", len(steps)-1, describe(v))
	}
}

func (p explicitPath) mismatch(key string, step int, found string) *ArgumentError {
	return argumentErrorf("pagination path %s does not match the response: cannot read %q at step %d, found %s",
		formatPath(p.original), key, step+1, found)
}

type customExtractor struct {
	fn func(map[string]any) map[string]any
}

// CustomExtractor delegates lookup to fn, which returns a pageInfo-shaped
// object or nil.
func CustomExtractor(fn func(tree map[string]any) map[string]any) Locator {
	return customExtractor{fn: fn}
}

func (c customExtractor) locate(tree map[string]any, _ Direction) (map[string]any, error) {
	if c.fn == nil {
		return nil, argumentErrorf("custom cursor extractor is nil")
	}
	return c.fn(tree), nil
}

// extractCursor returns the direction's cursor when its flag is true.
func extractCursor(pageInfo map[string]any, dir Direction) (string, bool) {
	if pageInfo == nil {
		return "", false
	}
	if flag, _ := pageInfo[dir.flagKey()].(bool); !flag {
		return "", false
	}
	cursor, _ := pageInfo[dir.cursorKey()].(string)
	if cursor == "" {
		return "", false
	}
	return cursor, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatPath renders keys as a JSON array, e.g. ["product","variants"].
func formatPath(keys []string) string {
	if keys == nil {
		keys = []string{}
	}
	b, _ := json.Marshal(keys)
	return string(b)
}

func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("string %q", v)
	case bool:
		return fmt.Sprintf("boolean %v", v)
	case float64, json.Number:
		return fmt.Sprintf("number %v", v)
	default:
		return fmt.Sprintf("%T", v)
	}
}
