package assertions

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/google/go-cmp/cmp"
)

type ChangeKind int

const (
	KeyRemoved ChangeKind = iota
	KeyAdded
	ValueChanged
	TypeChanged
	ItemRemoved
	ItemAdded
)

func (k ChangeKind) String() string {
	switch k {
	case KeyRemoved:
		return "key removed"
	case KeyAdded:
		return "key added"
	case ValueChanged:
		return "value changed"
	case TypeChanged:
		return "type changed"
	case ItemRemoved:
		return "item removed"
	case ItemAdded:
		return "item added"
	}
	return "unknown"
}

// Change is one difference between an expected and an actual JSON value.
// Depth is 1 for members of the top-level object.
type Change struct {
	Kind     ChangeKind
	Path     string
	Depth    int
	Expected any
	Actual   any
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s", c.Path, c.Kind)
}

// DiffResult groups the differences found by Diff.
type DiffResult struct {
	KeysRemoved   []Change
	KeysAdded     []Change
	ValuesChanged []Change
	TypesChanged  []Change
	ItemsRemoved  []Change
	ItemsAdded    []Change
}

func (d DiffResult) Empty() bool {
	return len(d.KeysRemoved)+len(d.KeysAdded)+len(d.ValuesChanged)+
		len(d.TypesChanged)+len(d.ItemsRemoved)+len(d.ItemsAdded) == 0
}

// TopLevelKeysRemoved returns removed keys of the top-level object only.
func (d DiffResult) TopLevelKeysRemoved() []Change {
	var out []Change
	for _, c := range d.KeysRemoved {
		if c.Depth == 1 {
			out = append(out, c)
		}
	}
	return out
}

func (d DiffResult) All() []Change {
	var out []Change
	for _, group := range [][]Change{d.KeysRemoved, d.KeysAdded, d.ValuesChanged, d.TypesChanged, d.ItemsRemoved, d.ItemsAdded} {
		out = append(out, group...)
	}
	return out
}

// numbers compares json.Number values by their exact decimal value, so 1
// equals 1.0 and 64-bit integers never collapse into the same float.
var numbers = cmp.Comparer(func(a, b json.Number) bool {
	x, okX := new(big.Rat).SetString(string(a))
	y, okY := new(big.Rat).SetString(string(b))
	if !okX || !okY {
		return a == b
	}
	return x.Cmp(y) == 0
})

// Diff compares two decoded JSON values. A key present in expected but not
// in actual is "removed"; one present only in actual is "added". Arrays are
// compared by index.
func Diff(expected, actual any) DiffResult {
	var d DiffResult
	d.walk("root", 0, expected, actual)
	return d
}

func (d *DiffResult) walk(path string, depth int, expected, actual any) {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			d.TypesChanged = append(d.TypesChanged, Change{TypeChanged, path, depth, expected, actual})
			return
		}
		for _, k := range sortedKeys(exp) {
			child := fmt.Sprintf("%s['%s']", path, k)
			av, found := act[k]
			if !found {
				d.KeysRemoved = append(d.KeysRemoved, Change{KeyRemoved, child, depth + 1, exp[k], nil})
				continue
			}
			d.walk(child, depth+1, exp[k], av)
		}
		for _, k := range sortedKeys(act) {
			if _, found := exp[k]; !found {
				child := fmt.Sprintf("%s['%s']", path, k)
				d.KeysAdded = append(d.KeysAdded, Change{KeyAdded, child, depth + 1, nil, act[k]})
			}
		}

	case []any:
		act, ok := actual.([]any)
		if !ok {
			d.TypesChanged = append(d.TypesChanged, Change{TypeChanged, path, depth, expected, actual})
			return
		}
		for i := 0; i < len(exp) || i < len(act); i++ {
			child := fmt.Sprintf("%s[%d]", path, i)
			switch {
			case i >= len(act):
				d.ItemsRemoved = append(d.ItemsRemoved, Change{ItemRemoved, child, depth + 1, exp[i], nil})
			case i >= len(exp):
				d.ItemsAdded = append(d.ItemsAdded, Change{ItemAdded, child, depth + 1, nil, act[i]})
			default:
				d.walk(child, depth+1, exp[i], act[i])
			}
		}

	default:
		if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
			d.TypesChanged = append(d.TypesChanged, Change{TypeChanged, path, depth, expected, actual})
			return
		}
		if !cmp.Equal(expected, actual, numbers) {
			d.ValuesChanged = append(d.ValuesChanged, Change{ValueChanged, path, depth, expected, actual})
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StripProperties deletes every object member named in names, at any depth.
// v is modified in place and returned.
func StripProperties(v any, names []string) any {
	if len(names) == 0 {
		return v
	}
	switch val := v.(type) {
	case map[string]any:
		for _, n := range names {
			delete(val, n)
		}
		for _, child := range val {
			StripProperties(child, names)
		}
	case []any:
		for _, child := range val {
			StripProperties(child, names)
		}
	}
	return v
}
