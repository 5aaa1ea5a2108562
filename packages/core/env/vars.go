package env

import (
	"sort"
	"sync"
)

// Vars is a variable table. Keys are declared when it is built; Update only
// changes values of keys that already exist.
type Vars struct {
	mu     sync.RWMutex
	values map[string]any
	order  []string
}

func NewVars() *Vars {
	return &Vars{values: make(map[string]any)}
}

// NewVarsFromMap declares every key of m, in sorted order.
func NewVarsFromMap(m map[string]any) *Vars {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := NewVars()
	for _, k := range keys {
		v.Declare(k, m[k])
	}
	return v
}

// Declare adds a key, or overwrites the value of an existing one. It is meant
// for load time only.
func (v *Vars) Declare(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.values[name]; !ok {
		v.order = append(v.order, name)
	}
	v.values[name] = value
}

func (v *Vars) Get(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[name]
	return val, ok
}

func (v *Vars) Has(name string) bool {
	_, ok := v.Get(name)
	return ok
}

// Update sets name to value if name is declared and reports whether it did.
func (v *Vars) Update(name string, value any) bool {
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.values[name]; !ok {
		return false
	}
	v.values[name] = value
	return true
}

// Keys returns the declared names in declaration order.
func (v *Vars) Keys() []string {
	if v == nil {
		return nil
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

func (v *Vars) Len() int {
	if v == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.order)
}

// Snapshot copies the current values.
func (v *Vars) Snapshot() map[string]any {
	out := make(map[string]any)
	if v == nil {
		return out
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for k, val := range v.values {
		out[k] = val
	}
	return out
}
