package objcore

import (
	"sort"
	"strings"
	"sync"
)

// Constants is the namespace binding store: constants live under an outer
// class or module. Implementations must be safe for concurrent use.
type Constants interface {
	Defined(outer *Class, id ID) bool
	Get(outer *Class, id ID) (Value, bool)
	Set(outer *Class, id ID, val Value)
}

// ConstantTable is the default in-memory Constants store.
type ConstantTable struct {
	mu     sync.RWMutex
	scopes map[*Class]map[ID]Value
}

func NewConstantTable() *ConstantTable {
	return &ConstantTable{scopes: make(map[*Class]map[ID]Value)}
}

func (t *ConstantTable) Defined(outer *Class, id ID) bool {
	_, ok := t.Get(outer, id)
	return ok
}

func (t *ConstantTable) Get(outer *Class, id ID) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	val, ok := t.scopes[outer][id]
	return val, ok
}

func (t *ConstantTable) Set(outer *Class, id ID, val Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	scope := t.scopes[outer]
	if scope == nil {
		scope = make(map[ID]Value)
		t.scopes[outer] = scope
	}
	scope[id] = val
}

// Names lists the constants bound directly under outer.
func (t *ConstantTable) Names(outer *Class, symbols Symbols) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.scopes[outer]))
	for id := range t.scopes[outer] {
		names = append(names, symbols.Name(id))
	}
	sort.Strings(names)
	return names
}

// ConstGet looks name up under outer, then along outer's ancestors, and
// finally at the top level. A nil outer means Object.
func (rt *Runtime) ConstGet(outer *Class, name string) (Value, bool) {
	if outer == nil {
		outer = rt.cObject
	}
	id := rt.symbols.Intern(name)
	for _, scope := range rt.Ancestors(outer) {
		if val, ok := rt.consts.Get(scope, id); ok {
			return val, true
		}
	}
	return rt.consts.Get(rt.cObject, id)
}

// ConstSet binds name under outer. A nil outer means Object.
func (rt *Runtime) ConstSet(outer *Class, name string, val Value) {
	if outer == nil {
		outer = rt.cObject
	}
	rt.consts.Set(outer, rt.symbols.Intern(name), val)
}

// ResolvePath resolves an "A::B::C" constant path starting at the top level.
func (rt *Runtime) ResolvePath(path string) (*Class, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "::")
	if path == "" {
		return nil, newArgumentError("empty class path")
	}
	scope := rt.cObject
	var walked []string
	for _, part := range strings.Split(path, "::") {
		walked = append(walked, part)
		var (
			val Value
			ok  bool
		)
		if len(walked) == 1 {
			val, ok = rt.ConstGet(scope, part)
		} else {
			val, ok = rt.consts.Get(scope, rt.symbols.Intern(part))
		}
		if !ok {
			return nil, newNameError(part, "uninitialized constant %s", strings.Join(walked, "::"))
		}
		c := val.Class()
		if c == nil {
			return nil, newTypeError("%s is not a class/module", strings.Join(walked, "::"))
		}
		scope = c
	}
	return scope, nil
}
