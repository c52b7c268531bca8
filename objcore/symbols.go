package objcore

import "sync"

// ID is an interned identifier handle. The zero ID is never handed out.
type ID uint32

// Symbols interns identifier strings into stable handles.
type Symbols interface {
	Intern(name string) ID
	Name(id ID) string
}

// SymbolTable is the default Symbols implementation.
type SymbolTable struct {
	mu    sync.RWMutex
	ids   map[string]ID
	names []string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		ids:   make(map[string]ID),
		names: []string{""},
	}
}

func (st *SymbolTable) Intern(name string) ID {
	st.mu.RLock()
	id, ok := st.ids[name]
	st.mu.RUnlock()
	if ok {
		return id
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if id, ok := st.ids[name]; ok {
		return id
	}
	id = ID(len(st.names))
	st.names = append(st.names, name)
	st.ids[name] = id
	return id
}

func (st *SymbolTable) Name(id ID) string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if int(id) >= len(st.names) {
		return ""
	}
	return st.names[id]
}

// Lookup returns the handle for name without interning it.
func (st *SymbolTable) Lookup(name string) (ID, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.ids[name]
	return id, ok
}
