package objcore

import (
	"fmt"
	"sync"
)

type memoryClass struct {
	name       string
	super      ClassHandle
	version    uint32
	extraBytes int
	registered bool
	disposed   bool
	methods    []Method
	index      map[Selector]int
}

// MemoryHost is an in-process Host. Class records live in a slice indexed by
// handle; handle 0 is reserved for NoClass.
type MemoryHost struct {
	mu      sync.RWMutex
	classes []*memoryClass
	byName  map[string]ClassHandle
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		classes: []*memoryClass{nil},
		byName:  make(map[string]ClassHandle),
	}
}

func (mh *MemoryHost) record(h ClassHandle) *memoryClass {
	if h == NoClass || int(h) >= len(mh.classes) {
		return nil
	}
	rec := mh.classes[h]
	if rec == nil || rec.disposed {
		return nil
	}
	return rec
}

func (mh *MemoryHost) AllocateClassPair(super ClassHandle, name string, extraBytes int) (ClassHandle, error) {
	mh.mu.Lock()
	defer mh.mu.Unlock()

	if name == "" {
		return NoClass, fmt.Errorf("host: class name must be non-empty")
	}
	if _, exists := mh.byName[name]; exists {
		return NoClass, fmt.Errorf("host: class %q already exists", name)
	}
	if super != NoClass && mh.record(super) == nil {
		return NoClass, fmt.Errorf("host: unknown superclass handle %d", super)
	}

	h := ClassHandle(len(mh.classes))
	mh.classes = append(mh.classes, &memoryClass{
		name:       name,
		super:      super,
		extraBytes: extraBytes,
		index:      make(map[Selector]int),
	})
	mh.byName[name] = h
	return h, nil
}

func (mh *MemoryHost) RegisterClassPair(h ClassHandle) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	if rec := mh.record(h); rec != nil {
		rec.registered = true
	}
}

func (mh *MemoryHost) DisposeClassPair(h ClassHandle) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	rec := mh.record(h)
	if rec == nil {
		return
	}
	rec.disposed = true
	delete(mh.byName, rec.name)
}

func (mh *MemoryHost) LookupClass(name string) ClassHandle {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	return mh.byName[name]
}

func (mh *MemoryHost) ClassName(h ClassHandle) string {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	if rec := mh.record(h); rec != nil {
		return rec.name
	}
	return ""
}

// Registered reports whether h has been registered with RegisterClassPair.
func (mh *MemoryHost) Registered(h ClassHandle) bool {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	rec := mh.record(h)
	return rec != nil && rec.registered
}

func (mh *MemoryHost) Superclass(h ClassHandle) ClassHandle {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	if rec := mh.record(h); rec != nil {
		return rec.super
	}
	return NoClass
}

func (mh *MemoryHost) SetSuperclass(h ClassHandle, super ClassHandle) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	if rec := mh.record(h); rec != nil {
		rec.super = super
	}
}

func (mh *MemoryHost) Version(h ClassHandle) uint32 {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	if rec := mh.record(h); rec != nil {
		return rec.version
	}
	return 0
}

func (mh *MemoryHost) SetVersion(h ClassHandle, version uint32) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	if rec := mh.record(h); rec != nil {
		rec.version = version
	}
}

func (mh *MemoryHost) AddMethod(h ClassHandle, sel Selector, entry MethodEntry, types string) bool {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	rec := mh.record(h)
	if rec == nil {
		return false
	}
	if _, exists := rec.index[sel]; exists {
		return false
	}
	rec.index[sel] = len(rec.methods)
	rec.methods = append(rec.methods, Method{Selector: sel, Entry: entry, Types: types, Owner: h})
	return true
}

func (mh *MemoryHost) SetImplementation(h ClassHandle, sel Selector, entry MethodEntry) bool {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	rec := mh.record(h)
	if rec == nil {
		return false
	}
	idx, exists := rec.index[sel]
	if !exists {
		return false
	}
	rec.methods[idx].Entry = entry
	return true
}

func (mh *MemoryHost) InstanceMethod(h ClassHandle, sel Selector) (Method, bool) {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	for rec := mh.record(h); rec != nil; rec = mh.record(rec.super) {
		if idx, ok := rec.index[sel]; ok {
			return rec.methods[idx], true
		}
	}
	return Method{}, false
}

func (mh *MemoryHost) CopyMethodList(h ClassHandle) []Method {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	rec := mh.record(h)
	if rec == nil {
		return nil
	}
	return append([]Method(nil), rec.methods...)
}
