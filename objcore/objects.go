package objcore

import "sort"

// ClassOf returns v's effective class: its singleton class when it has one.
func (rt *Runtime) ClassOf(v Value) *Class {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.classOf(v)
}

// RealClassOf returns v's class with singleton classes skipped.
func (rt *Runtime) RealClassOf(v Value) *Class {
	return rt.ClassOf(v).real()
}

func (rt *Runtime) classOf(v Value) *Class {
	switch v.Kind() {
	case KindNil:
		return rt.cNil
	case KindBool:
		if v.Bool() {
			return rt.cTrue
		}
		return rt.cFalse
	case KindInt:
		return rt.cInteger
	case KindFloat:
		return rt.cFloat
	case KindString:
		return rt.cString
	case KindSymbol:
		return rt.cSymbol
	default:
		return v.heap().klass
	}
}

// Allocate creates an uninitialized instance of klass.
func (rt *Runtime) Allocate(klass *Class) (*Object, error) {
	if klass == nil {
		return nil, newTypeError("can't create instance of nil")
	}
	if klass.isModule() {
		return nil, newTypeError("can't create instance of module %s", klass.displayName())
	}
	if klass.isSingleton() {
		return nil, newTypeError("can't create instance of singleton class")
	}
	switch klass.real() {
	case rt.cNil, rt.cTrue, rt.cFalse, rt.cInteger, rt.cFloat, rt.cSymbol, rt.cClass, rt.cModule:
		return nil, newTypeError("allocator undefined for %s", klass.displayName())
	}
	return &Object{header: header{klass: klass}, ivars: make(map[ID]Value)}, nil
}

// New allocates an instance of klass and sends it initialize with args.
func (rt *Runtime) New(klass *Class, args ...Value) (Value, error) {
	obj, err := rt.Allocate(klass)
	if err != nil {
		return NewNil(), err
	}
	v := ObjectValue(obj)
	if _, err := rt.Send(v, "initialize", args...); err != nil {
		return NewNil(), err
	}
	return v, nil
}

// Resolve finds the entry sel dispatches to on recv. Undefined selectors
// and tombstones are not found.
func (rt *Runtime) Resolve(recv Value, sel string) (MethodEntry, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	klass := rt.classOf(recv)
	if klass == nil {
		return MethodEntry{}, false
	}
	m, ok := rt.host.InstanceMethod(klass.handle, Selector(sel))
	if !ok || m.Entry.IsUndefined() {
		return MethodEntry{}, false
	}
	return m.Entry, true
}

// Send invokes sel on recv. Visibility is not enforced here.
func (rt *Runtime) Send(recv Value, sel string, args ...Value) (Value, error) {
	entry, ok := rt.Resolve(recv, sel)
	if !ok {
		return NewNil(), newNameError(sel, "undefined method `%s' for %s", sel, recv.Inspect())
	}
	if arity := entry.Body.Arity; arity >= 0 && len(args) != arity {
		return NewNil(), newArgumentError("wrong number of arguments (%d for %d)", len(args), arity)
	}
	if entry.Body.Fn == nil {
		return NewNil(), nil
	}
	return entry.Body.Fn(rt, recv, args)
}

// Freeze marks a heap value frozen. Immediates are always frozen.
func (rt *Runtime) Freeze(v Value) Value {
	if h := v.heap(); h != nil {
		rt.mu.Lock()
		h.frozen = true
		if meta := h.klass; meta != nil && meta.isSingleton() && meta.attachedTo(v) {
			meta.frozen = true
		}
		rt.mu.Unlock()
	}
	return v
}

func (rt *Runtime) IsFrozen(v Value) bool {
	h := v.heap()
	if h == nil {
		return true
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return h.frozen
}

// IvarGet reads an instance variable of an object or class.
func (rt *Runtime) IvarGet(v Value, name string) (Value, bool) {
	return rt.ivarGet(v, rt.symbols.Intern(name))
}

// IvarSet writes an instance variable of an object or class.
func (rt *Runtime) IvarSet(v Value, name string, val Value) error {
	return rt.ivarSet(v, rt.symbols.Intern(name), val)
}

// IvarNames lists v's instance variables, reserved class keys excluded.
func (rt *Runtime) IvarNames(v Value) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	table := rt.ivarTable(v)
	names := make([]string, 0, len(table))
	for id := range table {
		if id == rt.idClasspath || id == rt.idClassid {
			continue
		}
		names = append(names, rt.symbols.Name(id))
	}
	sort.Strings(names)
	return names
}

func (rt *Runtime) ivarTable(v Value) map[ID]Value {
	switch v.Kind() {
	case KindObject:
		return v.Object().ivars
	case KindClass:
		return v.Class().ivars
	default:
		return nil
	}
}

func (rt *Runtime) ivarGet(v Value, id ID) (Value, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	val, ok := rt.ivarTable(v)[id]
	if !ok {
		return NewNil(), false
	}
	return val, true
}

func (rt *Runtime) ivarSet(v Value, id ID, val Value) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	h := v.heap()
	if h == nil || h.frozen {
		return newFrozenError("can't modify frozen %s", rt.classOf(v).real().displayName())
	}
	switch v.Kind() {
	case KindObject:
		obj := v.Object()
		if obj.ivars == nil {
			obj.ivars = make(map[ID]Value)
		}
		obj.ivars[id] = val
	case KindClass:
		v.Class().ivars[id] = val
	}
	return nil
}

// initProtocolBodies builds the shared bodies of new, dup, and
// initialize_copy. They live on the Runtime because dup reaches back into
// class creation.
func (rt *Runtime) initProtocolBodies() {
	rt.newBody = &MethodBody{Name: "new", Arity: -1, Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return rt.New(recv.Class(), args...)
	}}
	rt.dupBody = &MethodBody{Name: "dup", Arity: 0, Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return rt.Dup(recv)
	}}
	rt.initCopyBody = &MethodBody{Name: "initialize_copy", Arity: 1, Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return recv, nil
	}}
}

// installInstanceProtocolLocked gives a plain Object subclass its own `new`
// singleton method plus `dup` and `initialize_copy`.
func (rt *Runtime) installInstanceProtocolLocked(klass *Class) error {
	meta, err := rt.singletonClassLocked(ClassValue(klass))
	if err != nil {
		return err
	}
	rt.putOwnLocked(meta, "new", MethodEntry{Body: rt.newBody, Visibility: VisibilityPublic, Origin: meta})
	rt.putOwnLocked(klass, "dup", MethodEntry{Body: rt.dupBody, Visibility: VisibilityPublic, Origin: klass})
	rt.putOwnLocked(klass, "initialize_copy", MethodEntry{Body: rt.initCopyBody, Visibility: VisibilityPublic, Origin: klass})
	return nil
}

func (rt *Runtime) defineBootstrapMethodsLocked() {
	def := func(klass *Class, name string, arity int, vis Visibility, fn Func) {
		body := &MethodBody{Name: name, Arity: arity, Fn: fn}
		rt.putOwnLocked(klass, Selector(name), MethodEntry{Body: body, Visibility: vis, Origin: klass})
	}
	noop := func(rt *Runtime, recv Value, args []Value) (Value, error) { return NewNil(), nil }

	rt.putOwnLocked(rt.cClass, "new", MethodEntry{Body: rt.newBody, Visibility: VisibilityPublic, Origin: rt.cClass})
	def(rt.cClass, "allocate", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		obj, err := rt.Allocate(recv.Class())
		if err != nil {
			return NewNil(), err
		}
		return ObjectValue(obj), nil
	})
	def(rt.cClass, "superclass", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return ClassValue(recv.Class().Superclass()), nil
	})
	def(rt.cClass, "inherited", 1, VisibilityPrivate, noop)

	def(rt.cModule, "name", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		if name := recv.Class().Name(); name != "" {
			return NewString(name), nil
		}
		return NewNil(), nil
	})
	def(rt.cModule, "include?", 1, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return NewBool(rt.Includes(recv.Class(), args[0].Class())), nil
	})

	def(rt.cObject, "initialize", -1, VisibilityPrivate, noop)
	rt.putOwnLocked(rt.cObject, "initialize_copy", MethodEntry{Body: rt.initCopyBody, Visibility: VisibilityPrivate, Origin: rt.cObject})
	rt.putOwnLocked(rt.cObject, "dup", MethodEntry{Body: rt.dupBody, Visibility: VisibilityPublic, Origin: rt.cObject})
	def(rt.cObject, "clone", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return rt.Clone(recv)
	})
	def(rt.cObject, "freeze", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return rt.Freeze(recv), nil
	})
	def(rt.cObject, "frozen?", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return NewBool(rt.IsFrozen(recv)), nil
	})
	def(rt.cObject, "class", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return ClassValue(rt.RealClassOf(recv)), nil
	})
	def(rt.cObject, "inspect", 0, VisibilityPublic, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return NewString(recv.Inspect()), nil
	})
}
