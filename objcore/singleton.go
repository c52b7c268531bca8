package objcore

import (
	"maps"
	"slices"
)

// SingletonClassOf returns v's singleton class, creating it on first use.
// nil, true, and false answer their fixed classes; other immediates cannot
// carry a singleton class.
func (rt *Runtime) SingletonClassOf(v Value) (*Class, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.singletonClassLocked(v)
}

func (rt *Runtime) singletonClassLocked(v Value) (*Class, error) {
	switch v.Kind() {
	case KindNil:
		return rt.cNil, nil
	case KindBool:
		if v.Bool() {
			return rt.cTrue, nil
		}
		return rt.cFalse, nil
	case KindObject, KindClass:
	default:
		return nil, newTypeError("can't define singleton")
	}

	h := v.heap()
	meta := h.klass
	if meta == nil || !meta.isSingleton() || !meta.attachedTo(v) {
		var err error
		meta, err = rt.makeSingletonLocked(v)
		if err != nil {
			return nil, err
		}
	}
	if h.frozen {
		meta.frozen = true
	}
	return meta, nil
}

func (rt *Runtime) makeSingletonLocked(v Value) (*Class, error) {
	h := v.heap()
	super := h.klass
	if c := v.Class(); c != nil {
		switch {
		case c.isSingleton():
			return rt.cClass, nil
		case c.isModule():
			super = rt.cModule
		case c.super() != nil:
			// class methods are inherited: the singleton of a class sits
			// on top of its superclass's singleton.
			parent, err := rt.singletonClassLocked(ClassValue(c.super()))
			if err != nil {
				return nil, err
			}
			super = parent
		}
	}

	meta, err := rt.createClassLocked("", super, classOptions{singleton: true})
	if err != nil {
		return nil, err
	}
	meta.attach(v)
	h.klass = meta
	return meta, nil
}

// SingletonClassClone copies v's singleton class for a clone of v. A value
// without one shares its class: the class itself is returned. The copy keeps
// the superclass, instance variables, own methods, and included modules of
// the original; it is attached by the caller.
func (rt *Runtime) SingletonClassClone(v Value) (*Class, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.singletonCloneLocked(v)
}

func (rt *Runtime) singletonCloneLocked(v Value) (*Class, error) {
	klass := rt.classOf(v)
	if klass == nil || !klass.isSingleton() {
		return klass, nil
	}
	clone, err := rt.createClassLocked("", klass.super(), classOptions{singleton: true})
	if err != nil {
		return nil, err
	}
	clone.ivars = maps.Clone(klass.ivars)
	rt.copyOwnMethodsLocked(clone, klass)
	rt.copyIncludesLocked(clone, klass)
	return clone, nil
}

// ExtendObject includes module into v's singleton class.
func (rt *Runtime) ExtendObject(v Value, module *Class) error {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	if module == nil || !module.isModule() {
		return newTypeError("wrong argument type %s (expected Module)", describeKind(module))
	}
	meta, err := rt.singletonClassLocked(v)
	if err != nil {
		return err
	}
	return rt.includeModuleLocked(meta, module)
}

// copyOwnMethodsLocked copies src's own rows onto dst. Rows src defined
// itself become rows dst defined itself.
func (rt *Runtime) copyOwnMethodsLocked(dst, src *Class) {
	for _, m := range rt.host.CopyMethodList(src.handle) {
		entry := m.Entry
		if entry.Origin == src {
			entry.Origin = dst
		}
		rt.putOwnLocked(dst, m.Selector, entry)
	}
}

func (rt *Runtime) copyIncludesLocked(dst, src *Class) {
	dst.includes = slices.Clone(src.includes)
	for _, m := range dst.includes {
		if !slices.Contains(m.includedIn, dst) {
			m.includedIn = append(m.includedIn, dst)
		}
	}
}
