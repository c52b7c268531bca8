package objcore

// InitCopy makes clone a copy of orig: superclass, kind flags, instance
// variables other than the class path, own method table, and included
// modules. The method table is copied as it stands; inclusion is not
// replayed.
//
// The mutable built-ins Array, Hash, and String cannot be copied. For those
// clone becomes a fresh subclass of orig and a WarnCloneSubclassed warning is
// emitted. Singleton classes must go through SingletonClassClone.
func (rt *Runtime) InitCopy(clone, orig *Class) error {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.initCopyLocked(clone, orig)
}

func (rt *Runtime) initCopyLocked(clone, orig *Class) error {
	if clone == nil || orig == nil {
		return newTypeError("initialize_copy needs two classes")
	}
	if clone == orig {
		return nil
	}
	if clone.isModule() != orig.isModule() {
		return newTypeError("initialize_copy should take same class object")
	}
	if !orig.isModule() && orig.isSingleton() {
		return newTypeError("can't copy singleton class")
	}
	if clone.frozen {
		return newFrozenError("can't modify frozen %s: %s", clone.kindName(), clone.displayName())
	}

	subclassed := orig == rt.cArray || orig == rt.cHash || orig == rt.cString
	super := orig.super()
	if subclassed {
		super = orig
		rt.warn(Warning{
			Kind:    WarnCloneSubclassed,
			Message: "cloning class `" + orig.displayName() + "' is not supported, creating a subclass instead",
			Name:    orig.displayName(),
		})
	}
	if !orig.isModule() {
		superHandle := NoClass
		if super != nil {
			superHandle = super.handle
		}
		rt.host.SetSuperclass(clone.handle, superHandle)
	}

	flags := (clone.flags() &^ (containerFlags | FlagObjectSubclass)) | FlagCoreClass
	if super != nil && (super == rt.cObject || super.flags().Has(FlagObjectSubclass)) {
		flags |= FlagObjectSubclass
	}
	clone.setFlags(flags)

	if !subclassed {
		for id, val := range orig.ivars {
			if id == rt.idClasspath || id == rt.idClassid {
				continue
			}
			clone.ivars[id] = val
		}
		rt.copyOwnMethodsLocked(clone, orig)
		rt.copyIncludesLocked(clone, orig)
	}

	if !orig.isModule() {
		rt.installPrimitivesLocked(clone, orig)
	}
	return nil
}

// CloneClass allocates an anonymous class or module and copies orig into it.
func (rt *Runtime) CloneClass(orig *Class) (*Class, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.cloneClassLocked(orig, true)
}

func (rt *Runtime) cloneClassLocked(orig *Class, keepSingleton bool) (*Class, error) {
	if orig.isSingleton() {
		return nil, newTypeError("can't copy singleton class")
	}
	opts := classOptions{module: orig.isModule()}
	clone, err := rt.createClassLocked("", orig.super(), opts)
	if err != nil {
		return nil, err
	}
	if err := rt.initCopyLocked(clone, orig); err != nil {
		return nil, err
	}
	if keepSingleton {
		if err := rt.cloneSingletonOntoLocked(ClassValue(orig), ClassValue(clone)); err != nil {
			return nil, err
		}
		clone.frozen = orig.frozen
	}
	if !clone.isModule() && clone.metaclass() == nil {
		// a dup still needs a metaclass so inherited class methods dispatch.
		if _, err := rt.singletonClassLocked(ClassValue(clone)); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// Clone copies v. Heap values get their singleton class copied and keep
// their frozen state; immediates are returned as is.
func (rt *Runtime) Clone(v Value) (Value, error) {
	return rt.copyValue(v, true)
}

// Dup copies v without its singleton class or frozen state.
func (rt *Runtime) Dup(v Value) (Value, error) {
	return rt.copyValue(v, false)
}

func (rt *Runtime) copyValue(v Value, full bool) (Value, error) {
	switch v.Kind() {
	case KindClass:
		rt.deferInterrupts()
		defer rt.allowInterrupts()
		clone, err := rt.cloneClassLocked(v.Class(), full)
		if err != nil {
			return NewNil(), err
		}
		return ClassValue(clone), nil
	case KindObject:
		copied, err := rt.copyObject(v.Object(), full)
		if err != nil {
			return NewNil(), err
		}
		return ObjectValue(copied), nil
	default:
		return v, nil
	}
}

func (rt *Runtime) copyObject(orig *Object, full bool) (*Object, error) {
	copied, err := rt.copyObjectShell(orig, full)
	if err != nil {
		return nil, err
	}

	// initialize_copy runs outside the lock; it may call back into us.
	if _, ok := rt.Resolve(ObjectValue(copied), "initialize_copy"); ok {
		if _, err := rt.Send(ObjectValue(copied), "initialize_copy", ObjectValue(orig)); err != nil {
			return nil, err
		}
	}
	if full {
		copied.frozen = orig.frozen
	}
	return copied, nil
}

// copyObjectShell builds the copy's class link, ivars and, for a full
// copy, its singleton class.
func (rt *Runtime) copyObjectShell(orig *Object, full bool) (*Object, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	copied := &Object{
		header: header{klass: orig.klass.real()},
		ivars:  make(map[ID]Value, len(orig.ivars)),
	}
	for id, val := range orig.ivars {
		copied.ivars[id] = val
	}
	if full {
		if err := rt.cloneSingletonOntoLocked(ObjectValue(orig), ObjectValue(copied)); err != nil {
			return nil, err
		}
	}
	return copied, nil
}

// cloneSingletonOntoLocked gives dst a copy of src's singleton class, if src
// has one, and attaches it to dst.
func (rt *Runtime) cloneSingletonOntoLocked(src, dst Value) error {
	meta := src.heap().klass
	if meta == nil || !meta.isSingleton() || !meta.attachedTo(src) {
		return nil
	}
	copied, err := rt.singletonCloneLocked(src)
	if err != nil {
		return err
	}
	if dst.Kind() == KindClass && src.Kind() == KindClass {
		// the superclass of a class's singleton follows the class's own
		// superclass chain.
		if parent := dst.Class().super(); parent != nil && !dst.Class().isModule() {
			parentMeta, err := rt.singletonClassLocked(ClassValue(parent))
			if err != nil {
				return err
			}
			rt.host.SetSuperclass(copied.handle, parentMeta.handle)
		}
	}
	copied.attach(dst)
	dst.heap().klass = copied
	return nil
}
