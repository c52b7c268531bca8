package objcore

import (
	"strconv"
)

// hostSlotBytes is the per-instance storage asked of the host for every
// class record: one pointer for the ivar table.
const hostSlotBytes = 8

type classOptions struct {
	module    bool
	singleton bool
	// visible classes are user-facing and may receive container primitives
	// and the default instance protocol.
	visible bool
	// named classes go into the global named-class table.
	named bool
	// root allows a nil superclass instead of defaulting to Object.
	root bool
}

// CreateClass allocates a class under super (Object when nil). An empty name
// creates an anonymous class. When named is true the class is entered in the
// global named-class table and its path is set to name.
//
// If the host already has a class called name, the record is registered
// under name with a numeric suffix and a WarnClassRenamed warning is
// emitted, unless Config.StrictClassNames is set.
func (rt *Runtime) CreateClass(name string, super *Class, named bool) (*Class, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	if super != nil && super.isModule() {
		return nil, newTypeError("superclass must be a Class (Module given)")
	}
	return rt.createClassLocked(name, super, classOptions{visible: true, named: named})
}

// CreateModule allocates a module. An empty name creates an anonymous module.
func (rt *Runtime) CreateModule(name string) (*Class, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.createClassLocked(name, nil, classOptions{module: true, visible: true, named: name != ""})
}

// NewClass creates an anonymous subclass of super, the way Class.new does.
func (rt *Runtime) NewClass(super *Class) (*Class, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	if err := rt.checkInheritable(super); err != nil {
		return nil, err
	}
	return rt.createClassLocked("", super, classOptions{visible: true})
}

// NewModule creates an anonymous module, the way Module.new does.
func (rt *Runtime) NewModule() (*Class, error) {
	return rt.CreateModule("")
}

func (rt *Runtime) checkInheritable(super *Class) error {
	if super == nil {
		return newTypeError("superclass must be a Class (NilClass given)")
	}
	if super.isModule() {
		return newTypeError("superclass must be a Class (Module given)")
	}
	if super.isSingleton() {
		return newTypeError("can't make subclass of singleton class")
	}
	if super == rt.cClass {
		return newTypeError("can't make subclass of Class")
	}
	return nil
}

func (rt *Runtime) createClassLocked(name string, super *Class, opts classOptions) (*Class, error) {
	hostName, err := rt.pickHostName(name)
	if err != nil {
		return nil, err
	}

	if opts.module {
		super = nil
	} else if super == nil && !opts.root {
		super = rt.cObject
	}
	superHandle := NoClass
	if super != nil {
		superHandle = super.handle
	}

	h, err := rt.host.AllocateClassPair(superHandle, hostName, hostSlotBytes)
	if err != nil {
		rt.fatalf("host refused class %q: %v", hostName, err)
		return nil, err
	}

	c := &Class{
		rt:     rt,
		handle: h,
		ivars:  make(map[ID]Value),
	}
	flags := FlagCoreClass
	switch {
	case opts.module:
		flags |= FlagModule
		c.klass = rt.cModule
	default:
		c.klass = rt.cClass
	}
	if opts.singleton {
		flags |= FlagSingleton
	}
	if super != nil && (super == rt.cObject || super.flags().Has(FlagObjectSubclass)) {
		flags |= FlagObjectSubclass
	}
	c.setFlags(flags)
	rt.track(c)
	rt.host.RegisterClassPair(h)

	if opts.visible && !opts.module && !opts.singleton {
		// every user class carries a metaclass so class methods defined on
		// any superclass are dispatchable from it.
		if _, err := rt.singletonClassLocked(ClassValue(c)); err != nil {
			return nil, err
		}
		installed := rt.installPrimitivesLocked(c, super)
		if !installed && super != nil && super == rt.cObject {
			if err := rt.installInstanceProtocolLocked(c); err != nil {
				return nil, err
			}
		}
	}

	if opts.named && name != "" {
		// a renamed class takes its host name when the requested one is
		// already in the table.
		key := name
		if _, taken := rt.named[rt.symbols.Intern(name)]; taken {
			key = hostName
		}
		rt.named[rt.symbols.Intern(key)] = c
		rt.setClassPathLocked(c, nil, key)
	}
	return c, nil
}

// pickHostName returns a host name that is free right now. Anonymous classes
// get AnonymousPrefix plus a counter; taken names get a numeric suffix.
func (rt *Runtime) pickHostName(name string) (string, error) {
	if name == "" {
		for {
			rt.anonCount++
			candidate := rt.config.AnonymousPrefix + strconv.FormatInt(rt.anonCount, 10)
			if rt.host.LookupClass(candidate) == NoClass {
				return candidate, nil
			}
		}
	}

	if rt.host.LookupClass(name) == NoClass {
		return name, nil
	}
	if rt.config.StrictClassNames {
		return "", newNameError(name, "class name `%s' is already registered with the host", name)
	}

	count := 1
	candidate := name
	for rt.host.LookupClass(candidate) != NoClass {
		count++
		candidate = name + strconv.Itoa(count)
	}
	rt.warn(Warning{
		Kind:        WarnClassRenamed,
		Message:     "can't create `" + name + "' as a host class, because it already exists, instead using `" + candidate + "'",
		Name:        name,
		Replacement: candidate,
	})
	return candidate, nil
}

// setClassPathLocked names c. A nil or Object outer yields a top-level path.
func (rt *Runtime) setClassPathLocked(c *Class, outer *Class, name string) {
	path := name
	if outer != nil && outer != rt.cObject {
		path = outer.displayName() + "::" + name
	}
	c.path.Store(&path)
	c.ivars[rt.idClasspath] = NewString(path)
	c.ivars[rt.idClassid] = NewSymbol(name)
}
