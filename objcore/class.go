package objcore

import (
	"strings"
	"sync/atomic"
	"weak"
)

// Flags is the kind bit set cached in the host's per-class version tag.
type Flags uint32

const (
	// FlagCoreClass marks records created through this package.
	FlagCoreClass Flags = 1 << iota
	FlagModule
	FlagSingleton
	// FlagObjectSubclass: Object is somewhere on the superclass chain.
	FlagObjectSubclass
	FlagArraySubclass
	FlagHashSubclass
	FlagStringSubclass
)

const containerFlags = FlagArraySubclass | FlagHashSubclass | FlagStringSubclass

var flagNames = []struct {
	bit  Flags
	name string
}{
	{FlagCoreClass, "core"},
	{FlagModule, "module"},
	{FlagSingleton, "singleton"},
	{FlagObjectSubclass, "object-subclass"},
	{FlagArraySubclass, "array-subclass"},
	{FlagHashSubclass, "hash-subclass"},
	{FlagStringSubclass, "string-subclass"},
}

func (f Flags) Has(bits Flags) bool { return f&bits == bits }

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.bit) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Class describes a class or a module. Modules are classes tagged with
// FlagModule; they have no superclass and cannot be instantiated.
//
// The method table and the superclass link live in the host record; the
// fields here are the bookkeeping the host knows nothing about.
type Class struct {
	header
	rt     *Runtime
	handle ClassHandle
	path   atomic.Pointer[string]

	ivars map[ID]Value
	// includes is most-recently-included first.
	includes   []*Class
	includedIn []*Class

	attachedObject weak.Pointer[Object]
	attachedClass  weak.Pointer[Class]
}

func (c *Class) Handle() ClassHandle { return c.handle }

// HostName is the name the host registered the record under. It differs
// from Name for anonymous classes and for renamed collisions.
func (c *Class) HostName() string { return c.rt.host.ClassName(c.handle) }

func (c *Class) Flags() Flags { return c.flags() }

func (c *Class) flags() Flags { return Flags(c.rt.host.Version(c.handle)) }

func (c *Class) setFlags(f Flags) { c.rt.host.SetVersion(c.handle, uint32(f)) }

func (c *Class) addFlags(bits Flags) { c.setFlags(c.flags() | bits) }

func (c *Class) IsModule() bool { return c.isModule() }

func (c *Class) isModule() bool { return c.flags().Has(FlagModule) }

func (c *Class) IsSingleton() bool { return c.isSingleton() }

func (c *Class) isSingleton() bool { return c.flags().Has(FlagSingleton) }

func (c *Class) IsFrozen() bool { return c.frozen }

func (c *Class) super() *Class {
	return c.rt.classFor(c.rt.host.Superclass(c.handle))
}

// Superclass returns the next class up the chain, or nil for the root and
// for modules.
func (c *Class) Superclass() *Class {
	if c.isModule() {
		return nil
	}
	return c.super()
}

// real skips singleton classes.
func (c *Class) real() *Class {
	k := c
	for k != nil && k.isSingleton() {
		k = k.super()
	}
	return k
}

// metaclass returns c's singleton class if one is attached to c.
func (c *Class) metaclass() *Class {
	if m := c.klass; m != nil && m.isSingleton() && m.attachedClass.Value() == c {
		return m
	}
	return nil
}

// Name is the class path ("Outer::Inner"), or "" for anonymous classes.
func (c *Class) Name() string {
	if p := c.path.Load(); p != nil {
		return *p
	}
	return ""
}

func (c *Class) displayName() string {
	if name := c.Name(); name != "" {
		return name
	}
	if c.isSingleton() {
		if v, ok := c.attached(); ok {
			return "#<Class:" + v.String() + ">"
		}
	}
	return "#<" + c.kindName() + ":" + c.HostName() + ">"
}

func (c *Class) kindName() string {
	if c.isModule() {
		return "Module"
	}
	return "Class"
}

func (c *Class) String() string { return c.displayName() }

func (c *Class) attach(v Value) {
	c.attachedObject = weak.Pointer[Object]{}
	c.attachedClass = weak.Pointer[Class]{}
	switch v.Kind() {
	case KindObject:
		c.attachedObject = weak.Make(v.Object())
	case KindClass:
		c.attachedClass = weak.Make(v.Class())
	}
}

// attached follows the weak back-reference and confirms the referent still
// uses c as its class before trusting it.
func (c *Class) attached() (Value, bool) {
	if !c.isSingleton() {
		return Value{}, false
	}
	if obj := c.attachedObject.Value(); obj != nil && obj.klass == c {
		return ObjectValue(obj), true
	}
	if cls := c.attachedClass.Value(); cls != nil && cls.klass == c {
		return ClassValue(cls), true
	}
	return Value{}, false
}

// Attached returns the object a singleton class serves.
func (c *Class) Attached() (Value, bool) { return c.attached() }

func (c *Class) attachedTo(v Value) bool {
	got, ok := c.attached()
	return ok && got.Equal(v)
}
