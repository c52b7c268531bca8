package objcore

import (
	"maps"
	"slices"
)

// MethodSet is a specialized method table keyed by selector name.
type MethodSet map[string]*MethodBody

// Primitives holds the method sets installed on user subclasses of the
// container built-ins. The sets themselves are supplied by the embedder.
type Primitives struct {
	Array  MethodSet
	Hash   MethodSet
	String MethodSet
}

// MaybeInstallPrimitives walks super's chain and, at the first container
// built-in found, installs that kind's method set on klass and flags it.
// It reports whether anything was installed.
func (rt *Runtime) MaybeInstallPrimitives(klass, super *Class) bool {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.installPrimitivesLocked(klass, super)
}

func (rt *Runtime) installPrimitivesLocked(klass, super *Class) bool {
	if rt.cArray == nil || rt.cHash == nil || rt.cString == nil {
		return false
	}
	for k := super; k != nil; k = k.super() {
		var (
			set  MethodSet
			flag Flags
		)
		switch k {
		case rt.cArray:
			set, flag = rt.config.Primitives.Array, FlagArraySubclass
		case rt.cHash:
			set, flag = rt.config.Primitives.Hash, FlagHashSubclass
		case rt.cString:
			set, flag = rt.config.Primitives.String, FlagStringSubclass
		default:
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(set)) {
			entry := MethodEntry{Body: set[name], Visibility: VisibilityPublic, Origin: klass}
			rt.putOwnLocked(klass, Selector(name), entry)
		}
		klass.setFlags(klass.flags()&^containerFlags | flag)
		return true
	}
	return false
}

// ContainerKind names the container built-in c specializes ("array",
// "hash", "string"), or "" when it specializes none.
func (c *Class) ContainerKind() string {
	f := c.flags()
	switch {
	case f.Has(FlagArraySubclass):
		return "array"
	case f.Has(FlagHashSubclass):
		return "hash"
	case f.Has(FlagStringSubclass):
		return "string"
	default:
		return ""
	}
}
