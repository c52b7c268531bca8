package objcore

import "slices"

// IncludeModule mixes module into klass. Module methods are copied into
// klass's own table unless klass already defines the selector itself.
// Including a module twice is a no-op.
func (rt *Runtime) IncludeModule(klass, module *Class) error {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.includeModuleLocked(klass, module)
}

func (rt *Runtime) includeModuleLocked(klass, module *Class) error {
	if err := requireClass(klass); err != nil {
		return err
	}
	if klass.frozen {
		return newFrozenError("can't modify frozen %s: %s", klass.kindName(), klass.displayName())
	}
	if module == nil || !module.isModule() {
		return newTypeError("wrong argument type %s (expected Module)", describeKind(module))
	}
	if slices.Contains(klass.includes, module) {
		return nil
	}
	if module == klass || slices.Contains(rt.ancestorsLocked(module), klass) {
		return newArgumentError("cyclic include detected")
	}

	klass.includes = slices.Insert(klass.includes, 0, module)
	module.includedIn = append(module.includedIn, klass)
	for _, m := range rt.host.CopyMethodList(module.handle) {
		rt.installMixedInLocked(klass, m.Selector, m.Entry)
	}
	return nil
}

// installMixedInLocked copies a module row into klass. An existing own row
// stays when its origin takes precedence: klass itself first, then its
// modules in most-recently-included order.
func (rt *Runtime) installMixedInLocked(klass *Class, sel Selector, entry MethodEntry) {
	if own, ok := rt.ownEntry(klass, sel); ok {
		if rt.mixinRank(klass, entry.Origin) > rt.mixinRank(klass, own.Origin) {
			return
		}
	}
	rt.putOwnLocked(klass, sel, entry)
	if klass.isModule() {
		for _, includer := range klass.includedIn {
			rt.installMixedInLocked(includer, sel, entry)
		}
	}
}

func (rt *Runtime) mixinRank(klass, origin *Class) int {
	if origin == klass {
		return 0
	}
	order := appendIncludes(nil, klass)
	if idx := slices.Index(order, origin); idx >= 0 {
		return idx + 1
	}
	return len(order) + 1
}

// appendIncludes emits each included module followed by its own includes,
// depth first.
func appendIncludes(out []*Class, c *Class) []*Class {
	for _, m := range c.includes {
		out = append(out, m)
		out = appendIncludes(out, m)
	}
	return out
}

func (rt *Runtime) ancestorsLocked(mod *Class) []*Class {
	var out []*Class
	for k := mod; k != nil; k = k.super() {
		out = append(out, k)
		out = appendIncludes(out, k)
		if k.isModule() {
			break
		}
	}
	return out
}

// Ancestors lists mod, then its modules, then each superclass followed by
// its modules.
func (rt *Runtime) Ancestors(mod *Class) []*Class {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.ancestorsLocked(mod)
}

// IncludedModules is Ancestors restricted to modules.
func (rt *Runtime) IncludedModules(mod *Class) []*Class {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	var out []*Class
	for _, c := range rt.ancestorsLocked(mod) {
		if c.isModule() {
			out = append(out, c)
		}
	}
	return out
}

// Includes reports whether candidate is among mod's included modules.
func (rt *Runtime) Includes(mod, candidate *Class) bool {
	if candidate == nil || !candidate.isModule() {
		return false
	}
	return slices.Contains(rt.IncludedModules(mod), candidate)
}

// IncludedIn returns the classes and modules that included module directly.
func (rt *Runtime) IncludedIn(module *Class) []*Class {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return slices.Clone(module.includedIn)
}

func describeKind(c *Class) string {
	switch {
	case c == nil:
		return "NilClass"
	case c.isModule():
		return "Module"
	default:
		return "Class"
	}
}

// requireClass rejects a nil receiver for operations that modify a class.
func requireClass(klass *Class) error {
	if klass == nil {
		return newTypeError("wrong argument type NilClass (expected Class or Module)")
	}
	return nil
}
