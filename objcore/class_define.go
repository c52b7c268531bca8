package objcore

import "strings"

// DefineClass defines a top-level class. See DefineClassUnder.
func (rt *Runtime) DefineClass(name string, super *Class) (*Class, error) {
	return rt.DefineClassUnder(rt.cObject, name, super)
}

// DefineClassUnder binds a class called name under outer (Object when nil).
//
// Redeclaring a class with the same superclass returns the existing class.
// A binding that is not a class, or a class with a different superclass, is
// a NameError. A nil super defaults to Object with a warning. New classes are
// announced to their superclass's `inherited` method and to Hooks.Inherited.
func (rt *Runtime) DefineClassUnder(outer *Class, name string, super *Class) (*Class, error) {
	if outer == nil {
		outer = rt.cObject
	}
	if err := checkConstName(name); err != nil {
		return nil, err
	}

	klass, created, err := rt.defineClassUnderSync(outer, name, super)
	if err != nil || !created {
		return klass, err
	}

	if err := rt.classInherited(klass.Superclass(), klass); err != nil {
		return nil, err
	}
	return klass, nil
}

func (rt *Runtime) defineClassUnderSync(outer *Class, name string, super *Class) (*Class, bool, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.defineClassUnderLocked(outer, name, super)
}

func (rt *Runtime) defineClassUnderLocked(outer *Class, name string, super *Class) (*Class, bool, error) {
	id := rt.symbols.Intern(name)
	if val, ok := rt.consts.Get(outer, id); ok {
		existing := val.Class()
		if existing == nil || existing.isModule() {
			return nil, false, newNameError(name, "%s is not a class", name)
		}
		want := super
		if want == nil {
			want = rt.cObject
		}
		if got := existing.super(); got == nil || got.real() != want {
			return nil, false, newNameError(name, "%s is already defined", name)
		}
		return existing, false, nil
	}

	if super == nil {
		rt.warn(Warning{
			Kind:    WarnSuperclassAssumed,
			Message: "no super class for `" + qualifiedName(rt, outer, name) + "', Object assumed",
			Name:    qualifiedName(rt, outer, name),
		})
		super = rt.cObject
	}
	if err := rt.checkInheritable(super); err != nil {
		return nil, false, err
	}

	klass, err := rt.createClassLocked(name, super, classOptions{visible: true, named: outer == rt.cObject})
	if err != nil {
		return nil, false, err
	}
	rt.setClassPathLocked(klass, outer, name)
	rt.consts.Set(outer, id, ClassValue(klass))
	return klass, true, nil
}

// classInherited runs super.inherited(klass) and then Hooks.Inherited.
func (rt *Runtime) classInherited(super, klass *Class) error {
	if super == nil {
		super = rt.cObject
	}
	if _, ok := rt.Resolve(ClassValue(super), "inherited"); ok {
		if _, err := rt.Send(ClassValue(super), "inherited", ClassValue(klass)); err != nil {
			return err
		}
	}
	if hook := rt.config.Hooks.Inherited; hook != nil {
		hook(super, klass)
	}
	return nil
}

// DefineModule defines a top-level module. See DefineModuleUnder.
func (rt *Runtime) DefineModule(name string) (*Class, error) {
	return rt.DefineModuleUnder(rt.cObject, name)
}

// DefineModuleUnder binds a module called name under outer (Object when
// nil). An existing module is returned unchanged; any other existing binding
// is a NameError.
func (rt *Runtime) DefineModuleUnder(outer *Class, name string) (*Class, error) {
	if outer == nil {
		outer = rt.cObject
	}
	if err := checkConstName(name); err != nil {
		return nil, err
	}

	module, created, err := rt.defineModuleUnderSync(outer, name)
	if err != nil {
		return nil, err
	}
	if created {
		if hook := rt.config.Hooks.ModuleDefined; hook != nil {
			hook(outer, module)
		}
	}
	return module, nil
}

func (rt *Runtime) defineModuleUnderSync(outer *Class, name string) (*Class, bool, error) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	return rt.defineModuleUnderLocked(outer, name)
}

func (rt *Runtime) defineModuleUnderLocked(outer *Class, name string) (*Class, bool, error) {
	id := rt.symbols.Intern(name)
	if val, ok := rt.consts.Get(outer, id); ok {
		existing := val.Class()
		if existing == nil || !existing.isModule() {
			return nil, false, newNameError(name, "%s is not a module", name)
		}
		return existing, false, nil
	}

	module, err := rt.createClassLocked(name, nil, classOptions{module: true, visible: true, named: outer == rt.cObject})
	if err != nil {
		return nil, false, err
	}
	rt.setClassPathLocked(module, outer, name)
	rt.consts.Set(outer, id, ClassValue(module))
	return module, true, nil
}

func qualifiedName(rt *Runtime, outer *Class, name string) string {
	if outer == nil || outer == rt.cObject {
		return name
	}
	return outer.displayName() + "::" + name
}

func checkConstName(name string) error {
	if name == "" || strings.Contains(name, "::") {
		return newNameError(name, "wrong constant name %q", name)
	}
	first := name[0]
	if first < 'A' || first > 'Z' {
		return newNameError(name, "wrong constant name %s", name)
	}
	return nil
}
