package objcore

import (
	"fmt"
	"strings"
	"unicode"
)

type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
	// VisibilityUndefined marks a tombstone: the selector is recorded as
	// undefined at this level and masks anything inherited or mixed in.
	VisibilityUndefined
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	case VisibilityUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return VisibilityPublic, nil
	case "protected":
		return VisibilityProtected, nil
	case "private":
		return VisibilityPrivate, nil
	default:
		return VisibilityPublic, newArgumentError("unknown visibility %q", s)
	}
}

// Func implements a method. recv is the receiver; args exclude it.
type Func func(rt *Runtime, recv Value, args []Value) (Value, error)

// MethodBody is an implementation shared by every table row that points at
// it. Arity -1 accepts any number of arguments.
type MethodBody struct {
	Name  string
	Arity int
	Fn    Func
}

// MethodEntry is the value stored per selector in a host method table.
type MethodEntry struct {
	Body       *MethodBody
	Visibility Visibility
	// Origin is the class or module the row was defined on. A row whose
	// origin is the owning class is an own definition; anything else was
	// copied in by inclusion.
	Origin *Class
}

func (e MethodEntry) IsUndefined() bool {
	return e.Visibility == VisibilityUndefined || e.Body == nil
}

// typeEncoding renders the host signature for an entry: return type,
// receiver, selector, then one slot per argument.
func typeEncoding(e MethodEntry) string {
	if e.IsUndefined() {
		return "v@:"
	}
	if e.Body.Arity < 0 {
		return "@@:@"
	}
	return "@@:" + strings.Repeat("@", e.Body.Arity)
}

// DefineMethod stores body under name in klass's own table, replacing any
// previous own row. A nil body records name as undefined.
func (rt *Runtime) DefineMethod(klass *Class, name string, body *MethodBody, vis Visibility) {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	if klass == nil {
		rt.fatalf("define method `%s' on a nil class", name)
		return
	}
	if body == nil {
		vis = VisibilityUndefined
	}
	rt.defineMethodLocked(klass, Selector(name), MethodEntry{Body: body, Visibility: vis, Origin: klass})
}

// DefineFunc is DefineMethod for a bare Go function.
func (rt *Runtime) DefineFunc(klass *Class, name string, arity int, vis Visibility, fn Func) {
	rt.DefineMethod(klass, name, &MethodBody{Name: name, Arity: arity, Fn: fn}, vis)
}

// UndefMethod records name as undefined on klass. The tombstone masks any
// implementation klass would otherwise inherit.
func (rt *Runtime) UndefMethod(klass *Class, name string) {
	rt.DefineMethod(klass, name, nil, VisibilityUndefined)
}

// AliasMethod copies the entry existing resolves to on klass under newName.
func (rt *Runtime) AliasMethod(klass *Class, newName, existing string) error {
	if err := requireClass(klass); err != nil {
		return err
	}
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	entry, err := rt.resolveForKlassLocked(klass, Selector(existing))
	if err != nil {
		return err
	}
	entry.Origin = klass
	rt.defineMethodLocked(klass, Selector(newName), entry)
	return nil
}

// SetVisibility retags name on klass. An inherited or mixed-in entry is
// copied down to klass's own table with the new visibility.
func (rt *Runtime) SetVisibility(klass *Class, name string, vis Visibility) error {
	if err := requireClass(klass); err != nil {
		return err
	}
	if vis == VisibilityUndefined {
		return newArgumentError("use UndefMethod to undefine `%s'", name)
	}
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	sel := Selector(name)
	entry, err := rt.resolveForKlassLocked(klass, sel)
	if err != nil {
		return err
	}
	if own, ok := rt.ownEntry(klass, sel); ok && own.Origin == klass && own.Visibility == vis {
		return nil
	}
	entry.Visibility = vis
	entry.Origin = klass
	rt.defineMethodLocked(klass, sel, entry)
	return nil
}

// DefineSingletonMethod defines name on recv's singleton class.
func (rt *Runtime) DefineSingletonMethod(recv Value, name string, body *MethodBody) error {
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	meta, err := rt.singletonClassLocked(recv)
	if err != nil {
		return err
	}
	rt.defineMethodLocked(meta, Selector(name), MethodEntry{Body: body, Visibility: VisibilityPublic, Origin: meta})
	return nil
}

// DefineModuleFunction defines name as a private instance method of module
// and as a public singleton method of the module itself.
func (rt *Runtime) DefineModuleFunction(module *Class, name string, body *MethodBody) error {
	if module == nil || !module.isModule() {
		return newTypeError("%s is not a module", describeClass(module))
	}
	rt.deferInterrupts()
	defer rt.allowInterrupts()
	sel := Selector(name)
	rt.defineMethodLocked(module, sel, MethodEntry{Body: body, Visibility: VisibilityPrivate, Origin: module})
	meta, err := rt.singletonClassLocked(ClassValue(module))
	if err != nil {
		return err
	}
	rt.defineMethodLocked(meta, sel, MethodEntry{Body: body, Visibility: VisibilityPublic, Origin: meta})
	return nil
}

// DefineGlobalFunction makes name callable from every object as a Kernel
// module function.
func (rt *Runtime) DefineGlobalFunction(name string, body *MethodBody) error {
	return rt.DefineModuleFunction(rt.mKernel, name, body)
}

// DefineAttr defines a reader name and/or a writer name= backed by the
// instance variable @name.
func (rt *Runtime) DefineAttr(klass *Class, name string, read, write bool) error {
	if err := requireClass(klass); err != nil {
		return err
	}
	if !isAttrName(name) {
		return newNameError(name, "invalid attribute name `%s'", name)
	}
	ivar := rt.symbols.Intern("@" + name)
	if read {
		rt.DefineMethod(klass, name, &MethodBody{
			Name:  name,
			Arity: 0,
			Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
				val, _ := rt.ivarGet(recv, ivar)
				return val, nil
			},
		}, VisibilityPublic)
	}
	if write {
		rt.DefineMethod(klass, name+"=", &MethodBody{
			Name:  name + "=",
			Arity: 1,
			Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
				if err := rt.ivarSet(recv, ivar, args[0]); err != nil {
					return NewNil(), err
				}
				return args[0], nil
			},
		}, VisibilityPublic)
	}
	return nil
}

func isAttrName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func (rt *Runtime) defineMethodLocked(klass *Class, sel Selector, entry MethodEntry) {
	rt.putOwnLocked(klass, sel, entry)
	if klass.isModule() {
		for _, includer := range klass.includedIn {
			rt.installMixedInLocked(includer, sel, entry)
		}
	}
}

// putOwnLocked writes a row into klass's own host table. A host that reports
// the row as owned and then refuses to replace it has diverged from us.
func (rt *Runtime) putOwnLocked(klass *Class, sel Selector, entry MethodEntry) {
	if rt.host.AddMethod(klass.handle, sel, entry, typeEncoding(entry)) {
		return
	}
	if !rt.host.SetImplementation(klass.handle, sel, entry) {
		rt.fatalf("host refused method %s#%s", klass.displayName(), sel)
	}
}

func (rt *Runtime) ownEntry(klass *Class, sel Selector) (MethodEntry, bool) {
	m, ok := rt.host.InstanceMethod(klass.handle, sel)
	if !ok || m.Owner != klass.handle {
		return MethodEntry{}, false
	}
	return m.Entry, true
}

// resolveForKlassLocked finds sel along klass's chain for alias and
// visibility changes. Tombstones count as missing.
func (rt *Runtime) resolveForKlassLocked(klass *Class, sel Selector) (MethodEntry, error) {
	m, ok := rt.host.InstanceMethod(klass.handle, sel)
	if !ok || m.Entry.IsUndefined() {
		return MethodEntry{}, newNameError(string(sel), "undefined method `%s' for %s `%s'",
			sel, strings.ToLower(klass.kindName()), klass.displayName())
	}
	return m.Entry, nil
}

func describeClass(c *Class) string {
	if c == nil {
		return "nil"
	}
	return c.displayName()
}
