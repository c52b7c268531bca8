package objcore

import (
	"slices"
	"testing"
)

func TestVisibilityFiltering(t *testing.T) {
	rt, _ := newTestRuntime(t)
	base := mustDefineClass(t, rt, "Base", rt.Object())
	shape := mustDefineClass(t, rt, "Shape", base)
	returning(rt, shape, "a", VisibilityPublic, "a")
	returning(rt, shape, "b", VisibilityProtected, "b")
	returning(rt, shape, "c", VisibilityPrivate, "c")

	requireNames(t, rt.PublicInstanceMethods(shape, false), "a")
	requireNames(t, rt.ProtectedInstanceMethods(shape, false), "b")
	requireNames(t, rt.PrivateInstanceMethods(shape, false), "c")
	requireNames(t, rt.InstanceMethods(shape, false), "a", "b")
}

func TestInstanceMethodsRecursion(t *testing.T) {
	rt, _ := newTestRuntime(t)
	base := mustDefineClass(t, rt, "Base", rt.Object())
	returning(rt, base, "shared", VisibilityPublic, "base")
	returning(rt, base, "hidden", VisibilityPublic, "base")
	derived := mustDefineClass(t, rt, "Derived", base)
	returning(rt, derived, "shared", VisibilityPublic, "derived")
	returning(rt, derived, "hidden", VisibilityPrivate, "derived")

	all := rt.InstanceMethods(derived, true)
	if n := countOf(all, "shared"); n != 1 {
		t.Fatalf("expected shared listed once, got %d in %v", n, all)
	}
	if slices.Contains(all, "hidden") {
		t.Fatalf("expected private override to hide the public inherited method, got %v", all)
	}
	for _, name := range []string{"dup", "clone", "freeze"} {
		if !slices.Contains(all, name) {
			t.Fatalf("expected inherited %s in %v", name, all)
		}
	}
	if slices.Contains(all, "initialize") {
		t.Fatalf("private initialize must not be listed, got %v", all)
	}
	requireNames(t, rt.InstanceMethods(derived, false), "shared")
	requireNames(t, rt.PrivateInstanceMethods(derived, false), "hidden")
}

func countOf(names []string, want string) int {
	n := 0
	for _, name := range names {
		if name == want {
			n++
		}
	}
	return n
}

func TestUndefMethodMasksInherited(t *testing.T) {
	rt, _ := newTestRuntime(t)
	base := mustDefineClass(t, rt, "Base", rt.Object())
	returning(rt, base, "speak", VisibilityPublic, "base")
	derived := mustDefineClass(t, rt, "Derived", base)

	rt.UndefMethod(derived, "speak")

	if _, ok := rt.Resolve(mustNew(t, rt, derived), "speak"); ok {
		t.Fatalf("expected speak to be undefined on Derived")
	}
	if got := mustSend(t, rt, mustNew(t, rt, base), "speak"); got.String() != "base" {
		t.Fatalf("expected Base to keep speak, got %v", got)
	}
	if slices.Contains(rt.InstanceMethods(derived, true), "speak") {
		t.Fatalf("tombstoned selector must not be listed")
	}
	own := rt.host.CopyMethodList(derived.Handle())
	if len(own) != 1 || !own[0].Entry.IsUndefined() || own[0].Types != "v@:" {
		t.Fatalf("expected one tombstone row, got %+v", own)
	}

	_, err := rt.Send(mustNew(t, rt, derived), "speak")
	requireErrorType(t, err, "NameError", ErrNameConflict)
	requireErrorContains(t, err, "undefined method `speak'")
}

func TestDispatchMatchesIntrospection(t *testing.T) {
	rt, _ := newTestRuntime(t)
	mixin := mustDefineModule(t, rt, "Mixin")
	returning(rt, mixin, "mixed", VisibilityPublic, "mixed")
	returning(rt, mixin, "masked", VisibilityPublic, "mixed")
	base := mustDefineClass(t, rt, "Base", rt.Object())
	returning(rt, base, "inherited", VisibilityPublic, "base")
	returning(rt, base, "gone", VisibilityPublic, "base")
	leaf := mustDefineClass(t, rt, "Leaf", base)
	returning(rt, leaf, "own", VisibilityProtected, "leaf")
	returning(rt, leaf, "masked", VisibilityPublic, "leaf")
	if err := rt.IncludeModule(leaf, mixin); err != nil {
		t.Fatalf("include: %v", err)
	}
	rt.UndefMethod(leaf, "gone")
	if err := rt.AliasMethod(leaf, "also_inherited", "inherited"); err != nil {
		t.Fatalf("alias: %v", err)
	}

	obj := mustNew(t, rt, leaf)
	for _, sel := range rt.InstanceMethods(leaf, true) {
		entry, ok := rt.Resolve(obj, sel)
		if !ok || entry.IsUndefined() {
			t.Fatalf("listed selector %s does not dispatch", sel)
		}
	}
	if got := mustSend(t, rt, obj, "masked"); got.String() != "leaf" {
		t.Fatalf("expected own masked to win, got %v", got)
	}
}

func TestAliasMethod(t *testing.T) {
	rt, _ := newTestRuntime(t)
	base := mustDefineClass(t, rt, "Base", rt.Object())
	returning(rt, base, "secret", VisibilityPrivate, "s")
	klass := mustDefineClass(t, rt, "Leaf", base)

	if err := rt.AliasMethod(klass, "hidden", "secret"); err != nil {
		t.Fatalf("alias: %v", err)
	}
	entry, ok := rt.Resolve(mustNew(t, rt, klass), "hidden")
	if !ok || entry.Visibility != VisibilityPrivate || entry.Origin != klass {
		t.Fatalf("expected private own alias, got %+v", entry)
	}

	err := rt.AliasMethod(klass, "nope", "missing")
	requireErrorType(t, err, "NameError", ErrNameConflict)

	rt.UndefMethod(klass, "secret")
	err = rt.AliasMethod(klass, "again", "secret")
	requireErrorType(t, err, "NameError", ErrNameConflict)
}

func TestSetVisibility(t *testing.T) {
	rt, _ := newTestRuntime(t)
	base := mustDefineClass(t, rt, "Base", rt.Object())
	returning(rt, base, "helper", VisibilityPublic, "h")
	derived := mustDefineClass(t, rt, "Derived", base)

	if err := rt.SetVisibility(derived, "helper", VisibilityPrivate); err != nil {
		t.Fatalf("set visibility: %v", err)
	}
	requireNames(t, rt.PrivateInstanceMethods(derived, false), "helper")
	if !slices.Contains(rt.PublicInstanceMethods(base, false), "helper") {
		t.Fatalf("expected Base to keep helper public")
	}
	if slices.Contains(rt.PublicInstanceMethods(derived, true), "helper") {
		t.Fatalf("expected helper hidden from Derived's public methods")
	}

	err := rt.SetVisibility(derived, "missing", VisibilityPublic)
	requireErrorType(t, err, "NameError", ErrNameConflict)
	err = rt.SetVisibility(derived, "helper", VisibilityUndefined)
	requireErrorType(t, err, "ArgumentError", ErrArgument)
}

func TestDefineAttr(t *testing.T) {
	rt, _ := newTestRuntime(t)
	pet := mustDefineClass(t, rt, "Pet", rt.Object())
	if err := rt.DefineAttr(pet, "name", true, true); err != nil {
		t.Fatalf("attr: %v", err)
	}
	if err := rt.DefineAttr(pet, "age", true, false); err != nil {
		t.Fatalf("attr: %v", err)
	}

	obj := mustNew(t, rt, pet)
	if got := mustSend(t, rt, obj, "name"); !got.IsNil() {
		t.Fatalf("expected nil before assignment, got %v", got)
	}
	mustSend(t, rt, obj, "name=", NewString("Rex"))
	if got := mustSend(t, rt, obj, "name"); got.String() != "Rex" {
		t.Fatalf("expected Rex, got %v", got)
	}
	if _, ok := rt.Resolve(obj, "age="); ok {
		t.Fatalf("expected no writer for age")
	}
	requireNames(t, rt.IvarNames(obj), "@name")

	rt.Freeze(obj)
	_, err := rt.Send(obj, "name=", NewString("Max"))
	requireErrorType(t, err, "FrozenError", ErrFrozen)

	_, err = rt.Send(obj, "name=")
	requireErrorType(t, err, "ArgumentError", ErrArgument)
	requireErrorContains(t, err, "wrong number of arguments (0 for 1)")

	err = rt.DefineAttr(pet, "bad-name", true, false)
	requireErrorType(t, err, "NameError", ErrNameConflict)
}

func TestModuleAndGlobalFunctions(t *testing.T) {
	rt, _ := newTestRuntime(t)
	util := mustDefineModule(t, rt, "Util")
	body := &MethodBody{Name: "twice", Arity: 1, Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return NewInt(args[0].Int() * 2), nil
	}}
	if err := rt.DefineModuleFunction(util, "twice", body); err != nil {
		t.Fatalf("module function: %v", err)
	}
	if got := mustSend(t, rt, ClassValue(util), "twice", NewInt(4)); got.Int() != 8 {
		t.Fatalf("expected 8, got %v", got)
	}
	requireNames(t, rt.PrivateInstanceMethods(util, false), "twice")
	requireNames(t, rt.SingletonMethods(ClassValue(util), false), "twice")

	klass := mustDefineClass(t, rt, "Widget", rt.Object())
	err := rt.DefineModuleFunction(klass, "twice", body)
	requireErrorType(t, err, "TypeError", ErrTypeMismatch)

	if err := rt.DefineGlobalFunction("answer", &MethodBody{Name: "answer", Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return NewInt(42), nil
	}}); err != nil {
		t.Fatalf("global function: %v", err)
	}
	obj := mustNew(t, rt, klass)
	if got := mustSend(t, rt, obj, "answer"); got.Int() != 42 {
		t.Fatalf("expected 42 from Kernel, got %v", got)
	}
	if got := mustSend(t, rt, ClassValue(rt.Kernel()), "answer"); got.Int() != 42 {
		t.Fatalf("expected Kernel.answer, got %v", got)
	}
}

func TestTypeEncoding(t *testing.T) {
	tests := []struct {
		name  string
		entry MethodEntry
		want  string
	}{
		{"tombstone", MethodEntry{Visibility: VisibilityUndefined}, "v@:"},
		{"nullary", MethodEntry{Body: &MethodBody{Arity: 0}}, "@@:"},
		{"binary", MethodEntry{Body: &MethodBody{Arity: 2}}, "@@:@@"},
		{"variadic", MethodEntry{Body: &MethodBody{Arity: -1}}, "@@:@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := typeEncoding(tt.entry); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseVisibility(t *testing.T) {
	for input, want := range map[string]Visibility{
		"":          VisibilityPublic,
		"public":    VisibilityPublic,
		"Protected": VisibilityProtected,
		" private ": VisibilityPrivate,
	} {
		got, err := ParseVisibility(input)
		if err != nil || got != want {
			t.Fatalf("parse %q: expected %v, got %v (%v)", input, want, got, err)
		}
	}
	_, err := ParseVisibility("secret")
	requireErrorType(t, err, "ArgumentError", ErrArgument)
}
