package objcore

import (
	"testing"
)

func primitiveSet(kind string, names ...string) MethodSet {
	set := make(MethodSet, len(names))
	for _, name := range names {
		set[name] = &MethodBody{Name: name, Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
			return NewString(kind + "#" + name), nil
		}}
	}
	return set
}

func newPrimitiveRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := NewRuntime(Config{
		Warnings: &WarningLog{},
		Primitives: Primitives{
			Array:  primitiveSet("array", "push", "size"),
			Hash:   primitiveSet("hash", "store", "size"),
			String: primitiveSet("string", "upcase"),
		},
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt
}

func TestPrimitivesInstalledOnContainerSubclasses(t *testing.T) {
	rt := newPrimitiveRuntime(t)

	tests := []struct {
		name  string
		super *Class
		kind  string
		flag  Flags
		own   []string
	}{
		{"List", rt.ArrayClass(), "array", FlagArraySubclass, []string{"push", "size"}},
		{"Table", rt.HashClass(), "hash", FlagHashSubclass, []string{"size", "store"}},
		{"Text", rt.StringClass(), "string", FlagStringSubclass, []string{"upcase"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			klass := mustDefineClass(t, rt, tt.name, tt.super)
			if got := klass.ContainerKind(); got != tt.kind {
				t.Fatalf("expected %q, got %q", tt.kind, got)
			}
			if !klass.Flags().Has(tt.flag) {
				t.Fatalf("expected flag %v in %v", tt.flag, klass.Flags())
			}
			requireNames(t, rt.PublicInstanceMethods(klass, false), tt.own...)
			if got := mustSend(t, rt, mustNew(t, rt, klass), tt.own[0]); got.String() != tt.kind+"#"+tt.own[0] {
				t.Fatalf("expected specialized body, got %v", got)
			}
			if _, ok := rt.Resolve(ClassValue(klass), "new"); !ok {
				t.Fatalf("expected new to stay reachable through Class")
			}
			if len(rt.SingletonMethods(ClassValue(klass), false)) != 0 {
				t.Fatalf("specialized classes do not get the default protocol")
			}
		})
	}
}

func TestPrimitivesFollowTheNearestContainer(t *testing.T) {
	rt := newPrimitiveRuntime(t)
	list := mustDefineClass(t, rt, "List", rt.ArrayClass())
	sorted := mustDefineClass(t, rt, "SortedList", list)

	if sorted.ContainerKind() != "array" {
		t.Fatalf("expected array specialization on a grandchild, got %q", sorted.ContainerKind())
	}
	requireNames(t, rt.PublicInstanceMethods(sorted, false), "push", "size")
}

func TestPrimitivesSingleWinner(t *testing.T) {
	rt := newPrimitiveRuntime(t)
	list := mustDefineClass(t, rt, "List", rt.ArrayClass())

	if !rt.MaybeInstallPrimitives(list, rt.HashClass()) {
		t.Fatalf("expected hash primitives to install")
	}
	flags := list.Flags()
	if !flags.Has(FlagHashSubclass) || flags.Has(FlagArraySubclass) || flags.Has(FlagStringSubclass) {
		t.Fatalf("expected only the hash flag, got %v", flags)
	}
	if list.ContainerKind() != "hash" {
		t.Fatalf("expected hash, got %q", list.ContainerKind())
	}
	if got := mustSend(t, rt, mustNew(t, rt, list), "size"); got.String() != "hash#size" {
		t.Fatalf("expected the later install to replace size, got %v", got)
	}
}

func TestPrimitivesSkipPlainClasses(t *testing.T) {
	rt := newPrimitiveRuntime(t)
	plain := mustDefineClass(t, rt, "Plain", rt.Object())

	if rt.MaybeInstallPrimitives(plain, rt.Object()) {
		t.Fatalf("expected nothing to install under Object")
	}
	if plain.ContainerKind() != "" || plain.Flags()&containerFlags != 0 {
		t.Fatalf("expected no container flags, got %v", plain.Flags())
	}
	requireNames(t, rt.PublicInstanceMethods(plain, false), "dup", "initialize_copy")
}
