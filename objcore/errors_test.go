package objcore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTypeAndSentinels(t *testing.T) {
	tests := []struct {
		err      error
		want     string
		sentinel error
	}{
		{newTypeError("bad type"), "TypeError", ErrTypeMismatch},
		{newNameError("x", "bad name"), "NameError", ErrNameConflict},
		{newFrozenError("frozen"), "FrozenError", ErrFrozen},
		{newArgumentError("bad arg"), "ArgumentError", ErrArgument},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			wrapped := fmt.Errorf("loading: %w", tt.err)
			if got := ErrorType(wrapped); got != tt.want {
				t.Fatalf("expected %s, got %q", tt.want, got)
			}
			if !errors.Is(wrapped, tt.sentinel) {
				t.Fatalf("expected wrapped error to match its sentinel")
			}
			for _, other := range []error{ErrTypeMismatch, ErrNameConflict, ErrFrozen, ErrArgument} {
				if other != tt.sentinel && errors.Is(tt.err, other) {
					t.Fatalf("%s must not match %v", tt.want, other)
				}
			}
		})
	}

	if got := ErrorType(errors.New("plain")); got != "" {
		t.Fatalf("expected no type for a plain error, got %q", got)
	}
	if got := ErrorType(&Error{Type: "typeerror", Message: "m"}); got != "TypeError" {
		t.Fatalf("expected case-insensitive type, got %q", got)
	}
}

// refusingHost loses rows for one selector, the way a diverged host would.
type refusingHost struct {
	*MemoryHost
	refuse Selector
}

func (h *refusingHost) AddMethod(c ClassHandle, sel Selector, entry MethodEntry, types string) bool {
	if sel == h.refuse {
		return false
	}
	return h.MemoryHost.AddMethod(c, sel, entry, types)
}

func (h *refusingHost) SetImplementation(c ClassHandle, sel Selector, entry MethodEntry) bool {
	if sel == h.refuse {
		return false
	}
	return h.MemoryHost.SetImplementation(c, sel, entry)
}

func TestHostDivergenceIsFatal(t *testing.T) {
	var fatals []error
	rt, err := NewRuntime(Config{
		Host:     &refusingHost{MemoryHost: NewMemoryHost(), refuse: "boom"},
		Warnings: &WarningLog{},
		Fatal:    func(err error) { fatals = append(fatals, err) },
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	widget := mustDefineClass(t, rt, "Widget", rt.Object())

	returning(rt, widget, "boom", VisibilityPublic, "x")
	if len(fatals) != 1 {
		t.Fatalf("expected one fatal report, got %v", fatals)
	}
	var fe *FatalError
	if !errors.As(fatals[0], &fe) || !strings.Contains(fe.Error(), "host refused method Widget#boom") {
		t.Fatalf("unexpected fatal error %v", fatals[0])
	}

	returning(rt, widget, "fine", VisibilityPublic, "ok")
	if len(fatals) != 1 {
		t.Fatalf("expected other selectors unaffected, got %v", fatals)
	}
}

func TestDefaultFatalPanics(t *testing.T) {
	rt, err := NewRuntime(Config{
		Host:     &refusingHost{MemoryHost: NewMemoryHost(), refuse: "boom"},
		Warnings: &WarningLog{},
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	widget := mustDefineClass(t, rt, "Widget", rt.Object())

	defer func() {
		r := recover()
		if _, ok := r.(*FatalError); !ok {
			t.Fatalf("expected a *FatalError panic, got %v", r)
		}
	}()
	returning(rt, widget, "boom", VisibilityPublic, "x")
}

func TestNilClassArgumentsAreTypeErrors(t *testing.T) {
	rt, _ := newTestRuntime(t)
	mixin := mustDefineModule(t, rt, "Mixin")

	err := rt.IncludeModule(nil, mixin)
	requireErrorType(t, err, "TypeError", ErrTypeMismatch)
	requireErrorContains(t, err, "wrong argument type NilClass")

	requireErrorType(t, rt.SetVisibility(nil, "name", VisibilityPrivate), "TypeError", ErrTypeMismatch)
	requireErrorType(t, rt.AliasMethod(nil, "label", "name"), "TypeError", ErrTypeMismatch)
	requireErrorType(t, rt.DefineAttr(nil, "size", true, true), "TypeError", ErrTypeMismatch)
}

func TestDefineMethodOnNilClassIsFatal(t *testing.T) {
	var fatals []error
	rt, err := NewRuntime(Config{
		Warnings: &WarningLog{},
		Fatal:    func(err error) { fatals = append(fatals, err) },
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	returning(rt, nil, "orphan", VisibilityPublic, "x")
	rt.UndefMethod(nil, "orphan")
	if len(fatals) != 2 {
		t.Fatalf("expected two fatal reports, got %v", fatals)
	}
	var fe *FatalError
	if !errors.As(fatals[0], &fe) || !strings.Contains(fe.Error(), "define method `orphan' on a nil class") {
		t.Fatalf("unexpected fatal error %v", fatals[0])
	}
}

// failingAllocHost refuses new class records once fail is set.
type failingAllocHost struct {
	*MemoryHost
	fail bool
}

func (h *failingAllocHost) AllocateClassPair(super ClassHandle, name string, extraBytes int) (ClassHandle, error) {
	if h.fail {
		return NoClass, errors.New("out of class slots")
	}
	return h.MemoryHost.AllocateClassPair(super, name, extraBytes)
}

func TestFatalPanicReleasesRuntimeLock(t *testing.T) {
	host := &failingAllocHost{MemoryHost: NewMemoryHost()}
	rt, err := NewRuntime(Config{Host: host, Warnings: &WarningLog{}})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	widget := mustDefineClass(t, rt, "Widget", rt.Object())
	obj := mustNew(t, rt, widget)
	if err := rt.DefineSingletonMethod(obj, "hi", &MethodBody{Name: "hi", Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return NewSymbol("hi"), nil
	}}); err != nil {
		t.Fatalf("define singleton method: %v", err)
	}
	host.fail = true

	tests := []struct {
		name string
		fn   func()
	}{
		{"DefineClass", func() { _, _ = rt.DefineClass("Gadget", rt.Object()) }},
		{"DefineModule", func() { _, _ = rt.DefineModule("Gizmo") }},
		{"Clone", func() { _, _ = rt.Clone(obj) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			func() {
				defer func() {
					if _, ok := recover().(*FatalError); !ok {
						t.Fatalf("expected a *FatalError panic")
					}
				}()
				tt.fn()
			}()
			if !rt.mu.TryLock() {
				t.Fatalf("runtime lock still held after the panic")
			}
			rt.mu.Unlock()
			if got, ok := rt.ClassByName("Widget"); !ok || got != widget {
				t.Fatalf("expected the runtime to stay usable")
			}
		})
	}
}
