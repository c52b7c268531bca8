package objcore

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func newTestRuntime(t *testing.T) (*Runtime, *WarningLog) {
	t.Helper()
	log := &WarningLog{}
	rt, err := NewRuntime(Config{Warnings: log})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt, log
}

func mustDefineClass(t *testing.T, rt *Runtime, name string, super *Class) *Class {
	t.Helper()
	klass, err := rt.DefineClass(name, super)
	if err != nil {
		t.Fatalf("define class %s: %v", name, err)
	}
	return klass
}

func mustDefineModule(t *testing.T, rt *Runtime, name string) *Class {
	t.Helper()
	module, err := rt.DefineModule(name)
	if err != nil {
		t.Fatalf("define module %s: %v", name, err)
	}
	return module
}

func mustNew(t *testing.T, rt *Runtime, klass *Class, args ...Value) Value {
	t.Helper()
	v, err := rt.New(klass, args...)
	if err != nil {
		t.Fatalf("new %s: %v", klass, err)
	}
	return v
}

func mustSend(t *testing.T, rt *Runtime, recv Value, sel string, args ...Value) Value {
	t.Helper()
	v, err := rt.Send(recv, sel, args...)
	if err != nil {
		t.Fatalf("send %s: %v", sel, err)
	}
	return v
}

// returning defines a zero-argument method answering a constant string.
func returning(rt *Runtime, klass *Class, name string, vis Visibility, result string) {
	rt.DefineFunc(klass, name, 0, vis, func(rt *Runtime, recv Value, args []Value) (Value, error) {
		return NewString(result), nil
	})
}

func requireErrorType(t *testing.T, err error, want string, sentinel error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if got := ErrorType(err); got != want {
		t.Fatalf("expected %s, got %q (%v)", want, got, err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected errors.Is(%v, %v)", err, sentinel)
	}
}

func requireErrorContains(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error containing %q, got %v", want, err)
	}
}

func requireNames(t *testing.T, got []string, want ...string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func classNames(classes []*Class) []string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.String()
	}
	return names
}
