package objcore

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const baseManifest = `version: "1.0"
definitions:
  - module: Greeting
    methods:
      - name: greet
        returns: hello
  - class: Animal
    attr_accessor: [name]
    methods:
      - name: sound
        returns: "..."
      - name: secret
        returns: :hidden
        visibility: private
`

const mainManifest = `version: "1.2.0"
requires:
  - base
definitions:
  - class: Dog
    superclass: Animal
    includes: [Greeting]
    methods:
      - name: sound
        returns: woof
      - fetch
    singleton_methods:
      - name: create
        returns: 1
    aliases:
      bark: sound
      yap: bark
    private: [fetch]
    undef: [greet]
    ivars:
      "@legs": 4
  - module: Kennel
  - class: Run
    under: Kennel
    freeze: true
`

func TestLoadManifestFile(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "base.yaml", baseManifest)
	mainPath := writeManifest(t, dir, "main.yaml", mainManifest)

	rt, log := newTestRuntime(t)
	result, err := rt.LoadManifestFile(mainPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(result.Manifests) != 2 || !strings.HasSuffix(result.Manifests[0], "base.yaml") {
		t.Fatalf("expected base applied before main, got %v", result.Manifests)
	}
	requireNames(t, classNames(result.Defined), "Greeting", "Animal", "Dog", "Kennel", "Kennel::Run")
	if len(log.Entries()) != 0 {
		t.Fatalf("expected no warnings, got %+v", log.Entries())
	}

	dog, err := rt.ResolvePath("Dog")
	if err != nil {
		t.Fatalf("resolve Dog: %v", err)
	}
	animal, _ := rt.ResolvePath("Animal")
	if dog.Superclass() != animal {
		t.Fatalf("expected Dog < Animal, got %v", dog.Superclass())
	}

	rex := mustNew(t, rt, dog)
	mustSend(t, rt, rex, "name=", NewString("Rex"))
	for sel, want := range map[string]string{"sound": "woof", "bark": "woof", "yap": "woof", "name": "Rex"} {
		if got := mustSend(t, rt, rex, sel); got.String() != want {
			t.Fatalf("%s: expected %q, got %v", sel, want, got)
		}
	}
	if got := mustSend(t, rt, rex, "secret"); got.Kind() != KindSymbol || got.String() != "hidden" {
		t.Fatalf("expected :hidden, got %v", got.Inspect())
	}
	if _, ok := rt.Resolve(rex, "greet"); ok {
		t.Fatalf("expected greet undefined on Dog")
	}
	requireNames(t, rt.PrivateInstanceMethods(dog, false), "fetch")
	if got := mustSend(t, rt, ClassValue(dog), "create"); got.Int() != 1 {
		t.Fatalf("expected Dog.create = 1, got %v", got)
	}
	if legs, _ := rt.IvarGet(ClassValue(dog), "@legs"); legs.Int() != 4 {
		t.Fatalf("expected @legs = 4, got %v", legs)
	}
	if !rt.Includes(dog, mustResolve(t, rt, "Greeting")) {
		t.Fatalf("expected Dog to include Greeting")
	}

	run := mustResolve(t, rt, "Kennel::Run")
	if run.Name() != "Kennel::Run" || !run.IsFrozen() {
		t.Fatalf("expected frozen Kennel::Run, got %q frozen=%v", run.Name(), run.IsFrozen())
	}
}

func mustResolve(t *testing.T, rt *Runtime, path string) *Class {
	t.Helper()
	c, err := rt.ResolvePath(path)
	if err != nil {
		t.Fatalf("resolve %s: %v", path, err)
	}
	return c
}

func TestLoadManifestSharedRequireAppliesOnce(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "lib/shared.yaml", "version: \"1.0\"\ndefinitions:\n  - module: Shared\n")
	writeManifest(t, dir, "lib/a.yaml", "version: \"1.0\"\nrequires: [shared]\ndefinitions:\n  - class: A\n    includes: [Shared]\n")
	writeManifest(t, dir, "lib/b.yaml", "version: \"1.0\"\nrequires: [shared]\ndefinitions:\n  - class: B\n    includes: [Shared]\n")
	entry := writeManifest(t, dir, "app.yaml", "version: \"1.0\"\nrequires: [a, b]\n")

	rt, err := NewRuntime(Config{Warnings: &WarningLog{}, ManifestPaths: []string{filepath.Join(dir, "lib")}})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	result, err := rt.LoadManifestFile(entry)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	names := make([]string, len(result.Manifests))
	for i, m := range result.Manifests {
		names[i] = manifestDisplayName(m)
	}
	requireNames(t, names, "shared", "a", "b", "app")
}

func TestLoadManifestCycle(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.yaml", "version: \"1.0\"\nrequires: [b]\n")
	writeManifest(t, dir, "b.yaml", "version: \"1.0\"\nrequires: [a]\n")

	rt, _ := newTestRuntime(t)
	_, err := rt.LoadManifestFile(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "circular manifest dependency: a -> b -> a") {
		t.Fatalf("expected cycle error, got %v", err)
	}

	writeManifest(t, dir, "self.yaml", "version: \"1.0\"\nrequires: [self]\n")
	_, err = rt.LoadManifestFile(filepath.Join(dir, "self.yaml"))
	if err == nil || !strings.Contains(err.Error(), "self -> self") {
		t.Fatalf("expected self cycle error, got %v", err)
	}
}

func TestLoadManifestLimit(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "one.yaml", "version: \"1.0\"\nrequires: [two, three]\n")
	writeManifest(t, dir, "two.yaml", "version: \"1.0\"\n")
	writeManifest(t, dir, "three.yaml", "version: \"1.0\"\n")

	rt, err := NewRuntime(Config{Warnings: &WarningLog{}, MaxManifests: 1})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	_, err = rt.LoadManifestFile(filepath.Join(dir, "one.yaml"))
	if err == nil || !strings.Contains(err.Error(), "manifest limit reached") {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "empty document"},
		{"missing version", "definitions: []\n", "version is required"},
		{"bad version", "version: banana\n", "invalid version"},
		{"unsupported version", "version: \"2.0\"\n", "version 2.0.0 not supported"},
		{"unknown top-level key", "version: \"1.0\"\nextra: 1\n", "field extra not found"},
		{"unknown definition key", "version: \"1.0\"\ndefinitions:\n  - klass: Foo\n", `line 3: unknown definition key "klass"`},
		{"no name", "version: \"1.0\"\ndefinitions:\n  - freeze: true\n", "inline:3: definition needs a class or module name"},
		{"both names", "version: \"1.0\"\ndefinitions:\n  - class: A\n    module: B\n", "names both class A and module B"},
		{"module superclass", "version: \"1.0\"\ndefinitions:\n  - module: M\n    superclass: Object\n", "module M cannot have a superclass"},
		{"class module functions", "version: \"1.0\"\ndefinitions:\n  - class: C\n    module_functions: [f]\n", "class C cannot have module functions"},
		{"unnamed method", "version: \"1.0\"\ndefinitions:\n  - class: C\n    methods:\n      - arity: 1\n", "method needs a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest("inline", []byte(tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadManifestSourceReportsDefinitionLine(t *testing.T) {
	rt, _ := newTestRuntime(t)
	src := "version: \"1.0\"\ndefinitions:\n  - class: Thing\n    includes: [Missing]\n"

	result, err := rt.LoadManifestSource("inline", []byte(src))
	if err == nil {
		t.Fatalf("expected an error")
	}
	requireErrorType(t, err, "NameError", ErrNameConflict)
	requireErrorContains(t, err, "manifest inline:3: uninitialized constant Missing")
	requireNames(t, classNames(result.Defined), "Thing")

	_, err = rt.LoadManifestSource("inline", []byte("version: \"1.0\"\nrequires: [other]\n"))
	requireErrorContains(t, err, "manifest paths not configured")
}

func TestLoadManifestAliasOrderAndVisibility(t *testing.T) {
	rt, _ := newTestRuntime(t)
	src := `version: "1.0"
definitions:
  - module: Tools
    module_functions:
      - name: version
        returns: 3
  - class: Box
    methods:
      - name: open
        returns: true
        visibility: protected
    aliases:
      unlock: open
    public: [unlock]
`
	if _, err := rt.LoadManifestSource("inline", []byte(src)); err != nil {
		t.Fatalf("load: %v", err)
	}
	box := mustResolve(t, rt, "Box")
	requireNames(t, rt.ProtectedInstanceMethods(box, false), "open")
	if !slices.Contains(rt.PublicInstanceMethods(box, false), "unlock") {
		t.Fatalf("expected unlock to be public")
	}
	tools := mustResolve(t, rt, "Tools")
	if got := mustSend(t, rt, ClassValue(tools), "version"); got.Int() != 3 {
		t.Fatalf("expected Tools.version = 3, got %v", got)
	}
}

func TestNormalizeManifestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
		err   string
	}{
		{"base", "base.yaml", ""},
		{"lib/util.yaml", filepath.Join("lib", "util.yaml"), ""},
		{`lib\win`, filepath.Join("lib", "win.yaml"), ""},
		{"", "", "must be non-empty"},
		{"/etc/passwd", "", "must be relative"},
		{"../outside", "", "escapes search paths"},
		{"lib/../../up", "", "escapes search paths"},
	}
	for _, tt := range tests {
		got, err := normalizeManifestName(tt.input)
		if tt.err != "" {
			if err == nil || !strings.Contains(err.Error(), tt.err) {
				t.Fatalf("%q: expected error containing %q, got %v", tt.input, tt.err, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %q, got %q (%v)", tt.input, tt.want, got, err)
		}
	}
}

func TestValidateManifestPaths(t *testing.T) {
	dir := t.TempDir()
	file := writeManifest(t, dir, "plain.yaml", "version: \"1.0\"\n")

	if err := validateManifestPaths([]string{dir}); err != nil {
		t.Fatalf("expected directory to validate: %v", err)
	}
	for input, want := range map[string]string{
		"  ":                            "cannot be empty",
		file:                            "is not a directory",
		filepath.Join(dir, "missing"): "invalid manifest path",
	} {
		_, err := NewRuntime(Config{ManifestPaths: []string{input}})
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("%q: expected error containing %q, got %v", input, want, err)
		}
	}
}
