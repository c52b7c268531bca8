package objcore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestVersions is the range of manifest format versions this package
// reads.
const ManifestVersions = ">= 1.0.0, < 2.0.0"

var manifestConstraint = mustConstraint(ManifestVersions)

func mustConstraint(expr string) *semver.Constraints {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// Manifest is a declarative description of classes and modules.
type Manifest struct {
	Version     string       `yaml:"version"`
	Requires    []string     `yaml:"requires"`
	Definitions []Definition `yaml:"definitions"`

	// Name is the display name of the source (a path or a label).
	Name string `yaml:"-"`
}

// Definition declares one class or module. Exactly one of Class and Module
// is set.
type Definition struct {
	Class      string `yaml:"class"`
	Module     string `yaml:"module"`
	Under      string `yaml:"under"`
	Superclass string `yaml:"superclass"`

	Includes []string `yaml:"includes"`
	Extend   []string `yaml:"extend"`

	Methods          []MethodSpec `yaml:"methods"`
	SingletonMethods []MethodSpec `yaml:"singleton_methods"`
	ModuleFunctions  []MethodSpec `yaml:"module_functions"`

	AttrReader   []string `yaml:"attr_reader"`
	AttrWriter   []string `yaml:"attr_writer"`
	AttrAccessor []string `yaml:"attr_accessor"`

	Aliases   Aliases  `yaml:"aliases"`
	Public    []string `yaml:"public"`
	Protected []string `yaml:"protected"`
	Private   []string `yaml:"private"`
	Undef     []string `yaml:"undef"`

	Ivars  map[string]any `yaml:"ivars"`
	Freeze bool           `yaml:"freeze"`

	Line int `yaml:"-"`
}

var definitionKeys = map[string]struct{}{
	"class": {}, "module": {}, "under": {}, "superclass": {},
	"includes": {}, "extend": {},
	"methods": {}, "singleton_methods": {}, "module_functions": {},
	"attr_reader": {}, "attr_writer": {}, "attr_accessor": {},
	"aliases": {}, "public": {}, "protected": {}, "private": {}, "undef": {},
	"ivars": {}, "freeze": {},
}

func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: definition must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if _, ok := definitionKeys[key.Value]; !ok {
			return fmt.Errorf("line %d: unknown definition key %q", key.Line, key.Value)
		}
	}
	type plain Definition
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*d = Definition(decoded)
	d.Line = node.Line
	return nil
}

// Kind is "class" or "module".
func (d Definition) Kind() string {
	if d.Module != "" {
		return "module"
	}
	return "class"
}

// ConstName is the bare constant the definition binds.
func (d Definition) ConstName() string {
	if d.Module != "" {
		return d.Module
	}
	return d.Class
}

func (d Definition) validate() error {
	switch {
	case d.Class == "" && d.Module == "":
		return errors.New("definition needs a class or module name")
	case d.Class != "" && d.Module != "":
		return fmt.Errorf("definition names both class %s and module %s", d.Class, d.Module)
	case d.Module != "" && d.Superclass != "":
		return fmt.Errorf("module %s cannot have a superclass", d.Module)
	case d.Module == "" && len(d.ModuleFunctions) > 0:
		return fmt.Errorf("class %s cannot have module functions", d.Class)
	}
	return nil
}

// MethodSpec declares a method whose body answers a constant. A bare scalar
// is shorthand for a public, zero-argument method returning nil.
type MethodSpec struct {
	Name       string `yaml:"name"`
	Visibility string `yaml:"visibility"`
	Arity      int    `yaml:"arity"`
	Returns    any    `yaml:"returns"`

	Line int `yaml:"-"`
}

func (m *MethodSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*m = MethodSpec{Name: node.Value, Line: node.Line}
		return nil
	}
	type plain MethodSpec
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*m = MethodSpec(decoded)
	m.Line = node.Line
	if m.Name == "" {
		return fmt.Errorf("line %d: method needs a name", node.Line)
	}
	return nil
}

func (m MethodSpec) body() (*MethodBody, error) {
	ret, err := valueFromYAML(m.Returns)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Name, err)
	}
	return &MethodBody{
		Name:  m.Name,
		Arity: m.Arity,
		Fn: func(rt *Runtime, recv Value, args []Value) (Value, error) {
			return ret, nil
		},
	}, nil
}

// Alias is one new-name to existing-name pair.
type Alias struct {
	Name     string
	Original string
}

// Aliases keeps the mapping order of the document, since an alias may refer
// to one defined just above it.
type Aliases []Alias

func (a *Aliases) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: aliases must be a mapping", node.Line)
	}
	out := make(Aliases, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, Alias{Name: node.Content[i].Value, Original: node.Content[i+1].Value})
	}
	*a = out
	return nil
}

func valueFromYAML(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return NewNil(), nil
	case bool:
		return NewBool(v), nil
	case int:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case uint64:
		return NewInt(int64(v)), nil
	case float64:
		return NewFloat(v), nil
	case string:
		if sym, ok := strings.CutPrefix(v, ":"); ok && sym != "" {
			return NewSymbol(sym), nil
		}
		return NewString(v), nil
	default:
		return NewNil(), fmt.Errorf("unsupported value %v (%T)", raw, raw)
	}
}

// ParseManifest decodes and checks a manifest document.
func ParseManifest(name string, src []byte) (*Manifest, error) {
	return DecodeManifest(name, bytes.NewReader(src))
}

func DecodeManifest(name string, r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest %s: empty document", name)
		}
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}
	m.Name = name

	if strings.TrimSpace(m.Version) == "" {
		return nil, fmt.Errorf("manifest %s: version is required", name)
	}
	version, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: invalid version %q: %w", name, m.Version, err)
	}
	if !manifestConstraint.Check(version) {
		return nil, fmt.Errorf("manifest %s: version %s not supported (want %s)", name, version, ManifestVersions)
	}

	for _, d := range m.Definitions {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("manifest %s:%d: %w", name, d.Line, err)
		}
	}
	return &m, nil
}
