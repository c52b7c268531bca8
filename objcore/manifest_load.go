package objcore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// LoadResult summarizes a manifest load.
type LoadResult struct {
	// Manifests are the sources applied, requires first.
	Manifests []string
	// Defined lists every class and module a definition touched, in first
	// mention order.
	Defined []*Class
}

func (r *LoadResult) touch(c *Class) {
	if !slices.Contains(r.Defined, c) {
		r.Defined = append(r.Defined, c)
	}
}

type manifestLoader struct {
	rt     *Runtime
	result *LoadResult
	stack  []string
	loaded map[string]bool
}

func (rt *Runtime) newManifestLoader() *manifestLoader {
	return &manifestLoader{
		rt:     rt,
		result: &LoadResult{},
		loaded: make(map[string]bool),
	}
}

// LoadManifestFile applies the manifest at path. Its requires are looked up
// next to it first, then along Config.ManifestPaths.
func (rt *Runtime) LoadManifestFile(path string) (*LoadResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	l := rt.newManifestLoader()
	if err := l.loadFile(abs); err != nil {
		return l.result, err
	}
	return l.result, nil
}

// LoadManifestSource applies a manifest held in memory. name labels it in
// errors; requires resolve along Config.ManifestPaths only.
func (rt *Runtime) LoadManifestSource(name string, src []byte) (*LoadResult, error) {
	m, err := ParseManifest(name, src)
	if err != nil {
		return nil, err
	}
	l := rt.newManifestLoader()
	l.stack = append(l.stack, name)
	if err := l.apply(m, ""); err != nil {
		return l.result, err
	}
	return l.result, nil
}

func (l *manifestLoader) loadFile(key string) error {
	if cycle, ok := manifestCycleFromStack(l.stack, key); ok {
		return fmt.Errorf("require: circular manifest dependency: %s", formatManifestCycle(cycle))
	}
	if l.loaded[key] {
		return nil
	}
	if len(l.loaded) >= l.rt.config.MaxManifests {
		return fmt.Errorf("require: manifest limit reached (%d manifests)", l.rt.config.MaxManifests)
	}

	f, err := os.Open(key)
	if err != nil {
		return fmt.Errorf("require: reading %s: %w", key, err)
	}
	defer f.Close()
	m, err := DecodeManifest(key, f)
	if err != nil {
		return err
	}

	l.stack = append(l.stack, key)
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()
	if err := l.apply(m, filepath.Dir(key)); err != nil {
		return err
	}
	l.loaded[key] = true
	return nil
}

func (l *manifestLoader) apply(m *Manifest, dir string) error {
	for _, req := range m.Requires {
		key, err := l.resolveRequire(req, dir)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", m.Name, err)
		}
		if err := l.loadFile(key); err != nil {
			return err
		}
	}
	for _, d := range m.Definitions {
		if err := l.define(d); err != nil {
			return fmt.Errorf("manifest %s:%d: %w", m.Name, d.Line, err)
		}
	}
	l.result.Manifests = append(l.result.Manifests, m.Name)
	return nil
}

func (l *manifestLoader) resolveRequire(name, dir string) (string, error) {
	normalized, err := normalizeManifestName(name)
	if err != nil {
		return "", err
	}
	roots := make([]string, 0, len(l.rt.config.ManifestPaths)+1)
	if dir != "" {
		roots = append(roots, dir)
	}
	roots = append(roots, l.rt.config.ManifestPaths...)
	if len(roots) == 0 {
		return "", fmt.Errorf("require: manifest paths not configured")
	}

	for _, root := range roots {
		candidate := filepath.Join(root, normalized)
		stat, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("require: %s: %w", candidate, err)
		}
		if stat.IsDir() {
			continue
		}
		return filepath.Abs(candidate)
	}
	return "", fmt.Errorf("require: manifest %q not found", name)
}

func (l *manifestLoader) define(d Definition) error {
	rt := l.rt
	outer := rt.cObject
	if d.Under != "" {
		var err error
		if outer, err = rt.ResolvePath(d.Under); err != nil {
			return err
		}
	}

	var (
		klass *Class
		err   error
	)
	if d.Module != "" {
		klass, err = rt.DefineModuleUnder(outer, d.Module)
	} else {
		super := rt.cObject
		if d.Superclass != "" {
			if super, err = rt.ResolvePath(d.Superclass); err != nil {
				return err
			}
		}
		klass, err = rt.DefineClassUnder(outer, d.Class, super)
	}
	if err != nil {
		return err
	}
	l.result.touch(klass)
	self := ClassValue(klass)

	for _, path := range d.Includes {
		module, err := rt.ResolvePath(path)
		if err != nil {
			return err
		}
		if err := rt.IncludeModule(klass, module); err != nil {
			return err
		}
	}
	for _, path := range d.Extend {
		module, err := rt.ResolvePath(path)
		if err != nil {
			return err
		}
		if err := rt.ExtendObject(self, module); err != nil {
			return err
		}
	}

	for _, spec := range d.Methods {
		vis, err := ParseVisibility(spec.Visibility)
		if err != nil {
			return fmt.Errorf("method %s: %w", spec.Name, err)
		}
		body, err := spec.body()
		if err != nil {
			return err
		}
		rt.DefineMethod(klass, spec.Name, body, vis)
	}
	for _, spec := range d.SingletonMethods {
		body, err := spec.body()
		if err != nil {
			return err
		}
		if err := rt.DefineSingletonMethod(self, spec.Name, body); err != nil {
			return err
		}
	}
	for _, spec := range d.ModuleFunctions {
		body, err := spec.body()
		if err != nil {
			return err
		}
		if err := rt.DefineModuleFunction(klass, spec.Name, body); err != nil {
			return err
		}
	}

	attrs := []struct {
		names       []string
		read, write bool
	}{
		{d.AttrReader, true, false},
		{d.AttrWriter, false, true},
		{d.AttrAccessor, true, true},
	}
	for _, group := range attrs {
		for _, name := range group.names {
			if err := rt.DefineAttr(klass, name, group.read, group.write); err != nil {
				return err
			}
		}
	}

	for _, alias := range d.Aliases {
		if err := rt.AliasMethod(klass, alias.Name, alias.Original); err != nil {
			return err
		}
	}
	visibilities := []struct {
		names []string
		vis   Visibility
	}{
		{d.Public, VisibilityPublic},
		{d.Protected, VisibilityProtected},
		{d.Private, VisibilityPrivate},
	}
	for _, group := range visibilities {
		for _, name := range group.names {
			if err := rt.SetVisibility(klass, name, group.vis); err != nil {
				return err
			}
		}
	}
	for _, name := range d.Undef {
		rt.UndefMethod(klass, name)
	}

	names := make([]string, 0, len(d.Ivars))
	for name := range d.Ivars {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		val, err := valueFromYAML(d.Ivars[name])
		if err != nil {
			return fmt.Errorf("ivar %s: %w", name, err)
		}
		if err := rt.IvarSet(self, name, val); err != nil {
			return err
		}
	}

	if d.Freeze {
		rt.Freeze(self)
	}
	return nil
}
