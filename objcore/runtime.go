package objcore

import (
	"os"
	"sync"
)

// Config controls how a Runtime is wired to its collaborators.
type Config struct {
	Host      Host
	Symbols   Symbols
	Constants Constants
	Warnings  WarningSink
	// Fatal receives internal consistency failures. It must not return
	// normally if the caller is to stop; the default panics.
	Fatal      func(error)
	Hooks      Hooks
	Primitives Primitives
	// StrictClassNames turns host name collisions into NameErrors instead
	// of renaming with a warning.
	StrictClassNames bool
	AnonymousPrefix  string
	ManifestPaths    []string
	MaxManifests     int
}

// Hooks are notified after a definition completes, outside the runtime lock.
type Hooks struct {
	Inherited     func(super, klass *Class)
	ModuleDefined func(outer, module *Class)
}

// Runtime owns the class graph. Mutations run as critical sections guarded by
// mu; callbacks queued while it is held run after it is released.
type Runtime struct {
	config  Config
	host    Host
	symbols Symbols
	consts  Constants

	mu      sync.RWMutex
	pending []func()

	regMu     sync.RWMutex
	classes   map[ClassHandle]*Class
	named     map[ID]*Class
	anonCount int64

	idClasspath ID
	idClassid   ID

	newBody      *MethodBody
	dupBody      *MethodBody
	initCopyBody *MethodBody

	cObject  *Class
	cModule  *Class
	cClass   *Class
	mKernel  *Class
	cNil     *Class
	cTrue    *Class
	cFalse   *Class
	cInteger *Class
	cFloat   *Class
	cString  *Class
	cSymbol  *Class
	cArray   *Class
	cHash    *Class
}

// NewRuntime fills in defaults for unset Config fields and bootstraps the
// built-in class graph.
func NewRuntime(cfg Config) (*Runtime, error) {
	if cfg.Host == nil {
		cfg.Host = NewMemoryHost()
	}
	if cfg.Symbols == nil {
		cfg.Symbols = NewSymbolTable()
	}
	if cfg.Constants == nil {
		cfg.Constants = NewConstantTable()
	}
	if cfg.Warnings == nil {
		cfg.Warnings = WriterSink{W: os.Stderr}
	}
	if cfg.Fatal == nil {
		cfg.Fatal = func(err error) { panic(err) }
	}
	if cfg.AnonymousPrefix == "" {
		cfg.AnonymousPrefix = "RBAnonymous"
	}
	if cfg.MaxManifests == 0 {
		cfg.MaxManifests = 1000
	}
	if err := validateManifestPaths(cfg.ManifestPaths); err != nil {
		return nil, err
	}

	rt := &Runtime{
		config:  cfg,
		host:    cfg.Host,
		symbols: cfg.Symbols,
		consts:  cfg.Constants,
		classes: make(map[ClassHandle]*Class),
		named:   make(map[ID]*Class),
	}
	rt.idClasspath = rt.symbols.Intern("__classpath__")
	rt.idClassid = rt.symbols.Intern("__classid__")
	rt.initProtocolBodies()

	if err := rt.bootstrap(); err != nil {
		return nil, err
	}
	return rt, nil
}

// MustNewRuntime is NewRuntime for callers with a known-good Config.
func MustNewRuntime(cfg Config) *Runtime {
	rt, err := NewRuntime(cfg)
	if err != nil {
		panic(err)
	}
	return rt
}

// deferInterrupts enters a mutation critical section.
func (rt *Runtime) deferInterrupts() {
	rt.mu.Lock()
}

// allowInterrupts leaves the critical section and then runs the callbacks
// that were queued inside it.
func (rt *Runtime) allowInterrupts() {
	pending := rt.pending
	rt.pending = nil
	rt.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func (rt *Runtime) later(fn func()) {
	rt.pending = append(rt.pending, fn)
}

func (rt *Runtime) classFor(h ClassHandle) *Class {
	if h == NoClass {
		return nil
	}
	rt.regMu.RLock()
	defer rt.regMu.RUnlock()
	return rt.classes[h]
}

func (rt *Runtime) track(c *Class) {
	rt.regMu.Lock()
	rt.classes[c.handle] = c
	rt.regMu.Unlock()
}

func (rt *Runtime) Symbols() Symbols { return rt.symbols }

func (rt *Runtime) Host() Host { return rt.host }

func (rt *Runtime) Object() *Class       { return rt.cObject }
func (rt *Runtime) ModuleClass() *Class  { return rt.cModule }
func (rt *Runtime) ClassClass() *Class   { return rt.cClass }
func (rt *Runtime) Kernel() *Class       { return rt.mKernel }
func (rt *Runtime) NilClass() *Class     { return rt.cNil }
func (rt *Runtime) TrueClass() *Class    { return rt.cTrue }
func (rt *Runtime) FalseClass() *Class   { return rt.cFalse }
func (rt *Runtime) IntegerClass() *Class { return rt.cInteger }
func (rt *Runtime) FloatClass() *Class   { return rt.cFloat }
func (rt *Runtime) StringClass() *Class  { return rt.cString }
func (rt *Runtime) SymbolClass() *Class  { return rt.cSymbol }
func (rt *Runtime) ArrayClass() *Class   { return rt.cArray }
func (rt *Runtime) HashClass() *Class    { return rt.cHash }

// ClassByName looks a class up in the global named-class table.
func (rt *Runtime) ClassByName(name string) (*Class, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	c, ok := rt.named[rt.symbols.Intern(name)]
	return c, ok
}

// ClassByHostName looks a class up by the name the host registered it under.
func (rt *Runtime) ClassByHostName(name string) (*Class, bool) {
	c := rt.classFor(rt.host.LookupClass(name))
	return c, c != nil
}

func (rt *Runtime) bootstrap() error {
	rt.deferInterrupts()
	defer rt.allowInterrupts()

	boot := func(slot **Class, name string, super *Class, opts classOptions) error {
		opts.named = true
		c, err := rt.createClassLocked(name, super, opts)
		if err != nil {
			return err
		}
		*slot = c
		rt.consts.Set(rt.cObject, rt.symbols.Intern(name), ClassValue(c))
		return nil
	}

	if err := boot(&rt.cObject, "Object", nil, classOptions{root: true}); err != nil {
		return err
	}
	if err := boot(&rt.cModule, "Module", rt.cObject, classOptions{}); err != nil {
		return err
	}
	if err := boot(&rt.cClass, "Class", rt.cModule, classOptions{}); err != nil {
		return err
	}
	for _, c := range []*Class{rt.cObject, rt.cModule, rt.cClass} {
		c.klass = rt.cClass
	}
	if err := boot(&rt.mKernel, "Kernel", nil, classOptions{module: true}); err != nil {
		return err
	}

	builtins := []struct {
		slot **Class
		name string
	}{
		{&rt.cNil, "NilClass"},
		{&rt.cTrue, "TrueClass"},
		{&rt.cFalse, "FalseClass"},
		{&rt.cInteger, "Integer"},
		{&rt.cFloat, "Float"},
		{&rt.cString, "String"},
		{&rt.cSymbol, "Symbol"},
		{&rt.cArray, "Array"},
		{&rt.cHash, "Hash"},
	}
	for _, b := range builtins {
		if err := boot(b.slot, b.name, rt.cObject, classOptions{}); err != nil {
			return err
		}
	}

	if err := rt.includeModuleLocked(rt.cObject, rt.mKernel); err != nil {
		return err
	}
	rt.defineBootstrapMethodsLocked()
	return nil
}
