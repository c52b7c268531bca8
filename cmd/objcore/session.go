package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/mgomes/objcore/objcore"
)

// session is the state behind the REPL: one runtime plus named values.
type session struct {
	rt    *objcore.Runtime
	log   *objcore.WarningLog
	vars  map[string]objcore.Value
	paths []string
}

func newSession(paths []string) (*session, error) {
	log := &objcore.WarningLog{}
	rt, err := objcore.NewRuntime(objcore.Config{Warnings: log, ManifestPaths: paths})
	if err != nil {
		return nil, err
	}
	return &session{
		rt:    rt,
		log:   log,
		vars:  make(map[string]objcore.Value),
		paths: paths,
	}, nil
}

type commandFunc func(s *session, args []string) (objcore.Value, string, error)

var sessionCommands = map[string]commandFunc{
	"class":     (*session).cmdClass,
	"module":    (*session).cmdModule,
	"include":   (*session).cmdInclude,
	"extend":    (*session).cmdExtend,
	"def":       (*session).cmdDef,
	"attr":      (*session).cmdAttr,
	"public":    visibilityCommand(objcore.VisibilityPublic),
	"protected": visibilityCommand(objcore.VisibilityProtected),
	"private":   visibilityCommand(objcore.VisibilityPrivate),
	"undef":     (*session).cmdUndef,
	"alias":     (*session).cmdAlias,
	"ancestors": (*session).cmdAncestors,
	"methods":   (*session).cmdMethods,
	"singleton": (*session).cmdSingleton,
	"new":       (*session).cmdNew,
	"send":      (*session).cmdSend,
	"clone":     (*session).cmdClone,
	"dup":       (*session).cmdDup,
	"freeze":    (*session).cmdFreeze,
	"load":      (*session).cmdLoad,
}

var commandUsage = map[string]string{
	"class":     "class Name [< Super]",
	"module":    "module Name",
	"include":   "include Class Module...",
	"extend":    "extend target Module...",
	"def":       "def Class#name [value] | def target.name [value]",
	"attr":      "attr Class name...",
	"public":    "public Class name...",
	"protected": "protected Class name...",
	"private":   "private Class name...",
	"undef":     "undef Class name...",
	"alias":     "alias Class new old",
	"ancestors": "ancestors Class",
	"methods":   "methods Class [-a]",
	"singleton": "singleton target [-a]",
	"new":       "new Class [args...]",
	"send":      "send target selector [args...]",
	"clone":     "clone target",
	"dup":       "dup target",
	"freeze":    "freeze target",
	"load":      "load manifest",
}

func commandNames() []string {
	return slices.Sorted(maps.Keys(sessionCommands))
}

// exec runs one line. "name = command" stores the command's value.
func (s *session) exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	assign := ""
	if name, rest, ok := splitAssignment(line); ok {
		assign, line = name, rest
	}
	words, err := splitWords(line)
	if err != nil {
		return "", err
	}
	if len(words) == 0 {
		return "", errors.New("empty command")
	}
	cmd, ok := sessionCommands[words[0]]
	if !ok {
		return "", fmt.Errorf("unknown command %q (try :help)", words[0])
	}
	val, text, err := cmd(s, words[1:])
	if err != nil {
		return "", err
	}
	if assign != "" {
		if text != "" {
			return "", fmt.Errorf("%s does not produce a value", words[0])
		}
		s.vars[assign] = val
	}
	if text != "" {
		return text, nil
	}
	return val.Inspect(), nil
}

// drainWarnings returns and clears the warnings raised since the last call.
func (s *session) drainWarnings() []string {
	entries := s.log.Entries()
	s.log.Reset()
	out := make([]string, len(entries))
	for i, w := range entries {
		out[i] = w.Message
	}
	return out
}

func usage(name string) error {
	return fmt.Errorf("usage: %s", commandUsage[name])
}

func (s *session) cmdClass(args []string) (objcore.Value, string, error) {
	super := s.rt.Object()
	switch {
	case len(args) == 1:
	case len(args) == 3 && args[1] == "<":
		var err error
		if super, err = s.class(args[2]); err != nil {
			return objcore.NewNil(), "", err
		}
	default:
		return objcore.NewNil(), "", usage("class")
	}
	outer, name, err := s.splitPath(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	klass, err := s.rt.DefineClassUnder(outer, name, super)
	if err != nil {
		return objcore.NewNil(), "", err
	}
	return objcore.ClassValue(klass), "", nil
}

func (s *session) cmdModule(args []string) (objcore.Value, string, error) {
	if len(args) != 1 {
		return objcore.NewNil(), "", usage("module")
	}
	outer, name, err := s.splitPath(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	module, err := s.rt.DefineModuleUnder(outer, name)
	if err != nil {
		return objcore.NewNil(), "", err
	}
	return objcore.ClassValue(module), "", nil
}

func (s *session) cmdInclude(args []string) (objcore.Value, string, error) {
	if len(args) < 2 {
		return objcore.NewNil(), "", usage("include")
	}
	klass, err := s.class(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	for _, path := range args[1:] {
		module, err := s.class(path)
		if err != nil {
			return objcore.NewNil(), "", err
		}
		if err := s.rt.IncludeModule(klass, module); err != nil {
			return objcore.NewNil(), "", err
		}
	}
	return objcore.ClassValue(klass), "", nil
}

func (s *session) cmdExtend(args []string) (objcore.Value, string, error) {
	if len(args) < 2 {
		return objcore.NewNil(), "", usage("extend")
	}
	target, err := s.value(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	for _, path := range args[1:] {
		module, err := s.class(path)
		if err != nil {
			return objcore.NewNil(), "", err
		}
		if err := s.rt.ExtendObject(target, module); err != nil {
			return objcore.NewNil(), "", err
		}
	}
	return target, "", nil
}

func (s *session) cmdDef(args []string) (objcore.Value, string, error) {
	if len(args) < 1 || len(args) > 2 {
		return objcore.NewNil(), "", usage("def")
	}
	result := objcore.NewNil()
	if len(args) == 2 {
		var err error
		if result, err = s.value(args[1]); err != nil {
			return objcore.NewNil(), "", err
		}
	}

	if owner, name, ok := strings.Cut(args[0], "#"); ok && name != "" {
		klass, err := s.class(owner)
		if err != nil {
			return objcore.NewNil(), "", err
		}
		s.rt.DefineMethod(klass, name, constantBody(name, result), objcore.VisibilityPublic)
		return objcore.NewSymbol(name), "", nil
	}
	idx := strings.LastIndex(args[0], ".")
	if idx <= 0 || idx == len(args[0])-1 {
		return objcore.NewNil(), "", usage("def")
	}
	target, err := s.value(args[0][:idx])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	name := args[0][idx+1:]
	if err := s.rt.DefineSingletonMethod(target, name, constantBody(name, result)); err != nil {
		return objcore.NewNil(), "", err
	}
	return objcore.NewSymbol(name), "", nil
}

func constantBody(name string, result objcore.Value) *objcore.MethodBody {
	return &objcore.MethodBody{
		Name: name,
		Fn: func(rt *objcore.Runtime, recv objcore.Value, args []objcore.Value) (objcore.Value, error) {
			return result, nil
		},
	}
}

func (s *session) cmdAttr(args []string) (objcore.Value, string, error) {
	if len(args) < 2 {
		return objcore.NewNil(), "", usage("attr")
	}
	klass, err := s.class(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	for _, name := range args[1:] {
		if err := s.rt.DefineAttr(klass, name, true, true); err != nil {
			return objcore.NewNil(), "", err
		}
	}
	return objcore.ClassValue(klass), "", nil
}

func visibilityCommand(vis objcore.Visibility) commandFunc {
	return func(s *session, args []string) (objcore.Value, string, error) {
		if len(args) < 2 {
			return objcore.NewNil(), "", usage(vis.String())
		}
		klass, err := s.class(args[0])
		if err != nil {
			return objcore.NewNil(), "", err
		}
		for _, name := range args[1:] {
			if err := s.rt.SetVisibility(klass, name, vis); err != nil {
				return objcore.NewNil(), "", err
			}
		}
		return objcore.ClassValue(klass), "", nil
	}
}

func (s *session) cmdUndef(args []string) (objcore.Value, string, error) {
	if len(args) < 2 {
		return objcore.NewNil(), "", usage("undef")
	}
	klass, err := s.class(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	for _, name := range args[1:] {
		s.rt.UndefMethod(klass, name)
	}
	return objcore.ClassValue(klass), "", nil
}

func (s *session) cmdAlias(args []string) (objcore.Value, string, error) {
	if len(args) != 3 {
		return objcore.NewNil(), "", usage("alias")
	}
	klass, err := s.class(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	if err := s.rt.AliasMethod(klass, args[1], args[2]); err != nil {
		return objcore.NewNil(), "", err
	}
	return objcore.NewSymbol(args[1]), "", nil
}

func (s *session) cmdAncestors(args []string) (objcore.Value, string, error) {
	if len(args) != 1 {
		return objcore.NewNil(), "", usage("ancestors")
	}
	klass, err := s.class(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	return objcore.NewNil(), formatList(classList(s.rt.Ancestors(klass))), nil
}

func (s *session) cmdMethods(args []string) (objcore.Value, string, error) {
	recursive, args := recursiveFlag(args)
	if len(args) != 1 {
		return objcore.NewNil(), "", usage("methods")
	}
	klass, err := s.class(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	lines := []string{
		"public:    " + formatList(s.rt.PublicInstanceMethods(klass, recursive)),
		"protected: " + formatList(s.rt.ProtectedInstanceMethods(klass, recursive)),
		"private:   " + formatList(s.rt.PrivateInstanceMethods(klass, recursive)),
	}
	return objcore.NewNil(), strings.Join(lines, "\n"), nil
}

func (s *session) cmdSingleton(args []string) (objcore.Value, string, error) {
	recursive, args := recursiveFlag(args)
	if len(args) != 1 {
		return objcore.NewNil(), "", usage("singleton")
	}
	target, err := s.value(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	return objcore.NewNil(), formatList(s.rt.SingletonMethods(target, recursive)), nil
}

func (s *session) cmdNew(args []string) (objcore.Value, string, error) {
	if len(args) < 1 {
		return objcore.NewNil(), "", usage("new")
	}
	klass, err := s.class(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	vals, err := s.values(args[1:])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	obj, err := s.rt.New(klass, vals...)
	return obj, "", err
}

func (s *session) cmdSend(args []string) (objcore.Value, string, error) {
	if len(args) < 2 {
		return objcore.NewNil(), "", usage("send")
	}
	recv, err := s.value(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	vals, err := s.values(args[2:])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	result, err := s.rt.Send(recv, args[1], vals...)
	return result, "", err
}

func (s *session) cmdClone(args []string) (objcore.Value, string, error) {
	return s.copyWith("clone", args, s.rt.Clone)
}

func (s *session) cmdDup(args []string) (objcore.Value, string, error) {
	return s.copyWith("dup", args, s.rt.Dup)
}

func (s *session) copyWith(name string, args []string, copyFn func(objcore.Value) (objcore.Value, error)) (objcore.Value, string, error) {
	if len(args) != 1 {
		return objcore.NewNil(), "", usage(name)
	}
	target, err := s.value(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	copied, err := copyFn(target)
	return copied, "", err
}

func (s *session) cmdFreeze(args []string) (objcore.Value, string, error) {
	if len(args) != 1 {
		return objcore.NewNil(), "", usage("freeze")
	}
	target, err := s.value(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	return s.rt.Freeze(target), "", nil
}

func (s *session) cmdLoad(args []string) (objcore.Value, string, error) {
	if len(args) != 1 {
		return objcore.NewNil(), "", usage("load")
	}
	result, err := s.rt.LoadManifestFile(args[0])
	if err != nil {
		return objcore.NewNil(), "", err
	}
	return objcore.NewNil(), fmt.Sprintf("loaded %s", formatList(classList(result.Defined))), nil
}

// value resolves a token: a session variable, a literal, or a constant path.
func (s *session) value(tok string) (objcore.Value, error) {
	if v, ok := s.vars[tok]; ok {
		return v, nil
	}
	if v, ok := parseLiteral(tok); ok {
		return v, nil
	}
	if (tok != "" && tok[0] >= 'A' && tok[0] <= 'Z') || strings.HasPrefix(tok, "::") {
		klass, err := s.rt.ResolvePath(tok)
		if err != nil {
			return objcore.NewNil(), err
		}
		return objcore.ClassValue(klass), nil
	}
	return objcore.NewNil(), fmt.Errorf("undefined variable %s", tok)
}

func (s *session) values(toks []string) ([]objcore.Value, error) {
	out := make([]objcore.Value, len(toks))
	for i, tok := range toks {
		v, err := s.value(tok)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *session) class(tok string) (*objcore.Class, error) {
	v, err := s.value(tok)
	if err != nil {
		return nil, err
	}
	klass := v.Class()
	if klass == nil {
		return nil, fmt.Errorf("%s is not a class or module", tok)
	}
	return klass, nil
}

// splitPath separates "A::B::Name" into the resolved outer A::B and Name.
func (s *session) splitPath(path string) (*objcore.Class, string, error) {
	idx := strings.LastIndex(path, "::")
	if idx < 0 {
		return s.rt.Object(), path, nil
	}
	if idx == 0 {
		return s.rt.Object(), path[2:], nil
	}
	outer, err := s.rt.ResolvePath(path[:idx])
	if err != nil {
		return nil, "", err
	}
	return outer, path[idx+2:], nil
}

func recursiveFlag(args []string) (bool, []string) {
	idx := slices.Index(args, "-a")
	if idx < 0 {
		return false, args
	}
	return true, slices.Delete(slices.Clone(args), idx, idx+1)
}

func parseLiteral(tok string) (objcore.Value, bool) {
	switch tok {
	case "nil":
		return objcore.NewNil(), true
	case "true":
		return objcore.NewBool(true), true
	case "false":
		return objcore.NewBool(false), true
	}
	if strings.HasPrefix(tok, `"`) {
		if s, err := strconv.Unquote(tok); err == nil {
			return objcore.NewString(s), true
		}
		return objcore.NewNil(), false
	}
	if sym, ok := strings.CutPrefix(tok, ":"); ok && sym != "" && !strings.HasPrefix(sym, ":") {
		return objcore.NewSymbol(sym), true
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return objcore.NewInt(i), true
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return objcore.NewFloat(f), true
	}
	return objcore.NewNil(), false
}

// splitWords splits on whitespace, keeping double-quoted strings whole.
func splitWords(line string) ([]string, error) {
	var words []string
	for {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			return words, nil
		}
		if line[0] == '"' {
			quoted, err := strconv.QuotedPrefix(line)
			if err != nil {
				return nil, fmt.Errorf("unterminated string in %q", line)
			}
			words = append(words, quoted)
			line = line[len(quoted):]
			continue
		}
		end := strings.IndexAny(line, " \t")
		if end < 0 {
			end = len(line)
		}
		words = append(words, line[:end])
		line = line[end:]
	}
}

// splitAssignment recognizes "name = rest" with a lowercase variable name.
func splitAssignment(line string) (string, string, bool) {
	idx := strings.Index(line, "=")
	if idx <= 0 || idx+1 < len(line) && line[idx+1] == '=' {
		return "", "", false
	}
	name := strings.TrimSpace(line[:idx])
	if !isValidIdentifier(name) || name[0] >= 'A' && name[0] <= 'Z' {
		return "", "", false
	}
	return name, strings.TrimSpace(line[idx+1:]), true
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_') {
				return false
			}
		} else {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
				return false
			}
		}
	}
	return true
}

func formatList(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
