package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgomes/objcore/objcore"
	"golang.org/x/term"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "load":
		return loadCommand(args[2:])
	case "check":
		return checkCommand(args[2:])
	case "watch":
		return watchCommand(args[2:])
	case "repl":
		return replCommand(args[2:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

// manifestFlags parses the flags shared by the manifest commands and returns
// the manifest path plus its search directories.
func manifestFlags(name string, args []string, required bool) (string, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	var modulePaths pathList
	fs.Var(&modulePaths, "module-path", "add a manifest search directory (repeatable)")
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		if required {
			return "", nil, fmt.Errorf("objcore %s: manifest path required", name)
		}
		dirs, err := computeManifestPaths("", modulePaths)
		return "", dirs, err
	}
	manifestPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return "", nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	dirs, err := computeManifestPaths(manifestPath, modulePaths)
	if err != nil {
		return "", nil, err
	}
	return manifestPath, dirs, nil
}

func loadCommand(args []string) error {
	manifestPath, dirs, err := manifestFlags("load", args, true)
	if err != nil {
		return err
	}
	return loadAndReport(os.Stdout, manifestPath, dirs, stdoutIsTerminal())
}

func checkCommand(args []string) error {
	manifestPath, dirs, err := manifestFlags("check", args, true)
	if err != nil {
		return err
	}
	loaded, err := loadManifest(manifestPath, dirs)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	for _, w := range loaded.warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	fmt.Printf("ok (%d manifest(s), %d definition(s))\n", len(loaded.result.Manifests), len(loaded.result.Defined))
	return nil
}

func replCommand(args []string) error {
	manifestPath, dirs, err := manifestFlags("repl", args, false)
	if err != nil {
		return err
	}
	return runREPL(dirs, manifestPath)
}

type loadedManifest struct {
	rt       *objcore.Runtime
	result   *objcore.LoadResult
	warnings []objcore.Warning
}

func loadManifest(manifestPath string, dirs []string) (*loadedManifest, error) {
	log := &objcore.WarningLog{}
	rt, err := objcore.NewRuntime(objcore.Config{Warnings: log, ManifestPaths: dirs})
	if err != nil {
		return nil, err
	}
	result, err := rt.LoadManifestFile(manifestPath)
	if err != nil {
		return nil, err
	}
	return &loadedManifest{rt: rt, result: result, warnings: log.Entries()}, nil
}

func loadAndReport(w io.Writer, manifestPath string, dirs []string, styled bool) error {
	loaded, err := loadManifest(manifestPath, dirs)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	report := buildReport(loaded.rt, loaded.result, loaded.warnings)
	_, err = io.WriteString(w, report.render(styled))
	return err
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [manifest]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  load <manifest>     load a manifest and print the class report")
	fmt.Fprintln(os.Stderr, "  check <manifest>    load a manifest and report errors only")
	fmt.Fprintln(os.Stderr, "  watch <manifest>    reload and reprint whenever a manifest changes")
	fmt.Fprintln(os.Stderr, "  repl [manifest]     start an interactive session")
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  -module-path <dir>")
	fmt.Fprintln(os.Stderr, "    add a directory to manifest search paths (repeatable)")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}

type pathList []string

func (l *pathList) String() string {
	return strings.Join(*l, string(os.PathListSeparator))
}

func (l *pathList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// computeManifestPaths returns the manifest's own directory followed by the
// extra search directories, absolute and without duplicates.
func computeManifestPaths(manifestPath string, extras []string) ([]string, error) {
	seen := make(map[string]struct{})
	var dirs []string
	addPath := func(label, p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s %q: %w", label, p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("access %s %q: %w", label, abs, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s %q is not a directory", label, abs)
		}
		if _, ok := seen[abs]; ok {
			return nil
		}
		seen[abs] = struct{}{}
		dirs = append(dirs, abs)
		return nil
	}
	if manifestPath != "" {
		if err := addPath("manifest directory", filepath.Dir(manifestPath)); err != nil {
			return nil, err
		}
	}
	for _, extra := range extras {
		if err := addPath("module path", extra); err != nil {
			return nil, err
		}
	}
	return dirs, nil
}
