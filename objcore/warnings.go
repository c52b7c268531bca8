package objcore

import (
	"fmt"
	"io"
	"sync"
)

type WarningKind int

const (
	// WarnClassRenamed: the requested host name was taken and a suffixed one
	// was used instead.
	WarnClassRenamed WarningKind = iota
	// WarnSuperclassAssumed: a class was defined without a superclass.
	WarnSuperclassAssumed
	// WarnCloneSubclassed: a canonical mutable built-in was "cloned" by
	// subclassing it.
	WarnCloneSubclassed
)

func (k WarningKind) String() string {
	switch k {
	case WarnClassRenamed:
		return "class-renamed"
	case WarnSuperclassAssumed:
		return "superclass-assumed"
	case WarnCloneSubclassed:
		return "clone-subclassed"
	default:
		return "warning"
	}
}

// Warning is a recoverable condition. The operation that produced it has
// already completed.
type Warning struct {
	Kind        WarningKind
	Message     string
	Name        string
	Replacement string
}

type WarningSink interface {
	Warn(w Warning)
}

// WriterSink prints one line per warning.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Warn(w Warning) {
	if s.W == nil {
		return
	}
	fmt.Fprintf(s.W, "warning: %s\n", w.Message)
}

// WarningLog collects warnings in memory.
type WarningLog struct {
	mu      sync.Mutex
	entries []Warning
}

func (l *WarningLog) Warn(w Warning) {
	l.mu.Lock()
	l.entries = append(l.entries, w)
	l.mu.Unlock()
}

func (l *WarningLog) Entries() []Warning {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Warning(nil), l.entries...)
}

func (l *WarningLog) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

type multiSink []WarningSink

func (m multiSink) Warn(w Warning) {
	for _, sink := range m {
		sink.Warn(w)
	}
}

// TeeWarnings fans a warning out to every sink.
func TeeWarnings(sinks ...WarningSink) WarningSink {
	return multiSink(sinks)
}

func (rt *Runtime) warn(w Warning) {
	rt.pending = append(rt.pending, func() {
		rt.config.Warnings.Warn(w)
	})
}
