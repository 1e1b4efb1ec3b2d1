// Package obs carries the ambient logging and error-kind conventions used
// across every component: adapters, linkers, the orchestrator and the
// gateway all log and fail through this package instead of ad hoc
// fmt.Println/fmt.Errorf calls, mirroring the teacher's internal/debug and
// internal/errors packages.
package obs

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// EnableVerbose gates Printf-style diagnostic output. Flip it from the CLI
// with --verbose; it is off by default so indexing a large tree stays quiet.
var EnableVerbose = false

var (
	out   io.Writer = os.Stderr
	outMu sync.Mutex
)

// SetOutput redirects diagnostic output, primarily for tests.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

// Printf writes a verbose diagnostic line when EnableVerbose is set.
func Printf(format string, args ...interface{}) {
	if !EnableVerbose {
		return
	}
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "[wicked-search] "+format+"\n", args...)
}

// Field is a single structured key/value pair attached to a Warnf/Infof
// call, e.g. project, verb, duration.
type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

func fields(fs []Field) string {
	if len(fs) == 0 {
		return ""
	}
	s := ""
	for _, f := range fs {
		s += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	return s
}

// Warnf logs a warning with structured fields. Adapter and linker failures
// are always logged at this level, never Errorf: a single bad file must
// never abort an indexing run (spec.md §7 propagation policy).
func Warnf(msg string, fs ...Field) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "%s WARN %s%s\n", time.Now().UTC().Format(time.RFC3339), msg, fields(fs))
}

// Infof logs an informational structured line, used by the orchestrator
// and gateway for request/run correlation.
func Infof(msg string, fs ...Field) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "%s INFO %s%s\n", time.Now().UTC().Format(time.RFC3339), msg, fields(fs))
}

// Errorf logs a project-level failure. Reserved for StorageError per §7:
// the orchestrator aborts the run, so this is rare relative to Warnf.
func Errorf(msg string, fs ...Field) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, "%s ERROR %s%s\n", time.Now().UTC().Format(time.RFC3339), msg, fields(fs))
}
