package vm

import (
	"log"
	"os"

	"github.com/google/uuid"
)

// Logger is the VM's tracing sink, modeled on the teacher's vm/log.go
// leveled-logger interface: the VM prints the procedure name on entry
// and any returned primitive value on exit as a convenience trace (spec
// §7 "User-visible behavior").
type Logger interface {
	Printf(format string, args ...any)
}

// stdLogger adapts the standard library logger, tagging every line with
// an identity drawn once per logger (not VirtualMachine.ID) so
// concurrent traces of VMs given separate loggers stay attributable --
// grounded on the teacher's request-scoped uuid tagging idiom.
type stdLogger struct {
	id  uuid.UUID
	out *log.Logger
}

// NewStdLogger returns a Logger that writes to os.Stderr, prefixed with
// a fresh identity of its own.
func NewStdLogger() Logger {
	return &stdLogger{id: uuid.New(), out: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *stdLogger) Printf(format string, args ...any) {
	l.out.Printf("[vm %s] "+format, append([]any{l.id.String()[:8]}, args...)...)
}

// NoopLogger discards every trace line; used by tests that don't want
// VM tracing in their output.
type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

var NoopLogger Logger = noopLogger{}
