package vm

import "fmt"

// Fault is an invariant violation (spec §7 "VM errors are invariant
// violations (bug, not user fault)"): unreachable instruction, missing
// value, type mismatch during store, wrong argument count. A Fault is
// panicked at the point of detection and recovered only at
// vm_call_procedure's boundary (spec §9 composite discipline), never
// inside the instruction loop itself.
type Fault struct {
	Proc string
	Msg  string
}

func (f *Fault) Error() string {
	if f.Proc == "" {
		return f.Msg
	}
	return fmt.Sprintf("%s: %s", f.Proc, f.Msg)
}

func faultf(proc, format string, args ...any) {
	panic(&Fault{Proc: proc, Msg: fmt.Sprintf(format, args...)})
}
