package vm

import (
	"github.com/google/uuid"
	"golang.org/x/sys/cpu"

	"github.com/latticelang/lattice/ssa"
	"github.com/latticelang/lattice/types"
)

// HostFunc is the host-callback signature for an external (Blocks == nil)
// procedure (spec §4.2 "Call": "invoking a host-supplied callback with
// arguments marshalled as vmValues").
type HostFunc func(vmach *VirtualMachine, args []Value) Value

// Frame is one activation record (spec §3 "vmFrame").
type Frame struct {
	Caller    *Frame
	Proc      *ssa.Procedure
	Block     *ssa.Block
	PrevBlock *ssa.Block // the last-executed predecessor, for Phi (spec §4.2 "Phi")
	Index     int
	Values    map[int]Value // ssaValue identity -> vmValue
	ArenaCkpt int
	Result    Value
}

func (f *Frame) procName() string {
	if f == nil || f.Proc == nil {
		return "<init>"
	}
	return f.Proc.Name
}

// VirtualMachine is the interpreter's root object (spec §3
// "VirtualMachine").
type VirtualMachine struct {
	Module *ssa.Module
	Mem    *Memory
	Layout types.Layout
	Logger Logger
	ID     uuid.UUID

	Globals           map[string]Value
	ConstCompoundLits map[int]Value
	Externals         map[string]HostFunc

	frames []*Frame
	Exit   Value

	procAddrs    map[string]uint64
	procNames    map[uint64]string
	nextProcAddr uint64
}

// Init implements spec §6 "vm_init(module)": allocates the VM's memory
// and materializes the module's globals.
func Init(mod *ssa.Module, layout types.Layout, logger Logger) *VirtualMachine {
	if logger == nil {
		logger = NoopLogger
	}
	m := &VirtualMachine{
		Module:            mod,
		Mem:               NewMemory(),
		Layout:            layout,
		Logger:            logger,
		ID:                uuid.New(),
		Globals:           make(map[string]Value),
		ConstCompoundLits: make(map[int]Value),
		Externals:         make(map[string]HostFunc),
		procAddrs:         make(map[string]uint64),
		procNames:         make(map[uint64]string),
	}
	for _, g := range mod.Globals {
		m.Globals[g.Name] = m.exactValue(ssa.Value{Kind: ssa.VConstant, Type: g.Type, ConstVal: g.Init})
	}
	if cpu.IsBigEndian != layout.BigEndian() {
		m.Logger.Printf("host endianness differs from target layout; store/load will byte-swap every access")
	}
	return m
}

// Destroy releases the VM's resources (spec §6 "vm_destroy"). The heap
// and arena are process memory owned by m.Mem; dropping the reference is
// sufficient since there is no external resource to close.
func (m *VirtualMachine) Destroy() {
	m.frames = nil
	m.Globals = nil
	m.ConstCompoundLits = nil
}

// RegisterExternal installs a host callback for an external procedure,
// keyed by its link name (spec §4.2 "host-supplied callback").
func (m *VirtualMachine) RegisterExternal(name string, fn HostFunc) {
	m.Externals[name] = fn
}

// pushFrame implements spec §4.2 "Frame discipline": takes a checkpoint
// of the stack arena and creates the frame with empty values-map.
func (m *VirtualMachine) pushFrame(caller *Frame, proc *ssa.Procedure) *Frame {
	f := &Frame{
		Caller:    caller,
		Proc:      proc,
		Block:     proc.EntryBlock,
		Values:    make(map[int]Value),
		ArenaCkpt: m.Mem.Arena.Checkpoint(),
	}
	m.frames = append(m.frames, f)
	return f
}

// popFrame releases the arena checkpoint, freeing every arena (Local)
// allocation made after push.
func (m *VirtualMachine) popFrame(f *Frame) {
	m.Mem.Arena.Release(f.ArenaCkpt)
	if n := len(m.frames); n > 0 && m.frames[n-1] == f {
		m.frames = m.frames[:n-1]
	}
}

// CallProcedure implements spec §6 "vm_call_procedure(proc, args) ->
// vmValue". Faults panicked anywhere in the call are recovered only at
// this boundary (spec §7/§9) and returned as errors; they are never
// recovered inside the instruction loop itself.
func (m *VirtualMachine) CallProcedure(name string, args []Value) (result Value, err error) {
	proc := m.Module.ProcByName(name)
	if proc == nil {
		return Value{}, &Fault{Msg: "no such procedure: " + name}
	}
	defer func() {
		if r := recover(); r != nil {
			if flt, ok := r.(*Fault); ok {
				err = flt
				return
			}
			panic(r)
		}
	}()
	m.Logger.Printf("enter %s", name)
	result = m.callProcedure(nil, proc, args)
	m.Logger.Printf("exit %s -> %+v", name, primitiveTrace(result))
	m.Exit = result
	return result, nil
}

func primitiveTrace(v Value) any {
	switch v.Kind {
	case KInt64:
		return v.Int64
	case KF32:
		return v.F32
	case KF64:
		return v.F64
	case KPtr:
		return v.Ptr
	default:
		return "<composite>"
	}
}

// callProcedure runs one procedure activation to completion: external
// procedures dispatch straight to their host callback; procedures with a
// body run the block-walking instruction loop.
func (m *VirtualMachine) callProcedure(caller *Frame, proc *ssa.Procedure, args []Value) Value {
	if proc.Blocks == nil {
		fn, ok := m.Externals[proc.Name]
		if !ok {
			faultf(proc.Name, "external procedure has no registered host callback")
		}
		return fn(m, args)
	}

	if len(args) != len(proc.Params) {
		faultf(proc.Name, "wrong argument count: got %d, want %d", len(args), len(proc.Params))
	}
	f := m.pushFrame(caller, proc)
	defer m.popFrame(f)
	for i, p := range proc.Params {
		if i < len(args) {
			f.Values[p.ID] = args[i]
		}
	}
	m.runFrame(f)
	return f.Result
}

// runFrame implements spec §4.2 "Instruction loop": fetch, dispatch;
// Jump/If reset (block, index=0); Return sets block=nil and exits.
func (m *VirtualMachine) runFrame(f *Frame) {
	for f.Block != nil {
		instrs := f.Block.Instrs
		if f.Index >= len(instrs) {
			faultf(f.procName(), "block %q fell off its instruction list without a terminator", f.Block.Name)
		}
		instr := instrs[f.Index]
		f.Index++
		m.exec(f, instr)
	}
}
