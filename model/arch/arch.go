package arch

import (
	"fmt"
	"strings"
)

// WordSize is the size of a machine word in bytes.
const WordSize = 4

// MaxLine is the number of interrupt lines decoded from the cause register.
const MaxLine = 8

// Area identifies a pair of old/new exception areas in the reserved frame.
type Area int

const (
	AreaInterrupt Area = iota
	AreaTLB
	AreaProgramTrap
	AreaSyscall
)

func (a Area) String() string {
	switch a {
	case AreaInterrupt:
		return "interrupt"
	case AreaTLB:
		return "tlb"
	case AreaProgramTrap:
		return "trap"
	case AreaSyscall:
		return "syscall"
	}
	return fmt.Sprintf("area(%d)", int(a))
}

// Exception is the hardware independent classification of a cause code.
type Exception int

const (
	ExceptionUnknown Exception = iota
	ExceptionInterrupt
	ExceptionTLB
	ExceptionProgramTrap
	ExceptionSyscall
	ExceptionBreakpoint
)

func (e Exception) String() string {
	switch e {
	case ExceptionInterrupt:
		return "interrupt"
	case ExceptionTLB:
		return "tlb"
	case ExceptionProgramTrap:
		return "trap"
	case ExceptionSyscall:
		return "syscall"
	case ExceptionBreakpoint:
		return "breakpoint"
	}
	return "unknown"
}

// Area returns the exception area the hardware uses for e.
func (e Exception) Area() Area {
	switch e {
	case ExceptionInterrupt:
		return AreaInterrupt
	case ExceptionTLB:
		return AreaTLB
	case ExceptionSyscall, ExceptionBreakpoint:
		return AreaSyscall
	}
	return AreaProgramTrap
}

// Lines is a decoded pending interrupt vector, indexed by line.
type Lines [MaxLine]bool

// Any reports whether at least one line is pending.
func (l Lines) Any() bool {
	for _, pending := range l {
		if pending {
			return true
		}
	}
	return false
}

func (l Lines) String() string {
	var b strings.Builder
	for i, pending := range l {
		if !pending {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", i)
	}
	return b.String()
}

// Variant gives the kernel access to a target's register layout. The core
// never branches on the target itself; it goes through this capability.
type Variant interface {
	// Name returns the configuration name of the variant.
	Name() string
	// Words returns the register file size in words.
	Words() int
	// AreaAddress returns the address of the old (or new) area of a.
	AreaAddress(a Area, old bool) uint32

	// Classify decodes the exception kind from the cause register.
	Classify(s State) Exception
	// Raise encodes e into the cause register.
	Raise(s State, e Exception)
	// PendingLines decodes the pending interrupt lines.
	PendingLines(s State) Lines
	// SetPendingLines encodes the pending interrupt lines.
	SetPendingLines(s State, lines Lines)

	SyscallNumber(s State) uint32
	// Argument returns syscall argument i, 1 based.
	Argument(s State, i int) uint32
	// SetSyscall loads a syscall request into the argument registers.
	SetSyscall(s State, number uint32, args ...uint32)
	Return(s State) uint32
	SetReturn(s State, value uint32)

	PC(s State) uint32
	SetPC(s State, pc uint32)
	SP(s State) uint32
	SetSP(s State, sp uint32)

	// OnSyscallEntry adjusts the saved context on a syscall entry.
	OnSyscallEntry(s State)
	// OnInterruptEntry adjusts the saved context on an interrupt entry.
	OnInterruptEntry(s State)

	DeviceRegisterBase() uint32
	BitmapBase() uint32
	// KernelDataBase is where the kernel keeps its own words, e.g. the
	// device semaphores.
	KernelDataBase() uint32
}

// New allocates a zeroed register file for v.
func New(v Variant) State {
	return make(State, v.Words())
}

// Lookup returns the variant registered under name.
func Lookup(name string) (Variant, error) {
	switch strings.ToLower(name) {
	case "", UMPSName:
		return UMPS{}, nil
	case UARMName:
		return UARM{}, nil
	}
	return nil, fmt.Errorf("unsupported arch: %q", name)
}
