package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/kcore/model/arch"
)

// ErrDeadlock is returned by Wait when no interrupt can ever arrive.
var ErrDeadlock = errors.New("processor idle with no pending event")

// Request is the exception a program step ends with.
type Request struct {
	Exception arch.Exception
	Syscall   uint32
	Args      []uint32
	// Ticks is the time the step takes.
	Ticks uint64
}

// Program is scripted user code. Each call runs one step on the process
// state and returns the exception ending it; the state can be modified.
type Program func(state arch.State) Request

// CPU runs programs on the machine, a program is selected by the stack
// pointer of the dispatched state.
type CPU struct {
	machine  *Machine
	programs map[uint32]Program
	steps    int
}

// NewCPU creates a processor driving m.
func NewCPU(m *Machine) *CPU {
	return &CPU{machine: m, programs: make(map[uint32]Program)}
}

// Load binds program to the processes whose stack pointer is sp.
func (c *CPU) Load(sp uint32, program Program) {
	c.programs[sp] = program
}

// Steps returns the number of program steps executed.
func (c *CPU) Steps() int {
	return c.steps
}

// Execute runs one step of the dispatched state, a pending interrupt
// preempts it before the step starts.
func (c *CPU) Execute(ctx context.Context, state arch.State) (arch.Area, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m := c.machine
	if m.PendingLines().Any() {
		return arch.AreaInterrupt, m.Interrupt(state)
	}
	program, ok := c.programs[m.variant.SP(state)]
	if !ok {
		return 0, fmt.Errorf("no program at sp 0x%x", m.variant.SP(state))
	}
	state = state.Clone()
	request := program(state)
	c.steps++
	m.Advance(request.Ticks)
	if request.Exception == arch.ExceptionSyscall {
		return arch.AreaSyscall, m.Syscall(state, request.Syscall, request.Args...)
	}
	return request.Exception.Area(), m.Trap(state, request.Exception)
}

// Wait idles until an interrupt is pending.
func (c *CPU) Wait(ctx context.Context) (arch.Area, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !c.machine.Idle() {
		return 0, ErrDeadlock
	}
	return arch.AreaInterrupt, c.machine.Interrupt(nil)
}
