package process

import (
	"fmt"

	"github.com/viant/kcore/model/arch"
)

// PID identifies an arena slot, it is the slot index plus one. Zero means no
// process.
type PID uint32

// None is the zero PID.
const None PID = 0

func (p PID) String() string {
	if p == None {
		return "none"
	}
	return fmt.Sprintf("%d", uint32(p))
}

// Membership is the single set a process belongs to.
type Membership int

const (
	// Free marks a slot in the free pool.
	Free Membership = iota
	// Unlinked marks an in-use process outside every queue, e.g. the running one.
	Unlinked
	// Ready marks a process in the ready queue.
	Ready
	// Blocked marks a process in a semaphore queue.
	Blocked
)

func (m Membership) String() string {
	switch m {
	case Free:
		return "free"
	case Unlinked:
		return "unlinked"
	case Ready:
		return "ready"
	case Blocked:
		return "blocked"
	}
	return fmt.Sprintf("membership(%d)", int(m))
}

// HandlerKind selects an entry of the custom handler table.
type HandlerKind int

const (
	HandlerSysBk HandlerKind = iota
	HandlerTLB
	HandlerTrap
	HandlerKinds
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerSysBk:
		return "sysbk"
	case HandlerTLB:
		return "tlb"
	case HandlerTrap:
		return "trap"
	}
	return fmt.Sprintf("handler(%d)", int(k))
}

// Handler is a custom exception handler registered by a process.
type Handler struct {
	Installed bool
	// Old is where the preempted state is saved.
	Old uint32
	// New is where the handler state is loaded from.
	New uint32
}

// Process is a process control block.
type Process struct {
	PID      PID
	Parent   PID
	State    arch.State
	Priority int
	// BasePriority is the priority assigned at creation, aging never
	// changes it.
	BasePriority int
	Time         Time
	Handlers     [HandlerKinds]Handler
	Membership   Membership
	// Semaphore is the key of the semaphore the process is blocked on.
	Semaphore uint32

	children []PID
}

// HasChildren reports whether the process has live children.
func (p *Process) HasChildren() bool {
	return len(p.children) > 0
}

// Handler returns the handler entry of kind.
func (p *Process) Handler(kind HandlerKind) *Handler {
	if kind < 0 || kind >= HandlerKinds {
		return nil
	}
	return &p.Handlers[kind]
}

func (p *Process) reset(pid PID) {
	*p = Process{PID: pid, Membership: Unlinked}
}
