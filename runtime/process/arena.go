package process

import (
	"fmt"

	"github.com/viant/kcore/model/types"
)

// Arena is a fixed pool of process control blocks.
type Arena struct {
	slots []Process
	free  []int
}

// NewArena creates an arena with capacity slots, all free.
func NewArena(capacity int) *Arena {
	ret := &Arena{
		slots: make([]Process, capacity),
		free:  make([]int, 0, capacity),
	}
	for i := range ret.slots {
		ret.slots[i].Membership = Free
		ret.free = append(ret.free, i)
	}
	return ret
}

// Allocate takes the longest free slot out of the pool and zeroes it.
func (a *Arena) Allocate() (*Process, error) {
	if len(a.free) == 0 {
		return nil, types.ErrExhausted
	}
	index := a.free[0]
	a.free = a.free[1:]
	p := &a.slots[index]
	p.reset(PID(index + 1))
	return p, nil
}

// Release returns p to the pool. The process must be out of every queue and
// have no children.
func (a *Arena) Release(p *Process) error {
	if p == nil {
		return types.NewInvalidArgumentError("process", nil)
	}
	if _, err := a.Lookup(p.PID); err != nil {
		return err
	}
	if p.Membership != Unlinked {
		return types.Fatalf("release of %v process %v", p.Membership, p.PID)
	}
	if p.HasChildren() {
		return types.Fatalf("release of process %v with %d children", p.PID, len(p.children))
	}
	index := int(p.PID) - 1
	*p = Process{Membership: Free}
	a.free = append(a.free, index)
	return nil
}

// Lookup returns the in-use process with pid.
func (a *Arena) Lookup(pid PID) (*Process, error) {
	if pid == None || int(pid) > len(a.slots) {
		return nil, fmt.Errorf("pid %v: %w", pid, types.ErrNotFound)
	}
	p := &a.slots[pid-1]
	if p.Membership == Free {
		return nil, fmt.Errorf("pid %v: %w", pid, types.ErrNotFound)
	}
	return p, nil
}

// Capacity returns the number of slots.
func (a *Arena) Capacity() int {
	return len(a.slots)
}

// Free returns the number of free slots.
func (a *Arena) Free() int {
	return len(a.free)
}

// InUse returns the number of allocated slots.
func (a *Arena) InUse() int {
	return len(a.slots) - len(a.free)
}

// Active returns the allocated processes ordered by pid.
func (a *Arena) Active() []*Process {
	ret := make([]*Process, 0, a.InUse())
	for i := range a.slots {
		if a.slots[i].Membership != Free {
			ret = append(ret, &a.slots[i])
		}
	}
	return ret
}
