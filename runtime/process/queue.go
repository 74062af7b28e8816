package process

import (
	"github.com/viant/kcore/model/types"
)

// Queue is an ordered sequence of processes sharing one membership tag. A
// process can be linked into a single queue at a time.
type Queue struct {
	arena *Arena
	tag   Membership
	items []PID
}

// NewQueue creates an empty queue whose members are tagged with tag.
func NewQueue(arena *Arena, tag Membership) *Queue {
	return &Queue{arena: arena, tag: tag}
}

// Insert links p after every member with a priority greater than or equal to
// its own.
func (q *Queue) Insert(p *Process) error {
	if err := q.link(p); err != nil {
		return err
	}
	at := len(q.items)
	for i, pid := range q.items {
		if q.arena.slots[pid-1].Priority < p.Priority {
			at = i
			break
		}
	}
	q.items = append(q.items, None)
	copy(q.items[at+1:], q.items[at:])
	q.items[at] = p.PID
	return nil
}

// Append links p at the tail.
func (q *Queue) Append(p *Process) error {
	if err := q.link(p); err != nil {
		return err
	}
	q.items = append(q.items, p.PID)
	return nil
}

func (q *Queue) link(p *Process) error {
	if p == nil {
		return types.NewInvalidArgumentError("process", nil)
	}
	if p.Membership != Unlinked {
		return types.Fatalf("process %v is %v, cannot become %v", p.PID, p.Membership, q.tag)
	}
	p.Membership = q.tag
	return nil
}

// Head returns the first member without removing it, or nil.
func (q *Queue) Head() *Process {
	if len(q.items) == 0 {
		return nil
	}
	return &q.arena.slots[q.items[0]-1]
}

// RemoveHead unlinks and returns the first member, or nil.
func (q *Queue) RemoveHead() *Process {
	p := q.Head()
	if p == nil {
		return nil
	}
	q.items = q.items[1:]
	p.Membership = Unlinked
	return p
}

// Remove unlinks the member with pid, it returns nil when pid is not queued.
func (q *Queue) Remove(pid PID) *Process {
	for i, candidate := range q.items {
		if candidate != pid {
			continue
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		p := &q.arena.slots[pid-1]
		p.Membership = Unlinked
		return p
	}
	return nil
}

// Contains reports whether pid is queued.
func (q *Queue) Contains(pid PID) bool {
	for _, candidate := range q.items {
		if candidate == pid {
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	return len(q.items)
}

// PIDs returns a copy of the queued pids in order.
func (q *Queue) PIDs() []PID {
	return append([]PID(nil), q.items...)
}

// Each visits members in order until fn returns false.
func (q *Queue) Each(fn func(p *Process) bool) {
	for _, pid := range q.items {
		if !fn(&q.arena.slots[pid-1]) {
			return
		}
	}
}
