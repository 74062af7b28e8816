// Package asl keeps the processes blocked on each semaphore.
package asl

import (
	"context"
	"sort"

	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/dao"
	"github.com/viant/kcore/service/dao/criteria"
	"github.com/viant/kcore/service/dao/store"
)

// Descriptor is the blocked queue of a single semaphore, it exists only while
// at least one process waits on the semaphore.
type Descriptor struct {
	Key   uint32
	Queue *process.Queue
}

// Registry maps semaphore keys to FIFO queues of blocked processes.
type Registry struct {
	arena *process.Arena
	store *store.MemoryStore[uint32, Descriptor]
}

// Insert blocks p on key, behind the processes already waiting.
func (r *Registry) Insert(ctx context.Context, key uint32, p *process.Process) error {
	descriptor, err := r.store.Load(ctx, key)
	if err != nil {
		return err
	}
	if descriptor == nil {
		descriptor = &Descriptor{Key: key, Queue: process.NewQueue(r.arena, process.Blocked)}
	}
	if err = descriptor.Queue.Append(p); err != nil {
		return err
	}
	p.Semaphore = key
	return r.store.Save(ctx, descriptor)
}

// RemoveFirst unblocks the longest waiting process on key, it returns nil
// when nobody waits.
func (r *Registry) RemoveFirst(ctx context.Context, key uint32) (*process.Process, error) {
	descriptor, err := r.store.Load(ctx, key)
	if err != nil || descriptor == nil {
		return nil, err
	}
	p := descriptor.Queue.RemoveHead()
	return r.detached(ctx, descriptor, p)
}

// Remove takes p out of the queue it is blocked on, it returns nil when p is
// not blocked.
func (r *Registry) Remove(ctx context.Context, p *process.Process) (*process.Process, error) {
	if p == nil || p.Membership != process.Blocked {
		return nil, nil
	}
	descriptor, err := r.store.Load(ctx, p.Semaphore)
	if err != nil {
		return nil, err
	}
	if descriptor == nil {
		return nil, types.Fatalf("process %v blocked on unknown semaphore 0x%x", p.PID, p.Semaphore)
	}
	return r.detached(ctx, descriptor, descriptor.Queue.Remove(p.PID))
}

func (r *Registry) detached(ctx context.Context, descriptor *Descriptor, p *process.Process) (*process.Process, error) {
	if p != nil {
		p.Semaphore = 0
	}
	if descriptor.Queue.Len() == 0 {
		if err := r.store.Delete(ctx, descriptor.Key); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Head returns the longest waiting process on key without unblocking it.
func (r *Registry) Head(ctx context.Context, key uint32) (*process.Process, error) {
	descriptor, err := r.store.Load(ctx, key)
	if err != nil || descriptor == nil {
		return nil, err
	}
	return descriptor.Queue.Head(), nil
}

// Len returns the number of processes blocked on key.
func (r *Registry) Len(ctx context.Context, key uint32) (int, error) {
	descriptor, err := r.store.Load(ctx, key)
	if err != nil || descriptor == nil {
		return 0, err
	}
	return descriptor.Queue.Len(), nil
}

// Keys returns the sorted keys having blocked processes, a "Key" parameter
// holding a uint32 or []uint32 narrows the result.
func (r *Registry) Keys(ctx context.Context, parameters ...*dao.Parameter) ([]uint32, error) {
	descriptors, err := r.store.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]uint32, 0, len(descriptors))
	for _, descriptor := range descriptors {
		ret = append(ret, descriptor.Key)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret, nil
}

// Blocked returns the total number of blocked processes.
func (r *Registry) Blocked(ctx context.Context) (int, error) {
	descriptors, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, descriptor := range descriptors {
		total += descriptor.Queue.Len()
	}
	return total, nil
}

// New creates an empty registry over arena.
func New(arena *process.Arena) *Registry {
	return &Registry{
		arena: arena,
		store: store.NewMemoryStore[uint32, Descriptor](func(d *Descriptor) uint32 { return d.Key }).
			WithMatcher(func(d *Descriptor, parameters []*dao.Parameter) bool {
				return criteria.MatchUint32("Key", d.Key, parameters)
			}),
	}
}
