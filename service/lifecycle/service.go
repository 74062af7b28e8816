// Package lifecycle creates and terminates processes.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/progress"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/semaphore"
)

type Service struct {
	kernel    *kernel.State
	semaphore *semaphore.Service
}

// Spawn creates a root process, used at boot.
func (s *Service) Spawn(ctx context.Context, state arch.State, priority int) (*process.Process, error) {
	return s.create(ctx, nil, nil, state, priority)
}

// Create creates a child of the running process and makes it ready.
func (s *Service) Create(ctx context.Context, sess *kernel.Session, state arch.State, priority int) (*process.Process, error) {
	parent, err := s.kernel.RequireCurrent()
	if err != nil {
		return nil, err
	}
	return s.create(ctx, sess, parent, state, priority)
}

func (s *Service) create(ctx context.Context, sess *kernel.Session, parent *process.Process, state arch.State, priority int) (*process.Process, error) {
	k := s.kernel
	if len(state) != k.Variant.Words() {
		return nil, types.NewInvalidArgumentError("state", len(state))
	}
	p, err := k.Arena.Allocate()
	if err != nil {
		return nil, err
	}
	p.State = state.Clone()
	p.Priority = priority
	p.BasePriority = priority
	if parent != nil {
		if err = k.Arena.AttachChild(parent, p); err != nil {
			return nil, err
		}
	}
	if err = k.Ready.Insert(p); err != nil {
		return nil, err
	}
	progress.UpdateCtx(ctx, progress.Delta{Created: 1})
	k.Notify(ctx, sess, kernel.EventOf(kernel.EventCreated, p))
	return p, nil
}

// Terminate releases pid (the running process when pid is none) and its
// whole subtree. The subtree is checked before anything changes, so a
// failure leaves every process in place. When the running process is
// released the scheduler runs.
func (s *Service) Terminate(ctx context.Context, sess *kernel.Session, pid process.PID) error {
	k := s.kernel
	var target *process.Process
	var err error
	if pid == process.None {
		target, err = k.RequireCurrent()
	} else {
		target, err = k.Arena.Lookup(pid)
	}
	if err != nil {
		return err
	}

	subtree, err := k.Arena.Subtree(target)
	if err != nil {
		return err
	}
	for _, p := range subtree {
		switch {
		case p == k.Current:
		case p.Membership == process.Ready, p.Membership == process.Blocked:
		default:
			return fmt.Errorf("%w: process %v is %v", types.ErrInvalidArgument, p.PID, p.Membership)
		}
	}

	if err = k.Arena.DetachFromParent(target); err != nil {
		return err
	}
	wasCurrent := false
	if err = s.release(ctx, sess, target, &wasCurrent); err != nil {
		return err
	}
	if wasCurrent {
		k.Current = nil
		return k.Yield(ctx, sess)
	}
	return nil
}

// release frees p after its children.
func (s *Service) release(ctx context.Context, sess *kernel.Session, p *process.Process, wasCurrent *bool) error {
	k := s.kernel
	for {
		child, err := k.Arena.PopChild(p)
		if err != nil {
			return err
		}
		if child == nil {
			break
		}
		if err = s.release(ctx, sess, child, wasCurrent); err != nil {
			return err
		}
	}

	ev := kernel.EventOf(kernel.EventTerminated, p)
	switch p.Membership {
	case process.Ready:
		k.Ready.Remove(p.PID)
	case process.Blocked:
		key := p.Semaphore
		if _, err := k.Blocked.Remove(ctx, p); err != nil {
			return err
		}
		if err := s.semaphore.Release(key); err != nil {
			return err
		}
	default:
		if p != k.Current {
			return types.Fatalf("process %v is neither queued nor running", p.PID)
		}
		*wasCurrent = true
	}
	if err := k.Arena.Release(p); err != nil {
		return err
	}
	progress.UpdateCtx(ctx, progress.Delta{Terminated: 1})
	k.Notify(ctx, sess, ev)
	return nil
}

func New(k *kernel.State, semaphore *semaphore.Service) *Service {
	return &Service{kernel: k, semaphore: semaphore}
}
