// Package scheduler implements the round robin dispatcher over the ready
// queue.
package scheduler

import (
	"context"

	"github.com/viant/kcore/progress"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/runtime/process"
)

// DefaultTimeSlice is the number of interval timer ticks per dispatch.
const DefaultTimeSlice = 3000

// Service runs the head of the ready queue for one time slice.
type Service struct {
	kernel    *kernel.State
	timeSlice uint32
	aging     bool
}

// TimeSlice returns the ticks granted per dispatch.
func (s *Service) TimeSlice() uint32 {
	return s.timeSlice
}

// Schedule re-enqueues the running process, if any, and dispatches the head
// of the ready queue. With nothing ready it idles while some process is
// alive and halts otherwise.
func (s *Service) Schedule(ctx context.Context, sess *kernel.Session) error {
	k := s.kernel
	if current := k.Current; current != nil {
		k.Suspend(sess)
		if err := k.Ready.Insert(current); err != nil {
			return err
		}
	}

	next := k.Ready.RemoveHead()
	if next == nil {
		if k.Arena.InUse() == 0 {
			sess.Halt()
			k.Notify(ctx, sess, kernel.Event{Kind: kernel.EventHalted})
			return nil
		}
		sess.Idle()
		progress.UpdateCtx(ctx, progress.Delta{Idles: 1})
		k.Notify(ctx, sess, kernel.Event{Kind: kernel.EventIdle})
		return nil
	}
	if s.aging {
		k.Ready.Each(func(p *process.Process) bool {
			p.Priority++
			return true
		})
		next.Priority = next.BasePriority
	}

	now := k.Now()
	next.Time.Activate(now)
	next.Time.Resume(now)
	k.Current = next
	k.Machine.SetIntervalTimer(s.timeSlice)
	sess.Resume(next.PID, next.State)
	progress.UpdateCtx(ctx, progress.Delta{Dispatches: 1})
	k.Notify(ctx, sess, kernel.EventOf(kernel.EventDispatched, next))
	return nil
}

// New creates a scheduler and installs it into k.
func New(k *kernel.State, options ...Option) *Service {
	ret := &Service{kernel: k, timeSlice: DefaultTimeSlice}
	for _, option := range options {
		option(ret)
	}
	k.Scheduler = ret
	return ret
}

var _ kernel.Scheduler = (*Service)(nil)
