package kcore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/progress"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/interrupt"
	"github.com/viant/kcore/service/lifecycle"
	"github.com/viant/kcore/service/machine"
	"github.com/viant/kcore/service/passup"
	"github.com/viant/kcore/service/semaphore"
	"github.com/viant/kcore/service/syscall"
	"github.com/viant/kcore/tracing"
)

// CPU executes the process the kernel decided to run. Both methods return
// the exception area the hardware filled once control is back in the kernel.
type CPU interface {
	// Execute runs state until the next exception.
	Execute(ctx context.Context, state arch.State) (arch.Area, error)
	// Wait idles until an interrupt is raised.
	Wait(ctx context.Context) (arch.Area, error)
}

// Entry is a process created at boot.
type Entry struct {
	State    arch.State
	Priority int
}

// Runtime is the kernel entry point. Exception cycles are serialised, which
// stands for interrupts being masked while the kernel runs.
type Runtime struct {
	mux       sync.Mutex
	kernel    *kernel.State
	semaphore *semaphore.Service
	lifecycle *lifecycle.Service
	passup    *passup.Service
	syscall   *syscall.Service
	interrupt *interrupt.Service
	progress  *progress.Progress
	last      *kernel.Decision
	halted    error
}

// Boot creates the initial processes and dispatches the first one.
func (r *Runtime) Boot(ctx context.Context, entries ...Entry) (*kernel.Decision, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.halted != nil {
		return nil, types.ErrHalted
	}
	if r.last != nil {
		return nil, fmt.Errorf("kernel already booted")
	}
	sess := kernel.NewSession(arch.ExceptionUnknown, nil)
	ctx = progress.WithTracker(ctx, r.progress)
	ctx, span := tracing.StartSpan(ctx, "kernel.boot", "INTERNAL")
	span.WithAttributes(map[string]string{"session.id": sess.ID, "entries": strconv.Itoa(len(entries))})
	var err error
	for _, entry := range entries {
		if _, err = r.lifecycle.Spawn(ctx, entry.State, entry.Priority); err != nil {
			break
		}
	}
	if err == nil {
		err = r.kernel.Yield(ctx, sess)
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	r.last = sess.Decision()
	return r.last, nil
}

// Handle serves the exception the hardware deposited in the old area of
// area and returns what the processor runs next. A fatal error halts the
// kernel for good: the returned decision is a halt and every later call
// fails with types.ErrHalted.
func (r *Runtime) Handle(ctx context.Context, area arch.Area) (*kernel.Decision, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.halted != nil {
		return nil, types.ErrHalted
	}
	k := r.kernel
	v := k.Variant
	saved, err := machine.ReadState(k.Machine, v.AreaAddress(area, true), v.Words())
	if err != nil {
		return r.halt(ctx, nil, types.Fatalf("%v old area: %v", area, err))
	}
	sess := kernel.NewSession(v.Classify(saved), saved)

	ctx = progress.WithTracker(ctx, r.progress)
	ctx, span := tracing.StartSpan(ctx, "kernel."+sess.Exception.String(), "INTERNAL")
	span.WithAttribute("session.id", sess.ID)
	if current := k.Current; current != nil {
		span.WithAttribute("pid", current.PID.String())
		current.Time.ChargeUser(k.Now())
	}
	err = r.dispatch(ctx, sess, area, span)
	if err == nil {
		err = r.resume(sess)
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return r.halt(ctx, sess, err)
	}
	r.last = sess.Decision()
	return r.last, nil
}

func (r *Runtime) dispatch(ctx context.Context, sess *kernel.Session, area arch.Area, span *tracing.Span) error {
	v := r.kernel.Variant
	if sess.Exception == arch.ExceptionUnknown {
		return types.Fatalf("unknown exception in %v area", area)
	}
	if sess.Exception.Area() != area {
		return types.Fatalf("%v exception in %v area", sess.Exception, area)
	}
	switch sess.Exception {
	case arch.ExceptionInterrupt:
		progress.UpdateCtx(ctx, progress.Delta{Interrupts: 1})
		v.OnInterruptEntry(sess.Saved)
		span.WithAttribute("lines", v.PendingLines(sess.Saved).String())
		return r.interrupt.Handle(ctx, sess)
	case arch.ExceptionSyscall:
		progress.UpdateCtx(ctx, progress.Delta{Syscalls: 1})
		v.OnSyscallEntry(sess.Saved)
		span.WithAttribute("syscall", syscall.Name(v.SyscallNumber(sess.Saved)))
		return r.syscall.Handle(ctx, sess)
	case arch.ExceptionBreakpoint:
		v.OnSyscallEntry(sess.Saved)
	}
	progress.UpdateCtx(ctx, progress.Delta{PassUps: 1})
	return r.passup.Handle(ctx, sess)
}

// resume returns the CPU to the running process when no handler decided
// otherwise.
func (r *Runtime) resume(sess *kernel.Session) error {
	if sess.Decision() != nil {
		return nil
	}
	k := r.kernel
	current, err := k.RequireCurrent()
	if err != nil {
		return err
	}
	k.Snapshot(sess)
	current.Time.ChargeKernel(k.Now())
	sess.Resume(current.PID, current.State)
	return nil
}

func (r *Runtime) halt(ctx context.Context, sess *kernel.Session, err error) (*kernel.Decision, error) {
	if !types.IsFatal(err) {
		err = fmt.Errorf("%w: %v", types.ErrFatal, err)
	}
	r.halted = err
	r.last = &kernel.Decision{Action: kernel.ActionHalt}
	log.Printf("kernel: halted: %v", err)
	r.kernel.Notify(ctx, sess, kernel.Event{Kind: kernel.EventHalted})
	return r.last, err
}

// Run drives cpu from the boot decision until the kernel halts. An orderly
// halt, with no process left, returns nil.
func (r *Runtime) Run(ctx context.Context, cpu CPU) error {
	decision := r.Decision()
	if decision == nil {
		return fmt.Errorf("kernel not booted")
	}
	for {
		var area arch.Area
		var err error
		switch decision.Action {
		case kernel.ActionHalt:
			return r.Err()
		case kernel.ActionWait:
			area, err = cpu.Wait(ctx)
		default:
			area, err = cpu.Execute(ctx, decision.State)
		}
		if err != nil {
			return err
		}
		if decision, err = r.Handle(ctx, area); err != nil {
			return err
		}
	}
}

// Decision returns the last decision taken, nil before boot.
func (r *Runtime) Decision() *kernel.Decision {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.last
}

// Err returns the fatal error that halted the kernel, nil while running or
// after an orderly halt.
func (r *Runtime) Err() error {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.halted
}

// Halted reports whether the kernel stopped.
func (r *Runtime) Halted() bool {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.halted != nil || (r.last != nil && r.last.Action == kernel.ActionHalt)
}

// Kernel returns the shared kernel state.
func (r *Runtime) Kernel() *kernel.State {
	return r.kernel
}

// Progress returns the kernel counters.
func (r *Runtime) Progress() progress.Counters {
	return r.progress.Snapshot()
}

// Semaphore returns the semaphore engine.
func (r *Runtime) Semaphore() *semaphore.Service {
	return r.semaphore
}

// Lookup returns the in-use process pid.
func (r *Runtime) Lookup(pid process.PID) (*process.Process, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.kernel.Arena.Lookup(pid)
}

// IsHalted reports whether err stopped the kernel.
func IsHalted(err error) bool {
	return errors.Is(err, types.ErrHalted) || types.IsFatal(err)
}
