// Package passup delivers breakpoint, TLB and program trap exceptions to the
// handlers processes register with SPECPASSUP.
package passup

import (
	"context"
	"log"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/lifecycle"
	"github.com/viant/kcore/service/machine"
)

type Service struct {
	kernel    *kernel.State
	lifecycle *lifecycle.Service
}

// KindOf returns the handler kind serving e.
func KindOf(e arch.Exception) (process.HandlerKind, bool) {
	switch e {
	case arch.ExceptionBreakpoint, arch.ExceptionSyscall:
		return process.HandlerSysBk, true
	case arch.ExceptionTLB:
		return process.HandlerTLB, true
	case arch.ExceptionProgramTrap:
		return process.HandlerTrap, true
	}
	return 0, false
}

// Handle serves the session exception. Without a registered handler a
// breakpoint halts the kernel while TLB and program traps terminate the
// faulting process.
func (s *Service) Handle(ctx context.Context, sess *kernel.Session) error {
	kind, ok := KindOf(sess.Exception)
	if !ok {
		return types.Fatalf("no pass-up for %v exception", sess.Exception)
	}
	current, err := s.kernel.RequireCurrent()
	if err != nil {
		return err
	}
	if current.Handlers[kind].Installed {
		return s.Deliver(ctx, sess, kind)
	}
	if sess.Exception == arch.ExceptionBreakpoint {
		return types.Fatalf("breakpoint in process %v without handler", current.PID)
	}
	log.Printf("passup: process %v raised %v without handler, terminating", current.PID, sess.Exception)
	return s.lifecycle.Terminate(ctx, sess, process.None)
}

// Deliver saves the exception context at the handler old address and resumes
// the running process with the handler context.
func (s *Service) Deliver(ctx context.Context, sess *kernel.Session, kind process.HandlerKind) error {
	k := s.kernel
	current, err := k.RequireCurrent()
	if err != nil {
		return err
	}
	handler := current.Handler(kind)
	if handler == nil || !handler.Installed {
		return types.Fatalf("process %v has no %v handler", current.PID, kind)
	}
	if err = machine.WriteState(k.Machine, handler.Old, sess.Saved); err != nil {
		return err
	}
	state, err := machine.ReadState(k.Machine, handler.New, k.Variant.Words())
	if err != nil {
		return err
	}
	current.State = state
	current.Time.ChargeKernel(k.Now())
	sess.Resume(current.PID, state)
	k.Notify(ctx, sess, kernel.EventOf(kernel.EventPassUp, current))
	return nil
}

func New(k *kernel.State, lifecycle *lifecycle.Service) *Service {
	return &Service{kernel: k, lifecycle: lifecycle}
}
