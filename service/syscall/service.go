// Package syscall dispatches syscall requests to kernel operations.
package syscall

import (
	"context"
	"log"

	"github.com/viant/kcore/model/device"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/progress"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/lifecycle"
	"github.com/viant/kcore/service/machine"
	"github.com/viant/kcore/service/passup"
	"github.com/viant/kcore/service/semaphore"
)

type Service struct {
	kernel    *kernel.State
	semaphore *semaphore.Service
	lifecycle *lifecycle.Service
	passup    *passup.Service
}

// Handle runs the syscall held in the saved context. Recoverable errors are
// reported as Failure in the return slot; only fatal errors are returned.
func (s *Service) Handle(ctx context.Context, sess *kernel.Session) error {
	k := s.kernel
	v := k.Variant
	if _, err := k.RequireCurrent(); err != nil {
		return err
	}
	number := v.SyscallNumber(sess.Saved)
	a1, a2, a3 := v.Argument(sess.Saved, 1), v.Argument(sess.Saved, 2), v.Argument(sess.Saved, 3)

	var err error
	switch number {
	case GetCPUTime:
		err = s.getCPUTime(a1, a2, a3)
	case CreateProcess:
		err = s.createProcess(ctx, sess, a1, int32(a2), a3)
	case Terminate:
		err = s.terminate(ctx, sess, process.PID(a1))
	case Verhogen:
		_, err = s.semaphore.Signal(ctx, sess, a1)
	case Passeren:
		_, err = s.semaphore.Wait(ctx, sess, a1)
	case WaitIO:
		err = s.waitIO(ctx, sess, a1, a2, int(a3))
	case SpecPassUp:
		err = s.specPassUp(ctx, sess, a1, a2, a3)
	case GetPID:
		err = s.getPID(a1, a2)
	default:
		if k.Current.Handlers[process.HandlerSysBk].Installed {
			return s.passup.Deliver(ctx, sess, process.HandlerSysBk)
		}
		return types.Fatalf("unknown syscall %d", number)
	}
	return s.complete(ctx, sess, number, err)
}

func (s *Service) complete(ctx context.Context, sess *kernel.Session, number uint32, err error) error {
	if err == nil {
		return nil
	}
	if types.IsFatal(err) {
		return err
	}
	progress.UpdateCtx(ctx, progress.Delta{Failures: 1})
	log.Printf("syscall: %v failed: %v", Name(number), err)
	if !sess.Yielded() {
		s.kernel.Variant.SetReturn(sess.Saved, Failure)
	}
	return nil
}

func (s *Service) getCPUTime(user, kernelAddr, wall uint32) error {
	k := s.kernel
	current := k.Current
	now := k.Now()
	current.Time.ChargeKernel(now)
	if err := s.store(user, uint32(current.Time.User)); err != nil {
		return err
	}
	if err := s.store(kernelAddr, uint32(current.Time.Kernel)); err != nil {
		return err
	}
	return s.store(wall, uint32(current.Time.Wall(now)))
}

func (s *Service) createProcess(ctx context.Context, sess *kernel.Session, stateAddr uint32, priority int32, out uint32) error {
	k := s.kernel
	state, err := machine.ReadState(k.Machine, stateAddr, k.Variant.Words())
	if err != nil {
		return err
	}
	if out != 0 {
		if err = machine.CheckAddress(out); err != nil {
			return err
		}
	}
	child, err := s.lifecycle.Create(ctx, sess, state, int(priority))
	if err != nil {
		return err
	}
	if err = s.store(out, uint32(child.PID)); err != nil {
		return err
	}
	k.Variant.SetReturn(sess.Saved, Success)
	return k.Yield(ctx, sess)
}

func (s *Service) terminate(ctx context.Context, sess *kernel.Session, pid process.PID) error {
	if err := s.lifecycle.Terminate(ctx, sess, pid); err != nil {
		return err
	}
	if !sess.Yielded() {
		s.kernel.Variant.SetReturn(sess.Saved, Success)
	}
	return nil
}

// waitIO issues command to the device whose register block is at register
// and blocks the caller on its device semaphore. The interrupt handler posts
// the device status into the caller's return slot.
func (s *Service) waitIO(ctx context.Context, sess *kernel.Session, command, register uint32, sub int) error {
	k := s.kernel
	line, unit, err := device.Decode(k.Variant, register)
	if err != nil {
		return err
	}
	if line != device.LineTerminal {
		sub = device.SubTransmit
	}
	row, err := device.Row(line, sub)
	if err != nil {
		return err
	}
	field := device.FieldAddress(k.Variant, line, unit, device.CommandField(line, sub))
	if err = k.Machine.WriteWord(field, command); err != nil {
		return err
	}
	_, err = s.semaphore.Wait(ctx, sess, s.semaphore.DeviceKey(row, unit))
	return err
}

func (s *Service) specPassUp(ctx context.Context, sess *kernel.Session, kind, old, entry uint32) error {
	k := s.kernel
	current := k.Current
	handler := current.Handler(process.HandlerKind(kind))
	if handler == nil {
		return types.NewInvalidArgumentError("kind", kind)
	}
	if handler.Installed {
		log.Printf("syscall: process %v registered a second %v handler, terminating", current.PID, process.HandlerKind(kind))
		return s.lifecycle.Terminate(ctx, sess, process.None)
	}
	if err := machine.CheckAddress(old); err != nil {
		return err
	}
	if err := machine.CheckAddress(entry); err != nil {
		return err
	}
	*handler = process.Handler{Installed: true, Old: old, New: entry}
	k.Variant.SetReturn(sess.Saved, Success)
	return nil
}

func (s *Service) getPID(pid, parent uint32) error {
	current := s.kernel.Current
	if err := s.store(pid, uint32(current.PID)); err != nil {
		return err
	}
	return s.store(parent, uint32(current.Parent))
}

// store writes value at address, a null address skips the write.
func (s *Service) store(address, value uint32) error {
	if address == 0 {
		return nil
	}
	return s.kernel.Machine.WriteWord(address, value)
}

func New(k *kernel.State, semaphore *semaphore.Service, lifecycle *lifecycle.Service, passup *passup.Service) *Service {
	return &Service{kernel: k, semaphore: semaphore, lifecycle: lifecycle, passup: passup}
}
