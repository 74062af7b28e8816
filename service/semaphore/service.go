// Package semaphore implements counting semaphores whose counters are words
// in machine memory.
package semaphore

import (
	"context"
	"fmt"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/device"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/runtime/process"
)

type Service struct {
	kernel *kernel.State
}

// Signal (V) increments the counter at key and readies the longest waiting
// process, which it returns, when the counter was negative.
func (s *Service) Signal(ctx context.Context, sess *kernel.Session, key uint32) (*process.Process, error) {
	k := s.kernel
	counter, err := k.ReadCounter(key)
	if err != nil {
		return nil, fmt.Errorf("semaphore 0x%x: %w", key, err)
	}
	counter++
	if err = k.WriteCounter(key, counter); err != nil {
		return nil, err
	}
	if counter > 0 {
		return nil, nil
	}
	p, err := k.Blocked.RemoveFirst(ctx, key)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, types.Fatalf("semaphore 0x%x: counter %d with no blocked process", key, counter)
	}
	if err = k.Ready.Insert(p); err != nil {
		return nil, err
	}
	k.Notify(ctx, sess, kernel.EventOf(kernel.EventWoken, p))
	return p, nil
}

// Wait (P) decrements the counter at key; when it goes negative the running
// process is blocked on key and the scheduler runs. It reports whether the
// caller was blocked.
func (s *Service) Wait(ctx context.Context, sess *kernel.Session, key uint32) (bool, error) {
	k := s.kernel
	current, err := k.RequireCurrent()
	if err != nil {
		return false, err
	}
	counter, err := k.ReadCounter(key)
	if err != nil {
		return false, fmt.Errorf("semaphore 0x%x: %w", key, err)
	}
	counter--
	if err = k.WriteCounter(key, counter); err != nil {
		return false, err
	}
	if counter >= 0 {
		return false, nil
	}
	k.Suspend(sess)
	if err = k.Blocked.Insert(ctx, key, current); err != nil {
		return false, err
	}
	k.Notify(ctx, sess, kernel.EventOf(kernel.EventBlocked, current))
	return true, k.Yield(ctx, sess)
}

// Release accounts for a blocked process leaving the queue of key without a
// signal, keeping the counter in step with the queue length.
func (s *Service) Release(key uint32) error {
	counter, err := s.kernel.ReadCounter(key)
	if err != nil {
		return err
	}
	return s.kernel.WriteCounter(key, counter+1)
}

// Counter returns the counter at key.
func (s *Service) Counter(key uint32) (int32, error) {
	return s.kernel.ReadCounter(key)
}

// DeviceKey returns the key of the device semaphore of (row, unit).
func (s *Service) DeviceKey(row, unit int) uint32 {
	return s.kernel.Variant.KernelDataBase() + uint32(row*device.PerLine+unit)*arch.WordSize
}

func New(k *kernel.State) *Service {
	return &Service{kernel: k}
}
