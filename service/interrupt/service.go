// Package interrupt turns device completions into semaphore releases.
package interrupt

import (
	"context"
	"log"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/device"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/service/semaphore"
)

type Service struct {
	kernel    *kernel.State
	semaphore *semaphore.Service
	timeSlice uint32
}

// Handle services every pending line in ascending order, saves the
// interrupted context and yields to the scheduler.
func (s *Service) Handle(ctx context.Context, sess *kernel.Session) error {
	k := s.kernel
	if sess.Exception != arch.ExceptionInterrupt {
		return types.Fatalf("interrupt handler entered on %v exception", sess.Exception)
	}
	lines := k.Variant.PendingLines(sess.Saved)
	for line, pending := range lines {
		if !pending {
			continue
		}
		var err error
		switch line {
		case device.LineIPI, device.LineLocalTimer:
			return types.Fatalf("unsupported interrupt line %v", device.LineName(line))
		case device.LineIntervalTimer:
			k.Machine.SetIntervalTimer(s.timeSlice)
		case device.LineTerminal:
			err = s.terminal(ctx, sess)
		default:
			err = s.device(ctx, sess, line)
		}
		if err != nil {
			return err
		}
	}
	k.Snapshot(sess)
	return k.Yield(ctx, sess)
}

func (s *Service) device(ctx context.Context, sess *kernel.Session, line int) error {
	k := s.kernel
	bitmap, err := k.Machine.ReadWord(device.BitmapAddress(k.Variant, line))
	if err != nil {
		return err
	}
	row, err := device.Row(line, device.SubTransmit)
	if err != nil {
		return err
	}
	for unit := 0; unit < device.PerLine; unit++ {
		if bitmap&(1<<unit) == 0 {
			continue
		}
		status, err := k.Machine.ReadWord(device.FieldAddress(k.Variant, line, unit, device.FieldStatus))
		if err != nil {
			return err
		}
		if device.StatusCode(status) == device.StatusBusy {
			continue
		}
		if err = s.complete(ctx, sess, line, row, unit, status); err != nil {
			return err
		}
		if err = k.Machine.WriteWord(device.FieldAddress(k.Variant, line, unit, device.FieldCommand), device.CommandAck); err != nil {
			return err
		}
	}
	return nil
}

// terminal handles transmit and receive of each unit independently, an idle
// sub-device reports ready and is skipped.
func (s *Service) terminal(ctx context.Context, sess *kernel.Session) error {
	k := s.kernel
	line := device.LineTerminal
	bitmap, err := k.Machine.ReadWord(device.BitmapAddress(k.Variant, line))
	if err != nil {
		return err
	}
	subs := []struct {
		row     int
		status  int
		command int
	}{
		{row: device.RowTerminalTransmit, status: device.FieldTransmStatus, command: device.FieldTransmCommand},
		{row: device.RowTerminalReceive, status: device.FieldRecvStatus, command: device.FieldRecvCommand},
	}
	for unit := 0; unit < device.PerLine; unit++ {
		if bitmap&(1<<unit) == 0 {
			continue
		}
		for _, sub := range subs {
			status, err := k.Machine.ReadWord(device.FieldAddress(k.Variant, line, unit, sub.status))
			if err != nil {
				return err
			}
			switch device.StatusCode(status) {
			case device.StatusNotInstalled, device.StatusReady, device.StatusBusy:
				continue
			}
			if err = s.complete(ctx, sess, line, sub.row, unit, status); err != nil {
				return err
			}
			if err = k.Machine.WriteWord(device.FieldAddress(k.Variant, line, unit, sub.command), device.CommandAck); err != nil {
				return err
			}
		}
	}
	return nil
}

// complete wakes the process waiting on (row, unit) and posts status into
// its return slot.
func (s *Service) complete(ctx context.Context, sess *kernel.Session, line, row, unit int, status uint32) error {
	k := s.kernel
	key := s.semaphore.DeviceKey(row, unit)
	counter, err := s.semaphore.Counter(key)
	if err != nil {
		return err
	}
	if counter >= 0 {
		log.Printf("interrupt: %v unit %d completed with status 0x%x and no waiter", device.LineName(line), unit, status)
		return nil
	}
	p, err := s.semaphore.Signal(ctx, sess, key)
	if err != nil {
		return err
	}
	k.Variant.SetReturn(p.State, status)
	k.Notify(ctx, sess, kernel.Event{Kind: kernel.EventDevice, PID: p.PID, Line: line, Unit: unit, Status: status})
	return nil
}

func New(k *kernel.State, semaphore *semaphore.Service, timeSlice uint32) *Service {
	return &Service{kernel: k, semaphore: semaphore, timeSlice: timeSlice}
}
