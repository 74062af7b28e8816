package syscall

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/device"
	"github.com/viant/kcore/model/types"
	"github.com/viant/kcore/runtime/kernel"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/lifecycle"
	"github.com/viant/kcore/service/machine"
	"github.com/viant/kcore/service/machine/memory"
	"github.com/viant/kcore/service/passup"
	"github.com/viant/kcore/service/scheduler"
	"github.com/viant/kcore/service/semaphore"
)

// user memory used by the tests, below the device registers
const (
	outA      = 0x00008000
	outB      = 0x00008004
	outC      = 0x00008008
	stateAt   = 0x00004000
	semKey    = 0x00009000
	oldArea   = 0x0000A000
	newArea   = 0x0000B000
	handlerPC = 0x00000C00
)

type fixture struct {
	kernel    *kernel.State
	machine   *memory.Machine
	semaphore *semaphore.Service
	lifecycle *lifecycle.Service
	service   *Service
}

// newFixture spawns one root process per priority and dispatches the first.
func newFixture(t *testing.T, capacity int, priorities ...int) *fixture {
	ctx := context.Background()
	v := arch.UMPS{}
	m := memory.New(v)
	k := kernel.New(v, m, capacity)
	scheduler.New(k)
	sem := semaphore.New(k)
	life := lifecycle.New(k, sem)
	ret := &fixture{kernel: k, machine: m, semaphore: sem, lifecycle: life, service: New(k, sem, life, passup.New(k, life))}
	for _, priority := range priorities {
		_, err := life.Spawn(ctx, arch.New(v), priority)
		require.NoError(t, err)
	}
	require.NoError(t, k.Yield(ctx, kernel.NewSession(arch.ExceptionUnknown, nil)))
	return ret
}

// call issues a syscall from the running process.
func (f *fixture) call(t *testing.T, number uint32, args ...uint32) (*kernel.Session, error) {
	k := f.kernel
	require.NotNil(t, k.Current)
	saved := k.Current.State.Clone()
	k.Variant.SetSyscall(saved, number, args...)
	k.Variant.Raise(saved, arch.ExceptionSyscall)
	k.Current.Time.ChargeUser(k.Now())
	sess := kernel.NewSession(arch.ExceptionSyscall, saved)
	return sess, f.service.Handle(context.Background(), sess)
}

func (f *fixture) word(t *testing.T, address uint32) uint32 {
	value, err := f.machine.ReadWord(address)
	require.NoError(t, err)
	return value
}

func (f *fixture) returned(sess *kernel.Session) uint32 {
	return f.kernel.Variant.Return(sess.Saved)
}

func TestService_GetPID(t *testing.T) {
	f := newFixture(t, 3, 5)
	k := f.kernel
	a := k.Current
	require.NoError(t, machine.WriteState(f.machine, stateAt, arch.New(k.Variant)))
	_, err := f.call(t, CreateProcess, stateAt, 10, 0)
	require.NoError(t, err)
	b := k.Current
	require.NotSame(t, a, b)

	testCases := []struct {
		name   string
		pid    uint32
		parent uint32
		expect map[uint32]uint32
	}{
		{name: "both", pid: outA, parent: outB, expect: map[uint32]uint32{outA: uint32(b.PID), outB: uint32(a.PID)}},
		{name: "parent only", parent: outC, expect: map[uint32]uint32{outC: uint32(a.PID)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := f.call(t, GetPID, tc.pid, tc.parent)
			require.NoError(t, err)
			assert.False(t, sess.Yielded())
			for address, value := range tc.expect {
				assert.Equal(t, value, f.word(t, address))
			}
		})
	}

	k.Current = a
	sess, err := f.call(t, GetPID, outA, outB)
	require.NoError(t, err)
	assert.False(t, sess.Yielded())
	assert.EqualValues(t, a.PID, f.word(t, outA))
	assert.EqualValues(t, process.None, f.word(t, outB), "root has no parent")
}

func TestService_GetCPUTime(t *testing.T) {
	f := newFixture(t, 1, 1)
	k := f.kernel
	current := k.Current

	f.machine.Advance(50)
	current.Time.ChargeUser(k.Now())
	f.machine.Advance(5)
	saved := current.State.Clone()
	k.Variant.SetSyscall(saved, GetCPUTime, outA, outB, outC)
	require.NoError(t, f.service.Handle(context.Background(), kernel.NewSession(arch.ExceptionSyscall, saved)))

	assert.EqualValues(t, 50, f.word(t, outA))
	assert.EqualValues(t, 5, f.word(t, outB))
	assert.EqualValues(t, 55, f.word(t, outC))
}

func TestService_CreateProcess(t *testing.T) {
	f := newFixture(t, 2, 5)
	k := f.kernel
	a := k.Current
	child := arch.New(k.Variant)
	k.Variant.SetPC(child, 0x800)
	require.NoError(t, machine.WriteState(f.machine, stateAt, child))

	sess, err := f.call(t, CreateProcess, stateAt, 10, outA)
	require.NoError(t, err)
	assert.True(t, sess.Yielded())
	b := k.Current
	require.NotSame(t, a, b)
	assert.EqualValues(t, b.PID, f.word(t, outA))
	assert.Equal(t, a.PID, b.Parent)
	assert.Equal(t, 10, b.Priority)
	assert.EqualValues(t, 0x800, k.Variant.PC(b.State))
	assert.Equal(t, Success, k.Variant.Return(a.State), "caller saved context carries the result")
	assert.Equal(t, []process.PID{a.PID}, k.Ready.PIDs())

	// arena exhausted: failure reported to the caller, no hand-off
	sess, err = f.call(t, CreateProcess, stateAt, 1, outA)
	require.NoError(t, err)
	assert.False(t, sess.Yielded())
	assert.Equal(t, Failure, f.returned(sess))
	assert.Same(t, b, k.Current)
}

func TestService_CreateProcess_InvalidArguments(t *testing.T) {
	testCases := []struct {
		name  string
		state uint32
		out   uint32
	}{
		{name: "null state", state: 0, out: outA},
		{name: "misaligned state", state: stateAt + 2, out: outA},
		{name: "misaligned output", state: stateAt, out: outA + 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 3, 1)
			sess, err := f.call(t, CreateProcess, tc.state, 1, tc.out)
			require.NoError(t, err)
			assert.Equal(t, Failure, f.returned(sess))
			assert.Equal(t, 1, f.kernel.Arena.InUse())
		})
	}
}

func TestService_Terminate(t *testing.T) {
	f := newFixture(t, 3, 5)
	k := f.kernel
	a := k.Current
	require.NoError(t, machine.WriteState(f.machine, stateAt, arch.New(k.Variant)))
	_, err := f.call(t, CreateProcess, stateAt, 1, outA)
	require.NoError(t, err)
	require.Same(t, a, k.Current, "lower priority child waits")
	child := process.PID(f.word(t, outA))

	sess, err := f.call(t, Terminate, uint32(child))
	require.NoError(t, err)
	assert.Equal(t, Success, f.returned(sess))
	assert.Equal(t, 1, k.Arena.InUse())

	sess, err = f.call(t, Terminate, 3)
	require.NoError(t, err)
	assert.Equal(t, Failure, f.returned(sess))

	sess, err = f.call(t, Terminate, 0)
	require.NoError(t, err)
	assert.True(t, sess.Yielded())
	assert.Equal(t, kernel.ActionHalt, sess.Decision().Action)
}

func TestService_PasserenVerhogen(t *testing.T) {
	f := newFixture(t, 2, 5, 1)
	k := f.kernel
	a := k.Current

	sess, err := f.call(t, Passeren, semKey)
	require.NoError(t, err)
	assert.True(t, sess.Yielded())
	assert.Equal(t, process.Blocked, a.Membership)
	b := k.Current
	require.NotNil(t, b)
	assert.EqualValues(t, 0xFFFFFFFF, f.word(t, semKey), "counter is -1")

	sess, err = f.call(t, Verhogen, semKey)
	require.NoError(t, err)
	assert.False(t, sess.Yielded())
	assert.Same(t, b, k.Current)
	assert.Equal(t, process.Ready, a.Membership)
	assert.EqualValues(t, 0, f.word(t, semKey))
}

func TestService_WaitIO(t *testing.T) {
	v := arch.UMPS{}
	testCases := []struct {
		name     string
		command  uint32
		register uint32
		sub      uint32
		row      int
		unit     int
		field    uint32
	}{
		{
			name:     "terminal transmit",
			command:  device.CommandTransmit | 'k'<<device.CharShift,
			register: device.RegisterAddress(v, device.LineTerminal, 2),
			sub:      device.SubTransmit,
			row:      device.RowTerminalTransmit,
			unit:     2,
			field:    device.FieldAddress(v, device.LineTerminal, 2, device.FieldTransmCommand),
		},
		{
			name:     "terminal receive",
			command:  device.CommandReceive,
			register: device.RegisterAddress(v, device.LineTerminal, 0),
			sub:      device.SubReceive,
			row:      device.RowTerminalReceive,
			field:    device.FieldAddress(v, device.LineTerminal, 0, device.FieldRecvCommand),
		},
		{
			name:     "disk ignores the sub-device",
			command:  3,
			register: device.RegisterAddress(v, device.LineDisk, 1),
			sub:      device.SubReceive,
			row:      device.RowDisk,
			unit:     1,
			field:    device.FieldAddress(v, device.LineDisk, 1, device.FieldCommand),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 1, 1)
			caller := f.kernel.Current
			sess, err := f.call(t, WaitIO, tc.command, tc.register, tc.sub)
			require.NoError(t, err)
			assert.True(t, sess.Yielded())
			assert.Equal(t, kernel.ActionWait, sess.Decision().Action)
			key := f.semaphore.DeviceKey(tc.row, tc.unit)
			assert.Equal(t, key, caller.Semaphore)
			counter, _ := f.semaphore.Counter(key)
			assert.EqualValues(t, -1, counter)
			assert.Equal(t, tc.command, f.word(t, tc.field))
			assert.Equal(t, 1, f.machine.Inflight())
		})
	}
}

func TestService_WaitIO_InvalidRegister(t *testing.T) {
	f := newFixture(t, 1, 1)
	sess, err := f.call(t, WaitIO, device.CommandTransmit, 0x10000044, 0)
	require.NoError(t, err)
	assert.False(t, sess.Yielded())
	assert.Equal(t, Failure, f.returned(sess))
	assert.Equal(t, 0, f.machine.Inflight())
}

func TestService_SpecPassUp(t *testing.T) {
	f := newFixture(t, 2, 5, 1)
	k := f.kernel
	a := k.Current

	testCases := []struct {
		name string
		kind uint32
		old  uint32
		entry uint32
	}{
		{name: "unknown kind", kind: 3, old: oldArea, entry: newArea},
		{name: "null old area", kind: uint32(process.HandlerTLB), old: 0, entry: newArea},
		{name: "misaligned handler", kind: uint32(process.HandlerTLB), old: oldArea, entry: newArea + 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sess, err := f.call(t, SpecPassUp, tc.kind, tc.old, tc.entry)
			require.NoError(t, err)
			assert.Equal(t, Failure, f.returned(sess))
			assert.False(t, a.Handlers[process.HandlerTLB].Installed)
		})
	}

	sess, err := f.call(t, SpecPassUp, uint32(process.HandlerSysBk), oldArea, newArea)
	require.NoError(t, err)
	assert.Equal(t, Success, f.returned(sess))
	assert.Equal(t, process.Handler{Installed: true, Old: oldArea, New: newArea}, a.Handlers[process.HandlerSysBk])

	sess, err = f.call(t, SpecPassUp, uint32(process.HandlerSysBk), oldArea, newArea)
	require.NoError(t, err)
	assert.True(t, sess.Yielded(), "second registration terminates the caller")
	_, err = k.Arena.Lookup(a.PID)
	assert.True(t, errors.Is(err, types.ErrNotFound))
	assert.NotSame(t, a, k.Current)
	assert.Equal(t, 1, k.Arena.InUse())
}

func TestService_Unknown(t *testing.T) {
	f := newFixture(t, 1, 1)
	_, err := f.call(t, 42)
	assert.True(t, types.IsFatal(err))
}

func TestService_Unknown_PassedUp(t *testing.T) {
	f := newFixture(t, 1, 1)
	k := f.kernel
	current := k.Current
	handler := arch.New(k.Variant)
	k.Variant.SetPC(handler, handlerPC)
	require.NoError(t, machine.WriteState(f.machine, newArea, handler))
	_, err := f.call(t, SpecPassUp, uint32(process.HandlerSysBk), oldArea, newArea)
	require.NoError(t, err)

	sess, err := f.call(t, 42, 7)
	require.NoError(t, err)
	decision := sess.Decision()
	require.NotNil(t, decision)
	assert.Equal(t, kernel.ActionResume, decision.Action)
	assert.Equal(t, current.PID, decision.PID)
	assert.EqualValues(t, handlerPC, k.Variant.PC(decision.State))

	old, err := machine.ReadState(f.machine, oldArea, k.Variant.Words())
	require.NoError(t, err)
	assert.EqualValues(t, 42, k.Variant.SyscallNumber(old))
	assert.EqualValues(t, 7, k.Variant.Argument(old, 1))
}
