package memory

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/device"
	"github.com/viant/kcore/service/machine"
)

func TestMachine_Words(t *testing.T) {
	m := New(arch.UMPS{})
	require.NoError(t, m.WriteWord(0x2000, 42))
	value, err := m.ReadWord(0x2000)
	assert.NoError(t, err)
	assert.EqualValues(t, 42, value)

	_, err = m.ReadWord(0x2001)
	assert.Error(t, err)
	assert.Error(t, m.WriteWord(0, 1))

	s := arch.State{1, 2, 3}
	require.NoError(t, machine.WriteState(m, 0x3000, s))
	got, err := machine.ReadState(m, 0x3000, 3)
	assert.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestMachine_Device(t *testing.T) {
	testCases := []struct {
		name    string
		variant arch.Variant
	}{
		{name: "umps", variant: arch.UMPS{}},
		{name: "uarm", variant: arch.UARM{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := tc.variant
			m := New(v, WithLatency(device.LineDisk, 10))
			status := device.FieldAddress(v, device.LineDisk, 2, device.FieldStatus)
			command := device.FieldAddress(v, device.LineDisk, 2, device.FieldCommand)

			require.NoError(t, m.WriteWord(command, 3))
			word, _ := m.ReadWord(status)
			assert.EqualValues(t, device.StatusBusy, word)
			assert.Equal(t, 1, m.Inflight())

			m.Advance(5)
			assert.False(t, m.PendingLines()[device.LineDisk])
			m.Advance(5)
			assert.True(t, m.PendingLines()[device.LineDisk])
			bitmap, _ := m.ReadWord(device.BitmapAddress(v, device.LineDisk))
			assert.EqualValues(t, 1<<2, bitmap)
			word, _ = m.ReadWord(status)
			assert.EqualValues(t, device.StatusReady, word)

			require.NoError(t, m.WriteWord(command, device.CommandAck))
			assert.False(t, m.PendingLines()[device.LineDisk])
			assert.Equal(t, 0, m.Inflight())
		})
	}
}

func TestMachine_Terminal(t *testing.T) {
	v := arch.UMPS{}
	out := &bytes.Buffer{}
	m := New(v, WithTerminalOutput(out))
	transmit := device.FieldAddress(v, device.LineTerminal, 0, device.FieldTransmCommand)
	receive := device.FieldAddress(v, device.LineTerminal, 0, device.FieldRecvCommand)

	require.NoError(t, m.WriteWord(transmit, uint32('k')<<device.CharShift|device.CommandTransmit))
	require.NoError(t, m.WriteWord(receive, device.CommandReceive))
	assert.True(t, m.Idle())
	assert.Equal(t, "k", m.Transmitted(0))
	assert.Equal(t, "k", out.String())
	word, _ := m.ReadWord(device.FieldAddress(v, device.LineTerminal, 0, device.FieldTransmStatus))
	assert.EqualValues(t, device.StatusCharDone, device.StatusCode(word))
	assert.EqualValues(t, 'k', word>>device.CharShift)

	require.NoError(t, m.WriteWord(transmit, device.CommandAck))
	assert.False(t, m.PendingLines()[device.LineTerminal])
	assert.False(t, m.Idle(), "receive waits for input")

	m.Feed(0, []byte("x"))
	assert.True(t, m.Idle())
	word, _ = m.ReadWord(device.FieldAddress(v, device.LineTerminal, 0, device.FieldRecvStatus))
	assert.EqualValues(t, 'x', word>>device.CharShift)
}

func TestMachine_Timer(t *testing.T) {
	m := New(arch.UARM{})
	assert.False(t, m.Idle())
	m.SetIntervalTimer(50)
	assert.True(t, m.Idle())
	assert.EqualValues(t, 50, m.TOD())
	assert.True(t, m.PendingLines()[device.LineIntervalTimer])
	m.SetIntervalTimer(50)
	assert.False(t, m.PendingLines()[device.LineIntervalTimer])
}

func TestMachine_Trap(t *testing.T) {
	v := arch.UMPS{}
	m := New(v)
	s := arch.New(v)
	v.SetPC(s, 0x400)
	require.NoError(t, m.Syscall(s, 8, 0x100, 0x104))

	saved, err := machine.ReadState(m, v.AreaAddress(arch.AreaSyscall, true), v.Words())
	require.NoError(t, err)
	assert.Equal(t, arch.ExceptionSyscall, v.Classify(saved))
	assert.EqualValues(t, 8, v.SyscallNumber(saved))
	assert.EqualValues(t, 0x400, v.PC(saved))
	assert.EqualValues(t, 0, v.SyscallNumber(s), "caller state is not modified")

	m.SetIntervalTimer(0)
	require.NoError(t, m.Interrupt(nil))
	saved, err = machine.ReadState(m, v.AreaAddress(arch.AreaInterrupt, true), v.Words())
	require.NoError(t, err)
	assert.Equal(t, arch.ExceptionInterrupt, v.Classify(saved))
	assert.True(t, v.PendingLines(saved)[device.LineIntervalTimer])
}
