package arch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariant_Registers(t *testing.T) {
	testCases := []struct {
		name    string
		variant Variant
		words   int
	}{
		{name: "umps", variant: UMPS{}, words: 35},
		{name: "uarm", variant: UARM{}, words: 22},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := tc.variant
			s := New(v)
			assert.Equal(t, tc.words, len(s))

			v.SetSyscall(s, 5, 0x100, 0x200, 0x300)
			assert.EqualValues(t, 5, v.SyscallNumber(s))
			assert.EqualValues(t, 0x100, v.Argument(s, 1))
			assert.EqualValues(t, 0x200, v.Argument(s, 2))
			assert.EqualValues(t, 0x300, v.Argument(s, 3))
			assert.EqualValues(t, 0, v.Argument(s, 4))

			v.SetReturn(s, 0xFFFFFFFF)
			assert.EqualValues(t, 0xFFFFFFFF, v.Return(s))

			v.SetPC(s, 0x1000)
			v.SetSP(s, 0x2000)
			assert.EqualValues(t, 0x1000, v.PC(s))
			assert.EqualValues(t, 0x2000, v.SP(s))

			for _, e := range []Exception{ExceptionInterrupt, ExceptionTLB, ExceptionProgramTrap, ExceptionSyscall, ExceptionBreakpoint} {
				v.Raise(s, e)
				assert.Equal(t, e, v.Classify(s), e.String())
			}
			v.Raise(s, ExceptionUnknown)
			assert.Equal(t, ExceptionUnknown, v.Classify(s))
		})
	}
}

func TestVariant_PendingLines(t *testing.T) {
	for _, v := range []Variant{UMPS{}, UARM{}} {
		t.Run(v.Name(), func(t *testing.T) {
			s := New(v)
			v.Raise(s, ExceptionInterrupt)
			lines := Lines{}
			lines[2] = true
			lines[7] = true
			v.SetPendingLines(s, lines)

			assert.Equal(t, lines, v.PendingLines(s))
			assert.Equal(t, ExceptionInterrupt, v.Classify(s), "pending bits must not leak into the code")
			assert.Equal(t, "2,7", v.PendingLines(s).String())

			v.SetPendingLines(s, Lines{})
			assert.False(t, v.PendingLines(s).Any())
		})
	}
}

func TestVariant_EntryAdjustments(t *testing.T) {
	umps := UMPS{}
	s := New(umps)
	umps.SetPC(s, 0x400)
	umps.OnSyscallEntry(s)
	assert.EqualValues(t, 0x404, umps.PC(s))
	umps.OnInterruptEntry(s)
	assert.EqualValues(t, 0x404, umps.PC(s))

	uarm := UARM{}
	s = New(uarm)
	uarm.SetPC(s, 0x400)
	uarm.OnSyscallEntry(s)
	assert.EqualValues(t, 0x400, uarm.PC(s))
	uarm.OnInterruptEntry(s)
	assert.EqualValues(t, 0x3FC, uarm.PC(s))
}

func TestVariant_AreaAddress(t *testing.T) {
	umps := UMPS{}
	assert.EqualValues(t, 0x20000000, umps.AreaAddress(AreaInterrupt, true))
	assert.EqualValues(t, 0x2000008C, umps.AreaAddress(AreaInterrupt, false))
	assert.EqualValues(t, 0x20000348, umps.AreaAddress(AreaSyscall, true))
	assert.EqualValues(t, 0x200003D4, umps.AreaAddress(AreaSyscall, false))

	uarm := UARM{}
	assert.EqualValues(t, 0x7000, uarm.AreaAddress(AreaInterrupt, true))
	assert.EqualValues(t, 0x7210, uarm.AreaAddress(AreaSyscall, true))
}

func TestLookup(t *testing.T) {
	v, err := Lookup("")
	assert.NoError(t, err)
	assert.Equal(t, UMPSName, v.Name())

	v, err = Lookup("uARM")
	assert.NoError(t, err)
	assert.Equal(t, UARMName, v.Name())

	_, err = Lookup("x86")
	assert.Error(t, err)
}

func TestState_Clone(t *testing.T) {
	s := State{1, 2, 3}
	clone := s.Clone()
	clone[0] = 9
	assert.EqualValues(t, 1, s[0])
	assert.EqualValues(t, 12, s.Size())
	s.Clear()
	assert.Equal(t, State{0, 0, 0}, s)
	assert.Nil(t, State(nil).Clone())
}
