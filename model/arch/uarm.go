package arch

// UARMName is the configuration name of the ARM7 based variant.
const UARMName = "uarm"

// uARM register file: a1-a4, v1-v6, sl, fp, ip, sp, lr, pc, cpsr,
// CP15_Control, CP15_EntryHi, CP15_Cause, TOD_Hi, TOD_Low.
const (
	uarmA1     = 0
	uarmSP     = 13
	uarmPC     = 15
	uarmCPSR   = 16
	uarmCause  = 19
	uarmTODHi  = 20
	uarmTODLow = 21
	uarmWords  = 22

	uarmExcCodeMask = 0x00FFFFFF
	uarmIPShift     = 24

	uarmAreaBase = 0x00007000
	uarmAreaSize = uarmWords * WordSize
)

// uARM cause codes.
const (
	UARMCodeInterrupt  = 0
	UARMCodeTLBMod     = 1
	UARMCodeTLBLoad    = 2
	UARMCodeTLBStore   = 3
	UARMCodeUndefined  = 4
	UARMCodeSyscall    = 8
	UARMCodeBreakpoint = 9
)

// UARM is the uARM (ARM7TDMI) register layout.
type UARM struct{}

func (UARM) Name() string { return UARMName }

func (UARM) Words() int { return uarmWords }

func (UARM) AreaAddress(a Area, old bool) uint32 {
	index := uint32(a) * 2
	if !old {
		index++
	}
	return uarmAreaBase + index*uarmAreaSize
}

func (UARM) Classify(s State) Exception {
	switch s[uarmCause] & uarmExcCodeMask {
	case UARMCodeInterrupt:
		return ExceptionInterrupt
	case UARMCodeTLBMod, UARMCodeTLBLoad, UARMCodeTLBStore:
		return ExceptionTLB
	case UARMCodeSyscall:
		return ExceptionSyscall
	case UARMCodeBreakpoint:
		return ExceptionBreakpoint
	case UARMCodeUndefined, 5, 6, 7:
		return ExceptionProgramTrap
	}
	return ExceptionUnknown
}

func (UARM) Raise(s State, e Exception) {
	var code uint32
	switch e {
	case ExceptionInterrupt:
		code = UARMCodeInterrupt
	case ExceptionTLB:
		code = UARMCodeTLBLoad
	case ExceptionSyscall:
		code = UARMCodeSyscall
	case ExceptionBreakpoint:
		code = UARMCodeBreakpoint
	case ExceptionProgramTrap:
		code = UARMCodeUndefined
	default:
		code = uarmExcCodeMask
	}
	s[uarmCause] = (s[uarmCause] &^ uarmExcCodeMask) | code
}

func (UARM) PendingLines(s State) Lines {
	var ret Lines
	for i := 0; i < MaxLine; i++ {
		ret[i] = s[uarmCause]&(1<<(uarmIPShift+i)) != 0
	}
	return ret
}

func (UARM) SetPendingLines(s State, lines Lines) {
	s[uarmCause] &= uarmExcCodeMask
	for i, pending := range lines {
		if pending {
			s[uarmCause] |= 1 << (uarmIPShift + i)
		}
	}
}

// uARM passes the syscall number in a1 and returns the result there too.

func (UARM) SyscallNumber(s State) uint32 { return s[uarmA1] }

func (UARM) Argument(s State, i int) uint32 {
	if i < 1 || i > 3 {
		return 0
	}
	return s[uarmA1+i]
}

func (UARM) SetSyscall(s State, number uint32, args ...uint32) {
	s[uarmA1] = number
	for i := 0; i < 3; i++ {
		var value uint32
		if i < len(args) {
			value = args[i]
		}
		s[uarmA1+1+i] = value
	}
}

func (UARM) Return(s State) uint32 { return s[uarmA1] }

func (UARM) SetReturn(s State, value uint32) { s[uarmA1] = value }

func (UARM) PC(s State) uint32 { return s[uarmPC] }

func (UARM) SetPC(s State, pc uint32) { s[uarmPC] = pc }

func (UARM) SP(s State) uint32 { return s[uarmSP] }

func (UARM) SetSP(s State, sp uint32) { s[uarmSP] = sp }

func (UARM) OnSyscallEntry(State) {}

// OnInterruptEntry rewinds the PC, an interrupt on uARM lands after the
// interrupted instruction has been fetched but not executed.
func (UARM) OnInterruptEntry(s State) { s[uarmPC] -= WordSize }

func (UARM) DeviceRegisterBase() uint32 { return 0x00000040 }

func (UARM) BitmapBase() uint32 { return 0x00006FE0 }

func (UARM) KernelDataBase() uint32 { return 0x00009000 }
