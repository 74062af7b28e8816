package arch

// UMPSName is the configuration name of the MIPS based variant.
const UMPSName = "umps"

// uMPS register file: entry_hi, cause, status, pc_epc, gpr[29], hi, lo.
// gpr[i] holds r(i+1) for r1..r25, followed by gp, sp, fp, ra.
const (
	umpsEntryHi = 0
	umpsCause   = 1
	umpsStatus  = 2
	umpsPC      = 3
	umpsGPR     = 4
	umpsV0      = umpsGPR + 1
	umpsA0      = umpsGPR + 3
	umpsSP      = umpsGPR + 26
	umpsWords   = 35

	umpsExcCodeMask  = 0x7C
	umpsExcCodeShift = 2
	umpsIPShift      = 8

	umpsAreaBase = 0x20000000
	umpsAreaSize = umpsWords * WordSize
)

// uMPS cause codes.
const (
	UMPSCodeInterrupt  = 0
	UMPSCodeTLBMod     = 1
	UMPSCodeTLBLoad    = 2
	UMPSCodeTLBStore   = 3
	UMPSCodeSyscall    = 8
	UMPSCodeBreakpoint = 9
	UMPSCodeReserved   = 10
)

// UMPS is the uMPS (MIPS R3000) register layout.
type UMPS struct{}

func (UMPS) Name() string { return UMPSName }

func (UMPS) Words() int { return umpsWords }

func (UMPS) AreaAddress(a Area, old bool) uint32 {
	index := uint32(a) * 2
	if !old {
		index++
	}
	return umpsAreaBase + index*umpsAreaSize
}

func (UMPS) Classify(s State) Exception {
	switch (s[umpsCause] & umpsExcCodeMask) >> umpsExcCodeShift {
	case UMPSCodeInterrupt:
		return ExceptionInterrupt
	case UMPSCodeTLBMod, UMPSCodeTLBLoad, UMPSCodeTLBStore:
		return ExceptionTLB
	case UMPSCodeSyscall:
		return ExceptionSyscall
	case UMPSCodeBreakpoint:
		return ExceptionBreakpoint
	case 4, 5, 6, 7, UMPSCodeReserved, 11, 12:
		return ExceptionProgramTrap
	}
	return ExceptionUnknown
}

func (UMPS) Raise(s State, e Exception) {
	var code uint32
	switch e {
	case ExceptionInterrupt:
		code = UMPSCodeInterrupt
	case ExceptionTLB:
		code = UMPSCodeTLBLoad
	case ExceptionSyscall:
		code = UMPSCodeSyscall
	case ExceptionBreakpoint:
		code = UMPSCodeBreakpoint
	case ExceptionProgramTrap:
		code = UMPSCodeReserved
	default:
		code = 0x1F
	}
	s[umpsCause] = (s[umpsCause] &^ umpsExcCodeMask) | (code << umpsExcCodeShift)
}

func (UMPS) PendingLines(s State) Lines {
	var ret Lines
	ip := (s[umpsCause] >> umpsIPShift) & 0xFF
	for i := 0; i < MaxLine; i++ {
		ret[i] = ip&(1<<i) != 0
	}
	return ret
}

func (UMPS) SetPendingLines(s State, lines Lines) {
	s[umpsCause] &^= 0xFF << umpsIPShift
	for i, pending := range lines {
		if pending {
			s[umpsCause] |= 1 << (umpsIPShift + i)
		}
	}
}

func (UMPS) SyscallNumber(s State) uint32 { return s[umpsA0] }

func (UMPS) Argument(s State, i int) uint32 {
	if i < 1 || i > 3 {
		return 0
	}
	return s[umpsA0+i]
}

func (UMPS) SetSyscall(s State, number uint32, args ...uint32) {
	s[umpsA0] = number
	for i := 0; i < 3; i++ {
		var value uint32
		if i < len(args) {
			value = args[i]
		}
		s[umpsA0+1+i] = value
	}
}

func (UMPS) Return(s State) uint32 { return s[umpsV0] }

func (UMPS) SetReturn(s State, value uint32) { s[umpsV0] = value }

func (UMPS) PC(s State) uint32 { return s[umpsPC] }

func (UMPS) SetPC(s State, pc uint32) { s[umpsPC] = pc }

func (UMPS) SP(s State) uint32 { return s[umpsSP] }

func (UMPS) SetSP(s State, sp uint32) { s[umpsSP] = sp }

// OnSyscallEntry moves the PC past the SYSCALL instruction, uMPS saves the
// address of the trapping instruction itself.
func (UMPS) OnSyscallEntry(s State) { s[umpsPC] += WordSize }

func (UMPS) OnInterruptEntry(State) {}

func (UMPS) DeviceRegisterBase() uint32 { return 0x10000050 }

func (UMPS) BitmapBase() uint32 { return 0x1000003C }

func (UMPS) KernelDataBase() uint32 { return 0x20001000 }
