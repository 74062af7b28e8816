package syscall

// Syscall numbers.
const (
	GetCPUTime    = 1
	CreateProcess = 2
	Terminate     = 3
	Verhogen      = 4
	Passeren      = 5
	WaitIO        = 6
	SpecPassUp    = 7
	GetPID        = 8
)

// Values written in the return slot.
const (
	Success uint32 = 0
	Failure uint32 = 0xFFFFFFFF
)

// Name returns the syscall mnemonic.
func Name(number uint32) string {
	switch number {
	case GetCPUTime:
		return "GETCPUTIME"
	case CreateProcess:
		return "CREATEPROCESS"
	case Terminate:
		return "TERMINATEPROCESS"
	case Verhogen:
		return "VERHOGEN"
	case Passeren:
		return "PASSEREN"
	case WaitIO:
		return "WAITIO"
	case SpecPassUp:
		return "SPECPASSUP"
	case GetPID:
		return "GETPID"
	}
	return "UNKNOWN"
}
