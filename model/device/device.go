package device

import (
	"fmt"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/types"
)

// Interrupt lines in ascending service order.
const (
	LineIPI = iota
	LineLocalTimer
	LineIntervalTimer
	LineDisk
	LineTape
	LineNetwork
	LinePrinter
	LineTerminal
)

const (
	// FirstDeviceLine is the first line backed by device registers.
	FirstDeviceLine = LineDisk
	// DeviceLines is the number of lines backed by device registers.
	DeviceLines = LineTerminal - FirstDeviceLine + 1
	// PerLine is the number of units attached to one line.
	PerLine = 8
	// RegisterWords is the size of a device register block in words.
	RegisterWords = 4
	// RegisterSize is the size of a device register block in bytes.
	RegisterSize = RegisterWords * arch.WordSize
)

// Register fields of disk, tape, network and printer devices.
const (
	FieldStatus  = 0
	FieldCommand = 1
	FieldData0   = 2
	FieldData1   = 3
)

// Register fields of terminal devices.
const (
	FieldRecvStatus    = 0
	FieldRecvCommand   = 1
	FieldTransmStatus  = 2
	FieldTransmCommand = 3
)

// Status codes, terminals report them in the low byte.
const (
	StatusNotInstalled = 0
	StatusReady        = 1
	StatusIllegalOp    = 2
	StatusBusy         = 3
	StatusError        = 4
	// StatusCharDone reports a transmitted or received character.
	StatusCharDone = 5

	StatusMask = 0xFF
	CharShift  = 8
)

// Commands.
const (
	CommandReset    = 0
	CommandAck      = 1
	CommandTransmit = 2
	CommandReceive  = 2
)

// Terminal sub-device selectors used by the wait-IO syscall.
const (
	SubTransmit = 0
	SubReceive  = 1
)

// Device semaphore rows: one per device line, terminals take two.
const (
	RowDisk = iota
	RowTape
	RowNetwork
	RowPrinter
	RowTerminalTransmit
	RowTerminalReceive
	Rows
)

// IsDeviceLine reports whether line carries device registers.
func IsDeviceLine(line int) bool {
	return line >= FirstDeviceLine && line <= LineTerminal
}

// LineName returns a human readable line name.
func LineName(line int) string {
	switch line {
	case LineIPI:
		return "ipi"
	case LineLocalTimer:
		return "local-timer"
	case LineIntervalTimer:
		return "interval-timer"
	case LineDisk:
		return "disk"
	case LineTape:
		return "tape"
	case LineNetwork:
		return "network"
	case LinePrinter:
		return "printer"
	case LineTerminal:
		return "terminal"
	}
	return fmt.Sprintf("line(%d)", line)
}

// RegisterAddress returns the base address of the register block of
// (line, unit).
func RegisterAddress(v arch.Variant, line, unit int) uint32 {
	index := uint32((line-FirstDeviceLine)*PerLine + unit)
	return v.DeviceRegisterBase() + index*RegisterSize
}

// FieldAddress returns the address of one register field.
func FieldAddress(v arch.Variant, line, unit, field int) uint32 {
	return RegisterAddress(v, line, unit) + uint32(field)*arch.WordSize
}

// BitmapAddress returns the address of the interrupting-devices bitmap of
// line.
func BitmapAddress(v arch.Variant, line int) uint32 {
	return v.BitmapBase() + uint32(line-FirstDeviceLine)*arch.WordSize
}

// Decode maps a register block base address back to (line, unit).
func Decode(v arch.Variant, address uint32) (line, unit int, err error) {
	base := v.DeviceRegisterBase()
	limit := base + DeviceLines*PerLine*RegisterSize
	if address < base || address >= limit {
		return 0, 0, types.NewInvalidArgumentError("register", fmt.Sprintf("0x%x", address))
	}
	offset := address - base
	if offset%RegisterSize != 0 {
		return 0, 0, types.NewInvalidArgumentError("register", fmt.Sprintf("0x%x", address))
	}
	index := int(offset / RegisterSize)
	return FirstDeviceLine + index/PerLine, index % PerLine, nil
}

// Row returns the device semaphore row of (line, sub).
func Row(line, sub int) (int, error) {
	if !IsDeviceLine(line) {
		return 0, types.NewInvalidArgumentError("line", line)
	}
	if line != LineTerminal {
		return line - FirstDeviceLine, nil
	}
	switch sub {
	case SubTransmit:
		return RowTerminalTransmit, nil
	case SubReceive:
		return RowTerminalReceive, nil
	}
	return 0, types.NewInvalidArgumentError("subdevice", sub)
}

// CommandField returns the register field receiving commands for
// (line, sub).
func CommandField(line, sub int) int {
	if line != LineTerminal {
		return FieldCommand
	}
	if sub == SubReceive {
		return FieldRecvCommand
	}
	return FieldTransmCommand
}

// StatusCode extracts the status code from a status word.
func StatusCode(word uint32) uint32 {
	return word & StatusMask
}
