// Package machine defines what the kernel needs from the hardware.
package machine

import (
	"fmt"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/types"
)

// Memory is word addressed physical memory.
type Memory interface {
	ReadWord(address uint32) (uint32, error)
	WriteWord(address, value uint32) error
}

// Machine is the hardware seen from the kernel.
type Machine interface {
	Memory
	// TOD returns the time of day clock in ticks.
	TOD() uint64
	// SetIntervalTimer arms the interval timer, acknowledging a pending
	// timer interrupt.
	SetIntervalTimer(ticks uint32)
}

// CheckAddress rejects null and misaligned word addresses.
func CheckAddress(address uint32) error {
	if address == 0 || address%arch.WordSize != 0 {
		return types.NewInvalidArgumentError("address", fmt.Sprintf("0x%x", address))
	}
	return nil
}

// ReadState reads a register file of words words at address.
func ReadState(m Memory, address uint32, words int) (arch.State, error) {
	if err := CheckAddress(address); err != nil {
		return nil, err
	}
	ret := make(arch.State, words)
	for i := range ret {
		value, err := m.ReadWord(address + uint32(i)*arch.WordSize)
		if err != nil {
			return nil, err
		}
		ret[i] = value
	}
	return ret, nil
}

// WriteState stores s at address.
func WriteState(m Memory, address uint32, s arch.State) error {
	if err := CheckAddress(address); err != nil {
		return err
	}
	for i, value := range s {
		if err := m.WriteWord(address+uint32(i)*arch.WordSize, value); err != nil {
			return err
		}
	}
	return nil
}
