// Package memory is a simulated machine: sparse word memory, an interval
// timer, a TOD clock and devices completing commands after a latency.
package memory

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/viant/kcore/model/arch"
	"github.com/viant/kcore/model/device"
	"github.com/viant/kcore/service/machine"
)

// DefaultLatency is the number of ticks a device command takes.
const DefaultLatency = 100

type unitKey struct {
	line int
	unit int
	sub  int
}

type operation struct {
	key      unitKey
	deadline uint64
	status   uint32
}

// Machine is an in-memory machine.Machine.
type Machine struct {
	mu        sync.Mutex
	variant   arch.Variant
	words     map[uint32]uint32
	tod       uint64
	timer     uint64
	armed     bool
	latency   [arch.MaxLine]uint64
	inflight  []*operation
	input     map[int][]byte
	pending   map[unitKey]bool
	terminals map[int]*strings.Builder
	output    io.Writer
}

// New creates a machine with every device ready.
func New(variant arch.Variant, options ...Option) *Machine {
	ret := &Machine{
		variant:   variant,
		words:     make(map[uint32]uint32),
		input:     make(map[int][]byte),
		pending:   make(map[unitKey]bool),
		terminals: make(map[int]*strings.Builder),
	}
	for line := device.FirstDeviceLine; line <= device.LineTerminal; line++ {
		ret.latency[line] = DefaultLatency
		for unit := 0; unit < device.PerLine; unit++ {
			if line == device.LineTerminal {
				ret.setField(line, unit, device.FieldRecvStatus, device.StatusReady)
				ret.setField(line, unit, device.FieldTransmStatus, device.StatusReady)
				continue
			}
			ret.setField(line, unit, device.FieldStatus, device.StatusReady)
		}
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Variant returns the machine register layout.
func (m *Machine) Variant() arch.Variant {
	return m.variant
}

func (m *Machine) ReadWord(address uint32) (uint32, error) {
	if err := machine.CheckAddress(address); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.words[address], nil
}

func (m *Machine) WriteWord(address, value uint32) error {
	if err := machine.CheckAddress(address); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.words[address] = value
	m.command(address, value)
	return nil
}

func (m *Machine) TOD() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tod
}

func (m *Machine) SetIntervalTimer(ticks uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timer = m.tod + uint64(ticks)
	m.armed = true
}

// Advance moves the clocks forward, completing due device commands.
func (m *Machine) Advance(ticks uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tod += ticks
	m.complete()
}

// Idle advances the clocks to the next event and reports whether one exists.
func (m *Machine) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pendingLines().Any() {
		return true
	}
	next, ok := uint64(0), false
	if m.armed {
		next, ok = m.timer, true
	}
	for _, op := range m.inflight {
		if !m.ready(op) {
			continue
		}
		if !ok || op.deadline < next {
			next, ok = op.deadline, true
		}
	}
	if !ok {
		return false
	}
	if next > m.tod {
		m.tod = next
	}
	m.complete()
	return m.pendingLines().Any()
}

// PendingLines returns the interrupt lines currently raised.
func (m *Machine) PendingLines() arch.Lines {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingLines()
}

func (m *Machine) pendingLines() arch.Lines {
	var ret arch.Lines
	ret[device.LineIntervalTimer] = m.armed && m.tod >= m.timer
	for line := device.FirstDeviceLine; line <= device.LineTerminal; line++ {
		ret[line] = m.words[device.BitmapAddress(m.variant, line)] != 0
	}
	return ret
}

// Interrupt deposits s with the pending lines in the interrupt old area. A
// nil s stands for an idle processor.
func (m *Machine) Interrupt(s arch.State) error {
	if s == nil {
		s = arch.New(m.variant)
	} else {
		s = s.Clone()
	}
	m.variant.Raise(s, arch.ExceptionInterrupt)
	m.variant.SetPendingLines(s, m.PendingLines())
	return machine.WriteState(m, m.variant.AreaAddress(arch.AreaInterrupt, true), s)
}

// Trap deposits s in the old area of e.
func (m *Machine) Trap(s arch.State, e arch.Exception) error {
	s = s.Clone()
	m.variant.Raise(s, e)
	return machine.WriteState(m, m.variant.AreaAddress(e.Area(), true), s)
}

// Syscall loads a syscall request into s and traps.
func (m *Machine) Syscall(s arch.State, number uint32, args ...uint32) error {
	s = s.Clone()
	m.variant.SetSyscall(s, number, args...)
	return m.Trap(s, arch.ExceptionSyscall)
}

// Feed queues characters for terminal unit to receive.
func (m *Machine) Feed(unit int, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.input[unit] = append(m.input[unit], data...)
}

// Transmitted returns what terminal unit has printed so far.
func (m *Machine) Transmitted(unit int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.terminals[unit]; ok {
		return b.String()
	}
	return ""
}

// Inflight returns the number of commands still running.
func (m *Machine) Inflight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}

func (m *Machine) setField(line, unit, field int, value uint32) {
	m.words[device.FieldAddress(m.variant, line, unit, field)] = value
}

func (m *Machine) field(line, unit, field int) uint32 {
	return m.words[device.FieldAddress(m.variant, line, unit, field)]
}

// command reacts to a write into a device command register.
func (m *Machine) command(address, value uint32) {
	base := m.variant.DeviceRegisterBase()
	offset := address - base
	if address < base || offset >= device.DeviceLines*device.PerLine*device.RegisterSize {
		return
	}
	line, unit, err := device.Decode(m.variant, address-offset%device.RegisterSize)
	if err != nil {
		return
	}
	field := int(offset%device.RegisterSize) / arch.WordSize
	key := unitKey{line: line, unit: unit}
	statusField := device.FieldStatus
	switch {
	case line == device.LineTerminal && field == device.FieldTransmCommand:
		key.sub = device.SubTransmit
		statusField = device.FieldTransmStatus
	case line == device.LineTerminal && field == device.FieldRecvCommand:
		key.sub = device.SubReceive
		statusField = device.FieldRecvStatus
	case line != device.LineTerminal && field == device.FieldCommand:
	default:
		return
	}

	switch value & device.StatusMask {
	case device.CommandReset, device.CommandAck:
		m.acknowledge(key, statusField)
		return
	}
	m.setField(line, unit, statusField, device.StatusBusy)
	status := uint32(device.StatusReady)
	if line == device.LineTerminal {
		status = device.StatusCharDone
		if key.sub == device.SubTransmit {
			status |= value &^ device.StatusMask
		}
	}
	m.inflight = append(m.inflight, &operation{key: key, deadline: m.tod + m.latency[line], status: status})
}

func (m *Machine) acknowledge(key unitKey, statusField int) {
	delete(m.pending, key)
	if m.field(key.line, key.unit, statusField) != device.StatusBusy {
		m.setField(key.line, key.unit, statusField, device.StatusReady)
	}
	m.updateBitmap(key.line, key.unit)
}

func (m *Machine) complete() {
	sort.SliceStable(m.inflight, func(i, j int) bool { return m.inflight[i].deadline < m.inflight[j].deadline })
	var remaining []*operation
	for _, op := range m.inflight {
		if op.deadline > m.tod || !m.ready(op) {
			remaining = append(remaining, op)
			continue
		}
		key := op.key
		statusField := device.FieldStatus
		if key.line == device.LineTerminal {
			statusField = device.FieldTransmStatus
			if key.sub == device.SubReceive {
				statusField = device.FieldRecvStatus
				op.status = device.StatusCharDone | uint32(m.input[key.unit][0])<<device.CharShift
				m.input[key.unit] = m.input[key.unit][1:]
			} else {
				m.print(key.unit, byte(op.status>>device.CharShift))
			}
		}
		m.setField(key.line, key.unit, statusField, op.status)
		m.pending[key] = true
		m.updateBitmap(key.line, key.unit)
	}
	m.inflight = remaining
}

// ready holds back a receive until there is input to deliver.
func (m *Machine) ready(op *operation) bool {
	if op.key.line != device.LineTerminal || op.key.sub != device.SubReceive {
		return true
	}
	return len(m.input[op.key.unit]) > 0
}

func (m *Machine) print(unit int, c byte) {
	b, ok := m.terminals[unit]
	if !ok {
		b = &strings.Builder{}
		m.terminals[unit] = b
	}
	b.WriteByte(c)
	if m.output != nil {
		_, _ = m.output.Write([]byte{c})
	}
}

func (m *Machine) updateBitmap(line, unit int) {
	address := device.BitmapAddress(m.variant, line)
	bit := uint32(1) << unit
	if m.pending[unitKey{line: line, unit: unit, sub: device.SubTransmit}] ||
		m.pending[unitKey{line: line, unit: unit, sub: device.SubReceive}] {
		m.words[address] |= bit
		return
	}
	m.words[address] &^= bit
}

var _ machine.Machine = (*Machine)(nil)
