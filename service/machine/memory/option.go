package memory

import "io"

type Option func(m *Machine)

// WithLatency sets how many ticks a device on line needs to complete a
// command.
func WithLatency(line int, ticks uint64) Option {
	return func(m *Machine) {
		m.latency[line] = ticks
	}
}

// WithTerminalOutput copies every transmitted character to w.
func WithTerminalOutput(w io.Writer) Option {
	return func(m *Machine) {
		m.output = w
	}
}
