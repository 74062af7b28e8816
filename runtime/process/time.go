package process

// Time accumulates execution time in clock ticks. The mark is the instant
// the running side last changed between user and kernel mode.
type Time struct {
	User       uint64
	Kernel     uint64
	Activation uint64
	activated  bool
	mark       uint64
}

// ChargeUser closes a user mode interval at now.
func (t *Time) ChargeUser(now uint64) {
	t.User += elapsed(t.mark, now)
	t.mark = now
}

// ChargeKernel closes a kernel mode interval at now.
func (t *Time) ChargeKernel(now uint64) {
	t.Kernel += elapsed(t.mark, now)
	t.mark = now
}

// Resume restarts the interval mark, used when the process is dispatched
// after waiting outside the CPU.
func (t *Time) Resume(now uint64) {
	t.mark = now
}

// Activate records the first dispatch.
func (t *Time) Activate(now uint64) {
	if t.activated {
		return
	}
	t.activated = true
	t.Activation = now
}

// Activated reports whether the process has been dispatched at least once.
func (t *Time) Activated() bool {
	return t.activated
}

// Wall returns the ticks elapsed since the first dispatch.
func (t *Time) Wall(now uint64) uint64 {
	if !t.activated {
		return 0
	}
	return elapsed(t.Activation, now)
}

func elapsed(from, to uint64) uint64 {
	if to < from {
		return 0
	}
	return to - from
}
