package arch

// State is a snapshot of a full register file. Its layout is opaque to the
// core and only interpreted through a Variant.
type State []uint32

// Clone returns a deep copy of s.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	ret := make(State, len(s))
	copy(ret, s)
	return ret
}

// CopyFrom overwrites s with src; extra words on either side are ignored.
func (s State) CopyFrom(src State) {
	copy(s, src)
}

// Clear zeroes every register.
func (s State) Clear() {
	for i := range s {
		s[i] = 0
	}
}

// Size returns the register file size in bytes.
func (s State) Size() uint32 {
	return uint32(len(s)) * WordSize
}
