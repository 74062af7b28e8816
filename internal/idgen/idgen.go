package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// NewFunc returns a new random identifier.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Sequence replaces NewFunc with a predictable prefix-N generator and returns
// a function restoring the previous one.
func Sequence(prefix string) func() {
	prev := NewFunc
	n := 0
	NewFunc = func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
	return func() { NewFunc = prev }
}
