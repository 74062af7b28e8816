// Package clock is the host wall clock used for event and message stamps,
// kernel accounting uses the machine TOD instead.
package clock

import "time"

// NowFunc returns the current host time.
var NowFunc = time.Now

// Now returns NowFunc().
func Now() time.Time { return NowFunc() }

// Freeze pins Now to at and returns a function restoring the previous clock.
func Freeze(at time.Time) func() {
	prev := NowFunc
	NowFunc = func() time.Time { return at }
	return func() { NowFunc = prev }
}
