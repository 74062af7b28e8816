// Package progress keeps aggregated kernel counters: exception cycles by
// kind, dispatches, idle periods, created and terminated processes and failed
// syscalls. The tracker travels in the context of an exception cycle.
package progress
