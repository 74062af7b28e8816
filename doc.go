// Package kcore is the process management and synchronization core of a
// small single CPU kernel.
//
// The kernel owns a fixed arena of processes, a priority ordered ready
// queue, counting semaphores whose counters live in machine memory and the
// dispatchers turning syscalls and device interrupts into operations on that
// state. The hardware is reached through the machine.Machine interface; the
// register layout through an arch.Variant (uMPS or uARM).
//
// A typical embedding:
//
//	srv, _ := kcore.New(kcore.WithConfig(config))
//	rt := srv.Runtime()
//	_, _ = rt.Boot(ctx, kcore.Entry{State: init, Priority: 1})
//	err := rt.Run(ctx, cpu)
//
// Each exception cycle runs as rt.Handle(ctx, area): the saved context is
// read from the old area, the matching dispatcher mutates the kernel state
// and the returned decision tells the processor what to run next.
package kcore
