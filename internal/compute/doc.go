// Package compute provides the execution backends for per-pixel kernels.
//
// A kernel is dispatched over the rows of its output surface. Each call to
// the supplied function owns a disjoint row range, so kernels write without
// locking:
//
//   - CPU: rows split into contiguous chunks, one goroutine per worker
//   - Serial: the whole range on the calling goroutine
//
// The package selects the CPU backend by default when more than one core is
// available:
//
//	backend := compute.GetBackend()
//	backend.Dispatch(h, func(start, end int) { ... })
//
// Dispatch returns only after every row has been written, which is the
// barrier the host relies on before swapping buffers.
package compute
