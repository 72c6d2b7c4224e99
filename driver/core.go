// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"fmt"
	"unsafe"
)

// Destroyer is the interface that wraps the Destroy method.
// Every resource obtained from a Device implements it.
type Destroyer interface {
	// Destroy invalidates the resource and releases whatever storage
	// it owns. Destroying an already-destroyed resource has no effect.
	Destroy()
}

// Device is the main interface to an underlying execution fabric.
// It dispatches data-parallel kernels over vertices, primitives and
// pixels, with no assumed ordering of work items within a single
// dispatch. A Device is obtained from a call to Driver.Open.
type Device interface {
	Destroyer

	// Driver returns the Driver that owns the Device.
	Driver() Driver

	// Dispatch1D invokes fn(i) once for every i in [0,n), distributing
	// the work items over the fabric's execution units with no
	// ordering guarantee between them. It blocks until every
	// invocation has returned; when one panics, the work items not
	// yet run by that same execution unit are skipped.
	// A panic raised by fn is recovered and reported as a
	// DispatchFailure-wrapped error; the frame that issued the
	// dispatch must be discarded by the caller, but the Device
	// itself remains usable for subsequent dispatches.
	Dispatch1D(n int, fn func(i int)) error

	// Dispatch2D invokes fn(x,y) once for every (x,y) in
	// [0,w)x[0,h), distributing rows over the fabric's execution
	// units. Same panic-recovery contract as Dispatch1D.
	Dispatch2D(w, h int, fn func(x, y int)) error

	// Limits returns the implementation limits. They are immutable
	// for the lifetime of the Device.
	Limits() Limits
}

// Limits describes implementation limits of a Device.
// These may vary across fabric implementations.
type Limits struct {
	// MaxWorkers is the number of concurrent execution units the
	// Device fans work out to.
	MaxWorkers int
	// MaxBufferBytes is the largest single device buffer the
	// Device will allocate.
	MaxBufferBytes int64
}

// DispatchFailure reports that the execution fabric failed to carry
// out a dispatch (a work item panicked). The frame must be discarded;
// subsequent dispatches on the same Device may still succeed.
type DispatchFailure struct {
	Stage string // Name of the kernel that failed (e.g. "rasterize").
	Cause any    // The recovered panic value.
}

func (e *DispatchFailure) Error() string {
	return fmt.Sprintf("driver: dispatch failure in %q: %v", e.Stage, e.Cause)
}

// Buffer is an immutable, device-resident array of T.
// It models geometry and texture storage: uploaded once when a scene
// is loaded, read many times during rasterization, and released by
// Destroy at shutdown.
type Buffer[T any] struct {
	s []T
}

// NewBuffer copies data into a new device-resident Buffer.
// It returns ErrNoDeviceMemory if the buffer would exceed the
// Device's MaxBufferBytes limit.
func NewBuffer[T any](dev Device, data []T) (Buffer[T], error) {
	var zero T
	sz := int64(len(data)) * int64(unsafe.Sizeof(zero))
	if lim := dev.Limits(); lim.MaxBufferBytes > 0 && sz > lim.MaxBufferBytes {
		return Buffer[T]{}, ErrNoDeviceMemory
	}
	cp := make([]T, len(data))
	copy(cp, data)
	return Buffer[T]{s: cp}, nil
}

// Data returns the buffer's backing slice. Callers must not retain it
// across a Destroy call.
func (b *Buffer[T]) Data() []T { return b.s }

// Len returns the number of elements in the buffer.
func (b *Buffer[T]) Len() int { return len(b.s) }

// Valid reports whether the buffer holds any data.
func (b *Buffer[T]) Valid() bool { return b.s != nil }

// Destroy releases the buffer's backing storage.
func (b *Buffer[T]) Destroy() { b.s = nil }
