// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package cpu implements the driver interfaces using a pool of
// goroutines distributed over the host's CPU cores. It is the only
// execution fabric this module ships with: every dispatch is carried
// out by a fixed-size worker pool sized to runtime.GOMAXPROCS, with
// no ordering guarantee between work items of the same dispatch.
package cpu

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gviegas/raster/driver"
)

const driverName = "cpu"

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver.
// Unlike a real GPU driver, opening it never fails, and Open returns
// the same *Device until Close is called, since the fabric is simply
// the host's own CPU cores.
type Driver struct {
	dev *Device
}

// Open initializes the driver, returning a Device backed by a
// goroutine pool sized to runtime.GOMAXPROCS(0).
func (d *Driver) Open() (driver.Device, error) {
	if d.dev == nil {
		d.dev = newDevice(d, runtime.GOMAXPROCS(0))
	}
	return d.dev, nil
}

// Name returns "cpu".
func (d *Driver) Name() string { return driverName }

// Close deinitializes the driver. Closing a driver that is not open
// has no effect.
func (d *Driver) Close() { d.dev = nil }

// Device implements driver.Device over a pool of worker goroutines.
type Device struct {
	drv     *Driver
	workers int
	lim     driver.Limits
}

// NewDevice creates a standalone Device without going through the
// driver registry, using workers concurrent goroutines per dispatch.
// If workers <= 0, runtime.GOMAXPROCS(0) is used instead.
func NewDevice(workers int) *Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return newDevice(nil, workers)
}

func newDevice(drv *Driver, workers int) *Device {
	return &Device{
		drv:     drv,
		workers: workers,
		lim: driver.Limits{
			MaxWorkers:     workers,
			MaxBufferBytes: 1 << 32, // 4GiB, an arbitrary but generous cap.
		},
	}
}

// Driver returns the Driver that owns d, or nil if d was created
// directly through NewDevice.
func (d *Device) Driver() driver.Driver {
	if d.drv == nil {
		return nil
	}
	return d.drv
}

// Limits returns the implementation limits.
func (d *Device) Limits() driver.Limits { return d.lim }

// Destroy is a no-op: the CPU fabric owns no external resources.
func (d *Device) Destroy() {}

// Dispatch1D partitions [0,n) into contiguous chunks, one per worker,
// and runs fn(i) for every index concurrently. It blocks until every
// worker has returned.
func (d *Device) Dispatch1D(n int, fn func(i int)) (err error) {
	if n <= 0 {
		return nil
	}
	workers := d.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		g.Go(func() (rerr error) {
			defer func() {
				if p := recover(); p != nil {
					rerr = &driver.DispatchFailure{Stage: "dispatch1d", Cause: p}
				}
			}()
			for i := lo; i < hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

// Dispatch2D partitions the rows of a w-by-h grid across the worker
// pool and runs fn(x,y) for every pixel concurrently. It blocks until
// every worker has returned.
func (d *Device) Dispatch2D(w, h int, fn func(x, y int)) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	return d.Dispatch1D(h, func(y int) {
		for x := 0; x < w; x++ {
			fn(x, y)
		}
	})
}
