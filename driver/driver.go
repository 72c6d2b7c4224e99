// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines the interfaces through which the rasterizer
// dispatches work onto a massively-parallel execution fabric.
// It is designed to let a given fabric (a goroutine pool over CPU
// cores, or some other data-parallel backend) be implemented without
// the rest of the module knowing about the concrete backend in use.
package driver

import (
	"errors"
	"log"
	"sync"
)

// Driver is the interface that provides methods for opening and
// closing an underlying fabric implementation.
type Driver interface {
	// Open initializes the driver and returns the Device used to
	// dispatch work and allocate device buffers.
	// If it succeeds, further calls with the same receiver have no
	// effect and must return the same Device instance.
	// Callers should assume that Open is not safe for parallel
	// execution.
	Open() (Device, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close deinitializes the driver.
	// Closing a driver that is not open has no effect.
	// Callers should assume that Close is not safe for parallel
	// execution.
	Close()
}

// ErrNoDevice means that no suitable execution fabric could be found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoDeviceMemory means that device-resident memory could not be
// allocated, either because the host is out of memory or because the
// requested allocation exceeds the device's limits.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the driver is in an unrecoverable state.
// Upon encountering such an error, the application must destroy
// everything it created using the driver's Device and then call
// Close. It may call Open again to reinitialize the driver for
// further use.
var ErrFatal = errors.New("driver: fatal error")

// Drivers returns the registered Drivers.
// Client code imports a specific driver package and that package
// calls Register from its init function. Drivers that do not
// register themselves on init are not considered for selection.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a Driver.
// Driver implementations are expected to call Register exactly once,
// from an init function. If a driver with the same name has already
// been registered, it is replaced by drv.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			log.Printf("[!] driver '%s' replaced", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	log.Printf("driver '%s' registered", drv.Name())
}

// Variables used for driver registration.
var (
	// NOTE: Currently, this mutex is unnecessary.
	mu      sync.Mutex
	drivers []Driver = make([]Driver, 0, 1)
)
