// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package cpu_test

import (
	"sync/atomic"
	"testing"

	"github.com/gviegas/raster/driver"
	"github.com/gviegas/raster/driver/cpu"
)

func TestDispatch1D(t *testing.T) {
	dev := cpu.NewDevice(4)
	const n = 10007
	var hit [n]int32
	if err := dev.Dispatch1D(n, func(i int) {
		atomic.AddInt32(&hit[i], 1)
	}); err != nil {
		t.Fatalf("Dispatch1D: unexpected error: %v", err)
	}
	for i, v := range hit {
		if v != 1 {
			t.Fatalf("Dispatch1D: index %d visited %d times, want 1", i, v)
		}
	}
}

func TestDispatch2D(t *testing.T) {
	dev := cpu.NewDevice(3)
	const w, h = 37, 29
	var hit [h][w]int32
	if err := dev.Dispatch2D(w, h, func(x, y int) {
		atomic.AddInt32(&hit[y][x], 1)
	}); err != nil {
		t.Fatalf("Dispatch2D: unexpected error: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if hit[y][x] != 1 {
				t.Fatalf("Dispatch2D: pixel (%d,%d) visited %d times, want 1", x, y, hit[y][x])
			}
		}
	}
}

func TestDispatch1DRecoversPanic(t *testing.T) {
	dev := cpu.NewDevice(4)
	err := dev.Dispatch1D(16, func(i int) {
		if i == 9 {
			panic("boom")
		}
	})
	if err == nil {
		t.Fatal("Dispatch1D: expected error from panicking work item")
	}
	var df *driver.DispatchFailure
	if _, ok := err.(*driver.DispatchFailure); !ok {
		t.Fatalf("Dispatch1D: error %v is not a %T", err, df)
	}
}

func TestDeviceReusableAfterFailure(t *testing.T) {
	dev := cpu.NewDevice(2)
	_ = dev.Dispatch1D(4, func(i int) {
		if i == 0 {
			panic("first dispatch fails")
		}
	})
	if err := dev.Dispatch1D(4, func(i int) {}); err != nil {
		t.Fatalf("Dispatch1D: device unusable after prior failure: %v", err)
	}
}

func TestDriverRegistration(t *testing.T) {
	found := false
	for _, d := range driver.Drivers() {
		if d.Name() == "cpu" {
			found = true
		}
	}
	if !found {
		t.Fatal("cpu driver did not register itself")
	}
}
