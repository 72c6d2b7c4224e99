// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"math"
	"testing"

	"github.com/gviegas/raster/driver/cpu"
	"github.com/gviegas/raster/linear"
)

func near(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func newBuffers(w, h int) (frag []Fragment, depth, mutex []int32, fb []linear.V3) {
	n := w * h
	frag = make([]Fragment, n)
	depth = make([]int32, n)
	mutex = make([]int32, n)
	fb = make([]linear.V3, n)
	for i := range depth {
		depth[i] = clearDepth
	}
	return
}

func vertexAt(x, y, z, w float32) VertexOut {
	return VertexOut{Pos: linear.V4{x, y, z, w}, EyeNor: linear.V3{0, 0, 1}}
}

func TestRasterizeCenteredTriangle(t *testing.T) {
	const w, h = 8, 8
	frag, depth, mutex, _ := newBuffers(w, h)
	prims := []Primitive{{
		Mode: Triangles,
		V:    [3]VertexOut{vertexAt(2, 2, 0.5, 1), vertexAt(6, 2, 0.5, 1), vertexAt(4, 6, 0.5, 1)},
	}}
	dev := cpu.NewDevice(4)
	if err := dev.Dispatch1D(len(prims), rasterizePrimitives(prims, frag, depth, mutex, w, h, true)); err != nil {
		t.Fatalf("Dispatch1D: %v", err)
	}
	for _, m := range mutex {
		if m != 0 {
			t.Fatal("mutex left held after rasterize")
		}
	}
	covered := 0
	for i, f := range frag {
		if f.covered {
			covered++
			if depth[i] != int32(math.Round(math.MaxInt32*0.5)) {
				t.Fatalf("pixel %d: depth = %d, want round(INT_MAX*0.5)", i, depth[i])
			}
		}
	}
	if covered == 0 {
		t.Fatal("no pixel covered by a triangle spanning most of the viewport")
	}
	// A point clearly outside the triangle, (0,0), must not be covered.
	if frag[0*w+0].covered {
		t.Fatal("pixel (0,0) unexpectedly covered")
	}
}

func TestRasterizeZOrdering(t *testing.T) {
	const w, h = 8, 8
	frag, depth, mutex, _ := newBuffers(w, h)
	prims := []Primitive{
		{V: [3]VertexOut{vertexAt(1, 1, 0.7, 1), vertexAt(7, 1, 0.7, 1), vertexAt(4, 7, 0.7, 1)}},
		{V: [3]VertexOut{vertexAt(1, 1, 0.3, 1), vertexAt(7, 1, 0.3, 1), vertexAt(4, 7, 0.3, 1)}},
	}
	dev := cpu.NewDevice(4)
	if err := dev.Dispatch1D(len(prims), rasterizePrimitives(prims, frag, depth, mutex, w, h, true)); err != nil {
		t.Fatalf("Dispatch1D: %v", err)
	}
	// The depth key is derived from the float32 window z, so the
	// expected key uses float32(0.3), not the float64 constant.
	want := int32(math.Round(math.MaxInt32 * float64(float32(0.3))))
	centerIdx := 4*w + 4
	if depth[centerIdx] != want {
		t.Fatalf("center depth = %d, want %d (the nearer triangle must win)", depth[centerIdx], want)
	}
}

func TestRasterizeDegenerateTriangleSkipped(t *testing.T) {
	const w, h = 4, 4
	frag, depth, mutex, _ := newBuffers(w, h)
	prims := []Primitive{{V: [3]VertexOut{vertexAt(1, 1, 0.5, 1), vertexAt(2, 2, 0.5, 1), vertexAt(3, 3, 0.5, 1)}}}
	dev := cpu.NewDevice(2)
	if err := dev.Dispatch1D(len(prims), rasterizePrimitives(prims, frag, depth, mutex, w, h, true)); err != nil {
		t.Fatalf("Dispatch1D: %v", err)
	}
	for i, f := range frag {
		if f.covered {
			t.Fatalf("pixel %d covered by a zero-area (collinear) triangle", i)
		}
	}
}

func TestRasterizeOutsideViewportSkipped(t *testing.T) {
	const w, h = 4, 4
	frag, depth, mutex, _ := newBuffers(w, h)
	prims := []Primitive{{V: [3]VertexOut{vertexAt(10, 10, 0.5, 1), vertexAt(20, 10, 0.5, 1), vertexAt(15, 20, 0.5, 1)}}}
	dev := cpu.NewDevice(2)
	if err := dev.Dispatch1D(len(prims), rasterizePrimitives(prims, frag, depth, mutex, w, h, true)); err != nil {
		t.Fatalf("Dispatch1D: %v", err)
	}
	for i, f := range frag {
		if f.covered {
			t.Fatalf("pixel %d covered by a triangle entirely outside the viewport", i)
		}
	}
}

func TestRasterizeUnitNormal(t *testing.T) {
	const w, h = 8, 8
	frag, depth, mutex, _ := newBuffers(w, h)
	v0 := vertexAt(2, 2, 0.5, 1)
	v0.EyeNor = linear.V3{1, 2, 3}
	v1 := vertexAt(6, 2, 0.5, 1)
	v1.EyeNor = linear.V3{-1, 0, 2}
	v2 := vertexAt(4, 6, 0.5, 1)
	v2.EyeNor = linear.V3{0, 1, 1}
	prims := []Primitive{{V: [3]VertexOut{v0, v1, v2}}}
	dev := cpu.NewDevice(4)
	if err := dev.Dispatch1D(len(prims), rasterizePrimitives(prims, frag, depth, mutex, w, h, true)); err != nil {
		t.Fatalf("Dispatch1D: %v", err)
	}
	for i, f := range frag {
		if !f.covered {
			continue
		}
		l := f.EyeNor.Len()
		if !near(l, 1, 1e-4) {
			t.Fatalf("pixel %d: eyeNor length = %v, want 1", i, l)
		}
	}
}

func TestRasterizePerspectiveCorrectInterpolation(t *testing.T) {
	const w, h = 8, 8
	v0 := vertexAt(0, 0, 0.5, 1)
	v0.Tex = linear.V2{0, 0}
	v1 := vertexAt(8, 0, 0.5, 1)
	v1.Tex = linear.V2{1, 0}
	v2 := vertexAt(0, 8, 0.5, 2)
	v2.Tex = linear.V2{0, 1}
	prims := []Primitive{{V: [3]VertexOut{v0, v1, v2}}}

	run := func(correct bool) linear.V2 {
		frag, depth, mutex, _ := newBuffers(w, h)
		dev := cpu.NewDevice(2)
		if err := dev.Dispatch1D(len(prims), rasterizePrimitives(prims, frag, depth, mutex, w, h, correct)); err != nil {
			t.Fatalf("Dispatch1D: %v", err)
		}
		// Sample pixel (0,4), next to the midpoint of the edge v0-v2.
		// Its center (0.5,4.5) has barycentrics (0.375, 0.0625, 0.5625).
		col, row := 0, 4
		return frag[row*w+col].Tex
	}

	affine := run(false)
	corrected := run(true)
	if near(affine[1], corrected[1], 1e-4) {
		t.Fatal("perspective-correct and affine interpolation produced identical texcoords for a triangle with unequal w")
	}
	if !near(affine[1], 0.5625, 1e-4) {
		t.Fatalf("affine v at pixel center (0.5,4.5) = %v, want 0.5625", affine[1])
	}
}
