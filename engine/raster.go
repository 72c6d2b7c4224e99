// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"math"
	"runtime"
	"sync/atomic"

	"github.com/gviegas/raster/linear"
)

// clearDepth is the sentinel depth value a pixel holds before any
// triangle has covered it. It doubles as "no coverage" for callers
// that inspect the depth buffer directly.
const clearDepth = math.MaxInt32

// Fragment is what the rasterizer writes for the winning primitive at
// a covered pixel (§4.3), and what the fragment shader later reads.
type Fragment struct {
	EyePos linear.V3
	EyeNor linear.V3
	Col    linear.V3
	Tex    linear.V2

	HasTex bool
	Tex2D  *Texture
	TexW   int
	TexH   int

	// UVStart is the byte index into Tex2D's packed RGB storage for
	// nearest-mode sampling (§4.3 step 5).
	UVStart int
	// BilinearU, BilinearV are the pixel-space texture coordinates
	// used for bilinear sampling.
	BilinearU float32
	BilinearV float32

	// ZBary is the barycentric-interpolated window depth, used by the
	// DEBUG_Z visualization mode (§4.4).
	ZBary float32

	covered bool
}

// edge computes twice the signed area of the triangle (a,b,c) in
// window-space xy. Its sign is the rasterizer's winding convention:
// a pixel is inside the triangle when all three edge evaluations
// share the sign of the triangle's own (a,b,c) area.
func edge(ax, ay, bx, by, cx, cy float32) float32 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

// rasterizePrimitives implements the Rasterizer stage (§4.3) over the
// flat primitive array prims, writing into frag/depth/mutex. It is
// dispatched one work item per primitive, each of which scans its own
// bounding box and resolves per-pixel depth ties through the mutex
// spinlock discipline described in §5.
//
// Pixel sampling uses the pixel-center convention (col+0.5,row+0.5),
// per the Open Question resolution in SPEC_FULL.md rather than the
// source's pixel-corner convention.
func rasterizePrimitives(prims []Primitive, frag []Fragment, depth, mutex []int32, width, height int, correctInterp bool) func(p int) {
	return func(p int) {
		prim := &prims[p]
		t0, t1, t2 := &prim.V[0].Pos, &prim.V[1].Pos, &prim.V[2].Pos

		minX := int(math.Floor(float64(min3(t0[0], t1[0], t2[0]))))
		minY := int(math.Floor(float64(min3(t0[1], t1[1], t2[1]))))
		maxX := int(math.Ceil(float64(max3(t0[0], t1[0], t2[0]))))
		maxY := int(math.Ceil(float64(max3(t0[1], t1[1], t2[1]))))
		if minX < 0 {
			minX = 0
		}
		if minY < 0 {
			minY = 0
		}
		if maxX > width {
			maxX = width
		}
		if maxY > height {
			maxY = height
		}
		if minX >= maxX || minY >= maxY {
			return
		}

		area := edge(t0[0], t0[1], t1[0], t1[1], t2[0], t2[1])
		if area == 0 {
			return // Degenerate (zero-area) triangle; §4.3 edge case.
		}

		w0, w1, w2 := prim.V[0].Pos[3], prim.V[1].Pos[3], prim.V[2].Pos[3]

		for row := minY; row < maxY; row++ {
			py := float32(row) + 0.5
			for col := minX; col < maxX; col++ {
				px := float32(col) + 0.5

				e0 := edge(t1[0], t1[1], t2[0], t2[1], px, py)
				e1 := edge(t2[0], t2[1], t0[0], t0[1], px, py)
				e2 := edge(t0[0], t0[1], t1[0], t1[1], px, py)

				l0 := e0 / area
				l1 := e1 / area
				l2 := e2 / area
				if l0 < 0 || l0 > 1 || l1 < 0 || l1 > 1 || l2 < 0 || l2 > 1 {
					continue
				}

				z := l0*t0[2] + l1*t1[2] + l2*t2[2]
				newDepth := int32(math.Round(float64(clearDepth) * float64(z)))

				i := row*width + col
				spinAcquire(mutex, i)
				if newDepth < depth[i] {
					depth[i] = newDepth
					writeFragment(&frag[i], prim, l0, l1, l2, w0, w1, w2, z, correctInterp)
				}
				atomic.StoreInt32(&mutex[i], 0)
			}
		}
	}
}

// spinAcquire acquires mutex[i] via compare-and-swap 0->1, retrying
// until it succeeds. Backing off with runtime.Gosched lets other
// goroutines progress instead of busy-spinning the OS thread; every
// acquirer is a real goroutine so forward progress is always
// possible, unlike on a GPU thread group with divergent-branch
// serialization (§5 Deadlock avoidance).
func spinAcquire(mutex []int32, i int) {
	for !atomic.CompareAndSwapInt32(&mutex[i], 0, 1) {
		runtime.Gosched()
	}
}

func writeFragment(f *Fragment, prim *Primitive, l0, l1, l2, w0, w1, w2, z float32, correctInterp bool) {
	v0, v1, v2 := &prim.V[0], &prim.V[1], &prim.V[2]

	var col linear.V3
	var eyePos linear.V3
	var eyeNor linear.V3
	var tex linear.V2

	if correctInterp {
		ws := 1 / (l0/w0 + l1/w1 + l2/w2)
		lerp3 := func(a, b, c linear.V3) linear.V3 {
			var r linear.V3
			for k := range r {
				r[k] = ws * (l0*a[k]/w0 + l1*b[k]/w1 + l2*c[k]/w2)
			}
			return r
		}
		lerp2 := func(a, b, c linear.V2) linear.V2 {
			var r linear.V2
			for k := range r {
				r[k] = ws * (l0*a[k]/w0 + l1*b[k]/w1 + l2*c[k]/w2)
			}
			return r
		}
		col = lerp3(v0.Col, v1.Col, v2.Col)
		eyePos = lerp3(v0.EyePos, v1.EyePos, v2.EyePos)
		eyeNor = lerp3(v0.EyeNor, v1.EyeNor, v2.EyeNor)
		tex = lerp2(v0.Tex, v1.Tex, v2.Tex)
	} else {
		for k := 0; k < 3; k++ {
			col[k] = l0*v0.Col[k] + l1*v1.Col[k] + l2*v2.Col[k]
			eyePos[k] = l0*v0.EyePos[k] + l1*v1.EyePos[k] + l2*v2.EyePos[k]
			eyeNor[k] = l0*v0.EyeNor[k] + l1*v1.EyeNor[k] + l2*v2.EyeNor[k]
		}
		for k := 0; k < 2; k++ {
			tex[k] = l0*v0.Tex[k] + l1*v1.Tex[k] + l2*v2.Tex[k]
		}
	}
	var nrm linear.V3
	nrm.Norm(&eyeNor)

	f.Col = col
	f.EyePos = eyePos
	f.EyeNor = nrm
	f.Tex = tex
	f.ZBary = z
	f.covered = true

	f.HasTex = v0.HasTex
	if v0.HasTex {
		f.Tex2D = v0.Tex2D
		f.TexW = v0.TexW
		f.TexH = v0.TexH
		u := tex[0] * float32(v0.TexW)
		v := tex[1] * float32(v0.TexH)
		ui, vi := clampi(int(u), 0, v0.TexW-1), clampi(int(v), 0, v0.TexH-1)
		f.UVStart = (ui + vi*v0.TexW) * 3
		f.BilinearU = u
		f.BilinearV = v
	}
}

func min3(a, b, c float32) float32 {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

func max3(a, b, c float32) float32 {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}
