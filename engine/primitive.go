// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

// Primitive is exactly three VertexOut copies gathered from one
// group's index array (§4.2). All primitives from all groups live in
// one flat array, each group owning a contiguous range starting at
// its begin offset.
type Primitive struct {
	Mode Mode
	V    [3]VertexOut
}

// assemblePrimitives implements Primitive Assembly (§4.2) for a
// single group, writing into prims[g.begin : g.begin+g.count].
// Only TRIANGLES, TRIANGLE_STRIP and TRIANGLE_FAN are implemented
// (§14): LINES and POINTS groups are rejected earlier, at
// UploadScene time, since the rasterizer stage has no contract for
// them.
//
// Writes land in disjoint primitive slots per group and are safe
// without synchronization; the assembly work items for a single
// group are still independent of one another and are dispatched one
// per index/triangle.
func assemblePrimitives(g *group, prims []Primitive) func(i int) {
	idx := g.indices.Data()
	out := g.out
	switch g.mode {
	case Triangles:
		return func(i int) {
			pid := i / 3
			slot := i % 3
			prims[g.begin+pid].Mode = Triangles
			prims[g.begin+pid].V[slot] = out[idx[i]]
		}
	case TriangleStrip:
		// Triangle i uses indices [i, i+1, i+2]; odd triangles swap
		// the first two vertices to preserve winding.
		return func(i int) {
			pid := i
			if pid+2 >= len(idx) {
				return
			}
			p := &prims[g.begin+pid]
			p.Mode = TriangleStrip
			if pid%2 == 0 {
				p.V[0] = out[idx[pid]]
				p.V[1] = out[idx[pid+1]]
			} else {
				p.V[0] = out[idx[pid+1]]
				p.V[1] = out[idx[pid]]
			}
			p.V[2] = out[idx[pid+2]]
		}
	case TriangleFan:
		// Triangle i uses indices [0, i+1, i+2]: slot 0 is pinned to
		// the fan's apex.
		return func(i int) {
			pid := i
			if pid+2 >= len(idx) {
				return
			}
			p := &prims[g.begin+pid]
			p.Mode = TriangleFan
			p.V[0] = out[idx[0]]
			p.V[1] = out[idx[pid+1]]
			p.V[2] = out[idx[pid+2]]
		}
	default:
		return func(i int) {}
	}
}
