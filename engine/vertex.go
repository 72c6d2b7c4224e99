// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import "github.com/gviegas/raster/linear"

// VertexOut holds everything the rasterizer and fragment shader need
// from a single transformed vertex, as produced by transformVertices
// (§4.1) and consumed by assemblePrimitives (§4.2).
type VertexOut struct {
	// Pos holds window-space x,y (pixel coordinates), window-space z
	// (depth in [0,1] when inside the frustum), and w, the pre-divide
	// clip w saved for perspective-correct interpolation.
	Pos linear.V4

	EyePos linear.V3
	EyeNor linear.V3
	Col    linear.V3 // Debug tint; see §4.1 step 5.
	Tex    linear.V2

	Tex2D  *Texture
	TexW   int
	TexH   int
	HasTex bool
}

// transformVertices implements the Vertex Transform stage (§4.1) for
// a single group: for every vertex index v in [0,numVertices), derive
// eye-space position, window-space position, eye-space normal,
// texcoord and debug tint, writing the result into g.out[v].
//
// The stage is embarrassingly parallel: there is no inter-vertex
// dependency, so it is dispatched one work item per vertex.
func transformVertices(g *group, mvp, mv *linear.M4, mvNormal *linear.M3, width, height int) func(v int) {
	debugTint := [3]linear.V3{
		{0.5, 0, 0},
		{0, 0.5, 0},
		{0, 0, 0.5},
	}
	positions := g.positions.Data()
	normals := g.normals.Data()
	texcoords := g.texcoords.Data()
	return func(v int) {
		pos := positions[v]
		pos4 := linear.V4FromV3(&pos, 1)

		var eye4 linear.V4
		eye4.Mul(mv, &pos4)
		out := &g.out[v]
		out.EyePos = eye4.XYZ()

		var clip linear.V4
		clip.Mul(mvp, &pos4)
		w := clip[3]
		if w == 0 {
			w = 1e-8
		}
		ndcX := clip[0] / w
		ndcY := clip[1] / w
		ndcZ := clip[2] / w
		out.Pos = linear.V4{
			0.5 * float32(width) * (ndcX + 1),
			0.5 * float32(height) * (1 - ndcY),
			-ndcZ,
			w,
		}

		var nor linear.V3
		if g.normals.Valid() {
			nor = normals[v]
		} else {
			nor = linear.V3{1, 1, 1}
		}
		var eyeNor linear.V3
		eyeNor.Mul(mvNormal, &nor)
		out.EyeNor.Norm(&eyeNor)

		if g.texcoords.Valid() {
			out.Tex = texcoords[v]
		} else {
			out.Tex = linear.V2{}
		}

		out.Col = debugTint[v%3]

		out.HasTex = g.hasTex
		if g.hasTex {
			out.Tex2D = &g.tex
			out.TexW = g.tex.Width
			out.TexH = g.tex.Height
		}
	}
}
