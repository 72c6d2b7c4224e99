// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/gviegas/raster/driver"
	"github.com/gviegas/raster/linear"
)

// group is the device-resident counterpart of GroupData: immutable
// geometry buffers uploaded once by UploadScene, plus the per-frame
// VertexOut scratch array the vertex stage overwrites every frame.
type group struct {
	mode Mode

	indices   driver.Buffer[uint16]
	positions driver.Buffer[linear.V3]
	normals   driver.Buffer[linear.V3] // !Valid() if the group carries no normals.
	texcoords driver.Buffer[linear.V2] // !Valid() if the group carries no texcoords.

	tex    Texture
	hasTex bool

	model  linear.M4
	normal linear.M3 // Inverse-transpose of model's upper-left 3x3.

	out []VertexOut // Scratch, sized to len(positions); cleared every frame.

	begin int // Offset into the pipeline's flat primitive array.
	count int // Number of primitives this group assembles into.
}

// destroy releases the group's device-resident buffers.
func (g *group) destroy() {
	g.indices.Destroy()
	g.positions.Destroy()
	g.normals.Destroy()
	g.texcoords.Destroy()
	if g.hasTex {
		g.tex.Destroy()
	}
}

func normalMatrix(model *linear.M4) linear.M3 {
	var upper linear.M3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			upper[i][j] = model[i][j]
		}
	}
	var inv, nrm linear.M3
	inv.Invert(&upper)
	nrm.Transpose(&inv)
	return nrm
}
