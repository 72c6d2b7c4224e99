// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import "github.com/gviegas/raster/linear"

// Mode identifies a primitive group's topology.
type Mode int

const (
	Triangles Mode = iota
	TriangleStrip
	TriangleFan
	Lines
	Points
)

// GroupData is the host-side description of one primitive group,
// as produced by an external loader (see package gltf's Flatten).
// Positions are mandatory; Normals, Texcoords and the texture are
// optional.
type GroupData struct {
	Mode    Mode
	Indices []uint16
	// Positions, Normals are 3-component; Texcoords are 2-component.
	// len(Positions) == len(Normals) (if present) == len(Texcoords)
	// (if present) == vertex count.
	Positions []linear.V3
	Normals   []linear.V3
	Texcoords []linear.V2

	// TexPix, TexWidth, TexHeight describe an optional tightly-packed
	// 8-bit RGB diffuse texture. TexPix is nil when no texture is
	// present.
	TexPix    []byte
	TexWidth  int
	TexHeight int

	// Model is the group's model matrix.
	Model linear.M4
}

// Scene is a parsed scene ready for Pipeline.UploadScene: a flat list
// of primitive groups with no remaining node hierarchy.
type Scene struct {
	Groups []GroupData
}

// validate checks the invariants UploadScene requires of a group,
// returning a descriptive *InvalidScene on failure.
func (g *GroupData) validate(index int) error {
	n := len(g.Positions)
	if n == 0 {
		return &InvalidScene{Group: index, Field: "positions"}
	}
	if g.Normals != nil && len(g.Normals) != n {
		return &InvalidScene{Group: index, Field: "normals: length mismatch"}
	}
	if g.Texcoords != nil && len(g.Texcoords) != n {
		return &InvalidScene{Group: index, Field: "texcoords: length mismatch"}
	}
	switch g.Mode {
	case Triangles, TriangleStrip, TriangleFan:
		if len(g.Indices) == 0 {
			return &InvalidScene{Group: index, Field: "indices"}
		}
	default:
		return &InvalidScene{Group: index, Field: "mode: only triangle topologies are supported"}
	}
	for _, idx := range g.Indices {
		if int(idx) >= n {
			return &InvalidScene{Group: index, Field: "indices: out of range"}
		}
	}
	if g.TexPix != nil && len(g.TexPix) != g.TexWidth*g.TexHeight*3 {
		return &InvalidScene{Group: index, Field: "texture: pixel data size mismatch"}
	}
	return nil
}

// primitiveCount returns the number of triangles this group's
// topology and index count assemble into (§4.2 / §14 TRIANGLE_FAN
// open question: STRIP and FAN are assembled, not rejected).
func (g *GroupData) primitiveCount() int {
	switch g.Mode {
	case Triangles:
		return len(g.Indices) / 3
	case TriangleStrip, TriangleFan:
		if len(g.Indices) < 3 {
			return 0
		}
		return len(g.Indices) - 2
	default:
		return 0
	}
}
