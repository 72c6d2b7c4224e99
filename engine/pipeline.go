// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"log"

	"github.com/gviegas/raster/driver"
	"github.com/gviegas/raster/linear"
)

// Pipeline is the Frame Driver (§4.6): it owns device buffers,
// per-frame scratch arrays, and orchestrates the per-frame dispatch
// sequence vertex->assembly->raster->fragment->resolve.
//
// A Pipeline is not safe for concurrent use by multiple goroutines;
// its internal dispatches are what provide the parallelism.
type Pipeline struct {
	dev driver.Device
	cfg Config

	width, height int // Supersampled resolution (S*width', S*height').
	outW, outH    int // Final resolution.

	groups []*group
	prims  []Primitive

	frag   []Fragment
	depth  []int32
	mutex  []int32
	fbuf   []linear.V3
}

// New creates a Pipeline bound to dev. If config is nil, the
// package-wide default configuration (see Configure) is used.
func New(dev driver.Device, config *Config) *Pipeline {
	c := cfg
	if config != nil {
		c = *config
	}
	c.validate()
	return &Pipeline{dev: dev, cfg: c}
}

func (c *Config) validate() {
	switch c.SSAAFactor {
	case 1, 2, 4:
	default:
		c.SSAAFactor = 1
	}
}

// Init allocates internal buffers sized to S*width x S*height, where
// S is Config.SSAAFactor. It is idempotent: a second call frees prior
// buffers before reallocating, per §6.
func (p *Pipeline) Init(width, height int) error {
	p.Shutdown()

	s := p.cfg.SSAAFactor
	p.outW, p.outH = width, height
	p.width, p.height = width*s, height*s

	n := p.width * p.height
	p.frag = make([]Fragment, n)
	p.depth = make([]int32, n)
	p.mutex = make([]int32, n)
	p.fbuf = make([]linear.V3, n)
	return nil
}

// UploadScene produces device-resident primitive groups from scene,
// replacing any previously uploaded scene. Ownership of the uploaded
// buffers belongs to the Pipeline until Shutdown.
func (p *Pipeline) UploadScene(scene *Scene) error {
	p.destroyGroups()

	groups := make([]*group, 0, len(scene.Groups))
	begin := 0
	for gi := range scene.Groups {
		gd := &scene.Groups[gi]
		if err := gd.validate(gi); err != nil {
			p.destroyGroupsIn(groups)
			return err
		}

		g := &group{
			mode:  gd.Mode,
			model: gd.Model,
			out:   make([]VertexOut, len(gd.Positions)),
		}

		var err error
		if g.indices, err = driver.NewBuffer(p.dev, gd.Indices); err != nil {
			g.destroy()
			p.destroyGroupsIn(groups)
			return &AllocationFailure{Op: "upload indices", Cause: err}
		}
		if g.positions, err = driver.NewBuffer(p.dev, gd.Positions); err != nil {
			g.destroy()
			p.destroyGroupsIn(groups)
			return &AllocationFailure{Op: "upload positions", Cause: err}
		}
		if gd.Normals != nil {
			if g.normals, err = driver.NewBuffer(p.dev, gd.Normals); err != nil {
				g.destroy()
				p.destroyGroupsIn(groups)
				return &AllocationFailure{Op: "upload normals", Cause: err}
			}
		}
		if gd.Texcoords != nil {
			if g.texcoords, err = driver.NewBuffer(p.dev, gd.Texcoords); err != nil {
				g.destroy()
				p.destroyGroupsIn(groups)
				return &AllocationFailure{Op: "upload texcoords", Cause: err}
			}
		}
		g.normal = normalMatrix(&g.model)

		if gd.TexPix != nil {
			tex, err := NewTexture(p.dev, gd.TexPix, gd.TexWidth, gd.TexHeight)
			if err != nil {
				g.destroy()
				p.destroyGroupsIn(groups)
				return err
			}
			g.tex = tex
			g.hasTex = true
		}

		g.count = gd.primitiveCount()
		g.begin = begin
		begin += g.count

		groups = append(groups, g)
	}

	p.groups = groups
	p.prims = make([]Primitive, begin)
	return nil
}

func (p *Pipeline) destroyGroupsIn(groups []*group) {
	for _, g := range groups {
		g.destroy()
	}
}

func (p *Pipeline) destroyGroups() {
	p.destroyGroupsIn(p.groups)
	p.groups = nil
	p.prims = nil
}

// Rasterize runs one frame, writing an RGBA byte buffer of size
// width*height*4 (A always 0) into output. viewProj and view are
// combined with every group's own model matrix to produce that
// group's MVP and MV; its MV-normal matrix is derived from the group's
// own normal matrix combined with view's upper-left 3x3.
func (p *Pipeline) Rasterize(output []byte, viewProj, view *linear.M4) error {
	if len(output) != p.outW*p.outH*4 {
		return &InvalidScene{Field: "output buffer size mismatch"}
	}

	for i := range p.frag {
		p.frag[i] = Fragment{}
		p.depth[i] = clearDepth
		p.mutex[i] = 0
	}

	for _, g := range p.groups {
		var mvp, mv linear.M4
		mvp.Mul(viewProj, &g.model)
		mv.Mul(view, &g.model)

		// view's upper-left 3x3 is assumed rigid (rotation only, no
		// scale or shear), so it equals its own inverse-transpose and
		// can be combined with the group's precomputed normal matrix
		// directly instead of re-deriving normalMatrix(view) per frame.
		var viewUpper, mvNormal linear.M3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				viewUpper[i][j] = view[i][j]
			}
		}
		mvNormal.Mul(&viewUpper, &g.normal)

		if err := p.dev.Dispatch1D(g.positions.Len(), transformVertices(g, &mvp, &mv, &mvNormal, p.width, p.height)); err != nil {
			return wrapDispatch("vertex", err)
		}
		if g.count == 0 {
			continue
		}
		if err := p.dev.Dispatch1D(g.indices.Len(), assemblePrimitives(g, p.prims)); err != nil {
			return wrapDispatch("assembly", err)
		}
	}

	if len(p.prims) > 0 {
		if err := p.dev.Dispatch1D(len(p.prims), rasterizePrimitives(p.prims, p.frag, p.depth, p.mutex, p.width, p.height, p.cfg.CorrectInterp)); err != nil {
			return wrapDispatch("rasterize", err)
		}
	}

	if err := p.dev.Dispatch1D(len(p.frag), shadeFragments(p.frag, p.fbuf, &p.cfg)); err != nil {
		return wrapDispatch("shade", err)
	}

	if err := p.dev.Dispatch2D(p.outW, p.outH, resolveOutput(p.fbuf, output, p.width, p.cfg.SSAAFactor)); err != nil {
		return wrapDispatch("resolve", err)
	}

	for _, v := range p.mutex {
		if v != 0 {
			log.Printf("engine: mutex left held after rasterize: invariant violated")
			break
		}
	}

	return nil
}

// Shutdown releases all device buffers owned by the Pipeline. Calling
// Shutdown on a Pipeline with nothing uploaded has no effect.
func (p *Pipeline) Shutdown() {
	p.destroyGroups()
	p.frag = nil
	p.depth = nil
	p.mutex = nil
	p.fbuf = nil
}
