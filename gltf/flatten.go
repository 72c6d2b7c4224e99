// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/bmp"

	"github.com/gviegas/raster/engine"
	"github.com/gviegas/raster/linear"
)

// Flatten walks the node hierarchy rooted at gltf.Scenes[sceneIndex]
// (or gltf.Scene if sceneIndex is negative), accumulating each node's
// local transform into a running model matrix, and returns the
// flattened primitive groups ready for engine.Pipeline.UploadScene.
//
// This is the recursive node-hierarchy traversal that the rasterizer
// core itself never performs (SPEC_FULL.md §9): the core only ever
// receives flat, pre-transformed primitive groups.
//
// Only embedded buffers (bin, as returned by Unpack) are supported:
// reading geometry fails with an error when bin is empty, as it is for
// documents whose buffers are external .bin files. Images referenced
// by URI are skipped, and the group gets no texture.
func Flatten(doc *GLTF, bin []byte, sceneIndex int) (*engine.Scene, error) {
	if sceneIndex < 0 {
		if doc.Scene == nil {
			return nil, errors.New("gltf: no default scene and no scene index given")
		}
		sceneIndex = int(*doc.Scene)
	}
	if sceneIndex >= len(doc.Scenes) {
		return nil, errors.New("gltf: scene index out of range")
	}

	f := &flattener{doc: doc, bin: bin}
	var ident linear.M4
	ident.I()
	for _, root := range doc.Scenes[sceneIndex].Nodes {
		if err := f.visit(int(root), &ident); err != nil {
			return nil, err
		}
	}
	return &engine.Scene{Groups: f.groups}, nil
}

type flattener struct {
	doc    *GLTF
	bin    []byte
	groups []engine.GroupData
}

func (f *flattener) visit(nodeIdx int, parent *linear.M4) error {
	if nodeIdx < 0 || nodeIdx >= len(f.doc.Nodes) {
		return errors.New("gltf: node index out of range")
	}
	n := &f.doc.Nodes[nodeIdx]

	local := localMatrix(n)
	var model linear.M4
	model.Mul(parent, &local)

	if n.Mesh != nil {
		mesh := &f.doc.Meshes[*n.Mesh]
		for i := range mesh.Primitives {
			g, err := f.flattenPrimitive(&mesh.Primitives[i], &model)
			if err != nil {
				return err
			}
			if g != nil {
				f.groups = append(f.groups, *g)
			}
		}
	}
	for _, c := range n.Children {
		if err := f.visit(int(c), &model); err != nil {
			return err
		}
	}
	return nil
}

// localMatrix computes a node's local transform, per the glTF rule:
// Matrix if present, else compose(T, R, S) from the TRS properties
// (defaulting to zero/identity/one respectively).
func localMatrix(n *Node) linear.M4 {
	if n.Matrix != nil {
		var m linear.M4
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				m[i][j] = n.Matrix[i*4+j]
			}
		}
		return m
	}

	t := [3]float32{0, 0, 0}
	if n.Translation != nil {
		t = *n.Translation
	}
	s := [3]float32{1, 1, 1}
	if n.Scale != nil {
		s = *n.Scale
	}
	r := [4]float32{0, 0, 0, 1}
	if n.Rotation != nil {
		r = *n.Rotation
	}

	var rot linear.M4
	quatToM4(r, &rot)
	var m linear.M4
	m.I()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = rot[i][j] * s[i]
		}
	}
	m[3][0], m[3][1], m[3][2] = t[0], t[1], t[2]
	return m
}

func quatToM4(q [4]float32, m *linear.M4) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	m.I()
	m[0][0] = 1 - 2*(y*y+z*z)
	m[0][1] = 2 * (x*y + z*w)
	m[0][2] = 2 * (x*z - y*w)
	m[1][0] = 2 * (x*y - z*w)
	m[1][1] = 1 - 2*(x*x+z*z)
	m[1][2] = 2 * (y*z + x*w)
	m[2][0] = 2 * (x*z + y*w)
	m[2][1] = 2 * (y*z - x*w)
	m[2][2] = 1 - 2*(x*x+y*y)
}

func (f *flattener) flattenPrimitive(p *Primitive, model *linear.M4) (*engine.GroupData, error) {
	mode := int64(TRIANGLES)
	if p.Mode != nil {
		mode = *p.Mode
	}
	var groupMode engine.Mode
	switch mode {
	case TRIANGLES:
		groupMode = engine.Triangles
	case TRIANGLE_STRIP:
		groupMode = engine.TriangleStrip
	case TRIANGLE_FAN:
		groupMode = engine.TriangleFan
	default:
		// Lines and points have no rasterizer-stage contract; skip
		// rather than fail the whole scene.
		return nil, nil
	}

	posIdx, ok := p.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("gltf: primitive has no POSITION attribute")
	}
	positions, err := f.readV3(posIdx)
	if err != nil {
		return nil, err
	}

	var normals []linear.V3
	if idx, ok := p.Attributes["NORMAL"]; ok {
		if normals, err = f.readV3(idx); err != nil {
			return nil, err
		}
	}
	var texcoords []linear.V2
	if idx, ok := p.Attributes["TEXCOORD_0"]; ok {
		if texcoords, err = f.readV2(idx); err != nil {
			return nil, err
		}
	}

	var indices []uint16
	if p.Indices != nil {
		if indices, err = f.readIndices(*p.Indices); err != nil {
			return nil, err
		}
	} else {
		indices = make([]uint16, len(positions))
		for i := range indices {
			indices[i] = uint16(i)
		}
	}

	gd := &engine.GroupData{
		Mode:      groupMode,
		Indices:   indices,
		Positions: positions,
		Normals:   normals,
		Texcoords: texcoords,
		Model:     *model,
	}

	if p.Material != nil {
		mat := &f.doc.Materials[*p.Material]
		if mat.PBRMetallicRoughness != nil && mat.PBRMetallicRoughness.BaseColorTexture != nil {
			pix, w, h, ok, err := f.readRGBTexture(mat.PBRMetallicRoughness.BaseColorTexture.Index)
			if err != nil {
				return nil, err
			}
			if ok {
				gd.TexPix, gd.TexWidth, gd.TexHeight = pix, w, h
			}
		}
	}
	return gd, nil
}

func (f *flattener) accessorBytes(idx int64) (*Accessor, []byte, error) {
	if idx < 0 || int(idx) >= len(f.doc.Accessors) {
		return nil, nil, errors.New("gltf: accessor index out of range")
	}
	a := &f.doc.Accessors[idx]
	if a.BufferView == nil {
		return a, nil, errors.New("gltf: sparse/zero-filled accessors are not supported")
	}
	bv := &f.doc.BufferViews[*a.BufferView]
	if bv.Buffer != 0 {
		return nil, nil, errors.New("gltf: only a single embedded buffer is supported")
	}
	off := bv.ByteOffset + a.ByteOffset
	if len(f.bin) == 0 || off > int64(len(f.bin)) {
		return nil, nil, errors.New("gltf: accessor data is not in the embedded buffer")
	}
	return a, f.bin[off:], nil
}

func componentCount(typ string) int {
	switch typ {
	case SCALAR:
		return 1
	case VEC2:
		return 2
	case VEC3:
		return 3
	case VEC4:
		return 4
	default:
		return 0
	}
}

func componentSize(ct int64) int {
	switch ct {
	case BYTE, UNSIGNED_BYTE:
		return 1
	case SHORT, UNSIGNED_SHORT:
		return 2
	case UNSIGNED_INT, FLOAT:
		return 4
	default:
		return 0
	}
}

func (f *flattener) readV3(idx int64) ([]linear.V3, error) {
	a, data, err := f.accessorBytes(idx)
	if err != nil {
		return nil, err
	}
	if a.ComponentType != FLOAT || componentCount(a.Type) != 3 {
		return nil, errors.New("gltf: expected a VEC3 FLOAT accessor")
	}
	out := make([]linear.V3, a.Count)
	for i := range out {
		base := i * 12
		out[i][0] = math.Float32frombits(binary.LittleEndian.Uint32(data[base:]))
		out[i][1] = math.Float32frombits(binary.LittleEndian.Uint32(data[base+4:]))
		out[i][2] = math.Float32frombits(binary.LittleEndian.Uint32(data[base+8:]))
	}
	return out, nil
}

func (f *flattener) readV2(idx int64) ([]linear.V2, error) {
	a, data, err := f.accessorBytes(idx)
	if err != nil {
		return nil, err
	}
	if a.ComponentType != FLOAT || componentCount(a.Type) != 2 {
		return nil, errors.New("gltf: expected a VEC2 FLOAT accessor")
	}
	out := make([]linear.V2, a.Count)
	for i := range out {
		base := i * 8
		out[i][0] = math.Float32frombits(binary.LittleEndian.Uint32(data[base:]))
		out[i][1] = math.Float32frombits(binary.LittleEndian.Uint32(data[base+4:]))
	}
	return out, nil
}

func (f *flattener) readIndices(idx int64) ([]uint16, error) {
	a, data, err := f.accessorBytes(idx)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, a.Count)
	sz := componentSize(a.ComponentType)
	for i := range out {
		base := i * sz
		switch a.ComponentType {
		case UNSIGNED_SHORT:
			out[i] = binary.LittleEndian.Uint16(data[base:])
		case UNSIGNED_BYTE:
			out[i] = uint16(data[base])
		case UNSIGNED_INT:
			out[i] = uint16(binary.LittleEndian.Uint32(data[base:]))
		default:
			return nil, errors.New("gltf: unsupported index component type")
		}
	}
	return out, nil
}

// readRGBTexture decodes the image referenced by textures[texIdx] (an
// embedded JPEG or PNG, or BMP when no standard mimeType is given)
// into a tightly-packed 8-bit RGB buffer, as §3's Data Model expects.
func (f *flattener) readRGBTexture(texIdx int64) (pix []byte, w, h int, ok bool, err error) {
	if texIdx < 0 || int(texIdx) >= len(f.doc.Textures) {
		return nil, 0, 0, false, errors.New("gltf: texture index out of range")
	}
	tex := &f.doc.Textures[texIdx]
	if tex.Source == nil {
		return nil, 0, 0, false, nil
	}
	img := &f.doc.Images[*tex.Source]
	if img.BufferView == nil {
		// External URI: not supported by this loader.
		return nil, 0, 0, false, nil
	}
	bv := &f.doc.BufferViews[*img.BufferView]
	if bv.Buffer != 0 {
		return nil, 0, 0, false, errors.New("gltf: only a single embedded buffer is supported")
	}
	raw := f.bin[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]

	var decoded image.Image
	switch img.MimeType {
	case JPEG:
		decoded, err = jpeg.Decode(bytes.NewReader(raw))
	case PNG:
		decoded, err = png.Decode(bytes.NewReader(raw))
	default:
		// Some exporters embed BMP-encoded thumbnails without
		// declaring a standard mimeType; golang.org/x/image/bmp
		// covers that case where the stdlib codecs do not.
		decoded, err = bmp.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, 0, 0, false, err
	}
	return packRGB(decoded)
}

func packRGB(img image.Image) ([]byte, int, int, bool, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			pix[i] = byte(r >> 8)
			pix[i+1] = byte(g >> 8)
			pix[i+2] = byte(bl >> 8)
			i += 3
		}
	}
	return pix, w, h, true, nil
}
