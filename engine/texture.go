// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import "github.com/gviegas/raster/driver"

// Texture is a device-resident, tightly-packed 8-bit RGB image used
// for diffuse texturing. Sampling is grounded on the nearest/bilinear
// addressing scheme used by the reference CPU rasterizer this module
// learned from: byte-index addressing for nearest sampling, fractional
// bilerp across four clamped texels otherwise.
type Texture struct {
	pix    driver.Buffer[byte]
	Width  int
	Height int
}

// NewTexture uploads a tightly-packed 8-bit RGB image (len(pix) must
// equal width*height*3) to dev.
func NewTexture(dev driver.Device, pix []byte, width, height int) (Texture, error) {
	if len(pix) != width*height*3 {
		return Texture{}, &InvalidScene{Field: "texture: pixel data size mismatch"}
	}
	buf, err := driver.NewBuffer(dev, pix)
	if err != nil {
		return Texture{}, &AllocationFailure{Op: "upload", Cause: err}
	}
	return Texture{pix: buf, Width: width, Height: height}, nil
}

// Valid reports whether t refers to an uploaded texture.
func (t *Texture) Valid() bool { return t.pix.Valid() }

// Destroy releases the texture's device storage.
func (t *Texture) Destroy() { t.pix.Destroy() }

func clampi(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// sampleNearest reads the texel at the given byte offset (as computed
// by the rasterizer's uvStart, §4.3) and returns it as a normalized
// RGB triple.
func (t *Texture) sampleNearest(uvStart int) (r, g, b float32) {
	p := t.pix.Data()
	if uvStart < 0 || uvStart+2 >= len(p) {
		return 0, 0, 0
	}
	return float32(p[uvStart]) / 255, float32(p[uvStart+1]) / 255, float32(p[uvStart+2]) / 255
}

// texelAt reads the texel at pixel coordinates (x,y), clamped to the
// texture's bounds.
func (t *Texture) texelAt(x, y int) (r, g, b float32) {
	x = clampi(x, 0, t.Width-1)
	y = clampi(y, 0, t.Height-1)
	i := (x + y*t.Width) * 3
	p := t.pix.Data()
	return float32(p[i]) / 255, float32(p[i+1]) / 255, float32(p[i+2]) / 255
}

// sampleBilinear performs bilinear filtering at the floating-point
// pixel coordinates (u,v), each expected in [0,texWidth]x[0,texHeight]
// (i.e., already scaled from normalized texcoords).
func (t *Texture) sampleBilinear(u, v float32) (r, g, b float32) {
	u -= 0.5
	v -= 0.5
	if u < 0 {
		u = 0
	}
	if v < 0 {
		v = 0
	}
	x0 := int(u)
	y0 := int(v)
	fx := u - float32(x0)
	fy := v - float32(y0)

	r00, g00, b00 := t.texelAt(x0, y0)
	r10, g10, b10 := t.texelAt(x0+1, y0)
	r01, g01, b01 := t.texelAt(x0, y0+1)
	r11, g11, b11 := t.texelAt(x0+1, y0+1)

	lerp := func(a, b, t float32) float32 { return a + (b-a)*t }
	rTop := lerp(r00, r10, fx)
	gTop := lerp(g00, g10, fx)
	bTop := lerp(b00, b10, fx)
	rBot := lerp(r01, r11, fx)
	gBot := lerp(g01, g11, fx)
	bBot := lerp(b01, b11, fx)
	return lerp(rTop, rBot, fy), lerp(gTop, gBot, fy), lerp(bTop, bBot, fy)
}
