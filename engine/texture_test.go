// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/gviegas/raster/driver/cpu"
)

func checkerTexture(t *testing.T) Texture {
	t.Helper()
	dev := cpu.NewDevice(1)
	pix := []byte{
		255, 0, 0, 0, 255, 0, // red, green
		0, 0, 255, 255, 255, 255, // blue, white
	}
	tex, err := NewTexture(dev, pix, 2, 2)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return tex
}

func TestTextureNearest(t *testing.T) {
	tex := checkerTexture(t)
	// uvStart for texel (1,1) ("white"), per the rasterizer's
	// (floor(u)+floor(v)*texWidth)*3 addressing (§4.3 step 5).
	r, g, b := tex.sampleNearest((1 + 1*2) * 3)
	if r != 1 || g != 1 || b != 1 {
		t.Fatalf("sampleNearest(white) = (%v,%v,%v), want (1,1,1)", r, g, b)
	}
	r, g, b = tex.sampleNearest(0)
	if r != 1 || g != 0 || b != 0 {
		t.Fatalf("sampleNearest(red) = (%v,%v,%v), want (1,0,0)", r, g, b)
	}
}

func TestTextureBilinearCenter(t *testing.T) {
	tex := checkerTexture(t)
	// uv=(0.5,0.5) normalized, scaled by a 2x2 texture, is pixel
	// coordinate (1,1): the shared corner of all four texels.
	r, g, b := tex.sampleBilinear(1, 1)
	if !near(r, 0.5, 1e-4) || !near(g, 0.5, 1e-4) || !near(b, 0.5, 1e-4) {
		t.Fatalf("sampleBilinear(1,1) = (%v,%v,%v), want (0.5,0.5,0.5)", r, g, b)
	}
}

func TestTextureBilinearExactTexel(t *testing.T) {
	tex := checkerTexture(t)
	// With the half-texel-center convention, the exact texel center
	// for (0,0) ("red") is pixel coordinate (0.5, 0.5).
	r, g, b := tex.sampleBilinear(0.5, 0.5)
	if !near(r, 1, 1e-4) || !near(g, 0, 1e-4) || !near(b, 0, 1e-4) {
		t.Fatalf("sampleBilinear(0.5,0.5) = (%v,%v,%v), want (1,0,0)", r, g, b)
	}
}

func TestTextureSampleClampsOutOfBounds(t *testing.T) {
	tex := checkerTexture(t)
	// (texW,texH) = (2,2): past the last texel.
	r, g, b := tex.sampleBilinear(2, 2)
	if !near(r, 1, 1e-4) || !near(g, 1, 1e-4) || !near(b, 1, 1e-4) {
		t.Fatalf("sampleBilinear(2,2) (past last texel) = (%v,%v,%v), want clamped (1,1,1)", r, g, b)
	}
}
