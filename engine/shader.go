// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import "github.com/gviegas/raster/linear"

// lightPos is the single fixed-position light used by the Lambert
// term (§4.4). There is no light management in this pipeline: a
// richer light model is out of scope for the CORE.
var lightPos = linear.V3{0.5, 0.2, 0.7}

// shadeFragments implements the Fragment Shader stage (§4.4) over the
// (supersampled) framebuffer. Each pixel is written by exactly one
// work item; dispatched one per pixel.
func shadeFragments(frag []Fragment, fb []linear.V3, cfg *Config) func(i int) {
	return func(i int) {
		f := &frag[i]

		if cfg.DebugZ {
			g := 1 - f.ZBary
			if g < 0 {
				g = -g
			}
			fb[i] = linear.V3{g, g, g}
			return
		}
		if cfg.DebugNorm {
			fb[i] = f.EyeNor
			return
		}

		var base linear.V3
		switch {
		case !cfg.Texture:
			base = f.Col
		case !f.HasTex:
			base = linear.V3{}
		case cfg.TextureBilinear:
			r, g, b := f.Tex2D.sampleBilinear(f.BilinearU, f.BilinearV)
			base = linear.V3{r, g, b}
		default:
			r, g, b := f.Tex2D.sampleNearest(f.UVStart)
			base = linear.V3{r, g, b}
		}

		var toLight linear.V3
		toLight.Sub(&lightPos, &f.EyePos)
		var lightDir linear.V3
		lightDir.Norm(&toLight)
		lambert := lightDir.Dot(&f.EyeNor)
		if lambert < 0 {
			lambert = 0
		}
		lambert += 0.1

		fb[i] = linear.V3{base[0] * lambert, base[1] * lambert, base[2] * lambert}
	}
}
