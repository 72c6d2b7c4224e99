// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"math"

	"github.com/gviegas/raster/linear"
)

// resolveOutput implements the Resolve stage (§4.5): a box downsample
// from the S-times-supersampled framebuffer fb (size width x height)
// into the 8-bit RGBA output buffer (size width/S x height/S x 4),
// dispatched one work item per output pixel.
func resolveOutput(fb []linear.V3, out []byte, width, s int) func(x, y int) {
	outW := width / s
	s2 := float32(s * s)
	return func(x, y int) {
		var sum linear.V3
		for j := 0; j < s; j++ {
			row := y*s + j
			for i := 0; i < s; i++ {
				col := x*s + i
				c := fb[row*width+col]
				sum[0] += clamp01(c[0])
				sum[1] += clamp01(c[1])
				sum[2] += clamp01(c[2])
			}
		}
		o := (y*outW + x) * 4
		out[o] = quantize(sum[0] / s2)
		out[o+1] = quantize(sum[1] / s2)
		out[o+2] = quantize(sum[2] / s2)
		out[o+3] = 0
	}
}

func quantize(v float32) byte {
	return byte(math.Round(float64(v) * 255))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
