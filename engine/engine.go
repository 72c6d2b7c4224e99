// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package engine implements a parallel, GPU-style software rasterizer
// on top of the execution fabric abstracted by package driver.
package engine

const (
	// MaxSSAAFactor is the largest supersampling factor accepted by
	// Config.SSAAFactor.
	MaxSSAAFactor = 4
)

// Config configures a Pipeline. The rasterizer this engine implements
// specifies these as compile-time switches; since Go has no
// preprocessor, they are realized here as ordinary fields instead,
// following the package's own Configure idiom.
type Config struct {
	// SSAAFactor is the supersampling factor. Must be 1, 2 or 4; any
	// other value is clamped to 1 by New.
	//
	// Default is 1 (SSAA disabled).
	SSAAFactor int

	// Texture enables diffuse texture sampling in the fragment
	// shader. When false, every fragment uses the debug tint computed
	// by the vertex stage instead.
	//
	// Default is true.
	Texture bool

	// TextureBilinear selects bilinear filtering over nearest when
	// Texture is enabled.
	//
	// Default is true.
	TextureBilinear bool

	// CorrectInterp enables perspective-correct attribute
	// interpolation. When false, attributes are interpolated affinely
	// in screen space.
	//
	// Default is true.
	CorrectInterp bool

	// DebugZ overrides shaded output with a grayscale visualization
	// of barycentric depth. Takes priority over DebugNorm.
	//
	// Default is false.
	DebugZ bool

	// DebugNorm overrides shaded output with the fragment's eye-space
	// normal visualized as a color.
	//
	// Default is false.
	DebugNorm bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SSAAFactor:      1,
		Texture:         true,
		TextureBilinear: true,
		CorrectInterp:   true,
	}
}

var cfg Config

// Configure replaces the package-wide default configuration used by
// New when no Config is supplied.
func Configure(config *Config) {
	cfg = *config
}

func init() {
	config := DefaultConfig()
	Configure(&config)
}
