// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Command rasterize loads a glTF asset and rasterizes its default
// scene to a PNG file, using the CPU execution fabric.
//
// This is presentation glue, not core rasterization: it owns asset
// loading, camera setup and pixel-buffer output, all of which §1 of
// the design keeps out of the engine package.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/gviegas/raster/driver"
	"github.com/gviegas/raster/driver/cpu"
	"github.com/gviegas/raster/engine"
	"github.com/gviegas/raster/gltf"
	"github.com/gviegas/raster/linear"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "rasterize:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		width    = flag.Int("width", 512, "output image width, in pixels")
		height   = flag.Int("height", 512, "output image height, in pixels")
		ssaa     = flag.Int("ssaa", 2, "supersampling factor (1, 2 or 4)")
		workers  = flag.Int("workers", 0, "number of CPU workers (0 means GOMAXPROCS)")
		texture  = flag.Bool("texture", true, "sample base color textures")
		bilinear = flag.Bool("bilinear", true, "use bilinear texture filtering")
		correct  = flag.Bool("correct-interp", true, "perspective-correct attribute interpolation")
		debugZ   = flag.Bool("debug-z", false, "visualize normalized depth instead of shading")
		debugN   = flag.Bool("debug-normal", false, "visualize eye-space normals instead of shading")
		upscale  = flag.Int("upscale", 1, "integer upscale factor applied to the output PNG")
		out      = flag.String("o", "out.png", "output PNG path")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <asset.gltf|asset.glb>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected exactly one asset argument")
	}

	doc, bin, err := loadAsset(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("loading asset: %w", err)
	}
	scene, err := gltf.Flatten(doc, bin, -1)
	if err != nil {
		return fmt.Errorf("flattening scene: %w", err)
	}

	drv, err := findDriver("cpu")
	if err != nil {
		return err
	}
	dev, err := drv.Open()
	if err != nil {
		return fmt.Errorf("opening driver: %w", err)
	}
	defer drv.Close()
	// The registered driver sizes its pool from GOMAXPROCS; an explicit
	// worker count needs a standalone Device instead.
	if *workers > 0 {
		dev = cpu.NewDevice(*workers)
	}

	cfg := engine.DefaultConfig()
	cfg.SSAAFactor = *ssaa
	cfg.Texture = *texture
	cfg.TextureBilinear = *bilinear
	cfg.CorrectInterp = *correct
	cfg.DebugZ = *debugZ
	cfg.DebugNorm = *debugN

	pipe := engine.New(dev, &cfg)
	defer pipe.Shutdown()
	if err := pipe.Init(*width, *height); err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}
	if err := pipe.UploadScene(scene); err != nil {
		return fmt.Errorf("uploading scene: %w", err)
	}

	viewProj, view := frameCamera(scene, float32(*width)/float32(*height))
	output := make([]byte, (*width)*(*height)*4)
	if err := pipe.Rasterize(output, &viewProj, &view); err != nil {
		return fmt.Errorf("rasterizing: %w", err)
	}

	img := imageFromRGBA(output, *width, *height)
	if *upscale > 1 {
		img = upscaleImage(img, *upscale)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// loadAsset decodes a glTF document from either a standalone .gltf
// JSON file or a .glb binary container. Only a .glb yields a binary
// buffer; for a .gltf file it returns none, so gltf.Flatten cannot
// read geometry from buffers that file references (by path or by
// data URI).
func loadAsset(path string) (*gltf.GLTF, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if gltf.IsGLB(f) {
		if _, err := f.Seek(0, 0); err != nil {
			return nil, nil, err
		}
		return gltf.Unpack(f)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, nil, err
	}
	doc, err := gltf.Decode(f)
	if err != nil {
		return nil, nil, err
	}
	if err := doc.Check(); err != nil {
		return nil, nil, err
	}
	return doc, nil, nil
}

func findDriver(name string) (driver.Driver, error) {
	for _, d := range driver.Drivers() {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no %q driver registered", name)
}

// frameCamera builds a view and view-projection matrix that frames
// the scene's bounding sphere, using an infinite-far-plane
// perspective projection and a look-at view matrix.
func frameCamera(scene *engine.Scene, aspect float32) (viewProj, view linear.M4) {
	center, radius := boundingSphere(scene)
	dist := radius / float32(math.Sin(math.Pi/8)) // keep the sphere inside the 22.5deg half-fov (45deg yfov)
	if dist < radius*1.5 {
		dist = radius * 1.5
	}

	eye := linear.V3{center[0], center[1], center[2] + dist}
	up := linear.V3{0, 1, 0}
	lookAt(&view, &eye, &center, &up)

	var proj linear.M4
	infPerspective(&proj, math.Pi/4, aspect, 0.01)
	viewProj.Mul(&proj, &view)
	return viewProj, view
}

// boundingSphere returns a sphere, in world space, that encloses
// every group's positions after applying the group's model matrix.
func boundingSphere(scene *engine.Scene) (center linear.V3, radius float32) {
	var min, max linear.V3
	first := true
	for i := range scene.Groups {
		g := &scene.Groups[i]
		for _, p := range g.Positions {
			v4 := linear.V4FromV3(&p, 1)
			var w linear.V4
			w.Mul(&g.Model, &v4)
			wp := w.XYZ()
			if first {
				min, max = wp, wp
				first = false
				continue
			}
			for k := 0; k < 3; k++ {
				if wp[k] < min[k] {
					min[k] = wp[k]
				}
				if wp[k] > max[k] {
					max[k] = wp[k]
				}
			}
		}
	}
	if first {
		return linear.V3{}, 1
	}
	var sum linear.V3
	sum.Add(&min, &max)
	sum.Scale(0.5, &center)
	var diag linear.V3
	diag.Sub(&max, &min)
	radius = diag.Len() / 2
	if radius == 0 {
		radius = 1
	}
	return center, radius
}

// infPerspective sets m to an infinite-far-plane perspective
// projection, column-major.
func infPerspective(m *linear.M4, yfov, aspectRatio, znear float32) {
	*m = linear.M4{}
	ct := float32(1 / math.Tan(float64(yfov)*0.5))
	m[0][0] = ct / aspectRatio
	m[1][1] = ct
	m[2][2] = -1
	m[2][3] = -1
	m[3][2] = -2 * znear
}

// lookAt sets m to a right-handed view matrix, column-major.
func lookAt(m *linear.M4, eye, center, up *linear.V3) {
	var f, s, u linear.V3
	f.Sub(center, eye)
	f.Norm(&f)
	s.Cross(&f, up)
	s.Norm(&s)
	u.Cross(&s, &f)

	*m = linear.M4{}
	m[0][0], m[1][0], m[2][0] = s[0], s[1], s[2]
	m[0][1], m[1][1], m[2][1] = u[0], u[1], u[2]
	m[0][2], m[1][2], m[2][2] = -f[0], -f[1], -f[2]
	m[3][3] = 1
	m[3][0] = -s.Dot(eye)
	m[3][1] = -u.Dot(eye)
	m[3][2] = f.Dot(eye)
}

// imageFromRGBA copies the core's output buffer into an image.RGBA for
// PNG encoding. The core always writes A=0; alpha is forced opaque
// here before encoding.
func imageFromRGBA(pix []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// upscaleImage resamples img by an integer factor using a smooth
// filter, the way a viewer would expect a supersampled render to be
// enlarged without reintroducing blockiness.
func upscaleImage(img *image.RGBA, factor int) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
