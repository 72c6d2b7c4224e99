// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/gviegas/raster/linear"
)

func TestGroupDataValidateMissingPositions(t *testing.T) {
	g := &GroupData{Mode: Triangles, Indices: []uint16{0, 1, 2}}
	if err := g.validate(0); err == nil {
		t.Fatal("expected InvalidScene for a group with no positions")
	}
}

func TestGroupDataValidateIndexOutOfRange(t *testing.T) {
	g := &GroupData{
		Mode:      Triangles,
		Positions: []linear.V3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint16{0, 1, 3},
	}
	if err := g.validate(0); err == nil {
		t.Fatal("expected InvalidScene for an out-of-range index")
	}
}

func TestGroupDataValidateLinesRejected(t *testing.T) {
	g := &GroupData{
		Mode:      Lines,
		Positions: []linear.V3{{0, 0, 0}, {1, 0, 0}},
		Indices:   []uint16{0, 1},
	}
	if err := g.validate(0); err == nil {
		t.Fatal("expected InvalidScene for a LINES group (no rasterizer contract)")
	}
}

func TestGroupDataValidateOK(t *testing.T) {
	g := &GroupData{
		Mode:      Triangles,
		Positions: []linear.V3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint16{0, 1, 2},
	}
	if err := g.validate(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPrimitiveCount(t *testing.T) {
	cases := []struct {
		mode  Mode
		nidx  int
		count int
	}{
		{Triangles, 6, 2},
		{TriangleStrip, 5, 3},
		{TriangleFan, 5, 3},
	}
	for _, c := range cases {
		g := &GroupData{Mode: c.mode, Indices: make([]uint16, c.nidx)}
		if got := g.primitiveCount(); got != c.count {
			t.Fatalf("mode %v, nidx %d: primitiveCount = %d, want %d", c.mode, c.nidx, got, c.count)
		}
	}
}
