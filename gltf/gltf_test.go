// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"
)

// cubeGLTF is a minimal single-triangle mesh, small enough to embed
// as a literal rather than loading from a testdata/ fixture file: one
// POSITION accessor (3 vertices), one indices accessor (3 shorts),
// both backed by a single embedded buffer.
const cubeGLTF = `{
	"asset": {"version": "2.0"},
	"scene": 0,
	"scenes": [{"nodes": [0]}],
	"nodes": [{"mesh": 0}],
	"meshes": [{
		"primitives": [{
			"attributes": {"POSITION": 0},
			"indices": 1,
			"mode": 4
		}]
	}],
	"accessors": [
		{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
		{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
	],
	"bufferViews": [
		{"buffer": 0, "byteOffset": 0, "byteLength": 36, "target": 34962},
		{"buffer": 0, "byteOffset": 36, "byteLength": 6, "target": 34963}
	],
	"buffers": [{"byteLength": 42}]
}`

// cubeBIN holds 3 VEC3 float32 positions (36 bytes) followed by 3
// uint16 indices (6 bytes), little-endian, matching cubeGLTF above.
var cubeBIN = []byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // v0 = (0,0,0)
	0, 0, 128, 63, 0, 0, 0, 0, 0, 0, 0, 0, // v1 = (1,0,0)
	0, 0, 0, 0, 0, 0, 128, 63, 0, 0, 0, 0, // v2 = (0,1,0)
	0, 0, 1, 0, 2, 0, // indices 0,1,2
}

func decodeCube(t *testing.T) *GLTF {
	t.Helper()
	gltf, err := Decode(bytes.NewReader([]byte(cubeGLTF)))
	if err != nil {
		t.Fatal(err)
	}
	if err = gltf.Check(); err != nil {
		t.Fatal(err)
	}
	return gltf
}

func TestMinimalGLTF(t *testing.T) {
	r := bytes.NewReader([]byte(`{"asset":{"version":"2.0"}}`))
	gltf, err := Decode(r)
	if err != nil {
		t.Fatal(err)
	}
	if err = gltf.Check(); err != nil {
		t.Fatal(err)
	}
	if s := gltf.Asset.Version; s != "2.0" {
		t.Fatalf("Decode(r): gltf.Asset.Version\nhave %s\nwant 2.0", s)
	}
	var buf bytes.Buffer
	if err = Encode(&buf, gltf); err != nil {
		t.Fatal(err)
	}
	r.Seek(0, 0)
	n := int(r.Size())
	if buf.Len()-1 == n {
		s := buf.String()
		for ; n > 0; n-- {
			b1, err1 := r.ReadByte()
			b2, err2 := buf.ReadByte()
			if b1 != b2 {
				t.Fatal("Encode(&buf, gltf):\ncontent mismatch")
			}
			if err1 != nil || err2 != nil {
				if n == 1 && err1 == io.EOF {
					break
				} else {
					t.Fatal(err1, err2)
				}
			}
		}
		t.Log(s)
		return
	}
	t.Fatalf("Encode(&buf, gltf): buf.Len()\nhave %d\nwant %d", buf.Len(), n+1)
}

func TestGLTF(t *testing.T) {
	gltf := decodeCube(t)
	var buf bytes.Buffer
	if err := Encode(&buf, gltf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	buf.Reset()
	if err := json.Indent(&buf, []byte(s), "", "    "); err != nil {
		t.Fatal(err)
	}
	t.Log(buf.String())
}

func packCube(t *testing.T) []byte {
	t.Helper()
	gltf := decodeCube(t)
	var buf bytes.Buffer
	if err := Pack(&buf, gltf, cubeBIN); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestIsGLB(t *testing.T) {
	glb := packCube(t)
	if !IsGLB(bytes.NewReader(glb)) {
		t.Fatal("IsGLB(glb):\nhave false\nwant true")
	}
	r := bytes.NewReader([]byte(`{"asset:"{"version":"2.0"}}`))
	if IsGLB(r) {
		t.Fatal("IsGLB(r):\nhave true\nwant false")
	}
}

func TestSeekJSON(t *testing.T) {
	glb := packCube(t)
	r := bytes.NewReader(glb)

	// From the beginning of the GLB.
	n, err := SeekJSON(r, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 {
		t.Fatalf("SeekJSON(r): n\nhave %d\nwant > 0", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		t.Fatal(err)
	}
	gltf, err := Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err = Encode(&buf, gltf); err != nil {
		t.Fatal(err)
	}
	nprev := n
	sprev := buf.String()
	buf.Reset()

	// From the beginning of the JSON chunk.
	r.Seek(0, 0)
	IsGLB(r)
	n, err = SeekJSON(r, io.SeekCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if n != nprev {
		t.Fatalf("SeekJSON(r): n\nhave %d\nwant %d", n, nprev)
	}
	b = make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		t.Fatal(err)
	}
	if gltf, err = Decode(bytes.NewReader(b)); err != nil {
		t.Fatal(err)
	}
	if err = Encode(&buf, gltf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	if s != sprev {
		t.Fatalf("SeekJSON(r): Decode/Encode\nhave %s\nwant %s", s, sprev)
	}
}

func TestSeekBIN(t *testing.T) {
	glb := packCube(t)
	r := bytes.NewReader(glb)

	n, err := SeekJSON(r, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		t.Fatal(err)
	}
	gltf, err := Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	nwant := gltf.Buffers[0].ByteLength
	if pad := nwant % 4; pad != 0 {
		nwant += 4 - pad
	}

	// From the beginning of the BIN chunk.
	n, err = SeekBIN(r, io.SeekCurrent)
	if err != nil {
		t.Fatal(err)
	}
	if nwant != int64(n) {
		t.Fatalf("SeekBIN(r): n\nhave %d\nwant %d", n, nwant)
	}

	// From the beginning of the GLB.
	r.Seek(0, 0)
	n, err = SeekBIN(r, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	if nwant != int64(n) {
		t.Fatalf("SeekBIN(r): n\nhave %d\nwant %d", n, nwant)
	}
}

func TestPackUnpack(t *testing.T) {
	glb := packCube(t)
	gltf, bin, err := Unpack(bytes.NewReader(glb))
	if err != nil {
		t.Fatal(err)
	}
	if int(gltf.Buffers[0].ByteLength) != len(cubeBIN) {
		t.Fatalf("Unpack: Buffers[0].ByteLength\nhave %d\nwant %d", gltf.Buffers[0].ByteLength, len(cubeBIN))
	}
	if !bytes.Equal(bin[:len(cubeBIN)], cubeBIN) {
		t.Fatal("Unpack(glb):\nbinary buffer mismatch")
	}
	if len(gltf.Meshes) != 1 || len(gltf.Meshes[0].Primitives) != 1 {
		t.Fatalf("Unpack(glb): Meshes\nhave %#v\nwant 1 mesh, 1 primitive", gltf.Meshes)
	}
}

func TestNoBINChunk(t *testing.T) {
	var gltf GLTF
	gltf.Asset.Generator = "TestNoBINChunk"
	gltf.Asset.Version = "2.0"
	gltf.Nodes = append(gltf.Nodes, Node{Name: "Node#0"})
	var buf bytes.Buffer
	if err := Encode(&buf, &gltf); err != nil {
		t.Fatal()
	}
	s := buf.String()
	buf.Reset()
	if err := Pack(&buf, &gltf, nil); err != nil {
		t.Fatal()
	}
	tf, bin, err := Unpack(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(bin); n != 0 {
		t.Fatalf("Unpack(&buf): len(bin)\nhave %d\nwant 0", n)
	}
	if err = Encode(&buf, tf); err != nil {
		t.Fatal(err)
	}
	if x := buf.String(); x != s {
		t.Fatalf("Unpack(&buf): Encode(&buf, tf)\nhave %s\nwant %s", x, s)
	}
}
