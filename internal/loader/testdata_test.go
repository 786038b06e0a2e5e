package loader

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/klauspost/compress/zlib"
)

const robotOBJ = `# robot
mtllib robot.mtl
o body
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 2
usemtl red
f 1 2 3 4
o antenna
usemtl red
f 1 2 5
`

const robotMTL = `newmtl red
Kd 1 0 0
Ks 0.5 0.5 0.5
Ns 10
d 1
`

const partOBJ = `mtllib part.mtl
o part
v 0 0 0
v 2 0 0
v 0 3 0
f 1 2 3
`

const cubeASCII = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 1 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid tri
`

// binarySTL builds a binary STL with one face per entry of colors. A zero
// header color leaves the COLOR= tag out.
func binarySTL(colors []uint16, header [4]byte) []byte {
	var buf bytes.Buffer
	head := make([]byte, 80)
	if header != [4]byte{} {
		copy(head, "COLOR=")
		copy(head[6:], header[:])
	}
	buf.Write(head)
	binary.Write(&buf, binary.LittleEndian, uint32(len(colors)))

	for i, c := range colors {
		binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 1})
		binary.Write(&buf, binary.LittleEndian, [9]float32{
			float32(i), 0, 0,
			float32(i) + 1, 0, 0,
			float32(i), 1, 0,
		})
		binary.Write(&buf, binary.LittleEndian, c)
	}
	return buf.Bytes()
}

// fbxNode is the test-side description of a record.
type fbxNode struct {
	name     string
	props    []any
	children []*fbxNode
}

// rawArray is an array property whose declared count may disagree with its
// payload.
type rawArray struct {
	typ   byte
	count uint32
	raw   []byte
}

type fbxWriter struct {
	buf      bytes.Buffer
	version  uint32
	compress bool
}

func (w *fbxWriter) offset(v uint64) {
	if w.version >= 7500 {
		binary.Write(&w.buf, binary.LittleEndian, v)
	} else {
		binary.Write(&w.buf, binary.LittleEndian, uint32(v))
	}
}

func (w *fbxWriter) patch(at int, v uint64) {
	b := w.buf.Bytes()
	if w.version >= 7500 {
		binary.LittleEndian.PutUint64(b[at:], v)
	} else {
		binary.LittleEndian.PutUint32(b[at:], uint32(v))
	}
}

func (w *fbxWriter) null() {
	if w.version >= 7500 {
		w.buf.Write(make([]byte, 25))
	} else {
		w.buf.Write(make([]byte, 13))
	}
}

func (w *fbxWriter) array(t *testing.T, typ byte, count int, raw []byte) {
	w.buf.WriteByte(typ)
	binary.Write(&w.buf, binary.LittleEndian, uint32(count))
	if !w.compress {
		binary.Write(&w.buf, binary.LittleEndian, uint32(0))
		binary.Write(&w.buf, binary.LittleEndian, uint32(len(raw)))
		w.buf.Write(raw)
		return
	}

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	binary.Write(&w.buf, binary.LittleEndian, uint32(1))
	binary.Write(&w.buf, binary.LittleEndian, uint32(z.Len()))
	w.buf.Write(z.Bytes())
}

func (w *fbxWriter) prop(t *testing.T, p any) {
	le := binary.LittleEndian
	switch v := p.(type) {
	case int64:
		w.buf.WriteByte('L')
		binary.Write(&w.buf, le, v)
	case int32:
		w.buf.WriteByte('I')
		binary.Write(&w.buf, le, v)
	case float64:
		w.buf.WriteByte('D')
		binary.Write(&w.buf, le, v)
	case string:
		w.buf.WriteByte('S')
		binary.Write(&w.buf, le, uint32(len(v)))
		w.buf.WriteString(v)
	case []float64:
		raw := make([]byte, 8*len(v))
		for i, f := range v {
			le.PutUint64(raw[8*i:], math.Float64bits(f))
		}
		w.array(t, 'd', len(v), raw)
	case rawArray:
		w.array(t, v.typ, int(v.count), v.raw)
	case []int32:
		raw := make([]byte, 4*len(v))
		for i, n := range v {
			le.PutUint32(raw[4*i:], uint32(n))
		}
		w.array(t, 'i', len(v), raw)
	default:
		t.Fatalf("unsupported test property %T", p)
	}
}

func (w *fbxWriter) node(t *testing.T, n *fbxNode) {
	start := w.buf.Len()
	w.offset(0) // end offset, patched below
	w.offset(uint64(len(n.props)))
	lenAt := w.buf.Len()
	w.offset(0)
	w.buf.WriteByte(byte(len(n.name)))
	w.buf.WriteString(n.name)

	propStart := w.buf.Len()
	for _, p := range n.props {
		w.prop(t, p)
	}
	w.patch(lenAt, uint64(w.buf.Len()-propStart))

	if len(n.children) > 0 {
		for _, c := range n.children {
			w.node(t, c)
		}
		w.null()
	}
	w.patch(start, uint64(w.buf.Len()))
}

func encodeFBX(t *testing.T, version uint32, compress bool, nodes ...*fbxNode) []byte {
	t.Helper()

	w := &fbxWriter{version: version, compress: compress}
	w.buf.Write(fbxMagic)
	w.buf.Write([]byte{0x1a, 0x00})
	binary.Write(&w.buf, binary.LittleEndian, version)
	for _, n := range nodes {
		w.node(t, n)
	}
	w.null()
	return w.buf.Bytes()
}

// quadFBX describes one model "Plate" made of a quad and a triangle, with a
// blue material.
func quadFBX() []*fbxNode {
	return []*fbxNode{
		{name: "FBXHeaderExtension", children: []*fbxNode{
			{name: "FBXVersion", props: []any{int32(7400)}},
		}},
		{name: "Objects", children: []*fbxNode{
			{name: "Geometry", props: []any{int64(100), "PlateGeo\x00\x01Geometry", "Mesh"}, children: []*fbxNode{
				{name: "Vertices", props: []any{[]float64{
					0, 0, 0,
					1, 0, 0,
					1, 1, 0,
					0, 1, 0,
					0, 0, 1,
				}}},
				{name: "PolygonVertexIndex", props: []any{[]int32{0, 1, 2, ^int32(3), 0, 1, ^int32(4)}}},
			}},
			{name: "Model", props: []any{int64(200), "Plate\x00\x01Model", "Mesh"}},
			{name: "Material", props: []any{int64(300), "Blue\x00\x01Material", ""}, children: []*fbxNode{
				{name: "Properties70", children: []*fbxNode{
					{name: "P", props: []any{"DiffuseColor", "Color", "", "A", 0.0, 0.0, 1.0}},
					{name: "P", props: []any{"Opacity", "double", "Number", "", 0.5}},
				}},
			}},
		}},
		{name: "Connections", children: []*fbxNode{
			{name: "C", props: []any{"OO", int64(200), int64(0)}},
			{name: "C", props: []any{"OO", int64(100), int64(200)}},
			{name: "C", props: []any{"OO", int64(300), int64(200)}},
		}},
	}
}
