package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

var (
	fbxMagic = []byte("Kaydara FBX Binary  \x00")

	ErrASCIIFBX     = errors.New("ASCII FBX is not supported, export as binary")
	ErrMalformedFBX = errors.New("malformed FBX")
)

// FBXNode is one record of the binary FBX tree.
type FBXNode struct {
	Name       string
	Properties []any
	Children   []*FBXNode
}

// Child returns the first child called name.
func (n *FBXNode) Child(name string) *FBXNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every child called name.
func (n *FBXNode) ChildrenNamed(name string) []*FBXNode {
	var res []*FBXNode
	for _, c := range n.Children {
		if c.Name == name {
			res = append(res, c)
		}
	}
	return res
}

// maxDeflateRatio bounds how far a deflate stream can expand.
const maxDeflateRatio = 1032

type fbxReader struct {
	data    []byte
	pos     int
	version uint32
}

func (r *fbxReader) need(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("%w: unexpected end of data at offset %d", ErrMalformedFBX, r.pos)
	}
	return nil
}

func (r *fbxReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *fbxReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *fbxReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *fbxReader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// offset reads a record header field, 64-bit from version 7500 on.
func (r *fbxReader) offset() (uint64, error) {
	if r.version >= 7500 {
		return r.u64()
	}
	v, err := r.u32()
	return uint64(v), err
}

// ParseFBX decodes the node tree of a binary FBX file.
func ParseFBX(data []byte) (*FBXNode, uint32, error) {
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(";")) {
		return nil, 0, ErrASCIIFBX
	}
	if !bytes.HasPrefix(data, fbxMagic) || len(data) < 27 {
		return nil, 0, fmt.Errorf("%w: missing binary header", ErrMalformedFBX)
	}

	r := &fbxReader{data: data, pos: 23}
	version, err := r.u32()
	if err != nil {
		return nil, 0, err
	}
	r.version = version

	root := &FBXNode{}
	for r.pos < len(r.data) {
		node, err := r.node()
		if err != nil {
			return nil, version, err
		}
		if node == nil {
			break
		}
		root.Children = append(root.Children, node)
	}
	return root, version, nil
}

// node reads one record. A nil node marks the end of a child list.
func (r *fbxReader) node() (*FBXNode, error) {
	endOffset, err := r.offset()
	if err != nil {
		return nil, err
	}
	numProps, err := r.offset()
	if err != nil {
		return nil, err
	}
	if _, err := r.offset(); err != nil { // property list length
		return nil, err
	}
	nameLen, err := r.u8()
	if err != nil {
		return nil, err
	}

	if endOffset == 0 {
		return nil, nil
	}
	if endOffset > uint64(len(r.data)) || endOffset <= uint64(r.pos) {
		return nil, fmt.Errorf("%w: bad record end %d at %d", ErrMalformedFBX, endOffset, r.pos)
	}

	name, err := r.bytes(int(nameLen))
	if err != nil {
		return nil, err
	}
	node := &FBXNode{Name: string(name)}

	for i := uint64(0); i < numProps; i++ {
		prop, err := r.property()
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name, err)
		}
		node.Properties = append(node.Properties, prop)
	}

	for uint64(r.pos) < endOffset {
		child, err := r.node()
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		node.Children = append(node.Children, child)
	}

	r.pos = int(endOffset)
	return node, nil
}

func (r *fbxReader) property() (any, error) {
	typ, err := r.u8()
	if err != nil {
		return nil, err
	}

	switch typ {
	case 'Y':
		b, err := r.bytes(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case 'C':
		b, err := r.u8()
		return b != 0, err
	case 'I':
		v, err := r.u32()
		return int32(v), err
	case 'F':
		v, err := r.u32()
		return math.Float32frombits(v), err
	case 'D':
		v, err := r.u64()
		return math.Float64frombits(v), err
	case 'L':
		v, err := r.u64()
		return int64(v), err
	case 'S', 'R':
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(n))
		if err != nil {
			return nil, err
		}
		if typ == 'S' {
			return string(b), nil
		}
		return append([]byte(nil), b...), nil
	case 'f', 'd', 'l', 'i', 'b':
		return r.array(typ)
	default:
		return nil, fmt.Errorf("%w: unknown property type %q at %d", ErrMalformedFBX, typ, r.pos-1)
	}
}

func (r *fbxReader) array(typ byte) (any, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	encoding, err := r.u32()
	if err != nil {
		return nil, err
	}
	clen, err := r.u32()
	if err != nil {
		return nil, err
	}
	raw, err := r.bytes(int(clen))
	if err != nil {
		return nil, err
	}

	elem := map[byte]int64{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}[typ]
	size := int64(count) * elem

	switch encoding {
	case 0:
	case 1:
		if size > int64(len(raw))*maxDeflateRatio {
			return nil, fmt.Errorf("%w: array of %d elements cannot inflate from %d bytes", ErrMalformedFBX, count, len(raw))
		}

		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFBX, err)
		}
		defer zr.Close()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, io.LimitReader(zr, size)); err != nil {
			return nil, fmt.Errorf("%w: inflate array: %v", ErrMalformedFBX, err)
		}
		raw = buf.Bytes()
	default:
		return nil, fmt.Errorf("%w: unknown array encoding %d", ErrMalformedFBX, encoding)
	}

	if int64(len(raw)) < size {
		return nil, fmt.Errorf("%w: array shorter than %d elements", ErrMalformedFBX, count)
	}

	le := binary.LittleEndian
	switch typ {
	case 'f':
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(raw[4*i:]))
		}
		return out, nil
	case 'd':
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case 'l':
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case 'i':
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(le.Uint32(raw[4*i:]))
		}
		return out, nil
	default:
		out := make([]bool, count)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	}
}

// fbxName strips the "\x00\x01Class" suffix of object names.
func fbxName(p any) string {
	s, _ := p.(string)
	if i := strings.Index(s, "\x00\x01"); i >= 0 {
		return s[:i]
	}
	return s
}

func fbxID(p any) (int64, bool) {
	id, ok := p.(int64)
	return id, ok
}

func toFloat32s(p any) ([]float32, bool) {
	switch v := p.(type) {
	case []float32:
		return v, true
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat64(p any) float64 {
	switch v := p.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// DecodeFBX builds an object from the Geometry nodes of a binary FBX
// file. Models and materials connected to a geometry name its mesh and
// color it.
func DecodeFBX(name string, data []byte) (*scene.Object, error) {
	root, _, err := ParseFBX(data)
	if err != nil {
		return nil, err
	}

	objects := root.Child("Objects")
	if objects == nil {
		return nil, ErrNoGeometry
	}

	modelNames := make(map[int64]string)
	for _, m := range objects.ChildrenNamed("Model") {
		if id, ok := fbxID(first(m.Properties)); ok && len(m.Properties) > 1 {
			modelNames[id] = fbxName(m.Properties[1])
		}
	}

	materials := make(map[int64]*scene.Material)
	for _, m := range objects.ChildrenNamed("Material") {
		if id, ok := fbxID(first(m.Properties)); ok {
			materials[id] = fbxMaterial(m)
		}
	}

	// child -> parents, "OO" connections only
	parents := make(map[int64][]int64)
	if conns := root.Child("Connections"); conns != nil {
		for _, c := range conns.ChildrenNamed("C") {
			if len(c.Properties) < 3 || c.Properties[0] != "OO" {
				continue
			}
			child, ok1 := fbxID(c.Properties[1])
			parent, ok2 := fbxID(c.Properties[2])
			if ok1 && ok2 {
				parents[child] = append(parents[child], parent)
			}
		}
	}
	materialOf := make(map[int64]*scene.Material)
	for matID, mat := range materials {
		for _, modelID := range parents[matID] {
			if _, ok := materialOf[modelID]; !ok {
				materialOf[modelID] = mat
			}
		}
	}

	object := scene.NewObject(name)
	for _, g := range objects.ChildrenNamed("Geometry") {
		if len(g.Properties) > 2 && g.Properties[2] != "Mesh" {
			continue
		}

		mesh, err := fbxMesh(g)
		if err != nil {
			return nil, err
		}
		if mesh == nil {
			continue
		}

		if gid, ok := fbxID(first(g.Properties)); ok {
			for _, modelID := range parents[gid] {
				if mname, ok := modelNames[modelID]; ok {
					mesh.Name = mname
				}
				if mat, ok := materialOf[modelID]; ok {
					mesh.Material = mat.Clone()
				}
			}
		}
		object.Meshes = append(object.Meshes, mesh)
	}

	if len(object.Meshes) == 0 {
		return nil, ErrNoGeometry
	}
	return object, nil
}

func first(props []any) any {
	if len(props) == 0 {
		return nil
	}
	return props[0]
}

// fbxMesh fan-triangulates the polygons of a Geometry node into a
// non-indexed mesh. A negative index closes a polygon and encodes ^index.
func fbxMesh(g *FBXNode) (*scene.Mesh, error) {
	vnode, inode := g.Child("Vertices"), g.Child("PolygonVertexIndex")
	if vnode == nil || inode == nil {
		return nil, nil
	}

	verts, ok := toFloat32s(first(vnode.Properties))
	if !ok {
		return nil, fmt.Errorf("%w: Vertices is not a float array", ErrMalformedFBX)
	}
	indices, ok := first(inode.Properties).([]int32)
	if !ok {
		return nil, fmt.Errorf("%w: PolygonVertexIndex is not an int array", ErrMalformedFBX)
	}

	var gname string
	if len(g.Properties) > 1 {
		gname = fbxName(g.Properties[1])
	}
	mesh := scene.NewMesh(gname)
	nverts := int32(len(verts) / 3)

	var poly []int32
	for _, idx := range indices {
		last := idx < 0
		if last {
			idx = ^idx
		}
		if idx >= nverts {
			return nil, fmt.Errorf("%w: vertex index %d out of range", ErrMalformedFBX, idx)
		}
		poly = append(poly, idx)

		if !last {
			continue
		}
		for i := 1; i+1 < len(poly); i++ {
			for _, v := range [3]int32{poly[0], poly[i], poly[i+1]} {
				mesh.Positions = append(mesh.Positions, verts[3*v:3*v+3]...)
			}
		}
		poly = poly[:0]
	}

	return mesh, nil
}

func fbxMaterial(m *FBXNode) *scene.Material {
	mat := scene.DefaultMaterial()
	if len(m.Properties) > 1 {
		mat.Name = fbxName(m.Properties[1])
	}

	props := m.Child("Properties70")
	if props == nil {
		return mat
	}
	for _, p := range props.ChildrenNamed("P") {
		if len(p.Properties) < 5 {
			continue
		}
		key, _ := p.Properties[0].(string)
		vals := p.Properties[4:]

		switch key {
		case "DiffuseColor":
			if len(vals) >= 3 {
				mat.Color = scene.Color{R: toFloat64(vals[0]), G: toFloat64(vals[1]), B: toFloat64(vals[2])}
			}
		case "SpecularColor":
			if len(vals) >= 3 {
				mat.Specular = scene.Color{R: toFloat64(vals[0]), G: toFloat64(vals[1]), B: toFloat64(vals[2])}
			}
		case "Shininess", "ShininessExponent":
			mat.Shininess = toFloat64(vals[0])
		case "Opacity":
			mat.Opacity = toFloat64(vals[0])
			mat.Transparent = mat.Opacity < 1
		}
	}
	return mat
}
