package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// EdgeColor is the line color used for edge overlays.
var EdgeColor = ColorFromHex(0x00FFF6)

// edgeThreshold is the minimum angle between face normals, in degrees, for
// a shared edge to be drawn.
const edgeThreshold = 1.0

// EdgeSet is a line segment overlay for one mesh.
type EdgeSet struct {
	MeshID   int
	Segments [][2]mgl64.Vec3
	Color    Color
}

type edgeKey struct {
	a, b [3]float32
}

type edgeFaces struct {
	a, b    mgl64.Vec3
	normals []mgl64.Vec3
}

func vkey(m *Mesh, i int) [3]float32 {
	return [3]float32{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

func less(a, b [3]float32) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// NewEdgeSet keeps border edges and the edges where adjacent faces meet at
// more than a degree. Vertices are matched by position so split vertices
// still join.
func NewEdgeSet(m *Mesh) *EdgeSet {
	edges := make(map[edgeKey]*edgeFaces)
	var order []edgeKey

	m.Triangles(func(ia, ib, ic int) {
		va, vb, vc := m.Vertex(ia), m.Vertex(ib), m.Vertex(ic)
		n := vb.Sub(va).Cross(vc.Sub(va))
		if n.Len() == 0 {
			return
		}
		n = n.Normalize()

		idx := [3]int{ia, ib, ic}
		for j := 0; j < 3; j++ {
			p, q := idx[j], idx[(j+1)%3]
			kp, kq := vkey(m, p), vkey(m, q)
			if less(kq, kp) {
				kp, kq = kq, kp
				p, q = q, p
			}
			k := edgeKey{kp, kq}
			ef, ok := edges[k]
			if !ok {
				ef = &edgeFaces{a: m.Vertex(p), b: m.Vertex(q)}
				edges[k] = ef
				order = append(order, k)
			}
			ef.normals = append(ef.normals, n)
		}
	})

	cosThreshold := math.Cos(mgl64.DegToRad(edgeThreshold))
	es := &EdgeSet{MeshID: m.ID, Color: EdgeColor}
	for _, k := range order {
		ef := edges[k]
		if len(ef.normals) == 1 || ef.normals[0].Dot(ef.normals[1]) <= cosThreshold {
			es.Segments = append(es.Segments, [2]mgl64.Vec3{ef.a, ef.b})
		}
	}
	return es
}
