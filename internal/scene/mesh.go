package scene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

var lastID atomic.Int64

// NextID hands out process-wide unique ids for meshes and objects.
func NextID() int {
	return int(lastID.Add(1))
}

// Mesh is a triangle soup or indexed triangle list with one material.
type Mesh struct {
	ID        int
	Name      string
	Positions []float32 // xyz per vertex
	Colors    []float32 // optional, rgb per vertex
	Indices   []uint32  // optional
	Material  *Material
	Visible   bool
}

func NewMesh(name string) *Mesh {
	return &Mesh{
		ID:       NextID(),
		Name:     name,
		Material: DefaultMaterial(),
		Visible:  true,
	}
}

// VertexCount is the number of positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount counts indices when present, positions otherwise.
func (m *Mesh) TriangleCount() int {
	if m.Indices != nil {
		return len(m.Indices) / 3
	}
	return m.VertexCount() / 3
}

func (m *Mesh) HasColors() bool {
	return len(m.Colors) > 0 && len(m.Colors) == len(m.Positions)
}

// Vertex returns position i.
func (m *Mesh) Vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{float64(m.Positions[3*i]), float64(m.Positions[3*i+1]), float64(m.Positions[3*i+2])}
}

// VertexColor returns the color of vertex i, or the material color when
// the mesh has none.
func (m *Mesh) VertexColor(i int) Color {
	if !m.HasColors() {
		return m.Material.Color
	}
	return Color{float64(m.Colors[3*i]), float64(m.Colors[3*i+1]), float64(m.Colors[3*i+2])}
}

// Triangles calls fn with the vertex indices of each triangle.
func (m *Mesh) Triangles(fn func(a, b, c int)) {
	if m.Indices != nil {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			fn(int(m.Indices[i]), int(m.Indices[i+1]), int(m.Indices[i+2]))
		}
		return
	}
	for i := 0; i+2 < m.VertexCount(); i += 3 {
		fn(i, i+1, i+2)
	}
}

// Bounds is the box of the untransformed positions.
func (m *Mesh) Bounds() Box3 {
	box := EmptyBox()
	for i := 0; i < m.VertexCount(); i++ {
		box.ExpandByPoint(m.Vertex(i))
	}
	return box
}
