// Package scene holds the in-memory form of a loaded model.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Object is a loaded model: a named group of meshes with a rotation.
type Object struct {
	ID       int
	Name     string
	Meshes   []*Mesh
	Rotation mgl64.Vec3 // euler angles in radians, applied X then Y then Z
	Edges    []*EdgeSet
}

func NewObject(name string, meshes ...*Mesh) *Object {
	return &Object{
		ID:     NextID(),
		Name:   name,
		Meshes: meshes,
	}
}

// Matrix is the object's world transform.
func (o *Object) Matrix() mgl64.Mat4 {
	return mgl64.HomogRotate3DZ(o.Rotation[2]).
		Mul4(mgl64.HomogRotate3DY(o.Rotation[1])).
		Mul4(mgl64.HomogRotate3DX(o.Rotation[0]))
}

// Bounds is the world-space box over every mesh, visible or not. An object
// without vertices yields the zero box at the origin.
func (o *Object) Bounds() Box3 {
	mat := o.Matrix()
	box := EmptyBox()
	for _, m := range o.Meshes {
		for i := 0; i < m.VertexCount(); i++ {
			box.ExpandByPoint(mgl64.TransformCoordinate(m.Vertex(i), mat))
		}
	}
	if box.IsEmpty() {
		return Box3{}
	}
	return box
}

// Clone copies the object with fresh ids. Vertex data is shared and must
// be treated as read-only.
func (o *Object) Clone() *Object {
	c := NewObject(o.Name)
	c.Rotation = o.Rotation
	for _, m := range o.Meshes {
		mc := *m
		mc.ID = NextID()
		mc.Material = m.Material.Clone()
		c.Meshes = append(c.Meshes, &mc)
	}
	return c
}

// Mesh finds a mesh by id.
func (o *Object) Mesh(id int) *Mesh {
	for _, m := range o.Meshes {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Info counts vertices and triangles over visible meshes.
func (o *Object) Info() (vertices, triangles int) {
	for _, m := range o.Meshes {
		if !m.Visible {
			continue
		}
		vertices += m.VertexCount()
		triangles += m.TriangleCount()
	}
	return vertices, triangles
}
