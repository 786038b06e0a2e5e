package loader

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/g3n/engine/loader/obj"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

var ErrNoGeometry = errors.New("model has no geometry")

// DecodeOBJ parses an OBJ stream. mtl may be nil, in which case every face
// gets the default material.
func DecodeOBJ(name string, objR io.Reader, mtl io.Reader) (*scene.Object, error) {
	hasMTL := mtl != nil
	if !hasMTL {
		mtl = strings.NewReader("")
	}

	dec, err := obj.DecodeReader(objR, mtl)
	if err != nil {
		return nil, err
	}
	if len(dec.Objects) == 0 {
		return nil, ErrNoGeometry
	}

	// without a library, names from usemtl lines resolve to nothing
	materials := make(map[string]*scene.Material)
	if hasMTL {
		for mname, m := range dec.Materials {
			materials[mname] = convertMaterial(mname, m)
		}
	}

	object := scene.NewObject(name)
	nverts := len(dec.Vertices) / 3

	for _, o := range dec.Objects {
		// one mesh per material used by the object, in first-use order
		byMat := make(map[string]*scene.Mesh)
		var order []string

		for _, face := range o.Faces {
			if len(face.Vertices) < 3 {
				continue
			}

			mesh, ok := byMat[face.Material]
			if !ok {
				mesh = scene.NewMesh(o.Name)
				if mat, found := materials[face.Material]; found {
					mesh.Material = mat.Clone()
				}
				byMat[face.Material] = mesh
				order = append(order, face.Material)
			}

			for i := 1; i+1 < len(face.Vertices); i++ {
				for _, idx := range [3]int{face.Vertices[0], face.Vertices[i], face.Vertices[i+1]} {
					if idx < 0 || idx >= nverts {
						return nil, fmt.Errorf("object %q: vertex index %d out of range", o.Name, idx)
					}
					mesh.Positions = append(mesh.Positions, dec.Vertices[3*idx:3*idx+3]...)
				}
			}
		}

		for _, mname := range order {
			object.Meshes = append(object.Meshes, byMat[mname])
		}
	}

	if len(object.Meshes) == 0 {
		return nil, ErrNoGeometry
	}
	return object, nil
}

func convertMaterial(name string, m *obj.Material) *scene.Material {
	opacity := float64(m.Opacity)
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}

	return &scene.Material{
		Name:        name,
		Color:       scene.Color{R: float64(m.Diffuse.R), G: float64(m.Diffuse.G), B: float64(m.Diffuse.B)},
		Specular:    scene.Color{R: float64(m.Specular.R), G: float64(m.Specular.G), B: float64(m.Specular.B)},
		Shininess:   float64(m.Shininess),
		Opacity:     opacity,
		Transparent: opacity < 1,
		Texture:     m.MapKd,
	}
}
