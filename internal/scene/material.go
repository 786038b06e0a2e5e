package scene

// Material mirrors the Phong parameters a loader can produce.
type Material struct {
	Name         string
	Color        Color
	Specular     Color
	Shininess    float64
	Opacity      float64
	Transparent  bool
	VertexColors bool
	Wireframe    bool
	Texture      string // diffuse map file name, not loaded
}

// DefaultMaterial is used for geometry that comes without one.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "default",
		Color:     White,
		Specular:  ColorFromHex(0x111111),
		Shininess: 30,
		Opacity:   1,
	}
}

func (m *Material) Clone() *Material {
	c := *m
	return &c
}
