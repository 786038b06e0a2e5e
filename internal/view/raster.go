package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

// Renderer consumes frames. The render loop calls it once per tick.
type Renderer interface {
	Render(sc *Scene, cam *PerspectiveCamera, target mgl64.Vec3) error
}

// Frame is a color buffer with depth.
type Frame struct {
	Width  int
	Height int
	Pixels []scene.Color
	depth  []float64
}

func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]scene.Color, width*height),
		depth:  make([]float64, width*height),
	}
}

func (f *Frame) At(x, y int) scene.Color {
	return f.Pixels[y*f.Width+x]
}

// Covered counts pixels that differ from bg.
func (f *Frame) Covered(bg scene.Color) int {
	n := 0
	for _, p := range f.Pixels {
		if p != bg {
			n++
		}
	}
	return n
}

func (f *Frame) clear(bg scene.Color) {
	for i := range f.Pixels {
		f.Pixels[i] = bg
		f.depth[i] = math.Inf(1)
	}
}

func (f *Frame) plot(x, y int, z float64, c scene.Color) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	i := y*f.Width + x
	if z < f.depth[i] {
		f.depth[i] = z
		f.Pixels[i] = c
	}
}

// rasterizer carries the per-frame transforms.
type rasterizer struct {
	f      *Frame
	sc     *Scene
	cam    *PerspectiveCamera
	view   mgl64.Mat4
	proj   mgl64.Mat4
	model  mgl64.Mat4
}

// Rasterize draws sc into f with flat Phong-style diffuse shading, a
// z-buffer and no textures.
func Rasterize(f *Frame, sc *Scene, cam *PerspectiveCamera, target mgl64.Vec3) {
	f.clear(sc.Background)

	r := &rasterizer{
		f:     f,
		sc:    sc,
		cam:   cam,
		view:  cam.View(target),
		proj:  cam.Projection(),
		model: mgl64.Ident4(),
	}

	if sc.ShowAxes {
		r.line(mgl64.Vec3{}, mgl64.Vec3{axesSize, 0, 0}, scene.ColorFromHex(0xff0000))
		r.line(mgl64.Vec3{}, mgl64.Vec3{0, axesSize, 0}, scene.ColorFromHex(0x00ff00))
		r.line(mgl64.Vec3{}, mgl64.Vec3{0, 0, axesSize}, scene.ColorFromHex(0x0000ff))
	}

	obj := sc.Model
	if obj == nil {
		return
	}
	r.model = obj.Matrix()

	for _, m := range obj.Meshes {
		if !m.Visible {
			continue
		}
		if m.Material.Wireframe {
			m.Triangles(func(a, b, c int) {
				col := m.Material.Color
				r.line(m.Vertex(a), m.Vertex(b), col)
				r.line(m.Vertex(b), m.Vertex(c), col)
				r.line(m.Vertex(c), m.Vertex(a), col)
			})
			continue
		}
		m.Triangles(func(a, b, c int) {
			r.triangle(m, a, b, c)
		})
	}

	for _, es := range obj.Edges {
		if mesh := obj.Mesh(es.MeshID); mesh != nil && !mesh.Visible {
			continue
		}
		for _, seg := range es.Segments {
			r.line(seg[0], seg[1], es.Color)
		}
	}
}

// toView maps a model-space point to view space.
func (r *rasterizer) toView(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(mgl64.TransformCoordinate(p, r.model), r.view)
}

// toScreen projects a view-space point in front of the near plane.
func (r *rasterizer) toScreen(v mgl64.Vec3) (float64, float64, float64) {
	clip := r.proj.Mul4x1(v.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())
	sx := (ndc.X() + 1) / 2 * float64(r.f.Width)
	sy := (1 - ndc.Y()) / 2 * float64(r.f.Height)
	return sx, sy, ndc.Z()
}

func (r *rasterizer) shade(m *scene.Mesh, idx [3]int, world [3]mgl64.Vec3) scene.Color {
	n := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
	if n.Len() == 0 {
		return m.Material.Color
	}
	n = n.Normalize()

	centroid := world[0].Add(world[1]).Add(world[2]).Mul(1.0 / 3)
	toLight := r.cam.Position.Sub(centroid)
	if toLight.Len() > 0 {
		toLight = toLight.Normalize()
	}
	diffuse := math.Abs(n.Dot(toLight)) * r.sc.Point

	base := m.Material.Color
	if m.Material.VertexColors && m.HasColors() {
		c0, c1, c2 := m.VertexColor(idx[0]), m.VertexColor(idx[1]), m.VertexColor(idx[2])
		base = c0.Add(c1).Add(c2).Scale(1.0 / 3)
	}

	lit := r.sc.AmbientColor.Scale(r.sc.Ambient).Add(r.sc.PointColor.Scale(diffuse))
	out := base.Mul(lit)

	if op := m.Material.Opacity; op < 1 && m.Material.Transparent {
		out = out.Scale(op).Add(r.sc.Background.Scale(1 - op))
	}
	return out
}

func (r *rasterizer) triangle(m *scene.Mesh, a, b, c int) {
	idx := [3]int{a, b, c}
	var world, viewPos [3]mgl64.Vec3
	for i, vi := range idx {
		world[i] = mgl64.TransformCoordinate(m.Vertex(vi), r.model)
		viewPos[i] = mgl64.TransformCoordinate(world[i], r.view)
		if -viewPos[i].Z() < r.cam.Near {
			return // crosses the near plane
		}
	}

	var sx, sy, sz [3]float64
	for i := range viewPos {
		sx[i], sy[i], sz[i] = r.toScreen(viewPos[i])
	}

	area := (sx[1]-sx[0])*(sy[2]-sy[0]) - (sx[2]-sx[0])*(sy[1]-sy[0])
	if area == 0 {
		return
	}

	col := r.shade(m, idx, world)

	minX := int(math.Max(0, math.Floor(math.Min(sx[0], math.Min(sx[1], sx[2])))))
	maxX := int(math.Min(float64(r.f.Width-1), math.Ceil(math.Max(sx[0], math.Max(sx[1], sx[2])))))
	minY := int(math.Max(0, math.Floor(math.Min(sy[0], math.Min(sy[1], sy[2])))))
	maxY := int(math.Min(float64(r.f.Height-1), math.Ceil(math.Max(sy[0], math.Max(sy[1], sy[2])))))

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := ((sx[1]-px)*(sy[2]-py) - (sx[2]-px)*(sy[1]-py)) / area
			w1 := ((sx[2]-px)*(sy[0]-py) - (sx[0]-px)*(sy[2]-py)) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			r.f.plot(x, y, w0*sz[0]+w1*sz[1]+w2*sz[2], col)
		}
	}
}

// line draws a model-space segment, clipped to the near plane.
func (r *rasterizer) line(p, q mgl64.Vec3, col scene.Color) {
	a, b := r.toView(p), r.toView(q)
	near := -r.cam.Near

	if a.Z() > near && b.Z() > near {
		return
	}
	if a.Z() > near {
		a, b = b, a
	}
	if b.Z() > near {
		t := (near - a.Z()) / (b.Z() - a.Z())
		b = a.Add(b.Sub(a).Mul(t))
	}

	x0, y0, z0 := r.toScreen(a)
	x1, y1, z1 := r.toScreen(b)

	t0, t1, ok := clipSegment(x0, y0, x1, y1, float64(r.f.Width), float64(r.f.Height))
	if !ok {
		return
	}
	dx, dy, dz := x1-x0, y1-y0, z1-z0
	x0, y0, z0, x1, y1 = x0+dx*t0, y0+dy*t0, z0+dz*t0, x0+dx*t1, y0+dy*t1
	dz *= t1 - t0

	steps := math.Max(1, math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	for i := 0.0; i <= steps; i++ {
		t := i / steps
		// lines win depth ties with the faces they lie on
		r.f.plot(int(x0+(x1-x0)*t), int(y0+(y1-y0)*t), z0+dz*t-1e-4, col)
	}
}

// clipSegment is Liang-Barsky against [0,w]x[0,h]. It returns the visible
// parameter range of the segment.
func clipSegment(x0, y0, x1, y1, w, h float64) (float64, float64, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := x1-x0, y1-y0

	for _, e := range [4][2]float64{{-dx, x0}, {dx, w - x0}, {-dy, y0}, {dy, h - y0}} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// FrameRenderer rasterizes into a fixed-size frame.
type FrameRenderer struct {
	Frame *Frame
}

func NewFrameRenderer(width, height int) *FrameRenderer {
	return &FrameRenderer{Frame: NewFrame(width, height)}
}

func (fr *FrameRenderer) Render(sc *Scene, cam *PerspectiveCamera, target mgl64.Vec3) error {
	Rasterize(fr.Frame, sc, cam, target)
	return nil
}
