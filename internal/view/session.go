package view

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

var (
	ErrNoModel            = errors.New("no model loaded")
	ErrUnknownMesh        = errors.New("unknown mesh")
	ErrUnknownPerspective = errors.New("unknown perspective")
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	return [...]string{"X", "Y", "Z"}[a]
}

type Perspective string

const (
	PerspectiveNone      Perspective = ""
	PerspectiveIsometric Perspective = "isometric"
	PerspectiveFront     Perspective = "front"
	PerspectiveRear      Perspective = "rear"
	PerspectiveLeft      Perspective = "left"
	PerspectiveRight     Perspective = "right"
	PerspectiveTop       Perspective = "top"
	PerspectiveBottom    Perspective = "bottom"
)

// Perspectives lists the presets in display order.
var Perspectives = []Perspective{
	PerspectiveIsometric, PerspectiveFront, PerspectiveRear,
	PerspectiveLeft, PerspectiveRight, PerspectiveTop, PerspectiveBottom,
}

// Rotation is the continuous spin of one axis, in radians per tick.
type Rotation struct {
	Enabled bool
	Speed   float64
}

// MeshEntry is one line of the mesh checklist.
type MeshEntry struct {
	ID      int
	Name    string
	Visible bool
	Color   string
}

// CameraInfo is the camera readout.
type CameraInfo struct {
	Position mgl64.Vec3
	Zoom     float64
}

// Session is the viewer state for one viewport. All methods are safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	scene     *Scene
	camera    *PerspectiveCamera
	controls  *OrbitControls
	model     *scene.Object
	file      string
	fitOffset float64

	cameraOffset mgl64.Vec3
	rotation     [3]Rotation
	wireframe    bool
	edges        bool
	perspective  Perspective
	meshColors   map[int]string
}

func NewSession(cfg config.ViewerConfig, aspect float64) *Session {
	fov := cfg.Fov
	if fov <= 0 {
		fov = 75
	}
	if aspect <= 0 {
		aspect = 1
	}

	bg, err := parseBackground(cfg.Background)
	if err != nil {
		slog.Warn("Invalid background color, using black", "color", cfg.Background)
	}

	return &Session{
		scene:      NewScene(bg),
		camera:     NewPerspectiveCamera(fov, aspect, 0.1, 1000),
		controls:   NewOrbitControls(),
		fitOffset:  cfg.Offset,
		meshColors: make(map[int]string),
	}
}

func parseBackground(s string) (scene.Color, error) {
	if strings.TrimSpace(s) == "" {
		return scene.Black, nil
	}
	c, err := scene.ParseColor(s)
	if err != nil {
		return scene.Black, err
	}
	return c, nil
}

// Handoff makes obj the session's model: it frames the camera, builds the
// mesh checklist and adds obj to the scene, replacing any previous model.
func (s *Session) Handoff(obj *scene.Object, file string) []MeshEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = obj
	s.file = file
	s.scene.Model = obj
	s.wireframe = false
	s.edges = false
	s.perspective = PerspectiveNone
	s.meshColors = make(map[int]string, len(obj.Meshes))
	for _, m := range obj.Meshes {
		s.meshColors[m.ID] = "#FFFFFF"
	}

	s.cameraOffset = FitCameraToObject(s.camera, obj, s.controls, s.fitOffset)

	vertices, triangles := obj.Info()
	slog.Info("Model ready", "file", file, "vertices", vertices, "triangles", triangles,
		"camera", s.cameraOffset)

	return s.meshList()
}

func (s *Session) HasModel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model != nil
}

// File is the name of the loaded model.
func (s *Session) File() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Info counts vertices and triangles of visible meshes.
func (s *Session) Info() (vertices, triangles int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return 0, 0, ErrNoModel
	}
	vertices, triangles = s.model.Info()
	return vertices, triangles, nil
}

func (s *Session) MeshList() []MeshEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meshList()
}

func (s *Session) meshList() []MeshEntry {
	if s.model == nil {
		return nil
	}

	res := make([]MeshEntry, 0, len(s.model.Meshes))
	for _, m := range s.model.Meshes {
		res = append(res, MeshEntry{
			ID:      m.ID,
			Name:    m.Name,
			Visible: m.Visible,
			Color:   s.meshColors[m.ID],
		})
	}
	return res
}

// SetRotationSpeed parses the speed field of an axis. An empty string is 0.
func (s *Session) SetRotationSpeed(axis Axis, value string) error {
	speed := 0.0
	if value = strings.TrimSpace(value); value != "" {
		var err error
		speed, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("rotation speed %s: %w", axis, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation[axis].Speed = speed
	return nil
}

// ToggleRotation flips the spin of an axis. Nothing happens while its
// speed is zero.
func (s *Session) ToggleRotation(axis Axis) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return false, ErrNoModel
	}
	if s.rotation[axis].Speed != 0 {
		s.rotation[axis].Enabled = !s.rotation[axis].Enabled
	}
	return s.rotation[axis].Enabled, nil
}

// ResetRotation zeroes the angle and speed of an axis and stops it.
func (s *Session) ResetRotation(axis Axis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return ErrNoModel
	}
	s.model.Rotation[axis] = 0
	s.rotation[axis] = Rotation{}
	return nil
}

func (s *Session) Rotation(axis Axis) Rotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation[axis]
}

// Tick advances every enabled axis by its speed.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return
	}
	for i, r := range s.rotation {
		if r.Enabled {
			s.model.Rotation[i] += r.Speed
		}
	}
}

func (s *Session) ToggleAxes() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return s.scene.ShowAxes, ErrNoModel
	}
	s.scene.ShowAxes = !s.scene.ShowAxes
	return s.scene.ShowAxes, nil
}

// ToggleWireframe switches every mesh between filled and wireframe.
func (s *Session) ToggleWireframe() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return false, ErrNoModel
	}
	s.wireframe = !s.wireframe
	for _, m := range s.model.Meshes {
		m.Material.Wireframe = s.wireframe
	}
	return s.wireframe, nil
}

// ToggleEdges adds edge overlays for the currently visible meshes, or
// removes all of them.
func (s *Session) ToggleEdges() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return false, ErrNoModel
	}

	s.edges = !s.edges
	if !s.edges {
		s.model.Edges = nil
		return false, nil
	}
	for _, m := range s.model.Meshes {
		if m.Visible {
			s.model.Edges = append(s.model.Edges, scene.NewEdgeSet(m))
		}
	}
	return true, nil
}

// ResetCamera frames the model again and clears the active perspective.
func (s *Session) ResetCamera() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return ErrNoModel
	}
	s.cameraOffset = FitCameraToObject(s.camera, s.model, s.controls, s.fitOffset)
	s.perspective = PerspectiveNone
	return nil
}

// SetPerspective moves the camera to a preset derived from the last
// framing.
func (s *Session) SetPerspective(p Perspective) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return ErrNoModel
	}

	o := s.cameraOffset
	var pos mgl64.Vec3
	switch p {
	case PerspectiveIsometric:
		pos = o
	case PerspectiveFront:
		pos = mgl64.Vec3{0, 0, o.Z()}
	case PerspectiveRear:
		pos = mgl64.Vec3{0, 0, -o.Z()}
	case PerspectiveLeft:
		pos = mgl64.Vec3{-o.X(), 0, 0}
	case PerspectiveRight:
		pos = mgl64.Vec3{o.X(), 0, 0}
	case PerspectiveTop:
		pos = mgl64.Vec3{0, o.Y(), 0}
	case PerspectiveBottom:
		pos = mgl64.Vec3{0, -o.Y(), 0}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPerspective, p)
	}

	s.camera.Position = pos
	s.perspective = p
	return nil
}

func (s *Session) Perspective() Perspective {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perspective
}

// SetMeshVisible shows or hides one mesh of the checklist.
func (s *Session) SetMeshVisible(id int, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.mesh(id)
	if err != nil {
		return err
	}
	m.Visible = visible
	return nil
}

// SetMeshColor sets a mesh's material color from "#RRGGBB".
func (s *Session) SetMeshColor(id int, hex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.mesh(id)
	if err != nil {
		return err
	}
	c, err := scene.ParseColor(hex)
	if err != nil {
		return err
	}
	m.Material.Color = c
	s.meshColors[id] = c.String()
	return nil
}

func (s *Session) mesh(id int) (*scene.Mesh, error) {
	if s.model == nil {
		return nil, ErrNoModel
	}
	m := s.model.Mesh(id)
	if m == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMesh, id)
	}
	return m, nil
}

// SetBackground changes the scene background. An empty value is black.
func (s *Session) SetBackground(hex string) error {
	c, err := parseBackground(hex)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Background = c
	return nil
}

func (s *Session) Background() scene.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Background
}

func (s *Session) AxesVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.ShowAxes
}

// Toggles reports the wireframe and edges switches.
func (s *Session) Toggles() (wireframe, edges bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wireframe, s.edges
}

// Camera is the readout of the camera position and zoom distance.
func (s *Session) Camera() CameraInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CameraInfo{
		Position: s.camera.Position,
		Zoom:     s.controls.Distance(s.camera),
	}
}

// Far is the current far plane.
func (s *Session) Far() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera.Far
}

// Orbit rotates the camera around the target.
func (s *Session) Orbit(theta, phi float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.Rotate(s.camera, theta, phi)
}

// Zoom scales the camera distance, bounded by the framing.
func (s *Session) Zoom(factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.Zoom(s.camera, factor)
}

// SetAspect follows a viewport resize.
func (s *Session) SetAspect(aspect float64) {
	if aspect <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Aspect = aspect
}

// Render draws the current state with r.
func (s *Session) Render(r Renderer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.Render(s.scene, s.camera, s.controls.Target)
}

// Step is one iteration of the render loop.
func (s *Session) Step(r Renderer) error {
	s.Tick()
	return s.Render(r)
}
