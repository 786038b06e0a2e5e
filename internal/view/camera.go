// Package view holds everything between a loaded object and pixels: the
// camera, its framing, the scene and the interactive session state.
package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

// PerspectiveCamera follows the usual vertical-fov pinhole model. Fov is in
// degrees.
type PerspectiveCamera struct {
	Fov      float64
	Aspect   float64
	Near     float64
	Far      float64
	Position mgl64.Vec3
	Up       mgl64.Vec3
}

func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		Fov:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mgl64.Vec3{0, 1, 0},
	}
}

// View looks from the camera position at target.
func (c *PerspectiveCamera) View(target mgl64.Vec3) mgl64.Mat4 {
	eye := c.Position
	if eye.ApproxEqual(target) {
		eye = target.Add(mgl64.Vec3{0, 0, c.Near})
	}
	up := c.Up
	if math.Abs(eye.Sub(target).Normalize().Dot(up)) > 0.999 {
		// looking straight up or down
		up = mgl64.Vec3{0, 0, -1}
	}
	return mgl64.LookAtV(eye, target, up)
}

func (c *PerspectiveCamera) Projection() mgl64.Mat4 {
	far := math.Max(c.Far, c.Near*2)
	return mgl64.Perspective(mgl64.DegToRad(c.Fov), c.Aspect, c.Near, far)
}

// OrbitControls keeps the camera circling Target.
type OrbitControls struct {
	Target      mgl64.Vec3
	MinDistance float64
	MaxDistance float64
}

func NewOrbitControls() *OrbitControls {
	return &OrbitControls{MaxDistance: math.Inf(1)}
}

// Distance is what the viewer shows as zoom.
func (oc *OrbitControls) Distance(cam *PerspectiveCamera) float64 {
	return cam.Position.Sub(oc.Target).Len()
}

// Rotate moves the camera by theta around the up axis and phi towards the
// poles.
func (oc *OrbitControls) Rotate(cam *PerspectiveCamera, theta, phi float64) {
	offset := cam.Position.Sub(oc.Target)
	r := offset.Len()
	if r == 0 {
		return
	}

	az := math.Atan2(offset.X(), offset.Z()) + theta
	pol := math.Acos(mgl64.Clamp(offset.Y()/r, -1, 1)) - phi
	pol = mgl64.Clamp(pol, 1e-6, math.Pi-1e-6)

	cam.Position = oc.Target.Add(mgl64.Vec3{
		r * math.Sin(pol) * math.Sin(az),
		r * math.Cos(pol),
		r * math.Sin(pol) * math.Cos(az),
	})
}

// Zoom scales the distance to the target, clamped to the allowed range.
func (oc *OrbitControls) Zoom(cam *PerspectiveCamera, factor float64) {
	offset := cam.Position.Sub(oc.Target)
	r := offset.Len()
	if r == 0 || factor <= 0 {
		return
	}

	nr := mgl64.Clamp(r*factor, oc.MinDistance, oc.MaxDistance)
	cam.Position = oc.Target.Add(offset.Mul(nr / r))
}

// FitCameraToObject places the camera on the (1,1,1) diagonal far enough
// to see obj's bounding box, sets the far plane and bounds the orbit
// distance. offset, when non-zero, pushes the camera back along z. The
// returned position is what perspective presets are derived from.
func FitCameraToObject(cam *PerspectiveCamera, obj *scene.Object, controls *OrbitControls, offset float64) mgl64.Vec3 {
	box := obj.Bounds()
	size := box.Size()

	fov := mgl64.DegToRad(cam.Fov)
	fovh := 2 * math.Atan(math.Tan(fov/2)*cam.Aspect)
	dx := size.Z()/2 + math.Abs(size.X()/2/math.Tan(fovh/2))
	dy := size.Z()/2 + math.Abs(size.Y()/2/math.Tan(fov/2))

	x := math.Max(dx, dy)
	y := x
	z := x
	if offset != 0 {
		z *= offset
	}
	cam.Position = mgl64.Vec3{x, y, z}

	minZ := box.Min.Z()
	var cameraToFarEdge float64
	if minZ < 0 {
		cameraToFarEdge = -minZ + z
	} else {
		cameraToFarEdge = z - minZ
	}
	cam.Far = cameraToFarEdge * 3

	if controls != nil {
		controls.Target = mgl64.Vec3{}
		controls.MaxDistance = cameraToFarEdge * 2
	}

	return cam.Position
}
