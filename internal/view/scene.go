package view

import (
	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

const axesSize = 10000

// Scene is what gets drawn: background, lights, the axes helper and at
// most one model.
type Scene struct {
	Background   scene.Color
	ShowAxes     bool
	AmbientColor scene.Color
	Ambient      float64
	PointColor   scene.Color // the point light travels with the camera
	Point        float64
	Model        *scene.Object
}

func NewScene(background scene.Color) *Scene {
	return &Scene{
		Background:   background,
		ShowAxes:     true,
		AmbientColor: scene.ColorFromHex(0xcccccc),
		Ambient:      0.4,
		PointColor:   scene.White,
		Point:        0.8,
	}
}
