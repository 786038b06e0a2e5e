package loader

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

const (
	stlHeaderSize = 80
	stlFaceSize   = 50
)

var ErrMalformedSTL = errors.New("malformed STL")

// STLGeometry is what an STL file carries before a material is chosen.
type STLGeometry struct {
	Positions []float32
	Colors    []float32
	HasColors bool
	Alpha     float64
}

// DecodeSTL parses binary or ASCII STL.
func DecodeSTL(data []byte) (*STLGeometry, error) {
	if isBinarySTL(data) {
		return decodeBinarySTL(data)
	}
	return decodeASCIISTL(data)
}

func isBinarySTL(data []byte) bool {
	if len(data) >= stlHeaderSize+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if int64(stlHeaderSize+4)+int64(n)*stlFaceSize == int64(len(data)) {
			return true
		}
	}

	// ASCII files start with "solid" and stay 7-bit
	head := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(head, []byte("solid")) {
		return true
	}
	for _, b := range data[:min(len(data), 512)] {
		if b > 127 {
			return true
		}
	}
	return false
}

func decodeBinarySTL(data []byte) (*STLGeometry, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedSTL, len(data))
	}

	n := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	if len(data) < stlHeaderSize+4+n*stlFaceSize {
		return nil, fmt.Errorf("%w: %d faces declared, file truncated", ErrMalformedSTL, n)
	}

	geo := &STLGeometry{
		Positions: make([]float32, 0, n*9),
		Alpha:     1,
	}

	// a "COLOR=" tag in the header carries the default RGBA
	defaultColor := [3]float32{}
	if i := bytes.Index(data[:stlHeaderSize], []byte("COLOR=")); i >= 0 && i+10 <= stlHeaderSize {
		geo.HasColors = true
		geo.Colors = make([]float32, 0, n*9)
		defaultColor = [3]float32{
			float32(data[i+6]) / 255,
			float32(data[i+7]) / 255,
			float32(data[i+8]) / 255,
		}
		geo.Alpha = float64(data[i+9]) / 255
	}

	for f := 0; f < n; f++ {
		start := stlHeaderSize + 4 + f*stlFaceSize

		color := defaultColor
		if geo.HasColors {
			packed := binary.LittleEndian.Uint16(data[start+48:])
			if packed&0x8000 == 0 {
				color = [3]float32{
					float32(packed&0x1f) / 31,
					float32(packed>>5&0x1f) / 31,
					float32(packed>>10&0x1f) / 31,
				}
			}
		}

		// skip the 12 byte face normal
		for v := 0; v < 3; v++ {
			off := start + 12 + v*12
			geo.Positions = append(geo.Positions,
				math.Float32frombits(binary.LittleEndian.Uint32(data[off:])),
				math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
				math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:])),
			)
			if geo.HasColors {
				geo.Colors = append(geo.Colors, color[0], color[1], color[2])
			}
		}
	}

	return geo, nil
}

func decodeASCIISTL(data []byte) (*STLGeometry, error) {
	geo := &STLGeometry{Alpha: 1}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	inFacet := false
	verts := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "facet":
			inFacet, verts = true, 0
		case "vertex":
			if !inFacet || len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: unexpected vertex", ErrMalformedSTL, line)
			}
			for _, s := range fields[1:] {
				v, err := strconv.ParseFloat(s, 32)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSTL, line, err)
				}
				geo.Positions = append(geo.Positions, float32(v))
			}
			verts++
		case "endfacet":
			if verts != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrMalformedSTL, line, verts)
			}
			inFacet = false
		case "solid", "endsolid", "outer", "endloop":
		default:
			return nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrMalformedSTL, line, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inFacet {
		return nil, fmt.Errorf("%w: unterminated facet", ErrMalformedSTL)
	}

	return geo, nil
}

// STLMaterial is the material synthesised after an STL load.
func STLMaterial(geo *STLGeometry) *scene.Material {
	if geo.HasColors {
		return &scene.Material{
			Name:         "stl",
			Color:        scene.White,
			Specular:     scene.ColorFromHex(0x111111),
			Shininess:    30,
			Opacity:      geo.Alpha,
			VertexColors: true,
		}
	}
	return &scene.Material{
		Name:      "stl",
		Color:     scene.ColorFromHex(0xe5e5e5),
		Specular:  scene.ColorFromHex(0x111111),
		Shininess: 100,
		Opacity:   1,
	}
}

// NewSTLObject wraps decoded geometry in a single mesh object.
func NewSTLObject(name string, geo *STLGeometry) *scene.Object {
	mesh := scene.NewMesh(name)
	mesh.Positions = geo.Positions
	if geo.HasColors {
		mesh.Colors = geo.Colors
	}
	mesh.Material = STLMaterial(geo)
	return scene.NewObject(name, mesh)
}
