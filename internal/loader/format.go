package loader

import (
	"errors"
	"fmt"

	"github.com/dorian305/3D-Model-Viewer/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported model format")

// Format is the model file type. Each format has exactly one load strategy.
type Format int

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatFBX
	FormatSTL
)

func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatFBX:
		return "fbx"
	case FormatSTL:
		return "stl"
	default:
		return "unknown"
	}
}

// DetectFormat picks the format from the file extension.
func DetectFormat(filename string) (Format, error) {
	_, ext := models.SplitExt(filename)
	switch ext {
	case "obj":
		return FormatOBJ, nil
	case "fbx":
		return FormatFBX, nil
	case "stl":
		return FormatSTL, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}
