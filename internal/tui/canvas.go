package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
	"github.com/dorian305/3D-Model-Viewer/internal/view"
)

// Canvas renders the scene into terminal cells. Every cell shows two
// vertically stacked pixels with an upper half block: the top pixel is the
// foreground, the bottom one the background.
type Canvas struct {
	cols, rows int
	fr         *view.FrameRenderer
}

func NewCanvas(cols, rows int) *Canvas {
	cols = max(cols, 1)
	rows = max(rows, 1)
	return &Canvas{
		cols: cols,
		rows: rows,
		fr:   view.NewFrameRenderer(cols, rows*2),
	}
}

// Aspect is the pixel aspect of the canvas.
func (c *Canvas) Aspect() float64 {
	return float64(c.cols) / float64(c.rows*2)
}

func (c *Canvas) Render(sc *view.Scene, cam *view.PerspectiveCamera, target mgl64.Vec3) error {
	return c.fr.Render(sc, cam, target)
}

func (c *Canvas) Frame() *view.Frame {
	return c.fr.Frame
}

// String turns the last frame into rows of styled half blocks. Runs of
// equal cells share one style.
func (c *Canvas) String() string {
	f := c.fr.Frame
	var sb strings.Builder

	for row := 0; row < c.rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}

		var run int
		var top, bottom scene.Color
		flush := func() {
			if run == 0 {
				return
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.String())).
				Background(lipgloss.Color(bottom.String())).
				Render(strings.Repeat("▀", run)))
			run = 0
		}

		for x := 0; x < c.cols; x++ {
			t, b := f.At(x, row*2), f.At(x, row*2+1)
			if run > 0 && (t != top || b != bottom) {
				flush()
			}
			top, bottom = t, b
			run++
		}
		flush()
	}
	return sb.String()
}

// Snapshot renders a single frame of s followed by the readout.
func Snapshot(w io.Writer, s *view.Session, cols, rows int) error {
	c := NewCanvas(cols, rows)
	s.SetAspect(c.Aspect())
	if err := s.Render(c); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%s", c.String(), Summary(s))
	return err
}
