package tui

import (
	"fmt"
	"strings"

	"github.com/dorian305/3D-Model-Viewer/internal/loader"
	"github.com/dorian305/3D-Model-Viewer/internal/view"
)

func (m model) renderPanel() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("meshview"))
	sb.WriteString("\n")
	sb.WriteString(m.renderLoad())

	sb.WriteString(sectionStyle.Render(titleStyle.Render("Model")))
	sb.WriteString("\n")
	sb.WriteString(Summary(m.session))

	sb.WriteString(sectionStyle.Render(titleStyle.Render("Rotation")))
	sb.WriteString("\n")
	for _, axis := range []view.Axis{view.AxisX, view.AxisY, view.AxisZ} {
		r := m.session.Rotation(axis)
		state := offStyle.Render("■")
		if r.Enabled {
			state = onStyle.Render("▶")
		}
		fmt.Fprintf(&sb, "%s %s %s\n", labelStyle.Render(axis.String()), state, valueStyle.Render(fmt.Sprintf("%g", r.Speed)))
	}

	wire, edges := m.session.Toggles()
	sb.WriteString(sectionStyle.Render(titleStyle.Render("Display")))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s %s  %s %s  %s %s\n",
		labelStyle.Render("wire"), toggle(wire),
		labelStyle.Render("edges"), toggle(edges),
		labelStyle.Render("axes"), toggle(m.session.AxesVisible()))
	if p := m.session.Perspective(); p != view.PerspectiveNone {
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("view"), valueStyle.Render(string(p)))
	}

	if len(m.meshes) > 0 {
		sb.WriteString(sectionStyle.Render(titleStyle.Render("Meshes")))
		sb.WriteString("\n")
		for i, e := range m.meshes {
			check := "[ ]"
			if e.Visible {
				check = "[x]"
			}
			line := fmt.Sprintf("%s %s %s", check, truncate(e.Name, panelWidth-16), e.Color)
			if i == m.meshCursor {
				sb.WriteString(cursorStyle.Render("> " + line))
			} else {
				sb.WriteString(valueStyle.Render("  " + line))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(sectionStyle.Render(labelStyle.Render(
		"x/y/z spin  X/Y/Z reset  1-7 views\nr reset  w wire  e edges  a axes\n←/→ [ ] orbit  +/- zoom  space hide")))
	return sb.String()
}

func (m model) renderLoad() string {
	switch m.state.Phase {
	case loader.PhaseIdle:
		return labelStyle.Render("no model")
	case loader.PhaseFailed:
		return errorStyle.Render(truncate(m.state.String(), panelWidth-2))
	case loader.PhaseLoaded:
		return valueStyle.Render(m.state.File)
	default:
		return promptStyle.Render(m.state.File + " " + m.state.String())
	}
}

// Summary is the model and camera readout.
func Summary(s *view.Session) string {
	vertices, triangles, err := s.Info()
	if err != nil {
		return labelStyle.Render("nothing to show") + "\n"
	}
	cam := s.Camera()
	p := cam.Position

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("file"), valueStyle.Render(s.File()))
	fmt.Fprintf(&sb, "%s %d  %s %d\n", labelStyle.Render("vertices"), vertices, labelStyle.Render("triangles"), triangles)
	fmt.Fprintf(&sb, "%s %.2f, %.2f, %.2f\n", labelStyle.Render("camera"), p.X(), p.Y(), p.Z())
	fmt.Fprintf(&sb, "%s %.2f\n", labelStyle.Render("zoom"), cam.Zoom)
	return sb.String()
}

func toggle(on bool) string {
	if on {
		return onStyle.Render("on")
	}
	return offStyle.Render("off")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
