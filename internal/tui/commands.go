package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// execute runs one colon command:
//
//	speed <x|y|z> <value>
//	color <#RRGGBB>        color of the mesh under the cursor
//	bg <#RRGGBB>
//	load <file>
func (m model) execute(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return m, nil
	}

	switch name, args := fields[0], fields[1:]; name {
	case "speed":
		if len(args) != 2 || !strings.Contains("xyz", args[0]) || len(args[0]) != 1 {
			m.setError(fmt.Errorf("usage: speed <x|y|z> <value>"))
			break
		}
		axis := axisFromKey(args[0])
		if err := m.session.SetRotationSpeed(axis, args[1]); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("%s speed set to %s.", axis, args[1])
	case "color":
		if len(args) != 1 || len(m.meshes) == 0 {
			m.setError(fmt.Errorf("usage: color <#RRGGBB> with a mesh selected"))
			break
		}
		entry := m.meshes[m.meshCursor]
		if err := m.session.SetMeshColor(entry.ID, args[0]); err != nil {
			m.setError(err)
			break
		}
		m.meshes = m.session.MeshList()
		m.setStatus("%s is now %s.", entry.Name, m.meshes[m.meshCursor].Color)
	case "bg":
		value := ""
		if len(args) > 0 {
			value = args[0]
		}
		if err := m.session.SetBackground(value); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Background %s.", m.session.Background())
	case "load":
		if len(args) != 1 {
			m.setError(fmt.Errorf("usage: load <file>"))
			break
		}
		m.setStatus("Loading %s...", args[0])
		return m, m.load(args[0])
	case "q", "quit":
		return m, tea.Quit
	default:
		m.setError(fmt.Errorf("unknown command %q", name))
	}
	return m, nil
}
