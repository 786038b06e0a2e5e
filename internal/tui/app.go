// Package tui is the terminal front end of the viewer: a bubbletea program
// drawing the viewport next to a control panel.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dorian305/3D-Model-Viewer/internal/loader"
	"github.com/dorian305/3D-Model-Viewer/internal/scene"
	"github.com/dorian305/3D-Model-Viewer/internal/view"
)

const (
	panelWidth   = 36
	defaultFPS   = 20
	orbitStep    = 0.1
	zoomStep     = 1.1
	defaultCols  = 80
	defaultRows  = 24
	reservedRows = 2
)

type Options struct {
	Session *view.Session
	Loader  *loader.Loader
	// File is loaded on start when set.
	File string
	FPS  int
}

type tickMsg time.Time

type stateMsg loader.State

type loadDoneMsg struct {
	file string
	obj  *scene.Object
	err  error
}

type model struct {
	ctx     context.Context
	session *view.Session
	loader  *loader.Loader
	file    string
	fps     int

	states      <-chan loader.State
	unsubscribe func()
	state       loader.State

	canvas *Canvas
	frame  string
	width  int
	height int

	meshes     []view.MeshEntry
	meshCursor int

	commandMode bool
	input       string

	status    string
	statusErr bool
}

func newModel(ctx context.Context, opts Options) model {
	fps := opts.FPS
	if fps <= 0 {
		fps = defaultFPS
	}

	m := model{
		ctx:     ctx,
		session: opts.Session,
		loader:  opts.Loader,
		file:    opts.File,
		fps:     fps,
		width:   defaultCols,
		height:  defaultRows,
		status:  "Press : for commands, q to quit.",
		meshes:  opts.Session.MeshList(),
	}
	if m.loader != nil {
		m.states, m.unsubscribe = m.loader.Subscribe()
	}
	m.resize()
	return m
}

// Run starts the viewer and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	m := newModel(ctx, opts)
	if m.unsubscribe != nil {
		defer m.unsubscribe()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.states != nil {
		cmds = append(cmds, waitForState(m.states))
	}
	if m.file != "" {
		cmds = append(cmds, m.load(m.file))
	}
	return tea.Batch(cmds...)
}

func (m model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForState(ch <-chan loader.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func (m model) load(file string) tea.Cmd {
	l, ctx := m.loader, m.ctx
	return func() tea.Msg {
		if l == nil {
			return loadDoneMsg{file: file, err: fmt.Errorf("no model source")}
		}
		obj, err := l.Load(ctx, file)
		return loadDoneMsg{file: file, obj: obj, err: err}
	}
}

func (m *model) resize() {
	cols := max(m.width-panelWidth, 1)
	rows := max(m.height-reservedRows, 1)
	m.canvas = NewCanvas(cols, rows)
	m.session.SetAspect(m.canvas.Aspect())
}

func (m *model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *model) setError(err error) {
	m.status = "Error: " + err.Error()
	m.statusErr = true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if err := m.session.Step(m.canvas); err != nil {
			m.setError(err)
		}
		m.frame = m.canvas.String()
		return m, m.tick()
	case stateMsg:
		m.state = loader.State(msg)
		return m, waitForState(m.states)
	case loadDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.file = msg.file
		m.meshes = m.session.Handoff(msg.obj, msg.file)
		m.meshCursor = 0
		m.setStatus("Loaded %s.", msg.file)
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if m.commandMode {
			return m.updateCommand(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case ":":
		m.commandMode = true
		m.input = ""
	case "x", "y", "z":
		axis := axisFromKey(key)
		on, err := m.session.ToggleRotation(axis)
		if err != nil {
			m.setError(err)
			break
		}
		if m.session.Rotation(axis).Speed == 0 {
			m.setStatus("Set a %s speed first (:speed %s <value>).", axis, key)
			break
		}
		m.setStatus("%s rotation %s.", axis, onOff(on))
	case "X", "Y", "Z":
		axis := axisFromKey(strings.ToLower(key))
		if err := m.session.ResetRotation(axis); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("%s rotation reset.", axis)
	case "1", "2", "3", "4", "5", "6", "7":
		p := view.Perspectives[int(key[0]-'1')]
		if err := m.session.SetPerspective(p); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Perspective: %s.", p)
	case "r":
		if err := m.session.ResetCamera(); err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Camera reset.")
	case "w":
		on, err := m.session.ToggleWireframe()
		if err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Wireframe %s.", onOff(on))
	case "e":
		on, err := m.session.ToggleEdges()
		if err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Edges %s.", onOff(on))
	case "a":
		on, err := m.session.ToggleAxes()
		if err != nil {
			m.setError(err)
			break
		}
		m.setStatus("Axes %s.", onOff(on))
	case "up", "k":
		if m.meshCursor > 0 {
			m.meshCursor--
		}
	case "down", "j":
		if m.meshCursor < len(m.meshes)-1 {
			m.meshCursor++
		}
	case " ":
		if len(m.meshes) == 0 {
			break
		}
		entry := m.meshes[m.meshCursor]
		if err := m.session.SetMeshVisible(entry.ID, !entry.Visible); err != nil {
			m.setError(err)
			break
		}
		m.meshes = m.session.MeshList()
	case "left", "h":
		m.session.Orbit(-orbitStep, 0)
	case "right", "l":
		m.session.Orbit(orbitStep, 0)
	case "[":
		m.session.Orbit(0, -orbitStep)
	case "]":
		m.session.Orbit(0, orbitStep)
	case "+", "=":
		m.session.Zoom(1 / zoomStep)
	case "-":
		m.session.Zoom(zoomStep)
	}
	return m, nil
}

func (m model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.commandMode = false
		m.input = ""
		return m, nil
	case tea.KeyEnter:
		m.commandMode = false
		line := m.input
		m.input = ""
		return m.execute(line)
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

func axisFromKey(key string) view.Axis {
	switch key {
	case "y":
		return view.AxisY
	case "z":
		return view.AxisZ
	default:
		return view.AxisX
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (m model) View() string {
	left := m.frame
	if left == "" {
		left = strings.Repeat("\n", max(m.height-reservedRows-1, 0))
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, panelStyle.Width(panelWidth).Render(m.renderPanel()))
	return main + "\n" + m.renderStatus()
}

func (m model) renderStatus() string {
	if m.commandMode {
		return promptStyle.Render(":") + valueStyle.Render(m.input)
	}
	if m.statusErr {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}
