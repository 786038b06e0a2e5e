package tui

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/loader"
	"github.com/dorian305/3D-Model-Viewer/internal/view"
)

const triangleSTL = `solid tri
facet normal 0 0 1
 outer loop
  vertex 0 0 0
  vertex 1 0 0
  vertex 0 1 0
 endloop
endfacet
endsolid tri
`

func key(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func apply(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return got, cmd
}

func press(t *testing.T, m model, k string) model {
	t.Helper()
	m, _ = apply(t, m, key(k))
	return m
}

func command(t *testing.T, m model, line string) (model, tea.Cmd) {
	t.Helper()
	m = press(t, m, ":")
	for _, r := range line {
		m = press(t, m, string(r))
	}
	return apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func newTestModel(t *testing.T) model {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.stl"), []byte(triangleSTL), 0o644))

	l := loader.New(loader.DirSource{Root: dir}, nil)
	s := view.NewSession(config.ViewerConfig{Fov: 75}, 1)
	m := newModel(context.Background(), Options{Session: s, Loader: l, File: "tri.stl"})
	t.Cleanup(m.unsubscribe)

	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func loadTestModel(t *testing.T) model {
	t.Helper()
	m := newTestModel(t)
	m, _ = apply(t, m, m.load("tri.stl")())
	require.False(t, m.statusErr, m.status)
	return m
}

func TestKeysWithoutModel(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "w")
	require.True(t, m.statusErr)
	require.Contains(t, m.status, view.ErrNoModel.Error())

	m = press(t, m, "1")
	require.True(t, m.statusErr)
}

func TestLoadAndHandoff(t *testing.T) {
	m := loadTestModel(t)

	require.Equal(t, "Loaded tri.stl.", m.status)
	require.Len(t, m.meshes, 1)
	require.True(t, m.session.HasModel())

	// the subscription eventually reports the terminal state
	var st loader.State
	for i := 0; i < 16 && !st.Done(); i++ {
		msg := waitForState(m.states)()
		require.IsType(t, stateMsg{}, msg)
		m, _ = apply(t, m, msg)
		st = m.state
	}
	require.Equal(t, loader.PhaseLoaded, st.Phase)
	require.Contains(t, m.renderLoad(), "tri.stl")
}

func TestLoadFailure(t *testing.T) {
	m := newTestModel(t)
	m, _ = apply(t, m, m.load("missing.obj")())
	require.True(t, m.statusErr)
	require.False(t, m.session.HasModel())
}

func TestDisplayKeys(t *testing.T) {
	m := loadTestModel(t)

	m = press(t, m, "w")
	wire, _ := m.session.Toggles()
	require.True(t, wire)
	require.Equal(t, "Wireframe on.", m.status)

	m = press(t, m, "e")
	_, edges := m.session.Toggles()
	require.True(t, edges)

	m = press(t, m, "a")
	require.False(t, m.session.AxesVisible())

	m = press(t, m, "3")
	require.Equal(t, view.PerspectiveRear, m.session.Perspective())

	m = press(t, m, "r")
	require.Equal(t, view.PerspectiveNone, m.session.Perspective())

	before := m.session.Camera().Zoom
	m = press(t, m, "-")
	require.Greater(t, m.session.Camera().Zoom, before)
}

func TestRotationKeys(t *testing.T) {
	m := loadTestModel(t)

	m = press(t, m, "x")
	require.False(t, m.session.Rotation(view.AxisX).Enabled)
	require.Contains(t, m.status, "speed first")

	m, _ = command(t, m, "speed x 0.5")
	require.False(t, m.statusErr, m.status)
	require.Equal(t, 0.5, m.session.Rotation(view.AxisX).Speed)

	m = press(t, m, "x")
	require.True(t, m.session.Rotation(view.AxisX).Enabled)

	m = press(t, m, "X")
	require.Equal(t, view.Rotation{}, m.session.Rotation(view.AxisX))

	m, _ = command(t, m, "speed w 1")
	require.True(t, m.statusErr)
}

func TestMeshCommands(t *testing.T) {
	m := loadTestModel(t)

	m, _ = command(t, m, "color #00ff00")
	require.False(t, m.statusErr, m.status)
	require.Equal(t, "#00FF00", m.meshes[0].Color)

	m = press(t, m, " ")
	require.False(t, m.meshes[0].Visible)
	_, tris, err := m.session.Info()
	require.NoError(t, err)
	require.Zero(t, tris)

	m, _ = command(t, m, "bg #112233")
	require.Equal(t, "#112233", m.session.Background().String())

	m, _ = command(t, m, "explode")
	require.True(t, m.statusErr)

	m, cmd := command(t, m, "load tri.stl")
	require.NotNil(t, cmd)
	require.IsType(t, loadDoneMsg{}, cmd())
}

func TestCommandModeEscape(t *testing.T) {
	m := loadTestModel(t)
	m = press(t, m, ":")
	m = press(t, m, "w")
	require.True(t, m.commandMode)
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.commandMode)

	wire, _ := m.session.Toggles()
	require.False(t, wire)
}

func TestTickRendersFrame(t *testing.T) {
	m := loadTestModel(t)

	m, cmd := apply(t, m, tickMsg{})
	require.NotNil(t, cmd)
	require.Len(t, strings.Split(m.frame, "\n"), 30-reservedRows)
	require.Greater(t, m.canvas.Frame().Covered(m.session.Background()), 0)
	require.Contains(t, m.View(), "tri.stl")
}

func TestQuit(t *testing.T) {
	m := loadTestModel(t)
	_, cmd := apply(t, m, key("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSnapshot(t *testing.T) {
	m := loadTestModel(t)

	var buf bytes.Buffer
	require.NoError(t, Snapshot(&buf, m.session, 20, 5))
	out := buf.String()
	require.Contains(t, out, "tri.stl")
	require.Contains(t, out, "vertices")
	require.Equal(t, 5+4, strings.Count(out, "\n"))
}
