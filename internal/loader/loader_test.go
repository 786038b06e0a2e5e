package loader

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
		err  bool
	}{
		{"robot.obj", FormatOBJ, false},
		{"ROBOT.OBJ", FormatOBJ, false},
		{"plate.fbx", FormatFBX, false},
		{"cube.stl", FormatSTL, false},
		{"robot.mtl", FormatUnknown, true},
		{"noext", FormatUnknown, true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		if got != tt.want || (err != nil) != tt.err {
			t.Errorf("DetectFormat(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("DetectFormat(%q) error = %v; want ErrUnsupportedFormat", tt.name, err)
		}
	}
}

func writeFiles(t *testing.T, files map[string][]byte) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// collect drains a subscription until the terminal state.
func collect(ch <-chan State) []State {
	var states []State
	for st := range ch {
		states = append(states, st)
		if st.Done() {
			break
		}
	}
	return states
}

func phases(states []State) []Phase {
	var res []Phase
	for _, st := range states {
		if len(res) == 0 || res[len(res)-1] != st.Phase {
			res = append(res, st.Phase)
		}
	}
	return res
}

func TestLoadOBJWithMaterial(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{
		"robot.obj": []byte(robotOBJ),
		"robot.mtl": []byte(robotMTL),
	})

	l := New(DirSource{Root: dir}, nil)
	ch, stop := l.Subscribe()
	defer stop()

	done := make(chan []State, 1)
	go func() { done <- collect(ch) }()

	obj, err := l.Load(context.Background(), "robot.obj")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(obj.Meshes) != 2 {
		t.Fatalf("meshes = %d; want 2", len(obj.Meshes))
	}
	body := obj.Meshes[0]
	if body.Name != "body" || body.VertexCount() != 6 {
		t.Errorf("body = %q with %d vertices; want body with 6", body.Name, body.VertexCount())
	}
	if body.Material.Color != (scene.Color{R: 1}) {
		t.Errorf("body color = %v; want red", body.Material.Color)
	}

	v, tr := obj.Info()
	if v != 9 || tr != 3 {
		t.Errorf("Info() = %d, %d; want 9, 3", v, tr)
	}

	got := phases(<-done)
	want := []Phase{PhaseProbing, PhaseLoading, PhaseLoaded}
	if len(got) != len(want) {
		t.Fatalf("phases = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("phases = %v; want %v", got, want)
		}
	}
}

func TestLoadOBJMissingMaterial(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{"part.obj": []byte(partOBJ)})

	l := New(DirSource{Root: dir}, nil)
	obj, err := l.Load(context.Background(), "part.obj")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := scene.DefaultMaterial()
	if m := obj.Meshes[0].Material; m.Color != def.Color || m.Name != def.Name {
		t.Errorf("material = %+v; want default", m)
	}
	if st := l.State(); st.Phase != PhaseLoaded || st.Object != obj {
		t.Errorf("State() = %v; want loaded", st.Phase)
	}
}

func TestLoadSTL(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{
		"tri.stl":     []byte(cubeASCII),
		"colored.stl": binarySTL([]uint16{0x001f, 0x8000}, [4]byte{0, 255, 0, 128}),
		"plain.stl":   binarySTL([]uint16{0, 0, 0}, [4]byte{}),
	})
	l := New(DirSource{Root: dir}, nil)

	obj, err := l.Load(context.Background(), "tri.stl")
	if err != nil {
		t.Fatalf("Load(tri.stl) error = %v", err)
	}
	m := obj.Meshes[0]
	if m.TriangleCount() != 2 || m.Material.Color != scene.ColorFromHex(0xe5e5e5) || m.Material.Shininess != 100 {
		t.Errorf("tri.stl mesh = %d triangles, material %+v", m.TriangleCount(), m.Material)
	}

	obj, err = l.Load(context.Background(), "plain.stl")
	if err != nil {
		t.Fatalf("Load(plain.stl) error = %v", err)
	}
	if obj.Meshes[0].TriangleCount() != 3 || obj.Meshes[0].Material.VertexColors {
		t.Errorf("plain.stl = %+v", obj.Meshes[0])
	}

	obj, err = l.Load(context.Background(), "colored.stl")
	if err != nil {
		t.Fatalf("Load(colored.stl) error = %v", err)
	}
	m = obj.Meshes[0]
	if !m.Material.VertexColors || m.Material.Opacity != 128.0/255 {
		t.Errorf("colored.stl material = %+v", m.Material)
	}
	// first face carries its own red, second falls back to the header green
	if c := m.VertexColor(0); c != (scene.Color{R: 1}) {
		t.Errorf("face 0 color = %v; want red", c)
	}
	if c := m.VertexColor(3); c != (scene.Color{G: 1}) {
		t.Errorf("face 1 color = %v; want green", c)
	}
}

func TestDecodeSTLErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short binary", []byte("abc")},
		{"truncated faces", binarySTL([]uint16{0, 0}, [4]byte{})[:120]},
		{"two vertex facet", []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid\n")},
		{"bad number", []byte("solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 zero 0\n")},
	}

	for _, tt := range tests {
		if _, err := DecodeSTL(tt.data); !errors.Is(err, ErrMalformedSTL) {
			t.Errorf("%s: DecodeSTL() error = %v; want ErrMalformedSTL", tt.name, err)
		}
	}
}

func TestDecodeFBX(t *testing.T) {
	tests := []struct {
		version  uint32
		compress bool
	}{
		{7400, false},
		{7400, true},
		{7500, false},
		{7700, true},
	}

	for _, tt := range tests {
		data := encodeFBX(t, tt.version, tt.compress, quadFBX()...)

		root, version, err := ParseFBX(data)
		if err != nil {
			t.Fatalf("ParseFBX(v%d) error = %v", tt.version, err)
		}
		if version != tt.version || root.Child("Objects") == nil {
			t.Errorf("ParseFBX(v%d) = version %d, children %d", tt.version, version, len(root.Children))
		}

		obj, err := DecodeFBX("plate", data)
		if err != nil {
			t.Fatalf("DecodeFBX(v%d) error = %v", tt.version, err)
		}
		if len(obj.Meshes) != 1 {
			t.Fatalf("meshes = %d; want 1", len(obj.Meshes))
		}

		m := obj.Meshes[0]
		if m.Name != "Plate" {
			t.Errorf("mesh name = %q; want Plate", m.Name)
		}
		if m.TriangleCount() != 3 || m.VertexCount() != 9 {
			t.Errorf("counts = %d vertices, %d triangles; want 9, 3", m.VertexCount(), m.TriangleCount())
		}
		if m.Material.Color != (scene.Color{B: 1}) || m.Material.Opacity != 0.5 || !m.Material.Transparent {
			t.Errorf("material = %+v", m.Material)
		}
	}
}

func TestDecodeFBXErrors(t *testing.T) {
	if _, err := DecodeFBX("a", []byte("; FBX 7.4.0 project file\nFBXHeaderExtension:  {\n}")); !errors.Is(err, ErrASCIIFBX) {
		t.Errorf("ascii error = %v; want ErrASCIIFBX", err)
	}
	if _, err := DecodeFBX("a", []byte("not an fbx at all, just bytes")); !errors.Is(err, ErrMalformedFBX) {
		t.Errorf("garbage error = %v; want ErrMalformedFBX", err)
	}

	data := encodeFBX(t, 7400, false, quadFBX()...)
	if _, err := DecodeFBX("a", data[:len(data)/2]); !errors.Is(err, ErrMalformedFBX) {
		t.Errorf("truncated error = %v; want ErrMalformedFBX", err)
	}

	empty := encodeFBX(t, 7400, false, &fbxNode{name: "Objects", children: []*fbxNode{
		{name: "Model", props: []any{int64(1), "Empty\x00\x01Model", "Null"}},
	}})
	if _, err := DecodeFBX("a", empty); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("no geometry error = %v; want ErrNoGeometry", err)
	}
}

func TestDecodeFBXOversizedArray(t *testing.T) {
	tests := []struct {
		name  string
		count uint32
		raw   []byte
	}{
		{"count beyond deflate ratio", 0xFFFFFFFF, make([]byte, 16)},
		{"payload shorter than count", 1000, make([]byte, 8)},
	}

	for _, tt := range tests {
		data := encodeFBX(t, 7400, true, &fbxNode{name: "Objects", children: []*fbxNode{
			{name: "Geometry", props: []any{int64(1), "G\x00\x01Geometry", "Mesh"}, children: []*fbxNode{
				{name: "Vertices", props: []any{rawArray{typ: 'd', count: tt.count, raw: tt.raw}}},
			}},
		}})
		if _, err := DecodeFBX("a", data); !errors.Is(err, ErrMalformedFBX) {
			t.Errorf("%s: DecodeFBX() error = %v; want ErrMalformedFBX", tt.name, err)
		}
	}

	dir := writeFiles(t, map[string][]byte{"bomb.fbx": encodeFBX(t, 7400, true, &fbxNode{name: "Objects", children: []*fbxNode{
		{name: "Geometry", props: []any{int64(1), "G\x00\x01Geometry", "Mesh"}, children: []*fbxNode{
			{name: "Vertices", props: []any{rawArray{typ: 'd', count: 0xFFFFFFFF, raw: make([]byte, 16)}}},
		}},
	}})})
	l := New(DirSource{Root: dir}, nil)
	if _, err := l.Load(context.Background(), "bomb.fbx"); !errors.Is(err, ErrMalformedFBX) {
		t.Errorf("Load(bomb.fbx) error = %v; want ErrMalformedFBX", err)
	}
	if st := l.State(); st.Phase != PhaseFailed {
		t.Errorf("State() = %v; want failed", st.Phase)
	}
}

func TestLoadFailed(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{"broken.fbx": []byte("; FBX 7.4.0 project file\n")})
	l := New(DirSource{Root: dir}, nil)

	ch, stop := l.Subscribe()
	defer stop()

	_, err := l.Load(context.Background(), "broken.fbx")

	var lerr *LoadError
	if !errors.As(err, &lerr) || lerr.Format != FormatFBX || !errors.Is(err, ErrASCIIFBX) {
		t.Fatalf("Load() error = %v; want *LoadError wrapping ErrASCIIFBX", err)
	}

	states := collect(ch)
	last := states[len(states)-1]
	if last.Phase != PhaseFailed || last.Object != nil {
		t.Errorf("terminal state = %v", last.Phase)
	}

	if _, err := l.Load(context.Background(), "missing.stl"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v; want not exist", err)
	}
	if _, err := l.Load(context.Background(), "robot.mtl"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(mtl) error = %v; want ErrUnsupportedFormat", err)
	}
}

func TestLoadUsesCache(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{"tri.stl": []byte(cubeASCII)})
	cache := NewObjectCache(2)
	l := New(DirSource{Root: dir}, cache)

	first, err := l.Load(context.Background(), "tri.stl")
	if err != nil {
		t.Fatal(err)
	}
	first.Meshes[0].Visible = false

	second, err := l.Load(context.Background(), "tri.stl")
	if err != nil {
		t.Fatalf("cached Load() error = %v", err)
	}
	if second == first || !second.Meshes[0].Visible {
		t.Error("cached Load() returned shared state")
	}
	if cache.Len() != 1 {
		t.Errorf("cache.Len() = %d; want 1", cache.Len())
	}

	if _, found := cache.Get(l.cacheKey("tri.stl"), digest([]byte(cubeASCII))); !found {
		t.Error("cache entry not keyed on file content")
	}

	// a cached entry never outlives its file
	if err := os.Remove(filepath.Join(dir, "tri.stl")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), "tri.stl"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(removed) error = %v; want not exist", err)
	}
}

func TestLoadCachedOBJProbesMaterial(t *testing.T) {
	const obj = `mtllib part.mtl
o part
v 0 0 0
v 2 0 0
v 0 3 0
usemtl red
f 1 2 3
`
	dir := writeFiles(t, map[string][]byte{"part.obj": []byte(obj)})
	l := New(DirSource{Root: dir}, NewObjectCache(8))

	first, err := l.Load(context.Background(), "part.obj")
	if err != nil {
		t.Fatal(err)
	}
	if c := first.Meshes[0].Material.Color; c != scene.DefaultMaterial().Color {
		t.Fatalf("first color = %v; want default", c)
	}

	if err := os.WriteFile(filepath.Join(dir, "part.mtl"), []byte(robotMTL), 0o644); err != nil {
		t.Fatal(err)
	}

	ch, stop := l.Subscribe()
	defer stop()
	done := make(chan []State, 1)
	go func() { done <- collect(ch) }()

	second, err := l.Load(context.Background(), "part.obj")
	if err != nil {
		t.Fatal(err)
	}
	if c := second.Meshes[0].Material.Color; c != (scene.Color{R: 1}) {
		t.Errorf("second color = %v; want red", c)
	}
	if got := phases(<-done); len(got) == 0 || got[0] != PhaseProbing {
		t.Errorf("phases = %v; want probing first", got)
	}

	// a re-uploaded file under the same name replaces the entry
	if err := os.WriteFile(filepath.Join(dir, "part.mtl"), []byte("newmtl red\nKd 0 0 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := l.Load(context.Background(), "part.obj")
	if err != nil {
		t.Fatal(err)
	}
	if c := third.Meshes[0].Material.Color; c != (scene.Color{B: 1}) {
		t.Errorf("third color = %v; want blue", c)
	}
}

func TestLoadFailureForgetsCacheEntry(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{"tri.stl": []byte(cubeASCII)})
	cache := NewObjectCache(2)
	l := New(DirSource{Root: dir}, cache)

	if _, err := l.Load(context.Background(), "tri.stl"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tri.stl"), []byte("solid broken\n  facet"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), "tri.stl"); err == nil {
		t.Fatal("Load(broken) error = nil")
	}
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d; want 0", cache.Len())
	}
}

func TestSubscribeKeepsTerminalState(t *testing.T) {
	l := New(DirSource{Root: t.TempDir()}, nil)
	ch, stop := l.Subscribe()

	for i := 0; i < subscriberBuffer*2; i++ {
		l.set(State{Phase: PhaseLoading, Loaded: int64(i), Total: 100})
	}
	l.set(State{Phase: PhaseLoaded})
	stop()

	var last State
	n := 0
	for st := range ch {
		last = st
		n++
	}
	if n != subscriberBuffer || last.Phase != PhaseLoaded {
		t.Errorf("received %d states ending in %v; want %d ending in loaded", n, last.Phase, subscriberBuffer)
	}
}

func TestHTTPSource(t *testing.T) {
	dir := writeFiles(t, map[string][]byte{
		"robot.obj": []byte(robotOBJ),
		"robot.mtl": []byte(robotMTL),
		"part.obj":  []byte(partOBJ),
	})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Static("/upload-temp", dir)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go app.Listener(ln)
	defer app.Shutdown()

	src := NewSource("http://"+ln.Addr().String()+"/upload-temp", 5*time.Second)
	if _, ok := src.(*HTTPSource); !ok {
		t.Fatalf("NewSource(http) = %T; want *HTTPSource", src)
	}

	ok, err := src.Exists(context.Background(), "robot.mtl")
	if err != nil || !ok {
		t.Errorf("Exists(robot.mtl) = %v, %v; want true", ok, err)
	}
	ok, err = src.Exists(context.Background(), "part.mtl")
	if err != nil || ok {
		t.Errorf("Exists(part.mtl) = %v, %v; want false", ok, err)
	}

	l := New(src, nil)
	obj, err := l.Load(context.Background(), "robot.obj")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if obj.Meshes[0].Material.Name != "red" {
		t.Errorf("material = %q; want red", obj.Meshes[0].Material.Name)
	}

	if _, _, err := src.Open(context.Background(), "gone.obj"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(gone) error = %v; want not exist", err)
	}
}

func TestObjectCacheEviction(t *testing.T) {
	cache := NewObjectCache(2)
	a, b, c := scene.NewObject("a"), scene.NewObject("b"), scene.NewObject("c")

	cache.Put("a", "1", a)
	cache.Put("b", "1", b)
	cache.Get("a", "1")
	cache.Put("c", "1", c)

	if _, found := cache.Get("b", "1"); found {
		t.Error("b should have been evicted")
	}
	if got, found := cache.Get("a", "1"); !found || got != a {
		t.Error("expected to find a")
	}

	cache.Forget("a")
	if _, found := cache.Get("a", "1"); found {
		t.Error("a should have been forgotten")
	}

	if _, found := cache.Get("c", "2"); found {
		t.Error("c matched a different digest")
	}
	if cache.Len() != 0 {
		t.Errorf("cache.Len() = %d; want 0 after digest mismatch", cache.Len())
	}

	disabled := NewObjectCache(0)
	disabled.Put("a", "1", a)
	if disabled.Len() != 0 {
		t.Error("zero capacity cache stored an entry")
	}
}
