// Package loader turns a model file name into a scene object. The format is
// chosen once from the extension; OBJ files are probed for a companion
// material library first.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"

	"github.com/dorian305/3D-Model-Viewer/internal/models"
	"github.com/dorian305/3D-Model-Viewer/internal/scene"
)

const subscriberBuffer = 16

type Loader struct {
	src   Source
	cache *ObjectCache

	mu      sync.Mutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// New returns a loader reading from src. cache may be nil.
func New(src Source, cache *ObjectCache) *Loader {
	return &Loader{
		src:   src,
		cache: cache,
		subs:  make(map[int]chan State),
	}
}

// State returns the current snapshot.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Subscribe returns a channel of state changes and a function to stop
// receiving them. Intermediate progress may be dropped for slow readers,
// terminal states never are.
func (l *Loader) Subscribe() (<-chan State, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	ch := make(chan State, subscriberBuffer)
	l.subs[id] = ch

	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if c, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(c)
		}
	}
}

func (l *Loader) set(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = st
	for _, ch := range l.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		if !st.Done() {
			continue
		}
		// make room for the terminal state
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (l *Loader) fail(file string, format Format, err error) error {
	lerr := &LoadError{File: file, Format: format, Err: err}
	slog.Error("Model load failed", "file", file, "error", err)
	l.set(State{Phase: PhaseFailed, File: file, Err: lerr})
	return lerr
}

func (l *Loader) cacheKey(file string) string {
	return l.src.String() + "|" + file
}

// Load runs the strategy for filename's format to a terminal state. The
// returned object is the caller's to mutate.
func (l *Loader) Load(ctx context.Context, filename string) (*scene.Object, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, l.fail(filename, FormatUnknown, err)
	}

	var obj *scene.Object
	switch format {
	case FormatOBJ:
		obj, err = l.loadOBJ(ctx, filename)
	case FormatFBX:
		obj, err = l.loadFBX(ctx, filename)
	case FormatSTL:
		obj, err = l.loadSTL(ctx, filename)
	}
	if err != nil {
		return nil, l.fail(filename, format, err)
	}

	obj = obj.Clone()

	vertices, triangles := obj.Info()
	slog.Info("Model loaded", "file", filename, "format", format, "meshes", len(obj.Meshes),
		"vertices", vertices, "triangles", triangles)
	l.set(State{Phase: PhaseLoaded, File: filename, Object: obj})
	return obj, nil
}

// digest fingerprints the fetched inputs of a load. A nil part is distinct
// from an empty one.
func digest(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		size := int64(-1)
		if p != nil {
			size = int64(len(p))
		}
		binary.BigEndian.PutUint64(n[:], uint64(size))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// decode returns the cached object for filename when its inputs are
// unchanged and runs fn otherwise. The result is shared with the cache.
func (l *Loader) decode(filename, sum string, fn func() (*scene.Object, error)) (*scene.Object, error) {
	key := l.cacheKey(filename)
	if obj, ok := l.cache.Get(key, sum); ok {
		slog.Debug("Model cache hit", "file", filename)
		return obj, nil
	}

	obj, err := fn()
	if err != nil {
		l.cache.Forget(key)
		return nil, err
	}
	l.cache.Put(key, sum, obj)
	return obj, nil
}

// fetch reads name completely, publishing Loading progress.
func (l *Loader) fetch(ctx context.Context, name string) ([]byte, error) {
	rc, size, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	l.set(State{Phase: PhaseLoading, File: name, Total: size})
	pr := &progressReader{
		r:     rc,
		total: size,
		fn: func(read, total int64) {
			l.set(State{Phase: PhaseLoading, File: name, Loaded: read, Total: total})
		},
	}

	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, pr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (l *Loader) loadOBJ(ctx context.Context, filename string) (*scene.Object, error) {
	stem, _ := models.SplitExt(filename)
	mtlName := stem + ".mtl"

	l.set(State{Phase: PhaseProbing, File: filename})
	found, err := l.src.Exists(ctx, mtlName)
	if err != nil {
		slog.Warn("Material probe failed", "file", mtlName, "error", err)
		found = false
	}

	var mtlData []byte
	if found {
		slog.Info("Found matching MTL file. Loading OBJ with MTL.", "file", mtlName)
		data, err := l.fetch(ctx, mtlName)
		if err != nil {
			slog.Warn("Fail to read material library, loading geometry only", "file", mtlName, "error", err)
		} else {
			mtlData = append([]byte{}, data...)
		}
	} else {
		slog.Warn(mtlName+" not found. Loading "+filename+" only.", "file", filename)
	}

	data, err := l.fetch(ctx, filename)
	if err != nil {
		return nil, err
	}
	return l.decode(filename, digest(data, mtlData), func() (*scene.Object, error) {
		var mtl io.Reader
		if mtlData != nil {
			mtl = bytes.NewReader(mtlData)
		}
		return DecodeOBJ(stem, bytes.NewReader(data), mtl)
	})
}

func (l *Loader) loadFBX(ctx context.Context, filename string) (*scene.Object, error) {
	data, err := l.fetch(ctx, filename)
	if err != nil {
		return nil, err
	}
	stem, _ := models.SplitExt(filename)
	return l.decode(filename, digest(data), func() (*scene.Object, error) {
		return DecodeFBX(stem, data)
	})
}

func (l *Loader) loadSTL(ctx context.Context, filename string) (*scene.Object, error) {
	data, err := l.fetch(ctx, filename)
	if err != nil {
		return nil, err
	}

	stem, _ := models.SplitExt(filename)
	return l.decode(filename, digest(data), func() (*scene.Object, error) {
		geo, err := DecodeSTL(data)
		if err != nil {
			return nil, err
		}
		return NewSTLObject(stem, geo), nil
	})
}
