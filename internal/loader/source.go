package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Source is where model files are read from.
type Source interface {
	// Exists reports whether name is present. It backs the material probe.
	Exists(ctx context.Context, name string) (bool, error)
	// Open returns the content of name and its size, or -1 when unknown.
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	String() string
}

// NewSource returns an HTTPSource for http(s) locations and a DirSource
// otherwise.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, timeout)
	}
	return DirSource{Root: location}
}

// DirSource reads files from a local directory.
type DirSource struct {
	Root string
}

func (ds DirSource) path(name string) string {
	return filepath.Join(ds.Root, filepath.Base(name))
}

func (ds DirSource) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fi, err := os.Stat(ds.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

func (ds DirSource) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	fd, err := os.Open(ds.path(name))
	if err != nil {
		return nil, 0, err
	}

	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, 0, err
	}
	return fd, fi.Size(), nil
}

func (ds DirSource) String() string {
	return ds.Root
}

// HTTPSource reads files below a base URL, such as the receiver's
// /upload-temp or /example-models.
type HTTPSource struct {
	base    string
	timeout time.Duration
}

func NewHTTPSource(base string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{base: strings.TrimSuffix(base, "/"), timeout: timeout}
}

func (hs *HTTPSource) url(name string) string {
	return hs.base + "/" + url.PathEscape(filepath.Base(name))
}

func (hs *HTTPSource) do(ctx context.Context, method, name string) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetUserAgent("meshview")
	req.Header.SetMethod(method)
	req.SetRequestURI(hs.url(name))
	agent.Timeout(hs.timeout)
	if err := agent.Parse(); err != nil {
		return 0, nil, err
	}

	status, body, errs := agent.InsecureSkipVerify().Bytes()
	if len(errs) != 0 {
		return 0, nil, errs[0]
	}
	return status, body, nil
}

func (hs *HTTPSource) Exists(ctx context.Context, name string) (bool, error) {
	status, _, err := hs.do(ctx, fiber.MethodHead, name)
	if err != nil {
		return false, err
	}
	return status == fiber.StatusOK, nil
}

func (hs *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	status, body, err := hs.do(ctx, fiber.MethodGet, name)
	if err != nil {
		return nil, 0, err
	}

	switch status {
	case fiber.StatusOK:
		return io.NopCloser(bytes.NewReader(body)), int64(len(body)), nil
	case fiber.StatusNotFound:
		return nil, 0, fmt.Errorf("%s: %w", hs.url(name), fs.ErrNotExist)
	default:
		return nil, 0, fmt.Errorf("%s: unexpected status %d", hs.url(name), status)
	}
}

func (hs *HTTPSource) String() string {
	return hs.base
}
