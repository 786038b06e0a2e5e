// Package meshview wires the upload flow together: intake, sequential
// dispatch, loading from the receiver and the handoff to the view session.
package meshview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/dorian305/3D-Model-Viewer/internal/config"
	"github.com/dorian305/3D-Model-Viewer/internal/loader"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/intake"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/notify"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/send"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
	"github.com/dorian305/3D-Model-Viewer/internal/scene"
	"github.com/dorian305/3D-Model-Viewer/internal/view"
)

type Viewer struct {
	rules      intake.Rules
	dispatcher *send.Dispatcher
	loader     *loader.Loader
	session    *view.Session
	notifier   notify.Notifier
}

// NewViewer builds the pipeline from configuration. Uploaded models are
// read back from the receiver's upload directory.
func NewViewer(cfg config.Config, n notify.Notifier) (*Viewer, error) {
	if n == nil {
		n = notify.LogNotifier{}
	}

	d, err := send.NewDispatcher(cfg.Client, n)
	if err != nil {
		return nil, err
	}
	src := loader.NewHTTPSource(d.Endpoint()+constants.UploadDirPath, cfg.Client.Timeout)

	return &Viewer{
		rules:      intake.NewRules(cfg.Intake.Allowed, cfg.Intake.Models),
		dispatcher: d,
		loader:     loader.New(src, loader.NewObjectCache(cfg.Viewer.CacheSize)),
		session:    view.NewSession(cfg.Viewer, 1),
		notifier:   n,
	}, nil
}

func (v *Viewer) Rules() intake.Rules {
	return v.rules
}

func (v *Viewer) Loader() *loader.Loader {
	return v.loader
}

func (v *Viewer) Session() *view.Session {
	return v.session
}

// Submit validates batch, uploads it file by file and shows the model once
// every file is on the receiver. Nothing is sent if validation fails and
// nothing is loaded if an upload fails.
func (v *Viewer) Submit(ctx context.Context, batch *models.UploadBatch) (*scene.Object, error) {
	model, err := intake.Check(batch, v.rules, v.notifier)
	if err != nil {
		return nil, err
	}

	out, err := v.dispatcher.Dispatch(ctx, batch, model)
	if err != nil {
		return nil, err
	}
	slog.Info("Batch uploaded", "model", out.Model, "files", len(out.Results))

	obj, err := v.loader.Load(ctx, out.Model)
	if err != nil {
		v.notifier.Error("ERROR", err.Error(), out.Model)
		return nil, err
	}

	v.session.Handoff(obj, out.Model)
	return obj, nil
}

// BatchFromPaths is the file picker entry point: every path becomes one
// entry of the batch.
func BatchFromPaths(paths ...string) (*models.UploadBatch, error) {
	batch := models.NewUploadBatch()
	for _, p := range paths {
		fm, err := models.GenFileMeta(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		batch.Add(fm)
	}
	return batch, nil
}

// BatchFromDir is the drop entry point: the regular files directly inside
// dir, in name order.
func BatchFromDir(dir string) (*models.UploadBatch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	return BatchFromPaths(paths...)
}
