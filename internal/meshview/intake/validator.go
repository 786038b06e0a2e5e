// Package intake decides whether a batch of candidate files may be uploaded.
// Nothing here touches the network.
package intake

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/meshview/notify"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
)

var filenameRe = regexp.MustCompile(constants.FilenamePattern)

// Rules are the extension sets a batch is checked against.
type Rules struct {
	Allowed []string
	Models  []string
}

func DefaultRules() Rules {
	return Rules{
		Allowed: slices.Clone(constants.AllowedExtensions),
		Models:  slices.Clone(constants.ModelExtensions),
	}
}

// NewRules normalises extension lists from configuration. Empty lists fall
// back to the defaults.
func NewRules(allowed, modelExts []string) Rules {
	rules := DefaultRules()
	if len(allowed) > 0 {
		rules.Allowed = normalise(allowed)
	}
	if len(modelExts) > 0 {
		rules.Models = normalise(modelExts)
	}
	return rules
}

func normalise(exts []string) []string {
	res := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(ext)), ".")
		if ext != "" {
			res = append(res, ext)
		}
	}
	return res
}

func (r Rules) IsAllowed(ext string) bool {
	return slices.Contains(r.Allowed, strings.ToLower(ext))
}

func (r Rules) IsModel(ext string) bool {
	return slices.Contains(r.Models, strings.ToLower(ext))
}

// ValidFilename reports whether name only uses English letters, digits and
// the characters " _-.".
func ValidFilename(name string) bool {
	return filenameRe.MatchString(name)
}

// Validate applies the batch rules in order and returns the first failure as
// a *ValidationError, or the single model file on success.
func Validate(batch *models.UploadBatch, rules Rules) (models.FileMeta, error) {
	if batch == nil || batch.Len() == 0 {
		return models.FileMeta{}, newError(KindEmptySelection, "", "No files have been selected.")
	}

	for _, f := range batch.Files {
		if !rules.IsAllowed(f.Ext()) {
			return models.FileMeta{}, newError(KindUnsupportedExtension, f.Filename,
				"File extension is not supported. Make sure to only upload files with extensions: ."+strings.Join(rules.Allowed, ", ."))
		}
	}

	for _, f := range batch.Files {
		if !ValidFilename(f.Filename) {
			return models.FileMeta{}, newError(KindInvalidFilename, f.Filename,
				"Invalid filename. English - only characters, numbers and [_-.] are allowed.")
		}
	}

	modelFiles := batch.ModelFiles(rules.Models)
	switch len(modelFiles) {
	case 0:
		return models.FileMeta{}, newError(KindNoModelFile, "",
			"No model file has been selected. Make sure to select one file with extension: ."+strings.Join(rules.Models, ", ."))
	case 1:
		return modelFiles[0], nil
	default:
		return models.FileMeta{}, newError(KindMultipleModelFiles, modelFiles[1].Filename,
			"Only one model file can be uploaded at a time.")
	}
}

func newError(kind Kind, file string, msg string) *ValidationError {
	return &ValidationError{Kind: kind, File: file, Message: msg}
}

// Check validates the batch and, on failure, raises the error dialog.
func Check(batch *models.UploadBatch, rules Rules, n notify.Notifier) (models.FileMeta, error) {
	model, err := Validate(batch, rules)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			n.Error(verr.Title(), verr.Message, verr.File)
		}
		return models.FileMeta{}, err
	}
	return model, nil
}
