package intake

import (
	"errors"
	"testing"

	"github.com/dorian305/3D-Model-Viewer/internal/meshview/notify"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
)

func batchOf(names ...string) *models.UploadBatch {
	batch := models.NewUploadBatch()
	for _, name := range names {
		batch.Add(models.NewMemFileMeta(name, []byte("x")))
	}
	return batch
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error %v is not a *ValidationError", err)
	}
	return verr.Kind
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		kind  Kind // 0 means valid
		file  string
		model string
	}{
		{"obj with mtl", []string{"robot.obj", "robot.mtl"}, 0, "", "robot.obj"},
		{"fbx with textures", []string{"car.fbx", "paint.jpg", "decal.png"}, 0, "", "car.fbx"},
		{"stl alone", []string{"bracket.stl"}, 0, "", "bracket.stl"},
		{"upper case extension", []string{"ROBOT.OBJ"}, 0, "", "ROBOT.OBJ"},
		{"space and dash", []string{"my model-v2_final.obj"}, 0, "", "my model-v2_final.obj"},
		{"empty", nil, KindEmptySelection, "", ""},
		{"bad extension", []string{"robot.obj", "notes.txt"}, KindUnsupportedExtension, "notes.txt", ""},
		{"no extension", []string{"robot.obj", "Makefile"}, KindUnsupportedExtension, "Makefile", ""},
		{"bad filename", []string{"rob@t.obj"}, KindInvalidFilename, "rob@t.obj", ""},
		{"non english", []string{"модель.obj"}, KindInvalidFilename, "модель.obj", ""},
		{"no model", []string{"robot.mtl", "skin.png"}, KindNoModelFile, "", ""},
		{"two models", []string{"a.obj", "b.fbx"}, KindMultipleModelFiles, "b.fbx", ""},
		{"three models", []string{"a.obj", "b.stl", "c.obj"}, KindMultipleModelFiles, "b.stl", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := Validate(batchOf(tt.files...), DefaultRules())
			if tt.kind == 0 {
				if err != nil {
					t.Fatalf("Validate returned %v; want nil", err)
				}
				if model.Filename != tt.model {
					t.Errorf("model = %q; want %q", model.Filename, tt.model)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate returned nil; want %s", tt.kind)
			}
			if got := kindOf(t, err); got != tt.kind {
				t.Errorf("kind = %s; want %s", got, tt.kind)
			}
			var verr *ValidationError
			errors.As(err, &verr)
			if verr.File != tt.file {
				t.Errorf("file = %q; want %q", verr.File, tt.file)
			}
		})
	}
}

func TestValidateRuleOrder(t *testing.T) {
	// extension errors win over filename errors, which win over model count
	_, err := Validate(batchOf("b@d.obj", "also.exe"), DefaultRules())
	if got := kindOf(t, err); got != KindUnsupportedExtension {
		t.Errorf("kind = %s; want unsupported-extension", got)
	}

	_, err = Validate(batchOf("a.obj", "b.obj", "b@d.png"), DefaultRules())
	if got := kindOf(t, err); got != KindInvalidFilename {
		t.Errorf("kind = %s; want invalid-filename", got)
	}
}

func TestValidFilename(t *testing.T) {
	valid := []string{"a.obj", "A-B_C.d e.OBJ", "0123.stl", "..."}
	invalid := []string{"", "a/b.obj", `a\b.obj`, "a+b.obj", "ä.obj", "a\tb.obj", "a,b.obj"}

	for _, name := range valid {
		if !ValidFilename(name) {
			t.Errorf("ValidFilename(%q) = false; want true", name)
		}
	}
	for _, name := range invalid {
		if ValidFilename(name) {
			t.Errorf("ValidFilename(%q) = true; want false", name)
		}
	}
}

func TestNewRules(t *testing.T) {
	rules := NewRules([]string{" .OBJ", "mtl", ""}, []string{"obj"})
	if !rules.IsAllowed("obj") || !rules.IsAllowed("MTL") || rules.IsAllowed("stl") {
		t.Errorf("unexpected allowed set %v", rules.Allowed)
	}

	// stl is now rejected before the model count is considered
	_, err := Validate(batchOf("a.stl"), rules)
	if got := kindOf(t, err); got != KindUnsupportedExtension {
		t.Errorf("kind = %s; want unsupported-extension", got)
	}

	defaults := NewRules(nil, nil)
	if len(defaults.Allowed) != 6 || len(defaults.Models) != 3 {
		t.Errorf("defaults = %+v", defaults)
	}
}

func TestCheckNotifies(t *testing.T) {
	var rec notify.Recorder

	_, err := Check(batchOf("robot.obj", "virus.exe"), DefaultRules(), &rec)
	if err == nil {
		t.Fatal("expected error")
	}

	errs := rec.Errors()
	if len(errs) != 1 {
		t.Fatalf("len(errors) = %d; want 1", len(errs))
	}
	if errs[0].Title != "ERROR 1" || errs[0].File != "virus.exe" {
		t.Errorf("dialog = %+v", errs[0])
	}

	var ok notify.Recorder
	model, err := Check(batchOf("robot.obj", "robot.mtl"), DefaultRules(), &ok)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if model.Filename != "robot.obj" {
		t.Errorf("model = %q", model.Filename)
	}
	if len(ok.Notes()) != 0 {
		t.Errorf("unexpected dialogs %+v", ok.Notes())
	}
}
