package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitExt(t *testing.T) {
	tests := []struct {
		name string
		stem string
		ext  string
	}{
		{"robot.obj", "robot", "obj"},
		{"Robot.OBJ", "Robot", "obj"},
		{"my.part.v2.fbx", "my.part.v2", "fbx"},
		{"README", "README", ""},
		{"trailing.", "trailing", ""},
	}

	for _, tt := range tests {
		stem, ext := SplitExt(tt.name)
		if stem != tt.stem || ext != tt.ext {
			t.Errorf("SplitExt(%q) = (%q, %q); want (%q, %q)", tt.name, stem, ext, tt.stem, tt.ext)
		}
	}
}

func TestGenFileMeta(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "cube.stl")
	if err := os.WriteFile(fpath, []byte("solid cube\nendsolid cube\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := GenFileMeta(fpath)
	if err != nil {
		t.Fatalf("GenFileMeta failed: %v", err)
	}
	if meta.Filename != "cube.stl" {
		t.Errorf("Filename = %q; want cube.stl", meta.Filename)
	}
	if meta.Size != 24 {
		t.Errorf("Size = %d; want 24", meta.Size)
	}
	if len(meta.Checksum) != 64 {
		t.Errorf("Checksum length = %d; want 64", len(meta.Checksum))
	}
	if meta.Ext() != "stl" || meta.Stem() != "cube" {
		t.Errorf("Ext/Stem = %q/%q", meta.Ext(), meta.Stem())
	}

	content, err := meta.ReadContent()
	if err != nil {
		t.Fatalf("ReadContent failed: %v", err)
	}
	if string(content) != "solid cube\nendsolid cube\n" {
		t.Errorf("ReadContent = %q", content)
	}
}

func TestUploadBatchModelFiles(t *testing.T) {
	batch := NewUploadBatch(
		NewMemFileMeta("robot.obj", []byte("v 0 0 0")),
		NewMemFileMeta("robot.mtl", []byte("newmtl a")),
		NewMemFileMeta("skin.png", []byte{0x89}),
	)

	got := batch.ModelFiles([]string{"obj", "fbx", "stl"})
	if len(got) != 1 || got[0].Filename != "robot.obj" {
		t.Fatalf("ModelFiles = %+v; want robot.obj only", got)
	}

	batch.Clear()
	if batch.Len() != 0 {
		t.Errorf("Len after Clear = %d; want 0", batch.Len())
	}
}

func TestUploadResultOK(t *testing.T) {
	if !(UploadResult{}).OK() {
		t.Error("zero error code should be OK")
	}
	if (UploadResult{ErrorCode: 2}).OK() {
		t.Error("non-zero error code should not be OK")
	}
}
