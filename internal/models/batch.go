package models

import (
	"slices"

	"github.com/google/uuid"
)

// UploadBatch is the ordered selection a user hands to the intake, either
// picked file by file or dropped as a directory.
type UploadBatch struct {
	Id    string
	Files []FileMeta
}

func NewUploadBatch(files ...FileMeta) *UploadBatch {
	return &UploadBatch{
		Id:    uuid.NewString(),
		Files: files,
	}
}

func (b *UploadBatch) Add(fm FileMeta) {
	b.Files = append(b.Files, fm)
}

func (b *UploadBatch) Len() int {
	return len(b.Files)
}

// Clear empties the selection once it has been dispatched.
func (b *UploadBatch) Clear() {
	b.Files = nil
}

// ModelFiles returns the files whose extension is one of modelExts, in
// batch order.
func (b *UploadBatch) ModelFiles(modelExts []string) []FileMeta {
	var res []FileMeta
	for _, f := range b.Files {
		if slices.Contains(modelExts, f.Ext()) {
			res = append(res, f)
		}
	}
	return res
}
