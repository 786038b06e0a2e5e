package models

import (
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dorian305/3D-Model-Viewer/internal/utils"
	"github.com/google/uuid"
)

// FileMeta describes one candidate file of an upload batch.
type FileMeta struct {
	Id       string `json:"id"`
	Filename string `json:"fileName"`
	Size     int64  `json:"size"`
	FileMIME string `json:"fileType"`
	Checksum string `json:"sha256,omitempty"`
	Modified string `json:"modified,omitempty"`
	FullPath string `json:"-"`
	Content  []byte `json:"-"` // set for files that never touched the disk
}

func GenFileMeta(fpath string) (FileMeta, error) {
	fd, err := os.Stat(fpath)
	if err != nil {
		return FileMeta{}, err
	}

	checksum, err := utils.SHA256ofFile(fpath)
	if err != nil {
		return FileMeta{}, err
	}

	return FileMeta{
		Id:       uuid.NewString(),
		Filename: fd.Name(),
		Size:     fd.Size(),
		FileMIME: mimeOf(fd.Name()),
		Checksum: checksum,
		Modified: fd.ModTime().Format(time.RFC3339),
		FullPath: fpath,
	}, nil
}

// NewMemFileMeta wraps bytes that arrived without a backing file.
func NewMemFileMeta(name string, content []byte) FileMeta {
	return FileMeta{
		Id:       uuid.NewString(),
		Filename: name,
		Size:     int64(len(content)),
		FileMIME: mimeOf(name),
		Checksum: utils.SHA256ofBytes(content),
		Content:  content,
	}
}

// Ext returns the lower-cased extension without its dot.
func (fm FileMeta) Ext() string {
	_, ext := SplitExt(fm.Filename)
	return ext
}

// Stem returns the filename without its extension.
func (fm FileMeta) Stem() string {
	stem, _ := SplitExt(fm.Filename)
	return stem
}

// ReadContent returns the bytes to upload.
func (fm FileMeta) ReadContent() ([]byte, error) {
	if fm.Content != nil {
		return fm.Content, nil
	}
	return os.ReadFile(fm.FullPath)
}

// SplitExt splits "robot.OBJ" into ("robot", "obj"). A name without a dot
// has an empty extension.
func SplitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == "" {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), strings.ToLower(ext[1:])
}

func mimeOf(name string) string {
	fileType := mime.TypeByExtension(filepath.Ext(name))
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	return fileType
}
