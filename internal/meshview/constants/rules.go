package constants

// MaxUploadSize is the largest accepted upload (100 MiB).
const MaxUploadSize int64 = 104_857_600

var (
	AllowedExtensions = []string{"obj", "fbx", "stl", "mtl", "jpg", "png"}
	ModelExtensions   = []string{"obj", "fbx", "stl"}
)

// FilenamePattern is the set of characters accepted in uploaded filenames.
const FilenamePattern = `(?i)^[-0-9A-Z_. ]+$`
