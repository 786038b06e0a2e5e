package intake

import "fmt"

// Kind enumerates the client-side validation failures. Values double as the
// error code shown in the dialog title.
type Kind int

const (
	KindUnsupportedExtension Kind = iota + 1
	KindInvalidFilename
	KindEmptySelection
	KindNoModelFile
	KindMultipleModelFiles
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedExtension:
		return "unsupported-extension"
	case KindInvalidFilename:
		return "invalid-filename"
	case KindEmptySelection:
		return "empty-selection"
	case KindNoModelFile:
		return "no-model-file"
	case KindMultipleModelFiles:
		return "multiple-model-files"
	default:
		return "unknown"
	}
}

// ValidationError is the single error reported for a rejected batch.
type ValidationError struct {
	Kind    Kind
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (file %s)", e.Kind, e.Message, e.File)
}

func (e *ValidationError) Title() string {
	return fmt.Sprintf("ERROR %d", int(e.Kind))
}
