package constants

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes carried in the error_code field of an upload response.
const (
	CodeOK           = 0
	CodeBadExtension = 1
	CodeBadFilename  = 2
	CodeTooLarge     = 3
	CodeNoFile       = 4
)

var (
	ErrBadExtension      = errors.New("File extension is not supported")
	ErrBadFilename       = errors.New("Invalid filename")
	ErrTooLarge          = errors.New("File size is too big")
	ErrNoFile            = errors.New("No files have been selected")
	ErrMalformedResponse = errors.New("Malformed server response")
	ErrInvalidPIN        = errors.New("Invalid PIN")
	ErrNotFound          = errors.New("Not found")
	ErrFileIO            = errors.New("File IO")
	ErrUnknown           = errors.New("Unknown error")
)

// ParseError maps an upload error code to its sentinel error.
func ParseError(code int) error {
	switch code {
	case CodeOK:
		return nil
	case CodeBadExtension:
		return ErrBadExtension
	case CodeBadFilename:
		return ErrBadFilename
	case CodeTooLarge:
		return ErrTooLarge
	case CodeNoFile:
		return ErrNoFile
	default:
		return ErrUnknown
	}
}

func Code(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrBadExtension):
		return CodeBadExtension
	case errors.Is(err, ErrBadFilename):
		return CodeBadFilename
	case errors.Is(err, ErrTooLarge):
		return CodeTooLarge
	case errors.Is(err, ErrNoFile):
		return CodeNoFile
	default:
		return -1
	}
}

// ParseStatus maps a non-JSON HTTP status to an error.
func ParseStatus(status int) error {
	switch status {
	case 200:
		return nil
	case 401:
		return ErrInvalidPIN
	case 404:
		return ErrNotFound
	case 413:
		return ErrTooLarge
	default:
		return ErrMalformedResponse
	}
}

// Message is the human readable text sent back for code.
func Message(code int, allowed []string, maxSize int64) string {
	switch code {
	case CodeBadExtension:
		return "File extension is not supported. Make sure to only upload files with extensions: " + strings.Join(allowed, ", ")
	case CodeBadFilename:
		return "Invalid filename. English - only characters, numbers and [ _-.] are allowed."
	case CodeTooLarge:
		return fmt.Sprintf("File size is too big. Max upload size is %dMB.", maxSize/(1<<20))
	case CodeNoFile:
		return "No files have been selected."
	default:
		return ""
	}
}
