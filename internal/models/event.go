package models

import "time"

const (
	EventUploadAccepted = "upload.accepted"
	EventUploadRejected = "upload.rejected"
	EventUploadsCleared = "uploads.cleared"
)

// Event is pushed to live feed subscribers.
type Event struct {
	Type    string    `json:"type"`
	File    string    `json:"file,omitempty"`
	Code    int       `json:"code"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

func NewEvent(typ string, file string, code int, msg string) Event {
	return Event{
		Type:    typ,
		File:    file,
		Code:    code,
		Message: msg,
		Time:    time.Now().UTC(),
	}
}
