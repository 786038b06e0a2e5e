package models

// UploadResult is the JSON body the upload endpoint answers with. ErrorCode
// 0 means the file was stored.
type UploadResult struct {
	ErrorCode      int    `json:"error_code"`
	SuccessMessage string `json:"success_message"`
	ErrorMessage   string `json:"error_message"`
	File           string `json:"file"`
}

func (r UploadResult) OK() bool {
	return r.ErrorCode == 0
}

// ServerInfo is returned by the info endpoint.
type ServerInfo struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Allowed       []string `json:"allowed"`
	Models        []string `json:"models"`
	MaxUploadSize int64    `json:"maxUploadSize"`
	Fingerprint   string   `json:"fingerprint,omitempty"`
}

func NewServerInfo(name string, allowed, models []string, maxSize int64) ServerInfo {
	return ServerInfo{
		Name:          name,
		Version:       "1.0",
		Allowed:       allowed,
		Models:        models,
		MaxUploadSize: maxSize,
	}
}
