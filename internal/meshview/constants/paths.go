package constants

const (
	UploadPath  = "/api/meshview/v1/upload"
	UploadsPath = "/api/meshview/v1/uploads"
	InfoPath    = "/api/meshview/v1/info"
	LivePath    = "/ws"

	UploadDirPath  = "/upload-temp"
	ExampleDirPath = "/example-models"

	// UploadField is the multipart field carrying the file.
	UploadField = "file"
)

const (
	DefaultAddr     = "0.0.0.0:53380"
	DefaultLiveAddr = "0.0.0.0:53381"
)
