package models

// UploadStatus represents the state of a queued upload.
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusSuccess   UploadStatus = "success"
	UploadStatusError     UploadStatus = "error"
)

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FileMetadata describes a candidate file, computed once at intake.
type FileMetadata struct {
	Name         string      `json:"name"`
	Size         int64       `json:"size"`
	Type         string      `json:"type"`
	LastModified int64       `json:"lastModified"` // Unix ms
	Dimensions   *Dimensions `json:"dimensions,omitempty"`
}

// UploadFile is a file held in an upload queue.
type UploadFile struct {
	ID       string       `json:"id"`
	FileID   string       `json:"fileId,omitempty"` // storage id once stored
	Preview  string       `json:"preview,omitempty"`
	Status   UploadStatus `json:"status"`
	Progress float64      `json:"progress"` // 0-100
	Error    string       `json:"error,omitempty"`
	Metadata FileMetadata `json:"metadata"`
}

// UploadConfig is the admission policy for uploads.
type UploadConfig struct {
	MaxFileSize        int64    `json:"maxFileSize"`
	MaxFiles           int      `json:"maxFiles"`
	AcceptedTypes      []string `json:"acceptedTypes"`
	AcceptedExtensions []string `json:"acceptedExtensions"`
}

// ValidationResult is the outcome of checking a file against an UploadConfig.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}
