package entity

// FileType classifies attachments
type FileType string

const (
	FileTypeImage FileType = "IMAGE"
	FileTypeExcel FileType = "EXCEL"
	FileTypeOther FileType = "OTHER"
)

// Attachment represents attachment metadata stored by the attachment service
type Attachment struct {
	ID       int64    `json:"id"`
	FormID   int64    `json:"formId,omitempty"`
	FileName string   `json:"fileName"`
	FileURL  string   `json:"fileUrl"`
	FileType FileType `json:"fileType,omitempty"`
	Size     int64    `json:"size,omitempty"`
}

// IsImage returns true if this attachment is an image
func (a *Attachment) IsImage() bool {
	return a.FileType == FileTypeImage
}
