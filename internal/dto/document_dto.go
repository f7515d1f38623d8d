package dto

import (
	"time"

	"github.com/noah-isme/induction-api/internal/models"
)

// DocumentResponse describes a registered reading document.
type DocumentResponse struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDocumentResponse converts a document model into a DTO.
func NewDocumentResponse(document models.Document) DocumentResponse {
	return DocumentResponse{
		ID:        document.ID,
		Title:     document.Title,
		Filename:  document.Filename,
		URL:       document.URL,
		MimeType:  document.MimeType,
		SizeBytes: document.SizeBytes,
		Checksum:  document.Checksum,
		CreatedAt: document.CreatedAt,
	}
}

// UploadFailure reports a file rejected during a multi-file upload.
type UploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// MultiUploadResponse summarises a multi-file upload.
type MultiUploadResponse struct {
	Uploaded []DocumentResponse `json:"uploaded"`
	Failed   []UploadFailure    `json:"failed"`
}
