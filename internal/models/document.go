package models

import "time"

// Document is a piece of required reading material.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Filename   string    `gorm:"size:255;uniqueIndex;not null" json:"filename"`
	URL        string    `gorm:"size:512" json:"url"`
	MimeType   string    `gorm:"size:128" json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Checksum   string    `gorm:"size:64" json:"checksum"`
	UploadedBy *uint     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
