package models

import "time"

// ReadRecord stores whether a user has marked a document as read.
// DocumentName holds the document's stored filename.
type ReadRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_read_records_user_document" json:"user_id"`
	DocumentName string    `gorm:"size:255;not null;uniqueIndex:idx_read_records_user_document" json:"document_name"`
	IsRead       bool      `gorm:"not null" json:"is_read"`
	UpdatedAt    time.Time `json:"updated_at"`
}
