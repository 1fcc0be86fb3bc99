package models

import "time"

// PdfFile is a rendered-PDF artifact stored on disk. An invoice points at
// its current artifact; superseded artifacts are deleted best-effort.
type PdfFile struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FileName    string    `json:"file_name" gorm:"not null"`
	DiskPath    string    `json:"-" gorm:"not null"`
	ContentType string    `json:"content_type" gorm:"default:application/pdf"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}
