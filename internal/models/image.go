package models

import "time"

// Image is an uploaded picture stored on disk and addressed by content hash.
type Image struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Hash        string         `gorm:"size:64;not null;uniqueIndex" json:"hash"`
	ContentType string         `gorm:"size:32;not null" json:"content_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	SizeBytes   int64          `json:"size_bytes"`
	UploadedBy  uint           `gorm:"index" json:"uploaded_by"`
	Variants    []ImageVariant `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ImageVariant is a resized rendition of a stored image.
type ImageVariant struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	ImageID uint   `gorm:"not null;index" json:"image_id"`
	SizePx  int    `gorm:"not null" json:"size_px"`
	Format  string `gorm:"size:8;not null" json:"format"`
}
