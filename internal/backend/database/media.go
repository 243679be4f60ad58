package database

import (
	"errors"
	"time"
)

var (
	ErrMediaNotFound     = errors.New("media not found")
	ErrWallpaperNotFound = errors.New("wallpaper not set")
)

// Media is a record of the media store. Data is only loaded on request.
type Media struct {
	ID            string    `db:"id" json:"id"`
	DisplayName   string    `db:"display_name" json:"displayName"`
	MimeType      string    `db:"mime_type" json:"mimeType"`
	IsPending     bool      `db:"is_pending" json:"isPending"`
	SourcePhotoID string    `db:"source_photo_id" json:"sourcePhotoId,omitempty"`
	Size          int64     `db:"size" json:"size"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// MediaDetails are the values a new record is inserted with.
type MediaDetails struct {
	DisplayName   string
	MimeType      string
	IsPending     bool
	SourcePhotoID string
}

// MediaUpdate changes the mutable columns of a record.
type MediaUpdate struct {
	IsPending bool
}

// Wallpaper is the processed image currently handed to the display.
type Wallpaper struct {
	MediaID  string
	MimeType string
	Data     []byte
	SetAt    time.Time
}
