package model

import "time"

// Image is a hosted asset: an upload, a fetched favicon or a captured
// screenshot. FileID is the object storage key when we host the file.
type Image struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	FileID       *string   `json:"fileId"`
	Filename     *string   `json:"filename"`
	OriginalName *string   `json:"originalName"`
	Size         *int64    `json:"size"`
	MimeType     *string   `json:"mimeType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type NewImage struct {
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
	FileID       *string `json:"fileId,omitempty"`
	Filename     *string `json:"filename,omitempty"`
	OriginalName *string `json:"originalName,omitempty"`
	Size         *int64  `json:"size,omitempty"`
	MimeType     *string `json:"mimeType,omitempty"`
}

type ImagePatch struct {
	URL          *string `json:"url,omitempty"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
	FileID       *string `json:"fileId,omitempty"`
	Filename     *string `json:"filename,omitempty"`
	OriginalName *string `json:"originalName,omitempty"`
	Size         *int64  `json:"size,omitempty"`
	MimeType     *string `json:"mimeType,omitempty"`
}
