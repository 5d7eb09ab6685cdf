package media

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("media: not found")

// Upload records an image a user pushed into the service, plus its generated
// thumbnail.
type Upload struct {
	FileID      string `json:"file_id"`
	ThumbnailID string `json:"thumbnail_id"`
	ImgPath     string `json:"img_path"`
}

// GalleryItem is a finished mosaic with its public URLs. FileIDs holds every
// blob owned by the item so deletion can reclaim them.
type GalleryItem struct {
	GalleryID             string   `json:"gallery_id"`
	Username              string   `json:"username"`
	FileIDs               []string `json:"file_ids"`
	MosaicURL             string   `json:"mosaic_url"`
	AlternateURL          string   `json:"alternate_url"`
	ThumbnailURL          string   `json:"thumbnail_url"`
	AlternateThumbnailURL string   `json:"alternate_thumbnail_url"`
	ToggleOn              bool     `json:"toggle_on"`
}

// Message is a queued mosaic-rendering job. Rendering happens in an external
// worker; the service only tracks job state.
type Message struct {
	MessageID   string  `json:"message_id"`
	FileID      string  `json:"file_id"`
	Current     string  `json:"current"`
	Enlargement int     `json:"enlargement"`
	TileSize    int     `json:"tile_size"`
	Progress    float64 `json:"progress"`
	Status      string  `json:"status"`
	ExpireAt    int64   `json:"expire_at"`
	TotalFrames int     `json:"total_frames"`
}

// Store describes the persistence operations the media service requires.
type Store interface {
	InsertUpload(ctx context.Context, username string, up Upload) error
	ListUploads(ctx context.Context, username string) ([]Upload, error)
	GetUpload(ctx context.Context, username, fileID string) (Upload, error)
	DeleteUpload(ctx context.Context, username, fileID string) error

	InsertGalleryItem(ctx context.Context, item GalleryItem) error
	ListGallery(ctx context.Context, username string, skip, limit int) ([]GalleryItem, int, error)
	GetGalleryItem(ctx context.Context, username, galleryID string) (GalleryItem, error)
	DeleteGalleryItem(ctx context.Context, username, galleryID string) error

	InsertMessage(ctx context.Context, username string, msg Message) error
	PendingMessage(ctx context.Context, username string) (Message, error)
	CompleteJob(ctx context.Context, username string) error
}

// BlobStore is the object storage the media service writes image bytes to.
type BlobStore interface {
	Put(ctx context.Context, id string, data []byte, contentType string) error
	Delete(ctx context.Context, id string) error
	URL(id string) string
}
