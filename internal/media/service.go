package media

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"photomosaic.app/internal/ids"
)

const (
	// messageTTL bounds how long a queued mosaic job stays claimable by the
	// rendering worker before clients should treat it as stale.
	messageTTL = 1600 * time.Second

	defaultTotalFrames = 50

	StatusQueued   = "queued"
	StatusComplete = "complete"
)

// Service owns the upload/gallery/message lifecycle: rows in the store,
// image bytes in the blob store.
type Service struct {
	store Store
	blobs BlobStore
	now   func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, blobs BlobStore, opts ...Option) (*Service, error) {
	if store == nil || blobs == nil {
		return nil, fmt.Errorf("media: store and blob store are required")
	}
	s := &Service{store: store, blobs: blobs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename keeps stored paths shell- and URL-safe.
func sanitizeFilename(name string) string {
	name = unsafeFilename.ReplaceAllString(name, "_")
	if name == "" {
		name = "file"
	}
	return name
}

// putWithThumbnail stores the image and a generated thumbnail, returning
// both blob ids.
func (s *Service) putWithThumbnail(ctx context.Context, data []byte) (string, string, error) {
	thumb, err := thumbnail(data)
	if err != nil {
		return "", "", err
	}
	fileID := ids.Media()
	thumbID := ids.Media()
	if err := s.blobs.Put(ctx, fileID, data, http.DetectContentType(data)); err != nil {
		return "", "", fmt.Errorf("store image: %w", err)
	}
	if err := s.blobs.Put(ctx, thumbID, thumb, "image/png"); err != nil {
		return "", "", fmt.Errorf("store thumbnail: %w", err)
	}
	return fileID, thumbID, nil
}

// UploadImage stores the file and its thumbnail and records the upload.
func (s *Service) UploadImage(ctx context.Context, username, filename string, data []byte) (Upload, error) {
	fileID, thumbID, err := s.putWithThumbnail(ctx, data)
	if err != nil {
		return Upload{}, err
	}
	up := Upload{
		FileID:      fileID,
		ThumbnailID: thumbID,
		ImgPath:     sanitizeFilename(fmt.Sprintf("%s_%s", fileID, filename)),
	}
	if err := s.store.InsertUpload(ctx, username, up); err != nil {
		return Upload{}, err
	}
	return up, nil
}

// CreateGalleryItem stores a finished mosaic (and an optional animated
// alternate) and records the gallery entry. With no alternate the item
// points both slots at the same blobs. The user's pending job is marked
// complete, matching the render pipeline's final step.
func (s *Service) CreateGalleryItem(ctx context.Context, username string, image []byte, gif []byte) (GalleryItem, error) {
	imgID, thumbID, err := s.putWithThumbnail(ctx, image)
	if err != nil {
		return GalleryItem{}, err
	}
	altID, altThumbID := imgID, thumbID
	if len(gif) > 0 {
		altID, altThumbID, err = s.putWithThumbnail(ctx, gif)
		if err != nil {
			return GalleryItem{}, err
		}
	}
	item := GalleryItem{
		GalleryID:             ids.Media(),
		Username:              username,
		FileIDs:               []string{imgID, thumbID, altID, altThumbID},
		MosaicURL:             s.blobs.URL(imgID),
		AlternateURL:          s.blobs.URL(altID),
		ThumbnailURL:          s.blobs.URL(thumbID),
		AlternateThumbnailURL: s.blobs.URL(altThumbID),
		ToggleOn:              true,
	}
	if err := s.store.InsertGalleryItem(ctx, item); err != nil {
		return GalleryItem{}, err
	}
	if err := s.store.CompleteJob(ctx, username); err != nil {
		return GalleryItem{}, err
	}
	return item, nil
}

// ListUploads returns the user's uploads.
func (s *Service) ListUploads(ctx context.Context, username string) ([]Upload, error) {
	return s.store.ListUploads(ctx, username)
}

// GetUpload returns a single upload record.
func (s *Service) GetUpload(ctx context.Context, username, fileID string) (Upload, error) {
	return s.store.GetUpload(ctx, username, fileID)
}

// DeleteUpload removes the upload's blobs and its record.
func (s *Service) DeleteUpload(ctx context.Context, username, fileID string) error {
	up, err := s.store.GetUpload(ctx, username, fileID)
	if err != nil {
		return err
	}
	for _, id := range []string{up.FileID, up.ThumbnailID} {
		if id == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete blob %s: %w", id, err)
		}
	}
	return s.store.DeleteUpload(ctx, username, fileID)
}

// ListGallery returns a page of gallery items plus the total count.
func (s *Service) ListGallery(ctx context.Context, username string, skip, limit int) ([]GalleryItem, int, error) {
	return s.store.ListGallery(ctx, username, skip, limit)
}

// GetGalleryItem returns a single gallery item.
func (s *Service) GetGalleryItem(ctx context.Context, username, galleryID string) (GalleryItem, error) {
	return s.store.GetGalleryItem(ctx, username, galleryID)
}

// DeleteGalleryItem removes the item's blobs and its record.
func (s *Service) DeleteGalleryItem(ctx context.Context, username, galleryID string) error {
	item, err := s.store.GetGalleryItem(ctx, username, galleryID)
	if err != nil {
		return err
	}
	for _, id := range uniqueStrings(item.FileIDs) {
		if err := s.blobs.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete blob %s: %w", id, err)
		}
	}
	return s.store.DeleteGalleryItem(ctx, username, galleryID)
}

// CreateMessage queues a mosaic-rendering job for an uploaded file.
func (s *Service) CreateMessage(ctx context.Context, username, fileID string, enlargement, tileSize int) (Message, error) {
	if enlargement <= 0 {
		enlargement = 1
	}
	if tileSize <= 0 {
		tileSize = 1
	}
	msg := Message{
		MessageID:   ids.Media(),
		FileID:      fileID,
		Current:     fileID,
		Enlargement: enlargement,
		TileSize:    tileSize,
		Progress:    0,
		Status:      StatusQueued,
		ExpireAt:    s.now().Add(messageTTL).Unix(),
		TotalFrames: defaultTotalFrames,
	}
	if err := s.store.InsertMessage(ctx, username, msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// PendingMessage returns the user's most recent job.
func (s *Service) PendingMessage(ctx context.Context, username string) (Message, error) {
	return s.store.PendingMessage(ctx, username)
}

// PurgeUser deletes every blob owned by the user. Row cleanup is left to the
// store's cascading user delete.
func (s *Service) PurgeUser(ctx context.Context, username string) error {
	uploads, err := s.store.ListUploads(ctx, username)
	if err != nil {
		return err
	}
	for _, up := range uploads {
		for _, id := range []string{up.FileID, up.ThumbnailID} {
			if id == "" {
				continue
			}
			if err := s.blobs.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete blob %s: %w", id, err)
			}
		}
	}
	items, _, err := s.store.ListGallery(ctx, username, 0, 0)
	if err != nil {
		return err
	}
	for _, item := range items {
		for _, id := range uniqueStrings(item.FileIDs) {
			if err := s.blobs.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete blob %s: %w", id, err)
			}
		}
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
