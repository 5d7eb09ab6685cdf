package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"photomosaic.app/internal/media"
)

// InsertUpload implements media.Store.
func (s *Store) InsertUpload(ctx context.Context, username string, up media.Upload) error {
	_, err := s.db.ExecContext(ctx,
		`insert into uploads(file_id, username, thumbnail_id, img_path) values($1,$2,$3,$4)`,
		up.FileID, username, up.ThumbnailID, up.ImgPath,
	)
	return err
}

// ListUploads implements media.Store, newest first.
func (s *Store) ListUploads(ctx context.Context, username string) ([]media.Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		`select file_id, thumbnail_id, img_path from uploads where username=$1 order by created_at desc`,
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []media.Upload
	for rows.Next() {
		var up media.Upload
		if err := rows.Scan(&up.FileID, &up.ThumbnailID, &up.ImgPath); err != nil {
			return nil, err
		}
		res = append(res, up)
	}
	return res, rows.Err()
}

// GetUpload implements media.Store.
func (s *Store) GetUpload(ctx context.Context, username, fileID string) (media.Upload, error) {
	row := s.db.QueryRowContext(ctx,
		`select file_id, thumbnail_id, img_path from uploads where username=$1 and file_id=$2`,
		username, fileID,
	)
	var up media.Upload
	if err := row.Scan(&up.FileID, &up.ThumbnailID, &up.ImgPath); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return media.Upload{}, media.ErrNotFound
		}
		return media.Upload{}, err
	}
	return up, nil
}

// DeleteUpload implements media.Store.
func (s *Store) DeleteUpload(ctx context.Context, username, fileID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from uploads where username=$1 and file_id=$2`, username, fileID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return media.ErrNotFound
	}
	return nil
}

// InsertGalleryItem implements media.Store.
func (s *Store) InsertGalleryItem(ctx context.Context, item media.GalleryItem) error {
	fileIDs, err := json.Marshal(item.FileIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into gallery_items(gallery_id, username, file_ids, mosaic_url, alternate_url, thumbnail_url, alternate_thumbnail_url, toggle_on)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		item.GalleryID, item.Username, fileIDs,
		item.MosaicURL, item.AlternateURL, item.ThumbnailURL, item.AlternateThumbnailURL,
		item.ToggleOn,
	)
	return err
}

// ListGallery implements media.Store: a page of items newest first, plus the
// total count for pagination. A non-positive limit returns everything.
func (s *Store) ListGallery(ctx context.Context, username string, skip, limit int) ([]media.GalleryItem, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from gallery_items where username=$1`, username).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `select gallery_id, username, file_ids, mosaic_url, alternate_url, thumbnail_url, alternate_thumbnail_url, toggle_on
		from gallery_items where username=$1 order by created_at desc offset $2`
	args := []any{username, skip}
	if limit > 0 {
		query += ` limit $3`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []media.GalleryItem
	for rows.Next() {
		item, err := scanGalleryItem(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, item)
	}
	return res, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGalleryItem(row rowScanner) (media.GalleryItem, error) {
	var (
		item    media.GalleryItem
		fileIDs []byte
	)
	err := row.Scan(&item.GalleryID, &item.Username, &fileIDs,
		&item.MosaicURL, &item.AlternateURL, &item.ThumbnailURL, &item.AlternateThumbnailURL,
		&item.ToggleOn)
	if err != nil {
		return media.GalleryItem{}, err
	}
	_ = json.Unmarshal(fileIDs, &item.FileIDs)
	return item, nil
}

// GetGalleryItem implements media.Store.
func (s *Store) GetGalleryItem(ctx context.Context, username, galleryID string) (media.GalleryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`select gallery_id, username, file_ids, mosaic_url, alternate_url, thumbnail_url, alternate_thumbnail_url, toggle_on
		 from gallery_items where username=$1 and gallery_id=$2`,
		username, galleryID,
	)
	item, err := scanGalleryItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return media.GalleryItem{}, media.ErrNotFound
	}
	return item, err
}

// DeleteGalleryItem implements media.Store.
func (s *Store) DeleteGalleryItem(ctx context.Context, username, galleryID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from gallery_items where username=$1 and gallery_id=$2`, username, galleryID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return media.ErrNotFound
	}
	return nil
}

// InsertMessage implements media.Store.
func (s *Store) InsertMessage(ctx context.Context, username string, msg media.Message) error {
	_, err := s.db.ExecContext(ctx,
		`insert into messages(message_id, username, file_id, current_file, enlargement, tile_size, progress, status, expire_at, total_frames)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		msg.MessageID, username, msg.FileID, msg.Current,
		msg.Enlargement, msg.TileSize, msg.Progress, msg.Status, msg.ExpireAt, msg.TotalFrames,
	)
	return err
}

// PendingMessage implements media.Store: the newest job for the user.
func (s *Store) PendingMessage(ctx context.Context, username string) (media.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`select message_id, file_id, current_file, enlargement, tile_size, progress, status, expire_at, total_frames
		 from messages where username=$1 order by created_at desc limit 1`,
		username,
	)
	var msg media.Message
	err := row.Scan(&msg.MessageID, &msg.FileID, &msg.Current,
		&msg.Enlargement, &msg.TileSize, &msg.Progress, &msg.Status, &msg.ExpireAt, &msg.TotalFrames)
	if errors.Is(err, sql.ErrNoRows) {
		return media.Message{}, media.ErrNotFound
	}
	if err != nil {
		return media.Message{}, err
	}
	return msg, nil
}

// CompleteJob implements media.Store: the newest job transitions to
// complete with full progress.
func (s *Store) CompleteJob(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx,
		`update messages set progress = 1.0, status = $2
		 where message_id = (select message_id from messages where username=$1 order by created_at desc limit 1)`,
		username, media.StatusComplete,
	)
	return err
}
