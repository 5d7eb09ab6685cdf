package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"photomosaic.app/internal/audit"
	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/media"
	"photomosaic.app/internal/page"
)

type createMessageRequest struct {
	FileID      string `json:"file_id"`
	Enlargement int    `json:"enlargement"`
	TileSize    int    `json:"tile_size"`
}

type galleryResponse struct {
	Items []media.GalleryItem `json:"items"`
	Pages page.Meta           `json:"pages"`
}

// handleUserResource routes everything under /v1/users/{username}/...
// through the access-control guard before touching handlers.
func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	username := parts[0]
	if username == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	rest := parts[1:]

	switch {
	case len(rest) == 0:
		a.userRoot(w, r, username)
	case rest[0] == "uploads" && len(rest) == 1:
		a.guard(a.uploadsCollection, auth.RoleUser)(w, r, username)
	case rest[0] == "uploads" && len(rest) == 2:
		a.guard(func(w http.ResponseWriter, r *http.Request, username string) {
			a.uploadResource(w, r, username, rest[1])
		}, auth.RoleUser)(w, r, username)
	case rest[0] == "gallery" && len(rest) == 1:
		a.guard(a.galleryCollection, auth.RoleUser)(w, r, username)
	case rest[0] == "gallery" && len(rest) == 2:
		a.guard(func(w http.ResponseWriter, r *http.Request, username string) {
			a.galleryResource(w, r, username, rest[1])
		}, auth.RoleUser)(w, r, username)
	case rest[0] == "messages" && len(rest) == 1:
		a.guard(a.messagesCollection, auth.RoleUser)(w, r, username)
	case rest[0] == "messages" && len(rest) == 2 && rest[1] == "pending":
		a.guard(a.pendingMessage, auth.RoleUser)(w, r, username)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) userRoot(w http.ResponseWriter, r *http.Request, username string) {
	switch r.Method {
	case http.MethodGet:
		a.guard(a.getProfile, auth.RoleUser)(w, r, username)
	case http.MethodDelete:
		// Account removal is admin-only.
		a.guard(a.deleteUser)(w, r, username)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request, username string) {
	user, err := a.users.GetUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, username string) {
	if err := a.media.PurgeUser(r.Context(), username); err != nil {
		writeError(w, r, http.StatusInternalServerError, "purge failed")
		return
	}
	if err := a.users.DeleteUser(r.Context(), username); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "delete failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{"user": username})
	writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})
}

func (a *API) uploadsCollection(w http.ResponseWriter, r *http.Request, username string) {
	switch r.Method {
	case http.MethodGet:
		uploads, err := a.media.ListUploads(r.Context(), username)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "list failed")
			return
		}
		if uploads == nil {
			uploads = []media.Upload{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": uploads})
	case http.MethodPost:
		a.createUpload(w, r, username)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createUpload(w http.ResponseWriter, r *http.Request, username string) {
	filename, data, err := readMultipartFile(r, "file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	up, err := a.media.UploadImage(r.Context(), username, filename, data)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unsupported image data")
		return
	}
	writeJSON(w, http.StatusCreated, up)
}

func (a *API) uploadResource(w http.ResponseWriter, r *http.Request, username, fileID string) {
	switch r.Method {
	case http.MethodGet:
		up, err := a.media.GetUpload(r.Context(), username, fileID)
		if err != nil {
			handleMediaError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, up)
	case http.MethodDelete:
		if err := a.media.DeleteUpload(r.Context(), username, fileID); err != nil {
			handleMediaError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "upload deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) galleryCollection(w http.ResponseWriter, r *http.Request, username string) {
	switch r.Method {
	case http.MethodGet:
		a.listGallery(w, r, username)
	case http.MethodPost:
		a.createGalleryItem(w, r, username)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listGallery(w http.ResponseWriter, r *http.Request, username string) {
	skip, err := parseQueryInt(r.URL.Query().Get("skip"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}
	limit, err := parseQueryInt(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	items, total, err := a.media.ListGallery(r.Context(), username, skip, limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list failed")
		return
	}
	if items == nil {
		items = []media.GalleryItem{}
	}
	writeJSON(w, http.StatusOK, galleryResponse{
		Items: items,
		Pages: page.Build(r.URL.Path, total, skip, limit),
	})
}

func (a *API) createGalleryItem(w http.ResponseWriter, r *http.Request, username string) {
	_, image, err := readMultipartFile(r, "image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var gif []byte
	if _, alt, err := readMultipartFile(r, "gif"); err == nil {
		gif = alt
	}
	item, err := a.media.CreateGalleryItem(r.Context(), username, image, gif)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unsupported image data")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) galleryResource(w http.ResponseWriter, r *http.Request, username, galleryID string) {
	switch r.Method {
	case http.MethodGet:
		item, err := a.media.GetGalleryItem(r.Context(), username, galleryID)
		if err != nil {
			handleMediaError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := a.media.DeleteGalleryItem(r.Context(), username, galleryID); err != nil {
			handleMediaError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "gallery item deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) messagesCollection(w http.ResponseWriter, r *http.Request, username string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req createMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		writeError(w, r, http.StatusBadRequest, "file_id is required")
		return
	}
	msg, err := a.media.CreateMessage(r.Context(), username, req.FileID, req.Enlargement, req.TileSize)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not queue job")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (a *API) pendingMessage(w http.ResponseWriter, r *http.Request, username string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	msg, err := a.media.PendingMessage(r.Context(), username)
	if err != nil {
		handleMediaError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func handleMediaError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, media.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	writeError(w, r, http.StatusInternalServerError, "storage error")
}

func readMultipartFile(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, errors.New(field + " form file is required")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
