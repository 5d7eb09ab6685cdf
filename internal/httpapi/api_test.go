package httpapi

import (
	"context"
	"net/http"
	"time"

	"photomosaic.app/internal/auth"
	"photomosaic.app/internal/media"
	"photomosaic.app/internal/store/pg"
)

// fakeDirectory backs the auth service in handler tests.
type fakeDirectory struct {
	creds map[string]*auth.Credential
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{creds: make(map[string]*auth.Credential)}
}

func (d *fakeDirectory) add(username, password string, roles []string, validated bool) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	d.creds[username] = &auth.Credential{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		Validated:    validated,
	}
}

func (d *fakeDirectory) FindCredential(ctx context.Context, username string) (auth.Credential, error) {
	c, ok := d.creds[username]
	if !ok {
		return auth.Credential{}, auth.ErrUserNotFound
	}
	return *c, nil
}

func (d *fakeDirectory) ListRoles(ctx context.Context, username string) ([]string, error) {
	c, ok := d.creds[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return c.Roles, nil
}

func (d *fakeDirectory) IsValidated(ctx context.Context, username string) (bool, error) {
	c, ok := d.creds[username]
	if !ok {
		return false, auth.ErrUserNotFound
	}
	return c.Validated, nil
}

func (d *fakeDirectory) SetValidated(ctx context.Context, username string) error {
	c, ok := d.creds[username]
	if !ok {
		return auth.ErrUserNotFound
	}
	c.Validated = true
	return nil
}

// fakeUsers is the in-memory UserStore.
type fakeUsers struct {
	users map[string]pg.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]pg.User)}
}

func (f *fakeUsers) CreateUser(ctx context.Context, username, email, passwordHash string) (pg.User, error) {
	if _, ok := f.users[username]; ok {
		return pg.User{}, pg.ErrAlreadyExists
	}
	u := pg.User{Username: username, Email: email, Roles: []string{auth.RoleUser}, CreatedAt: time.Now()}
	f.users[username] = u
	return u, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, username string) (pg.User, error) {
	u, ok := f.users[username]
	if !ok {
		return pg.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) DeleteUser(ctx context.Context, username string) error {
	if _, ok := f.users[username]; !ok {
		return auth.ErrUserNotFound
	}
	delete(f.users, username)
	return nil
}

// fakeMediaStore and fakeBlobs back a real media.Service.
type fakeMediaStore struct {
	uploads  map[string][]media.Upload
	gallery  map[string][]media.GalleryItem
	messages map[string][]media.Message
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{
		uploads:  make(map[string][]media.Upload),
		gallery:  make(map[string][]media.GalleryItem),
		messages: make(map[string][]media.Message),
	}
}

func (f *fakeMediaStore) InsertUpload(ctx context.Context, username string, up media.Upload) error {
	f.uploads[username] = append(f.uploads[username], up)
	return nil
}

func (f *fakeMediaStore) ListUploads(ctx context.Context, username string) ([]media.Upload, error) {
	return f.uploads[username], nil
}

func (f *fakeMediaStore) GetUpload(ctx context.Context, username, fileID string) (media.Upload, error) {
	for _, up := range f.uploads[username] {
		if up.FileID == fileID {
			return up, nil
		}
	}
	return media.Upload{}, media.ErrNotFound
}

func (f *fakeMediaStore) DeleteUpload(ctx context.Context, username, fileID string) error {
	ups := f.uploads[username]
	for i, up := range ups {
		if up.FileID == fileID {
			f.uploads[username] = append(ups[:i], ups[i+1:]...)
			return nil
		}
	}
	return media.ErrNotFound
}

func (f *fakeMediaStore) InsertGalleryItem(ctx context.Context, item media.GalleryItem) error {
	f.gallery[item.Username] = append(f.gallery[item.Username], item)
	return nil
}

func (f *fakeMediaStore) ListGallery(ctx context.Context, username string, skip, limit int) ([]media.GalleryItem, int, error) {
	items := f.gallery[username]
	total := len(items)
	if skip >= len(items) {
		return nil, total, nil
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, total, nil
}

func (f *fakeMediaStore) GetGalleryItem(ctx context.Context, username, galleryID string) (media.GalleryItem, error) {
	for _, item := range f.gallery[username] {
		if item.GalleryID == galleryID {
			return item, nil
		}
	}
	return media.GalleryItem{}, media.ErrNotFound
}

func (f *fakeMediaStore) DeleteGalleryItem(ctx context.Context, username, galleryID string) error {
	items := f.gallery[username]
	for i, item := range items {
		if item.GalleryID == galleryID {
			f.gallery[username] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return media.ErrNotFound
}

func (f *fakeMediaStore) InsertMessage(ctx context.Context, username string, msg media.Message) error {
	f.messages[username] = append([]media.Message{msg}, f.messages[username]...)
	return nil
}

func (f *fakeMediaStore) PendingMessage(ctx context.Context, username string) (media.Message, error) {
	msgs := f.messages[username]
	if len(msgs) == 0 {
		return media.Message{}, media.ErrNotFound
	}
	return msgs[0], nil
}

func (f *fakeMediaStore) CompleteJob(ctx context.Context, username string) error {
	msgs := f.messages[username]
	if len(msgs) > 0 {
		msgs[0].Progress = 1.0
		msgs[0].Status = media.StatusComplete
	}
	return nil
}

type fakeBlobs struct {
	objects map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(ctx context.Context, id string, data []byte, contentType string) error {
	f.objects[id] = data
	return nil
}

func (f *fakeBlobs) Delete(ctx context.Context, id string) error {
	delete(f.objects, id)
	return nil
}

func (f *fakeBlobs) URL(id string) string { return "http://blobs.local/images/" + id }

type fakeMailer struct {
	to      string
	subject string
	body    string
	sent    int
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.to, m.subject, m.body = to, subject, htmlBody
	m.sent++
	return nil
}

type testEnv struct {
	api     *API
	dir     *fakeDirectory
	users   *fakeUsers
	mailer  *fakeMailer
	store   *fakeMediaStore
	blobs   *fakeBlobs
	handler http.Handler
}

func newTestEnv() *testEnv {
	dir := newFakeDirectory()
	svc, err := auth.NewService(auth.Config{Secret: []byte("test-secret")}, dir)
	if err != nil {
		panic(err)
	}
	store := newFakeMediaStore()
	blobs := newFakeBlobs()
	mediaSvc, err := media.NewService(store, blobs)
	if err != nil {
		panic(err)
	}
	users := newFakeUsers()
	mailer := &fakeMailer{}
	api := New(Config{
		Auth:        svc,
		Users:       users,
		Media:       mediaSvc,
		Mailer:      mailer,
		FrontendURL: "https://mosaic.example.com",
		Version:     "test",
	})
	return &testEnv{
		api:     api,
		dir:     dir,
		users:   users,
		mailer:  mailer,
		store:   store,
		blobs:   blobs,
		handler: api.Handler(),
	}
}

func (e *testEnv) tokenFor(username string) string {
	token, err := e.api.auth.IssueToken(context.Background(), username)
	if err != nil {
		panic(err)
	}
	return token
}
