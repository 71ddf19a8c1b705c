package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tableizer/api/internal/models"
	"tableizer/api/internal/queue"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/table"
)

// --- fakes shared by the service tests ---

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User // keyed by id

	createErr error
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) Create(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return repository.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, id string, username string, bio *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Username = username
	u.Bio = bio
	s.users[id] = u
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]time.Duration)}
}

func (r *fakeRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = ttl
	return nil
}

func (r *fakeRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

type fakeImageStore struct {
	mu     sync.Mutex
	images map[string]models.Image // keyed by token
}

func newFakeImageStore(images ...models.Image) *fakeImageStore {
	s := &fakeImageStore{images: make(map[string]models.Image)}
	for _, img := range images {
		s.images[img.Token] = img
	}
	return s
}

func (s *fakeImageStore) Create(ctx context.Context, image models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[image.Token] = image
	return nil
}

func (s *fakeImageStore) GetByToken(ctx context.Context, token, userID string) (models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[token]
	if !ok || img.UserID != userID {
		return models.Image{}, repository.ErrImageNotFound
	}
	return img, nil
}

func (s *fakeImageStore) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Image
	for _, img := range s.images {
		if img.UserID == userID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (s *fakeImageStore) UpdateTabular(ctx context.Context, token, userID string, tabular string, numColumns int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[token]
	if !ok || img.UserID != userID {
		return repository.ErrImageNotFound
	}
	img.Tabular = &tabular
	img.NumColumns = &numColumns
	s.images[token] = img
	return nil
}

func (s *fakeImageStore) ClearTabular(ctx context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[token]
	if !ok || img.UserID != userID {
		return repository.ErrImageNotFound
	}
	img.Tabular = nil
	s.images[token] = img
	return nil
}

func (s *fakeImageStore) Delete(ctx context.Context, token, userID string) (models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[token]
	if !ok || img.UserID != userID {
		return models.Image{}, repository.ErrImageNotFound
	}
	delete(s.images, token)
	return img, nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string

	putErr  error
	copyErr error
}

func newFakeBlobStore(baseURL string) *fakeBlobStore {
	return &fakeBlobStore{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return "", s.putErr
	}
	s.objects[key] = data
	return s.PublicURL(key), nil
}

func (s *fakeBlobStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

func (s *fakeBlobStore) CopyExample(ctx context.Context, destKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.copyErr != nil {
		return s.copyErr
	}
	s.objects[destKey] = []byte("example bytes")
	return nil
}

func (s *fakeBlobStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []queue.Task

	err error
}

func (q *fakeQueue) Enqueue(ctx context.Context, task queue.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *fakeQueue) byType(taskType string) []queue.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []queue.Task
	for _, task := range q.tasks {
		if task.Type == taskType {
			out = append(out, task)
		}
	}
	return out
}

type fakeExtractor struct {
	estimate    int
	estimateErr error

	table      table.Table
	extractErr error

	lastColumns  int
	lastLanguage string
	lastImage    []byte
}

func (e *fakeExtractor) EstimateColumns(ctx context.Context, image []byte) (int, error) {
	if e.estimateErr != nil {
		return 0, e.estimateErr
	}
	return e.estimate, nil
}

func (e *fakeExtractor) ExtractTable(ctx context.Context, image []byte, columns int, language string) (table.Table, error) {
	e.lastImage = image
	e.lastColumns = columns
	e.lastLanguage = language
	if e.extractErr != nil {
		return table.Table{}, e.extractErr
	}
	return e.table, nil
}
