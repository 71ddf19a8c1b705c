package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"tableizer/api/internal/models"
	"tableizer/api/internal/ocr"
	"tableizer/api/internal/queue"
	"tableizer/api/internal/storage"
)

var (
	ErrInvalidColumnCount = errors.New("column count must be a positive integer")

	// ErrUploadPending maps a 403 from the blob store: the original has not
	// finished uploading yet and the user should retry.
	ErrUploadPending = errors.New("image not finished uploading, retry shortly")

	// ErrImageFetch covers every other non-200 retrieval result.
	ErrImageFetch = errors.New("could not retrieve stored image")
)

// ExtractionService re-fetches a stored image, runs table extraction with a
// user-confirmed column count and caches the result. Export rendering and
// upload run detached through the task queue.
type ExtractionService struct {
	images    ImageStore
	store     BlobStore
	extractor ocr.Extractor
	tasksQ    TaskQueue
	fetch     *http.Client
	log       zerolog.Logger
}

func NewExtractionService(images ImageStore, store BlobStore, extractor ocr.Extractor, tasksQ TaskQueue, fetch *http.Client, log zerolog.Logger) *ExtractionService {
	if fetch == nil {
		fetch = http.DefaultClient
	}
	return &ExtractionService{
		images:    images,
		store:     store,
		extractor: extractor,
		tasksQ:    tasksQ,
		fetch:     fetch,
		log:       log,
	}
}

type ExtractInput struct {
	User     models.User
	Token    string
	Columns  int
	Language string
}

func (s *ExtractionService) Extract(ctx context.Context, input ExtractInput) (models.Image, error) {
	if input.Columns < 1 {
		return models.Image{}, ErrInvalidColumnCount
	}

	image, err := s.images.GetByToken(ctx, input.Token, input.User.ID)
	if err != nil {
		return models.Image{}, err
	}

	data, err := s.fetchOriginal(ctx, image)
	if err != nil {
		return models.Image{}, err
	}

	t, err := s.extractor.ExtractTable(ctx, data, input.Columns, input.Language)
	if err != nil {
		return models.Image{}, err
	}

	cached, err := t.MarshalCache()
	if err != nil {
		return models.Image{}, err
	}

	if err := s.images.UpdateTabular(ctx, image.Token, input.User.ID, cached, input.Columns); err != nil {
		return models.Image{}, err
	}

	// Both exports are rendered from the cached table by the worker; they
	// always exist once extraction has succeeded.
	if err := s.tasksQ.Enqueue(ctx, queue.Task{
		Type:   queue.TaskExport,
		Token:  image.Token,
		UserID: input.User.ID,
	}); err != nil {
		s.log.Warn().Err(err).Str("token", image.Token).Msg("enqueue export failed")
	}

	s.log.Info().
		Str("token", image.Token).
		Int("rows", t.Rows()).
		Int("columns", t.Columns()).
		Msg("table extracted")

	return s.images.GetByToken(ctx, image.Token, input.User.ID)
}

// fetchOriginal retrieves the stored full-resolution image over its public
// URL. No state changes when retrieval fails.
func (s *ExtractionService) fetchOriginal(ctx context.Context, image models.Image) ([]byte, error) {
	url := s.store.PublicURL(storage.ImageKey(image.Token, image.Filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := s.fetch.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrUploadPending
	default:
		return nil, fmt.Errorf("%w: status %d", ErrImageFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	return data, nil
}
