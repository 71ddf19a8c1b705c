package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"tableizer/api/internal/config"
	"tableizer/api/internal/ids"
	"tableizer/api/internal/media"
	"tableizer/api/internal/models"
	"tableizer/api/internal/ocr"
	"tableizer/api/internal/queue"
	"tableizer/api/internal/storage"
)

var ErrEmptyFile = errors.New("empty file")

// UploadService owns the image lifecycle: ingest, deletion and example
// seeding.
type UploadService struct {
	images    ImageStore
	store     BlobStore
	extractor ocr.Extractor
	tasksQ    TaskQueue
	cfg       *config.AppConfig
	log       zerolog.Logger
}

func NewUploadService(images ImageStore, store BlobStore, extractor ocr.Extractor, tasksQ TaskQueue, cfg *config.AppConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		images:    images,
		store:     store,
		extractor: extractor,
		tasksQ:    tasksQ,
		cfg:       cfg,
		log:       log,
	}
}

type UploadInput struct {
	User     models.User
	Filename string
	Data     []byte
}

// Upload normalizes the photograph for OCR, uploads it with a thumbnail,
// records a best-effort column estimate and inserts the image row. A failure
// after the blob puts orphans the remote objects; the row insert is not
// compensated.
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (models.Image, error) {
	if len(input.Data) == 0 {
		return models.Image{}, ErrEmptyFile
	}

	if _, err := media.Detect(input.Data); err != nil {
		return models.Image{}, err
	}

	normalized, err := media.NormalizeForOCR(input.Data, s.cfg.Upload.MaxDimension)
	if err != nil {
		return models.Image{}, fmt.Errorf("normalize: %w", err)
	}

	thumbnail, err := media.Thumbnail(normalized, s.cfg.Upload.ThumbnailMaxDim)
	if err != nil {
		return models.Image{}, fmt.Errorf("thumbnail: %w", err)
	}

	token := ids.NewImageToken()
	filename := normalizedFilename(input.Filename)

	imageKey := storage.ImageKey(token, filename)
	if _, err := s.store.Put(ctx, imageKey, normalized, media.NormalizedMIME); err != nil {
		return models.Image{}, err
	}
	if _, err := s.store.Put(ctx, storage.ThumbnailKey(token, filename), thumbnail, media.NormalizedMIME); err != nil {
		return models.Image{}, err
	}

	// Redundant mirror write, detached so it never blocks the response.
	if err := s.tasksQ.Enqueue(ctx, queue.Task{Type: queue.TaskMirror, Token: token, Key: imageKey}); err != nil {
		s.log.Warn().Err(err).Str("token", token).Msg("enqueue mirror failed")
	}

	var numColumns *int
	if estimate, err := s.extractor.EstimateColumns(ctx, normalized); err != nil {
		s.log.Warn().Err(err).Str("token", token).Msg("column estimate failed")
	} else {
		numColumns = &estimate
	}

	image := models.Image{
		ID:         ids.New(),
		Token:      token,
		UserID:     input.User.ID,
		Filename:   filename,
		NumColumns: numColumns,
	}

	if err := s.images.Create(ctx, image); err != nil {
		return models.Image{}, fmt.Errorf("save metadata: %w", err)
	}

	s.log.Info().
		Str("token", token).
		Str("user_id", input.User.ID).
		Str("filename", filename).
		Msg("image uploaded")
	return image, nil
}

// normalizedFilename sanitizes the client filename and rewrites its
// extension to the codec everything is re-encoded to.
func normalizedFilename(name string) string {
	base, _ := storage.SplitFilename(storage.SanitizeFilename(name))
	return base + "." + media.NormalizedExt
}

// DeleteImage removes the row synchronously and enqueues a best-effort purge
// of the four derived blobs. The row is gone even if the purge later fails.
func (s *UploadService) DeleteImage(ctx context.Context, user models.User, token string) error {
	image, err := s.images.Delete(ctx, token, user.ID)
	if err != nil {
		return err
	}

	if err := s.tasksQ.Enqueue(ctx, queue.Task{
		Type:     queue.TaskPurge,
		Token:    image.Token,
		UserID:   user.ID,
		Filename: image.Filename,
	}); err != nil {
		s.log.Warn().Err(err).Str("token", image.Token).Msg("enqueue purge failed")
	}
	return nil
}

// DeleteAllImages applies DeleteImage semantics to every image the user owns
// and returns how many rows were removed.
func (s *UploadService) DeleteAllImages(ctx context.Context, user models.User) (int, error) {
	images, err := s.images.ListByUser(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, image := range images {
		if err := s.DeleteImage(ctx, user, image.Token); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DeleteTable clears the cached extraction result only; the image and its
// blobs stay.
func (s *UploadService) DeleteTable(ctx context.Context, user models.User, token string) error {
	return s.images.ClearTabular(ctx, token, user.ID)
}

// SeedExample copies the configured sample photograph into the user's
// namespace under a fresh token so a new account has something to extract.
func (s *UploadService) SeedExample(ctx context.Context, user models.User) (models.Image, error) {
	token := ids.NewImageToken()
	filename := "example_table." + media.NormalizedExt

	if err := s.store.CopyExample(ctx, storage.ImageKey(token, filename)); err != nil {
		return models.Image{}, err
	}

	image := models.Image{
		ID:       ids.New(),
		Token:    token,
		UserID:   user.ID,
		Filename: filename,
	}
	if err := s.images.Create(ctx, image); err != nil {
		return models.Image{}, fmt.Errorf("save metadata: %w", err)
	}
	return image, nil
}
