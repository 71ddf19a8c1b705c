// Package tasks executes the detached blob operations the API enqueues:
// redundant mirror uploads, export rendering, blob purges and the periodic
// reconcile sweep. Every handler is idempotent so redelivery is safe.
package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tableizer/api/internal/models"
	"tableizer/api/internal/queue"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/storage"
	"tableizer/api/internal/table"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"

	reconcileBatch = 200
)

// ImageStore is the slice of the image repository the handlers read.
type ImageStore interface {
	GetByToken(ctx context.Context, token, userID string) (models.Image, error)
	ListCached(ctx context.Context, limit int) ([]models.Image, error)
}

// BlobStore covers the blob operations the handlers perform.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Mirror(ctx context.Context, key string) error
	RemoveDerived(ctx context.Context, token, filename string) error
}

// TaskQueue re-enqueues work during the reconcile sweep.
type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type Processor struct {
	images   ImageStore
	store    BlobStore
	producer TaskQueue
	logger   zerolog.Logger
}

func NewProcessor(images ImageStore, store BlobStore, producer TaskQueue, logger zerolog.Logger) *Processor {
	return &Processor{
		images:   images,
		store:    store,
		producer: producer,
		logger:   logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task := queue.TaskFromMessage(msg)

	switch task.Type {
	case queue.TaskMirror:
		return p.handleMirror(ctx, task)
	case queue.TaskExport:
		return p.handleExport(ctx, task)
	case queue.TaskPurge:
		return p.handlePurge(ctx, task)
	case queue.TaskReconcile:
		return p.handleReconcile(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleMirror(ctx context.Context, task queue.Task) error {
	if err := p.store.Mirror(ctx, task.Key); err != nil {
		return fmt.Errorf("mirror task: %w", err)
	}
	p.logger.Debug().Str("key", task.Key).Msg("original mirrored")
	return nil
}

// handleExport renders both spreadsheet and CSV exports from the cached
// table and uploads them. Both exports always exist once an extraction has
// succeeded; re-running simply overwrites them.
func (p *Processor) handleExport(ctx context.Context, task queue.Task) error {
	image, err := p.images.GetByToken(ctx, task.Token, task.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			// Row deleted since the task was enqueued; nothing to render.
			return nil
		}
		return fmt.Errorf("load image: %w", err)
	}
	if image.Tabular == nil {
		return nil
	}

	t, err := table.UnmarshalCache(*image.Tabular)
	if err != nil {
		return fmt.Errorf("decode cached table: %w", err)
	}

	if err := p.uploadExports(ctx, image, t); err != nil {
		return err
	}

	p.logger.Info().
		Str("token", image.Token).
		Int("rows", t.Rows()).
		Int("columns", t.Columns()).
		Msg("exports uploaded")
	return nil
}

func (p *Processor) uploadExports(ctx context.Context, image models.Image, t table.Table) error {
	var xlsxBuf bytes.Buffer
	if err := t.WriteXLSX(&xlsxBuf); err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}
	var csvBuf bytes.Buffer
	if err := t.WriteCSV(&csvBuf); err != nil {
		return fmt.Errorf("render csv: %w", err)
	}

	if _, err := p.store.Put(ctx, storage.XLSXKey(image.Token, image.Filename), xlsxBuf.Bytes(), xlsxContentType); err != nil {
		return err
	}
	if _, err := p.store.Put(ctx, storage.CSVKey(image.Token, image.Filename), csvBuf.Bytes(), csvContentType); err != nil {
		return err
	}
	return nil
}

func (p *Processor) handlePurge(ctx context.Context, task queue.Task) error {
	if err := p.store.RemoveDerived(ctx, task.Token, task.Filename); err != nil {
		return fmt.Errorf("purge task: %w", err)
	}
	p.logger.Info().Str("token", task.Token).Msg("derived blobs purged")
	return nil
}

// handleReconcile re-enqueues export rendering for every image with a cached
// table, healing exports orphaned by earlier failures.
func (p *Processor) handleReconcile(ctx context.Context) error {
	images, err := p.images.ListCached(ctx, reconcileBatch)
	if err != nil {
		return fmt.Errorf("list cached images: %w", err)
	}

	for _, image := range images {
		if err := p.producer.Enqueue(ctx, queue.Task{
			Type:   queue.TaskExport,
			Token:  image.Token,
			UserID: image.UserID,
		}); err != nil {
			p.logger.Error().Err(err).Str("token", image.Token).Msg("reconcile enqueue failed")
		}
	}

	p.logger.Info().Int("count", len(images)).Msg("reconcile sweep enqueued")
	return nil
}
