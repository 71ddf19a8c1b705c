package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tableizer/api/internal/models"
)

// ErrImageNotFound is returned both for unknown tokens and for tokens owned
// by a different user: foreign images must be indistinguishable from absent
// ones.
var ErrImageNotFound = errors.New("image not found")

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

const imageColumns = `id, token, user_id, filename, num_columns, tabular, created_at, updated_at`

func scanImage(row pgx.Row) (models.Image, error) {
	var image models.Image
	if err := row.Scan(
		&image.ID,
		&image.Token,
		&image.UserID,
		&image.Filename,
		&image.NumColumns,
		&image.Tabular,
		&image.CreatedAt,
		&image.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, ErrImageNotFound
		}
		return models.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) Create(ctx context.Context, image models.Image) error {
	const query = `
		INSERT INTO images (
			id, token, user_id, filename, num_columns, tabular, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		image.ID,
		image.Token,
		image.UserID,
		image.Filename,
		image.NumColumns,
		image.Tabular,
	)
	return err
}

func (r *ImageRepository) GetByToken(ctx context.Context, token, userID string) (models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE token = $1 AND user_id = $2`
	return scanImage(r.pool.QueryRow(ctx, query, token, userID))
}

func (r *ImageRepository) ListByUser(ctx context.Context, userID string) ([]models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// UpdateTabular caches the extraction result and the confirmed column count,
// overwriting any prior result.
func (r *ImageRepository) UpdateTabular(ctx context.Context, token, userID string, tabular string, numColumns int) error {
	const query = `
		UPDATE images SET tabular = $3, num_columns = $4, updated_at = NOW()
		WHERE token = $1 AND user_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, token, userID, tabular, numColumns)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) ClearTabular(ctx context.Context, token, userID string) error {
	const query = `
		UPDATE images SET tabular = NULL, updated_at = NOW()
		WHERE token = $1 AND user_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, token, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// Delete removes the row synchronously and returns it so the caller can
// enqueue the best-effort blob purge.
func (r *ImageRepository) Delete(ctx context.Context, token, userID string) (models.Image, error) {
	query := `DELETE FROM images WHERE token = $1 AND user_id = $2 RETURNING ` + imageColumns
	return scanImage(r.pool.QueryRow(ctx, query, token, userID))
}

// ListCached returns every image with a cached table, for the reconcile
// sweep that re-renders exports.
func (r *ImageRepository) ListCached(ctx context.Context, limit int) ([]models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE tabular IS NOT NULL ORDER BY updated_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}
