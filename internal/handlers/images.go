package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tableizer/api/internal/media"
	"tableizer/api/internal/middleware"
	"tableizer/api/internal/models"
	"tableizer/api/internal/ocr"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/service"
	"tableizer/api/internal/storage"
	"tableizer/api/internal/table"
)

type imageURLs struct {
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
	XLSX      string `json:"xlsx"`
	CSV       string `json:"csv"`
}

type imageResponse struct {
	Token      string    `json:"token"`
	Filename   string    `json:"filename"`
	NumColumns *int      `json:"numColumns"`
	HasTable   bool      `json:"hasTable"`
	UploadedAt time.Time `json:"uploadedAt"`
	URLs       imageURLs `json:"urls"`
}

type tableResponse struct {
	Cells        [][]string `json:"cells"`
	RowLabels    []string   `json:"rowLabels"`
	ColumnLabels []string   `json:"columnLabels"`
}

type imageDetailResponse struct {
	imageResponse
	Table *tableResponse `json:"table,omitempty"`
}

func (h HandlerSet) toImageResponse(image models.Image) imageResponse {
	return imageResponse{
		Token:      image.Token,
		Filename:   image.Filename,
		NumColumns: image.NumColumns,
		HasTable:   image.Tabular != nil,
		UploadedAt: image.CreatedAt,
		URLs: imageURLs{
			Image:     h.store.PublicURL(storage.ImageKey(image.Token, image.Filename)),
			Thumbnail: h.store.PublicURL(storage.ThumbnailKey(image.Token, image.Filename)),
			XLSX:      h.store.PublicURL(storage.XLSXKey(image.Token, image.Filename)),
			CSV:       h.store.PublicURL(storage.CSVKey(image.Token, image.Filename)),
		},
	}
}

func (h HandlerSet) toImageDetail(image models.Image) imageDetailResponse {
	detail := imageDetailResponse{imageResponse: h.toImageResponse(image)}

	if image.Tabular != nil {
		t, err := table.UnmarshalCache(*image.Tabular)
		if err != nil {
			h.log.Error().Err(err).Str("token", image.Token).Msg("cached table unreadable")
			return detail
		}
		labels := t.DisplayLabels()
		detail.Table = &tableResponse{
			Cells:        t.Cells,
			RowLabels:    labels.Rows,
			ColumnLabels: labels.Columns,
		}
	}
	return detail
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Upload.MaxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	if int64(len(data)) > h.cfg.Upload.MaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	image, err := h.uploads.Upload(c.Request.Context(), service.UploadInput{
		User:     user,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		switch {
		case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, service.ErrEmptyFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("upload failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed, try again"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": h.toImageResponse(image)})
}

func (h HandlerSet) ListImages(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	images, err := h.images.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list images"})
		return
	}

	items := make([]imageResponse, 0, len(images))
	for _, image := range images {
		items = append(items, h.toImageResponse(image))
	}

	c.JSON(http.StatusOK, gin.H{"images": items})
}

func (h HandlerSet) GetImage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	image, err := h.images.GetByToken(c.Request.Context(), c.Param("token"), user.ID)
	if err != nil {
		h.respondImageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": h.toImageDetail(image)})
}

type extractRequest struct {
	Columns  int    `json:"columns" binding:"required"`
	Language string `json:"language"`
}

func (h HandlerSet) ExtractTable(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := h.extraction.Extract(c.Request.Context(), service.ExtractInput{
		User:     user,
		Token:    c.Param("token"),
		Columns:  req.Columns,
		Language: req.Language,
	})
	if err != nil {
		h.respondImageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": h.toImageDetail(image)})
}

func (h HandlerSet) DeleteImage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.uploads.DeleteImage(c.Request.Context(), user, c.Param("token")); err != nil {
		h.respondImageError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteTable(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.uploads.DeleteTable(c.Request.Context(), user, c.Param("token")); err != nil {
		h.respondImageError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteAllImages(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	deleted, err := h.uploads.DeleteAllImages(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bulk delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h HandlerSet) SeedExample(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	image, err := h.uploads.SeedExample(c.Request.Context(), user)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("seed example failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not seed example image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": h.toImageResponse(image)})
}

// respondImageError maps orchestration errors onto the route boundary.
// Cross-user access surfaces as not-found, never forbidden.
func (h HandlerSet) respondImageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
	case errors.Is(err, service.ErrInvalidColumnCount), errors.Is(err, ocr.ErrColumnCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidColumnCount.Error()})
	case errors.Is(err, table.ErrTableTooLarge):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": table.ErrTableTooLarge.Error()})
	case errors.Is(err, service.ErrUploadPending):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrUploadPending.Error()})
	case errors.Is(err, service.ErrImageFetch), errors.Is(err, ocr.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("image operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
