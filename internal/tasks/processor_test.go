package tasks

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tableizer/api/internal/models"
	"tableizer/api/internal/queue"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/storage"
)

type fakeImages struct {
	byToken map[string]models.Image
	cached  []models.Image
}

func (f *fakeImages) GetByToken(ctx context.Context, token, userID string) (models.Image, error) {
	img, ok := f.byToken[token]
	if !ok || img.UserID != userID {
		return models.Image{}, repository.ErrImageNotFound
	}
	return img, nil
}

func (f *fakeImages) ListCached(ctx context.Context, limit int) ([]models.Image, error) {
	if limit < len(f.cached) {
		return f.cached[:limit], nil
	}
	return f.cached, nil
}

type fakeBlobs struct {
	objects  map[string][]byte
	types    map[string]string
	mirrored []string
	purged   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeBlobs) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.objects[key] = data
	f.types[key] = contentType
	return "http://blobs.local/" + key, nil
}

func (f *fakeBlobs) Mirror(ctx context.Context, key string) error {
	f.mirrored = append(f.mirrored, key)
	return nil
}

func (f *fakeBlobs) RemoveDerived(ctx context.Context, token, filename string) error {
	f.purged = append(f.purged, token+"/"+filename)
	return nil
}

type fakeEnqueuer struct {
	tasks []queue.Task
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, task queue.Task) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func message(task queue.Task) redis.XMessage {
	return redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"type":     task.Type,
			"token":    task.Token,
			"userId":   task.UserID,
			"filename": task.Filename,
			"key":      task.Key,
		},
	}
}

const testToken = "0123456789abcdef0123456789abcdef"

func cachedImage() models.Image {
	tabular := `[["item","price"],["tea","3.50"]]`
	cols := 2
	return models.Image{
		ID:         "i1",
		Token:      testToken,
		UserID:     "u1",
		Filename:   "scan.png",
		Tabular:    &tabular,
		NumColumns: &cols,
	}
}

func TestExportRendersBothFormats(t *testing.T) {
	img := cachedImage()
	images := &fakeImages{byToken: map[string]models.Image{img.Token: img}}
	blobs := newFakeBlobs()
	p := NewProcessor(images, blobs, &fakeEnqueuer{}, zerolog.Nop())

	err := p.Handle(context.Background(), message(queue.Task{
		Type:   queue.TaskExport,
		Token:  img.Token,
		UserID: img.UserID,
	}))
	require.NoError(t, err)

	csvKey := storage.CSVKey(img.Token, img.Filename)
	xlsxKey := storage.XLSXKey(img.Token, img.Filename)

	require.Contains(t, blobs.objects, csvKey)
	require.Contains(t, blobs.objects, xlsxKey)
	assert.Equal(t, csvContentType, blobs.types[csvKey])
	assert.Equal(t, xlsxContentType, blobs.types[xlsxKey])

	assert.Equal(t, "item,price\ntea,3.50\n", string(blobs.objects[csvKey]))

	book, err := excelize.OpenReader(bytes.NewReader(blobs.objects[xlsxKey]))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"item", "price"}, {"tea", "3.50"}}, rows)
}

func TestExportIsIdempotent(t *testing.T) {
	img := cachedImage()
	images := &fakeImages{byToken: map[string]models.Image{img.Token: img}}
	blobs := newFakeBlobs()
	p := NewProcessor(images, blobs, &fakeEnqueuer{}, zerolog.Nop())

	msg := message(queue.Task{Type: queue.TaskExport, Token: img.Token, UserID: img.UserID})
	require.NoError(t, p.Handle(context.Background(), msg))
	first := blobs.objects[storage.CSVKey(img.Token, img.Filename)]

	// Redelivery overwrites with the same content.
	require.NoError(t, p.Handle(context.Background(), msg))
	assert.Equal(t, first, blobs.objects[storage.CSVKey(img.Token, img.Filename)])
	assert.Len(t, blobs.objects, 2)
}

func TestExportSkipsDeletedOrUncachedRows(t *testing.T) {
	uncached := cachedImage()
	uncached.Tabular = nil
	images := &fakeImages{byToken: map[string]models.Image{uncached.Token: uncached}}
	blobs := newFakeBlobs()
	p := NewProcessor(images, blobs, &fakeEnqueuer{}, zerolog.Nop())

	// Row deleted after enqueue.
	err := p.Handle(context.Background(), message(queue.Task{
		Type: queue.TaskExport, Token: "gone", UserID: "u1",
	}))
	require.NoError(t, err)

	// Table cleared after enqueue.
	err = p.Handle(context.Background(), message(queue.Task{
		Type: queue.TaskExport, Token: uncached.Token, UserID: uncached.UserID,
	}))
	require.NoError(t, err)

	assert.Empty(t, blobs.objects)
}

func TestMirrorAndPurge(t *testing.T) {
	blobs := newFakeBlobs()
	p := NewProcessor(&fakeImages{}, blobs, &fakeEnqueuer{}, zerolog.Nop())

	key := storage.ImageKey(testToken, "scan.png")
	require.NoError(t, p.Handle(context.Background(), message(queue.Task{
		Type: queue.TaskMirror, Token: testToken, Key: key,
	})))
	assert.Equal(t, []string{key}, blobs.mirrored)

	require.NoError(t, p.Handle(context.Background(), message(queue.Task{
		Type: queue.TaskPurge, Token: testToken, UserID: "u1", Filename: "scan.png",
	})))
	assert.Equal(t, []string{testToken + "/scan.png"}, blobs.purged)
}

func TestReconcileReenqueuesCachedImages(t *testing.T) {
	var cached []models.Image
	for i := 0; i < 3; i++ {
		img := cachedImage()
		img.Token = fmt.Sprintf("%032d", i)
		cached = append(cached, img)
	}
	images := &fakeImages{cached: cached}
	enq := &fakeEnqueuer{}
	p := NewProcessor(images, newFakeBlobs(), enq, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), message(queue.Task{Type: queue.TaskReconcile})))

	require.Len(t, enq.tasks, 3)
	for i, task := range enq.tasks {
		assert.Equal(t, queue.TaskExport, task.Type)
		assert.Equal(t, cached[i].Token, task.Token)
		assert.Equal(t, cached[i].UserID, task.UserID)
	}
}

func TestUnknownTaskTypeIsDropped(t *testing.T) {
	blobs := newFakeBlobs()
	p := NewProcessor(&fakeImages{}, blobs, &fakeEnqueuer{}, zerolog.Nop())

	err := p.Handle(context.Background(), message(queue.Task{Type: "vacuum"}))
	require.NoError(t, err)
	assert.Empty(t, blobs.objects)
}
