package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/internal/sortorder"
	"github.com/haophotography/gallery-backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- 手写 mock ---

type fakeGalleries struct {
	galleries map[string]*models.Gallery
	increment int
	decrement int
}

func newFakeGalleries() *fakeGalleries {
	return &fakeGalleries{galleries: map[string]*models.Gallery{}}
}

func (f *fakeGalleries) Get(id string) (*models.Gallery, error) {
	g, ok := f.galleries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (f *fakeGalleries) IncrementPhotoCount(id string, n int) error {
	if g, ok := f.galleries[id]; ok {
		g.PhotoCount += n
		f.increment += n
	}
	return nil
}

func (f *fakeGalleries) DecrementPhotoCount(id string) error {
	if g, ok := f.galleries[id]; ok && g.PhotoCount > 0 {
		g.PhotoCount--
	}
	f.decrement++
	return nil
}

func (f *fakeGalleries) SetCoverIfAbsent(id string, coverURL string) (bool, error) {
	g, ok := f.galleries[id]
	if !ok || g.CoverPhotoURL != "" {
		return false, nil
	}
	g.CoverPhotoURL = coverURL
	return true, nil
}

func (f *fakeGalleries) ClearCover(id string) error {
	if g, ok := f.galleries[id]; ok {
		g.CoverPhotoURL = ""
	}
	return nil
}

type fakePhotos struct {
	photos    map[string][]*models.Photo
	createErr error
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{photos: map[string][]*models.Photo{}}
}

func (f *fakePhotos) Get(galleryID, photoID string) (*models.Photo, error) {
	for _, p := range f.photos[galleryID] {
		if p.PhotoID == photoID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePhotos) QueryByGallery(galleryID string) ([]*models.Photo, error) {
	return f.photos[galleryID], nil
}

func (f *fakePhotos) CountByGallery(galleryID string) (int64, error) {
	return int64(len(f.photos[galleryID])), nil
}

func (f *fakePhotos) Create(photo *models.Photo) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.photos[photo.GalleryID] = append(f.photos[photo.GalleryID], photo)
	return nil
}

func (f *fakePhotos) FindByStorageKey(galleryID, storageKey string) (*models.Photo, error) {
	for _, p := range f.photos[galleryID] {
		if p.StorageKey == storageKey {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePhotos) UpdateSortOrder(galleryID, photoID string, sortOrder int) error {
	for _, p := range f.photos[galleryID] {
		if p.PhotoID == photoID {
			p.SortOrder = sortOrder
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakePhotos) Delete(galleryID, photoID string) (bool, error) {
	photos := f.photos[galleryID]
	for i, p := range photos {
		if p.PhotoID == photoID {
			f.photos[galleryID] = append(photos[:i], photos[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeObjects struct {
	objects map[string][]byte
	base    string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, base: "https://cdn.test/photos"}
}

func (f *fakeObjects) PutWithContext(ctx context.Context, key string, reader io.Reader, size int64, contentType, cacheControl string) error {
	data, _ := io.ReadAll(reader)
	f.objects[key] = data
	return nil
}

func (f *fakeObjects) GetWithContext(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjects) DeleteWithContext(ctx context.Context, key string) error {
	if _, ok := f.objects[key]; !ok {
		return errors.New("object not found: " + key)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) DeleteManyWithContext(ctx context.Context, keys []string) (int, error) {
	n := 0
	for _, key := range keys {
		if _, ok := f.objects[key]; ok {
			delete(f.objects, key)
			n++
		}
	}
	return n, nil
}

func (f *fakeObjects) CopyWithContext(ctx context.Context, srcKey, dstKey string) error {
	data, ok := f.objects[srcKey]
	if !ok {
		return errors.New("copy source missing: " + srcKey)
	}
	f.objects[dstKey] = data
	return nil
}

func (f *fakeObjects) ListPrefix(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeObjects) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeObjects) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return f.base + "/presigned/" + key, nil
}

func (f *fakeObjects) PublicURL(key string) string {
	return f.base + "/" + key
}

func (f *fakeObjects) KeyFromURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, f.base+"/") {
		return ""
	}
	return strings.TrimPrefix(rawURL, f.base+"/")
}

func (f *fakeObjects) Health(ctx context.Context) error { return nil }
func (f *fakeObjects) Name() string                     { return "fake" }

func testLimits() Limits {
	return Limits{
		MaxPhotoBytes: 50 * 1024 * 1024,
		MaxBatchBytes: 100 * 1024 * 1024,
		ThumbMaxEdge:  200,
		ThumbQuality:  30,
		PresignExpiry: time.Hour,
	}
}

func newTestService() (*Service, *fakeGalleries, *fakePhotos, *fakeObjects) {
	galleries := newFakeGalleries()
	photos := newFakePhotos()
	objects := newFakeObjects()
	galleries.galleries["g1"] = &models.Gallery{GalleryID: "g1", Name: "Tokyo", Continent: "Asia", Country: "Japan"}
	return NewService(galleries, photos, objects, testLimits()), galleries, photos, objects
}

func jpegBase64(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// --- Upload ---

func TestUploadStoresOriginalAndThumbnail(t *testing.T) {
	svc, galleries, photos, objects := newTestService()

	result, err := svc.Upload(context.Background(), "g1", &UploadRequest{Photos: []UploadItem{
		{FileName: "IMG_0001.jpg", Name: "Shibuya", Data: jpegBase64(t, 400, 300)},
	}})
	require.NoError(t, err)
	require.Len(t, result.Uploaded, 1)

	photo := result.Uploaded[0]
	assert.Equal(t, "Shibuya", photo.Name)
	assert.Equal(t, "jpg", photo.Format)
	assert.Equal(t, 400, photo.Width)
	assert.Equal(t, 300, photo.Height)
	assert.Equal(t, 1, photo.SortOrder)
	assert.True(t, strings.HasPrefix(photo.StorageKey, "galleries/Asia/Japan/Tokyo/"))
	assert.True(t, storage.IsThumbnailKey(photo.ThumbnailKey))

	// 原图与缩略图都已写入
	_, ok := objects.objects[photo.StorageKey]
	assert.True(t, ok)
	_, ok = objects.objects[photo.ThumbnailKey]
	assert.True(t, ok)

	// 计数与封面
	assert.Equal(t, 1, galleries.galleries["g1"].PhotoCount)
	assert.Equal(t, photo.ThumbnailURL, galleries.galleries["g1"].CoverPhotoURL)
	assert.Len(t, photos.photos["g1"], 1)
}

func TestUploadSortOrdersContinueFromExisting(t *testing.T) {
	svc, _, photos, _ := newTestService()
	photos.photos["g1"] = []*models.Photo{
		{GalleryID: "g1", PhotoID: "old-1", SortOrder: 1},
		{GalleryID: "g1", PhotoID: "old-2", SortOrder: 2},
	}

	result, err := svc.Upload(context.Background(), "g1", &UploadRequest{Photos: []UploadItem{
		{FileName: "a.jpg", Data: jpegBase64(t, 10, 10)},
		{FileName: "b.jpg", Data: jpegBase64(t, 10, 10)},
	}})
	require.NoError(t, err)
	require.Len(t, result.Uploaded, 2)
	assert.Equal(t, 3, result.Uploaded[0].SortOrder)
	assert.Equal(t, 4, result.Uploaded[1].SortOrder)
}

func TestUploadRejectsOversizedPhotoBeforeAnyWrite(t *testing.T) {
	svc, _, _, objects := newTestService()
	svc.limits.MaxPhotoBytes = 16

	_, err := svc.Upload(context.Background(), "g1", &UploadRequest{Photos: []UploadItem{
		{FileName: "a.jpg", Data: jpegBase64(t, 50, 50)},
	}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPayloadTooLarge, apperr.KindOf(err))
	assert.Empty(t, objects.objects)
}

func TestUploadRejectsOversizedBatchBeforeAnyWrite(t *testing.T) {
	svc, _, _, objects := newTestService()
	svc.limits.MaxBatchBytes = 64

	_, err := svc.Upload(context.Background(), "g1", &UploadRequest{Photos: []UploadItem{
		{FileName: "a.jpg", Data: jpegBase64(t, 50, 50)},
		{FileName: "b.jpg", Data: jpegBase64(t, 50, 50)},
	}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPayloadTooLarge, apperr.KindOf(err))
	assert.Empty(t, objects.objects)
}

func TestUploadAllItemsFailedIsValidationError(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Upload(context.Background(), "g1", &UploadRequest{Photos: []UploadItem{
		{FileName: "document.pdf", Data: jpegBase64(t, 10, 10)},
		{FileName: "broken.jpg", Data: "%%% not base64 %%%"},
	}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUploadPartialSuccess(t *testing.T) {
	svc, galleries, _, _ := newTestService()

	result, err := svc.Upload(context.Background(), "g1", &UploadRequest{Photos: []UploadItem{
		{FileName: "good.jpg", Data: jpegBase64(t, 10, 10)},
		{FileName: "bad.gif", Data: jpegBase64(t, 10, 10)},
	}})
	require.NoError(t, err)
	assert.Len(t, result.Uploaded, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad.gif", result.Errors[0].FileName)
	assert.Equal(t, 1, galleries.galleries["g1"].PhotoCount)
}

func TestUploadGalleryNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Upload(context.Background(), "missing", &UploadRequest{Photos: []UploadItem{
		{FileName: "a.jpg", Data: jpegBase64(t, 10, 10)},
	}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// --- Delete ---

func seedPhoto(photos *fakePhotos, objects *fakeObjects, galleries *fakeGalleries) *models.Photo {
	photo := &models.Photo{
		GalleryID:    "g1",
		PhotoID:      "p1",
		LegacyNumber: "7",
		StorageKey:   "galleries/Asia/Japan/Tokyo/p1.jpg",
		ThumbnailKey: "galleries/Asia/Japan/Tokyo/thumbnails/p1.jpg",
		ImageURL:     objects.base + "/galleries/Asia/Japan/Tokyo/p1.jpg",
		ThumbnailURL: objects.base + "/galleries/Asia/Japan/Tokyo/thumbnails/p1.jpg",
	}
	photos.photos["g1"] = append(photos.photos["g1"], photo)
	objects.objects[photo.StorageKey] = []byte("original")
	objects.objects[photo.ThumbnailKey] = []byte("thumb")
	galleries.galleries["g1"].PhotoCount = 1
	galleries.galleries["g1"].CoverPhotoURL = photo.ThumbnailURL
	return photo
}

func TestDeleteByPhotoID(t *testing.T) {
	svc, galleries, photos, objects := newTestService()
	seedPhoto(photos, objects, galleries)

	report, err := svc.Delete(context.Background(), "g1", &DeleteRequest{PhotoID: "p1"})
	require.NoError(t, err)

	assert.True(t, report.ObjectDeleted)
	assert.True(t, report.ThumbnailDeleted)
	assert.True(t, report.RecordDeleted)
	assert.True(t, report.CoverCleared)
	assert.Empty(t, objects.objects)
	assert.Empty(t, photos.photos["g1"])
	assert.Equal(t, 0, galleries.galleries["g1"].PhotoCount)
	assert.Equal(t, "", galleries.galleries["g1"].CoverPhotoURL)
}

func TestDeleteByLegacyNumber(t *testing.T) {
	svc, galleries, photos, objects := newTestService()
	seedPhoto(photos, objects, galleries)

	report, err := svc.Delete(context.Background(), "g1", &DeleteRequest{PhotoNumber: "7"})
	require.NoError(t, err)
	assert.Equal(t, "p1", report.PhotoID)
	assert.True(t, report.RecordDeleted)
}

func TestDeleteByStorageKey(t *testing.T) {
	svc, galleries, photos, objects := newTestService()
	seedPhoto(photos, objects, galleries)

	report, err := svc.Delete(context.Background(), "g1", &DeleteRequest{StorageKey: "galleries/Asia/Japan/Tokyo/p1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "p1", report.PhotoID)
}

func TestDeleteDoesNotDeleteOriginalTwiceWhenThumbnailIsOriginal(t *testing.T) {
	svc, galleries, photos, objects := newTestService()
	photo := &models.Photo{
		GalleryID:    "g1",
		PhotoID:      "p1",
		StorageKey:   "galleries/Asia/Japan/Tokyo/p1.jpg",
		ImageURL:     objects.base + "/galleries/Asia/Japan/Tokyo/p1.jpg",
		ThumbnailURL: objects.base + "/galleries/Asia/Japan/Tokyo/p1.jpg",
	}
	photos.photos["g1"] = []*models.Photo{photo}
	objects.objects[photo.StorageKey] = []byte("original")
	galleries.galleries["g1"].PhotoCount = 1

	report, err := svc.Delete(context.Background(), "g1", &DeleteRequest{PhotoID: "p1"})
	require.NoError(t, err)
	assert.True(t, report.ObjectDeleted)
	assert.False(t, report.ThumbnailDeleted)
}

func TestDeleteRequiresSelector(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Delete(context.Background(), "g1", &DeleteRequest{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDeleteNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Delete(context.Background(), "g1", &DeleteRequest{PhotoID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// --- 预签名直传 ---

func TestUploadURLs(t *testing.T) {
	svc, _, _, _ := newTestService()

	entries, err := svc.UploadURLs(context.Background(), "g1", &UploadURLsRequest{Files: []string{"a.jpg", "b.webp"}})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.NotEmpty(t, first.PhotoID)
	assert.True(t, strings.HasPrefix(first.StorageKey, "galleries/Asia/Japan/Tokyo/"))
	assert.True(t, storage.IsThumbnailKey(first.ThumbnailKey))
	assert.Contains(t, first.UploadURL, "presigned")
	assert.Contains(t, first.ThumbnailUploadURL, "presigned")
}

func TestUploadURLsRejectsBadExtension(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.UploadURLs(context.Background(), "g1", &UploadURLsRequest{Files: []string{"notes.txt"}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterRecordsVerifiesObjects(t *testing.T) {
	svc, galleries, _, objects := newTestService()
	objects.objects["galleries/Asia/Japan/Tokyo/u1.jpg"] = []byte("uploaded")
	objects.objects["galleries/Asia/Japan/Tokyo/thumbnails/u1.jpg"] = []byte("thumb")

	result, err := svc.RegisterRecords(context.Background(), "g1", &RegisterRequest{Photos: []RecordItem{
		{PhotoID: "u1", StorageKey: "galleries/Asia/Japan/Tokyo/u1.jpg", Name: "Uploaded", Width: 100, Height: 50},
		{PhotoID: "u2", StorageKey: "galleries/Asia/Japan/Tokyo/never-uploaded.jpg"},
	}})
	require.NoError(t, err)

	require.Len(t, result.Registered, 1)
	photo := result.Registered[0]
	assert.Equal(t, "u1", photo.PhotoID)
	assert.Equal(t, "galleries/Asia/Japan/Tokyo/thumbnails/u1.jpg", photo.ThumbnailKey)
	assert.Equal(t, 1, photo.SortOrder)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "not uploaded")
	assert.Equal(t, 1, galleries.galleries["g1"].PhotoCount)
}

func TestRegisterRecordsFallsBackToOriginalThumbnail(t *testing.T) {
	svc, _, _, objects := newTestService()
	objects.objects["galleries/Asia/Japan/Tokyo/u1.jpg"] = []byte("uploaded")

	result, err := svc.RegisterRecords(context.Background(), "g1", &RegisterRequest{Photos: []RecordItem{
		{PhotoID: "u1", StorageKey: "galleries/Asia/Japan/Tokyo/u1.jpg"},
	}})
	require.NoError(t, err)
	require.Len(t, result.Registered, 1)
	assert.Equal(t, result.Registered[0].ImageURL, result.Registered[0].ThumbnailURL)
	assert.Empty(t, result.Registered[0].ThumbnailKey)
}

// --- Reorder ---

func TestPhotoReorderPartialSuccess(t *testing.T) {
	svc, _, photos, _ := newTestService()
	photos.photos["g1"] = []*models.Photo{
		{GalleryID: "g1", PhotoID: "p1", SortOrder: 1},
		{GalleryID: "g1", PhotoID: "p2", SortOrder: 2},
	}

	result, err := svc.Reorder(context.Background(), "g1", []sortorder.Entry{
		{ID: "p2", SortOrder: 1},
		{ID: "ghost", SortOrder: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "ghost", result.Errors[0].ID)
	assert.Equal(t, 1, photos.photos["g1"][1].SortOrder)
}

func TestPhotoReorderRejectsNonPositiveSortOrder(t *testing.T) {
	svc, _, photos, _ := newTestService()
	photos.photos["g1"] = []*models.Photo{
		{GalleryID: "g1", PhotoID: "p1", SortOrder: 1},
	}

	_, err := svc.Reorder(context.Background(), "g1", []sortorder.Entry{
		{ID: "p1", SortOrder: 0},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 1, photos.photos["g1"][0].SortOrder)
}
