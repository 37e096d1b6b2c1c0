package photo

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/internal/sortorder"
	"github.com/haophotography/gallery-backend/storage"
	"gorm.io/gorm"
)

// UploadURLsRequest 预签名上传请求
type UploadURLsRequest struct {
	Files []string `json:"files"`
}

// UploadURLEntry 单个文件的预签名上传信息。
// 客户端用两个 URL 直传原图与缩略图，再调记录注册接口落库。
type UploadURLEntry struct {
	PhotoID            string `json:"photoId"`
	StorageKey         string `json:"s3Key"`
	UploadURL          string `json:"uploadUrl"`
	ThumbnailKey       string `json:"thumbnailKey"`
	ThumbnailUploadURL string `json:"thumbnailUploadUrl"`
	ImageURL           string `json:"image"`
	ThumbnailURL       string `json:"thumbnail"`
}

// UploadURLs 为直传生成预签名 PUT URL，原图与缩略图各一个
func (s *Service) UploadURLs(ctx context.Context, galleryID string, req *UploadURLsRequest) ([]UploadURLEntry, error) {
	if len(req.Files) == 0 {
		return nil, apperr.Validationf("no files provided")
	}

	gallery, err := s.galleries.Get(galleryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("gallery '%s' not found", galleryID)
		}
		return nil, apperr.Dependency("failed to load gallery", err)
	}

	prefix := storage.GalleryPrefix(gallery.Continent, gallery.Country, gallery.Name)

	entries := make([]UploadURLEntry, 0, len(req.Files))
	for _, fileName := range req.Files {
		ext := storage.Ext(fileName)
		if !storage.IsUploadExtension(ext) {
			return nil, apperr.Validationf("unsupported file extension '.%s' for '%s'", ext, fileName)
		}

		photoID := uuid.NewString()
		storageKey := prefix + photoID + "." + ext
		thumbnailKey := storage.ThumbnailKey(prefix, photoID+"."+ext)

		uploadURL, err := s.objects.PresignPut(ctx, storageKey, s.limits.PresignExpiry)
		if err != nil {
			return nil, apperr.Dependency("failed to presign upload", err)
		}
		thumbURL, err := s.objects.PresignPut(ctx, thumbnailKey, s.limits.PresignExpiry)
		if err != nil {
			return nil, apperr.Dependency("failed to presign thumbnail upload", err)
		}

		entries = append(entries, UploadURLEntry{
			PhotoID:            photoID,
			StorageKey:         storageKey,
			UploadURL:          uploadURL,
			ThumbnailKey:       thumbnailKey,
			ThumbnailUploadURL: thumbURL,
			ImageURL:           s.objects.PublicURL(storageKey),
			ThumbnailURL:       s.objects.PublicURL(thumbnailKey),
		})
	}

	return entries, nil
}

// RecordItem 直传完成后的照片记录注册条目
type RecordItem struct {
	PhotoID    string `json:"photoId"`
	StorageKey string `json:"s3Key"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FileSize   string `json:"fileSize"`
}

// RegisterRequest 记录注册请求
type RegisterRequest struct {
	Photos []RecordItem `json:"photos"`
}

// RegisterResult 记录注册结果
type RegisterResult struct {
	Registered []*models.Photo `json:"registered"`
	Errors     []ItemError     `json:"errors,omitempty"`
}

// RegisterRecords 为已直传的对象落照片记录。
// 每条先校验对象确实存在，逐条 best-effort，成功条目计入
// photoCount 并参与封面采用。
func (s *Service) RegisterRecords(ctx context.Context, galleryID string, req *RegisterRequest) (*RegisterResult, error) {
	if len(req.Photos) == 0 {
		return nil, apperr.Validationf("no photos provided")
	}

	gallery, err := s.galleries.Get(galleryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("gallery '%s' not found", galleryID)
		}
		return nil, apperr.Dependency("failed to load gallery", err)
	}

	prefix := storage.GalleryPrefix(gallery.Continent, gallery.Country, gallery.Name)

	existing, err := s.photos.CountByGallery(galleryID)
	if err != nil {
		log.Printf("Failed to count photos for gallery '%s', sort orders start at 1: %v", galleryID, err)
		existing = 0
	}

	result := &RegisterResult{}
	firstThumbnail := ""

	for idx, item := range req.Photos {
		photo, err := s.registerOne(ctx, galleryID, prefix, item, int(existing)+idx+1)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{FileName: item.StorageKey, Message: err.Error()})
			continue
		}
		result.Registered = append(result.Registered, photo)
		if firstThumbnail == "" {
			firstThumbnail = photo.ThumbnailURL
		}
	}

	if len(result.Registered) == 0 {
		return nil, apperr.Validationf("no photo records were registered: %s", joinItemErrors(result.Errors))
	}

	if err := s.galleries.IncrementPhotoCount(galleryID, len(result.Registered)); err != nil {
		log.Printf("Failed to bump photo count for gallery '%s': %v", galleryID, err)
	}
	if firstThumbnail != "" {
		if _, err := s.galleries.SetCoverIfAbsent(galleryID, firstThumbnail); err != nil {
			log.Printf("Failed to adopt cover for gallery '%s': %v", galleryID, err)
		}
	}

	return result, nil
}

func (s *Service) registerOne(ctx context.Context, galleryID, prefix string, item RecordItem, sortOrder int) (*models.Photo, error) {
	if item.StorageKey == "" {
		return nil, apperr.Validationf("s3Key is required")
	}

	exists, err := s.objects.Exists(ctx, item.StorageKey)
	if err != nil {
		return nil, apperr.Dependency("failed to verify uploaded object", err)
	}
	if !exists {
		return nil, apperr.Validationf("object was not uploaded")
	}

	photoID := item.PhotoID
	if photoID == "" {
		photoID = uuid.NewString()
	}

	thumbnailKey := storage.ThumbnailKey(prefix, storage.BaseName(item.StorageKey))
	thumbExists, err := s.objects.Exists(ctx, thumbnailKey)
	if err != nil {
		log.Printf("Failed to probe thumbnail '%s': %v", thumbnailKey, err)
		thumbExists = false
	}

	now := time.Now().UTC()
	photo := &models.Photo{
		GalleryID:    galleryID,
		PhotoID:      photoID,
		Name:         item.Name,
		StorageKey:   item.StorageKey,
		ImageURL:     s.objects.PublicURL(item.StorageKey),
		Format:       storage.Ext(item.StorageKey),
		Width:        item.Width,
		Height:       item.Height,
		FileSize:     item.FileSize,
		SortOrder:    sortOrder,
		UploadedAt:   now,
		LastModified: now,
	}
	if thumbExists {
		photo.ThumbnailKey = thumbnailKey
		photo.ThumbnailURL = s.objects.PublicURL(thumbnailKey)
	} else {
		photo.ThumbnailURL = photo.ImageURL
	}

	if err := s.photos.Create(photo); err != nil {
		return nil, apperr.Dependency("failed to create photo record", err)
	}

	return photo, nil
}

// Reorder 批量更新照片排序号，单条失败不影响其余条目
func (s *Service) Reorder(ctx context.Context, galleryID string, entries []sortorder.Entry) (*sortorder.Result, error) {
	if len(entries) == 0 {
		return nil, apperr.Validationf("no sort order entries provided")
	}
	if err := sortorder.ValidateEntries(entries); err != nil {
		return nil, apperr.Validationf("%s", err)
	}

	result := sortorder.Reorder(ctx, entries, func(ctx context.Context, id string, order int) error {
		return s.photos.UpdateSortOrder(galleryID, id, order)
	})
	if result.AllFailed(len(entries)) {
		return nil, apperr.Dependency("all sort order updates failed", nil)
	}

	return &result, nil
}
