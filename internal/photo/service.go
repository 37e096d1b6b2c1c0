package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/internal/imaging"
	"github.com/haophotography/gallery-backend/storage"
	"github.com/haophotography/gallery-backend/utils/format"
	"gorm.io/gorm"
)

// thumbnailCacheControl 缩略图走 CDN 长缓存
const thumbnailCacheControl = "public, max-age=604800"

// GalleryStore 照片服务需要的画廊记录操作
type GalleryStore interface {
	Get(id string) (*models.Gallery, error)
	IncrementPhotoCount(id string, n int) error
	DecrementPhotoCount(id string) error
	SetCoverIfAbsent(id string, coverURL string) (bool, error)
	ClearCover(id string) error
}

// PhotoStore 照片服务需要的照片记录操作
type PhotoStore interface {
	Get(galleryID, photoID string) (*models.Photo, error)
	QueryByGallery(galleryID string) ([]*models.Photo, error)
	CountByGallery(galleryID string) (int64, error)
	Create(photo *models.Photo) error
	FindByStorageKey(galleryID, storageKey string) (*models.Photo, error)
	UpdateSortOrder(galleryID, photoID string, sortOrder int) error
	Delete(galleryID, photoID string) (bool, error)
}

// Limits 上传与缩略图参数
type Limits struct {
	MaxPhotoBytes int64
	MaxBatchBytes int64
	ThumbMaxEdge  int
	ThumbQuality  int
	PresignExpiry time.Duration
}

// Service 照片生命周期服务
type Service struct {
	galleries GalleryStore
	photos    PhotoStore
	objects   storage.Provider
	limits    Limits
}

// NewService 创建照片服务
func NewService(galleries GalleryStore, photos PhotoStore, objects storage.Provider, limits Limits) *Service {
	return &Service{
		galleries: galleries,
		photos:    photos,
		objects:   objects,
		limits:    limits,
	}
}

// UploadItem 单张上传照片，Data 为 base64 编码的图片内容
type UploadItem struct {
	FileName string `json:"fileName"`
	Name     string `json:"name"`
	Data     string `json:"data"`
}

// UploadRequest 批量上传请求
type UploadRequest struct {
	Photos []UploadItem `json:"photos"`
}

// ItemError 单张照片的失败信息
type ItemError struct {
	FileName string `json:"fileName"`
	Message  string `json:"message"`
}

// UploadResult 批量上传结果
type UploadResult struct {
	Uploaded []*models.Photo `json:"uploaded"`
	Errors   []ItemError     `json:"errors,omitempty"`
}

// Upload 批量上传照片。
// 体积上限在任何写入发生前检查：估算体积超限直接整批拒绝。
// 之后逐张 best-effort，缩略图生成失败时以原图充当缩略图。
func (s *Service) Upload(ctx context.Context, galleryID string, req *UploadRequest) (*UploadResult, error) {
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

	// base64 的 3/4 是解码后体积的上界估算
	var totalEstimate int64
	for _, item := range req.Photos {
		estimate := int64(len(item.Data)) * 3 / 4
		if estimate > s.limits.MaxPhotoBytes {
			return nil, apperr.PayloadTooLargef("photo '%s' exceeds the %s per-photo limit",
				item.FileName, format.HumanReadableSize(s.limits.MaxPhotoBytes))
		}
		totalEstimate += estimate
	}
	if totalEstimate > s.limits.MaxBatchBytes {
		return nil, apperr.PayloadTooLargef("batch exceeds the %s total limit",
			format.HumanReadableSize(s.limits.MaxBatchBytes))
	}

	prefix := storage.GalleryPrefix(gallery.Continent, gallery.Country, gallery.Name)

	existing, err := s.photos.CountByGallery(galleryID)
	if err != nil {
		log.Printf("Failed to count photos for gallery '%s', sort orders start at 1: %v", galleryID, err)
		existing = 0
	}

	result := &UploadResult{}
	firstThumbnail := ""

	for idx, item := range req.Photos {
		photo, err := s.uploadOne(ctx, galleryID, prefix, item, int(existing)+idx+1)
		if err != nil {
			result.Errors = append(result.Errors, ItemError{FileName: item.FileName, Message: err.Error()})
			continue
		}
		result.Uploaded = append(result.Uploaded, photo)
		if firstThumbnail == "" {
			firstThumbnail = photo.ThumbnailURL
		}
	}

	if len(result.Uploaded) == 0 {
		return nil, apperr.Validationf("no photos were uploaded: %s", joinItemErrors(result.Errors))
	}

	if err := s.galleries.IncrementPhotoCount(galleryID, len(result.Uploaded)); err != nil {
		log.Printf("Failed to bump photo count for gallery '%s': %v", galleryID, err)
	}
	if firstThumbnail != "" {
		if _, err := s.galleries.SetCoverIfAbsent(galleryID, firstThumbnail); err != nil {
			log.Printf("Failed to adopt cover for gallery '%s': %v", galleryID, err)
		}
	}

	return result, nil
}

// uploadOne 处理单张照片：解码、生成缩略图、写对象、落记录
func (s *Service) uploadOne(ctx context.Context, galleryID, prefix string, item UploadItem, sortOrder int) (*models.Photo, error) {
	ext := storage.Ext(item.FileName)
	if !storage.IsUploadExtension(ext) {
		return nil, apperr.Validationf("unsupported file extension '.%s'", ext)
	}

	data, err := base64.StdEncoding.DecodeString(item.Data)
	if err != nil {
		return nil, apperr.Validationf("invalid base64 payload")
	}
	if int64(len(data)) > s.limits.MaxPhotoBytes {
		return nil, apperr.PayloadTooLargef("decoded photo exceeds the per-photo limit")
	}

	photoID := uuid.NewString()
	storageKey := prefix + photoID + "." + ext
	thumbnailKey := storage.ThumbnailKey(prefix, photoID+"."+ext)

	contentType := imaging.DetectContentType(data)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now().UTC()
	photo := &models.Photo{
		GalleryID:    galleryID,
		PhotoID:      photoID,
		Name:         item.Name,
		StorageKey:   storageKey,
		ImageURL:     s.objects.PublicURL(storageKey),
		Format:       ext,
		FileSize:     format.HumanReadableSize(int64(len(data))),
		SortOrder:    sortOrder,
		UploadedAt:   now,
		LastModified: now,
	}
	if photo.Name == "" {
		photo.Name = strings.TrimSuffix(item.FileName, "."+storage.Ext(item.FileName))
	}

	if dims, err := imaging.DecodeDimensions(data); err == nil {
		photo.Width = dims.Width
		photo.Height = dims.Height
	}
	if takenAt := imaging.ExifTakenAt(data); takenAt != nil {
		photo.HasExif = true
		photo.TakenAt = takenAt
	}

	if err := s.objects.PutWithContext(ctx, storageKey, bytes.NewReader(data), int64(len(data)), contentType, ""); err != nil {
		return nil, apperr.Dependency("failed to store photo", err)
	}

	if thumb, err := imaging.Thumbnail(data, s.limits.ThumbMaxEdge, s.limits.ThumbQuality); err != nil {
		// 解码失败的格式退回以原图充当缩略图
		log.Printf("Thumbnail generation failed for '%s', using original: %v", storageKey, err)
		photo.ThumbnailURL = photo.ImageURL
	} else if err := s.objects.PutWithContext(ctx, thumbnailKey, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg", thumbnailCacheControl); err != nil {
		log.Printf("Failed to store thumbnail '%s', using original: %v", thumbnailKey, err)
		photo.ThumbnailURL = photo.ImageURL
	} else {
		photo.ThumbnailKey = thumbnailKey
		photo.ThumbnailURL = s.objects.PublicURL(thumbnailKey)
	}

	if err := s.photos.Create(photo); err != nil {
		return nil, apperr.Dependency("photo stored but record creation failed", err)
	}

	return photo, nil
}

func joinItemErrors(errs []ItemError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.FileName+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}
