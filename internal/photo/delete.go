package photo

import (
	"context"
	"errors"
	"log"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/storage"
	"gorm.io/gorm"
)

// DeleteRequest 删除选择器，三种字段按优先级取第一个非空值。
// photoId 走主键直查，photoNumber 与 s3Key 退回分区扫描。
type DeleteRequest struct {
	PhotoID     string `json:"photoId"`
	PhotoNumber string `json:"photoNumber"`
	StorageKey  string `json:"s3Key"`
}

// DeleteReport 删除结果
type DeleteReport struct {
	PhotoID          string `json:"photoId"`
	ObjectDeleted    bool   `json:"objectDeleted"`
	ThumbnailDeleted bool   `json:"thumbnailDeleted"`
	RecordDeleted    bool   `json:"recordDeleted"`
	CoverCleared     bool   `json:"coverCleared"`
}

// Delete 删除单张照片：清原图与缩略图对象、删记录、计数减一，
// 画廊封面指向被删缩略图时一并清除。对象删除 best-effort。
func (s *Service) Delete(ctx context.Context, galleryID string, req *DeleteRequest) (*DeleteReport, error) {
	photo, err := s.resolvePhoto(galleryID, req)
	if err != nil {
		return nil, err
	}

	report := &DeleteReport{PhotoID: photo.PhotoID}

	if photo.StorageKey != "" {
		if err := s.objects.DeleteWithContext(ctx, photo.StorageKey); err != nil {
			log.Printf("Failed to delete object '%s': %v", photo.StorageKey, err)
		} else {
			report.ObjectDeleted = true
		}
	}

	if thumbKey := s.thumbnailKeyOf(photo); thumbKey != "" {
		if err := s.objects.DeleteWithContext(ctx, thumbKey); err != nil {
			log.Printf("Failed to delete thumbnail '%s': %v", thumbKey, err)
		} else {
			report.ThumbnailDeleted = true
		}
	}

	deleted, err := s.photos.Delete(galleryID, photo.PhotoID)
	if err != nil {
		return nil, apperr.Dependency("failed to delete photo record", err)
	}
	report.RecordDeleted = deleted

	if deleted {
		if err := s.galleries.DecrementPhotoCount(galleryID); err != nil {
			log.Printf("Failed to decrement photo count for gallery '%s': %v", galleryID, err)
		}
	}

	if gallery, err := s.galleries.Get(galleryID); err == nil &&
		gallery.CoverPhotoURL != "" && gallery.CoverPhotoURL == photo.ThumbnailURL {
		if err := s.galleries.ClearCover(galleryID); err != nil {
			log.Printf("Failed to clear cover for gallery '%s': %v", galleryID, err)
		} else {
			report.CoverCleared = true
		}
	}

	return report, nil
}

// resolvePhoto 按选择器定位照片记录
func (s *Service) resolvePhoto(galleryID string, req *DeleteRequest) (*models.Photo, error) {
	if req.PhotoID != "" {
		photo, err := s.photos.Get(galleryID, req.PhotoID)
		if err == nil {
			return photo, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Dependency("failed to load photo", err)
		}
		// 历史客户端可能把 photoNumber 填进 photoId，退回分区扫描
	}

	if req.StorageKey != "" {
		photo, err := s.photos.FindByStorageKey(galleryID, req.StorageKey)
		if err == nil {
			return photo, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Dependency("failed to load photo", err)
		}
	}

	wanted := req.PhotoNumber
	if wanted == "" {
		wanted = req.PhotoID
	}
	if wanted != "" {
		photos, err := s.photos.QueryByGallery(galleryID)
		if err != nil {
			return nil, apperr.Dependency("failed to scan photos", err)
		}
		for _, photo := range photos {
			if photo.LegacyNumber == wanted || photo.PhotoID == wanted {
				return photo, nil
			}
		}
	}

	if req.PhotoID == "" && req.PhotoNumber == "" && req.StorageKey == "" {
		return nil, apperr.Validationf("photoId, photoNumber or s3Key is required")
	}
	return nil, apperr.NotFoundf("photo not found in gallery '%s'", galleryID)
}

// thumbnailKeyOf 取照片的缩略图对象键。
// 没有独立缩略图键时从 URL 反推，且只接受缩略图目录下的键，
// 防止 thumbnail == image 的照片把原图删两次。
func (s *Service) thumbnailKeyOf(photo *models.Photo) string {
	if photo.ThumbnailKey != "" {
		return photo.ThumbnailKey
	}
	if photo.ThumbnailURL == "" || photo.ThumbnailURL == photo.ImageURL {
		return ""
	}
	key := s.objects.KeyFromURL(photo.ThumbnailURL)
	if key == "" || !storage.IsThumbnailKey(key) {
		return ""
	}
	return key
}
