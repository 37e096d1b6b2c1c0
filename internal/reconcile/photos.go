package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/internal/imaging"
	"github.com/haophotography/gallery-backend/storage"
	"github.com/haophotography/gallery-backend/utils/format"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// PhotoReport 照片对账结果
type PhotoReport struct {
	GalleriesScanned int      `json:"galleriesScanned"`
	ObjectsScanned   int      `json:"objectsScanned"`
	RecordsCreated   int      `json:"recordsCreated"`
	RecordsPatched   int      `json:"recordsPatched"`
	Normalized       int      `json:"normalized"`
	Errors           []string `json:"errors,omitempty"`
}

// ReconcilePhotos 扫描每个画廊前缀下的图片对象，为没有记录的对象
// 补建照片记录，把已有记录里漂移的字段修回与对象一致，并把遗留的
// 数字照片号折叠进 LegacyNumber。
// 对象内容读取（尺寸/EXIF）并发进行，失败只影响该对象的元数据。
func (s *Service) ReconcilePhotos(ctx context.Context) (*PhotoReport, error) {
	galleries, err := s.galleries.Scan()
	if err != nil {
		return nil, apperr.Dependency("failed to list galleries", err)
	}

	report := &PhotoReport{GalleriesScanned: len(galleries)}
	var mu sync.Mutex

	for _, gallery := range galleries {
		if err := s.reconcileGalleryPhotos(ctx, gallery, report, &mu); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", gallery.GalleryID, err))
		}
	}

	return report, nil
}

func (s *Service) reconcileGalleryPhotos(ctx context.Context, gallery *models.Gallery, report *PhotoReport, mu *sync.Mutex) error {
	prefix := storage.GalleryPrefix(gallery.Continent, gallery.Country, gallery.Name)

	objects, err := s.objects.ListPrefix(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	existing, err := s.photos.QueryByGallery(gallery.GalleryID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	byKey := make(map[string]*models.Photo, len(existing))
	for _, photo := range existing {
		byKey[photo.StorageKey] = photo
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.readLimit)

	for _, obj := range objects {
		key := obj.Key
		if key == prefix || storage.IsThumbnailKey(key) || strings.HasSuffix(key, "/") {
			continue
		}
		if !storage.IsScanExtension(storage.Ext(key)) {
			continue
		}

		mu.Lock()
		report.ObjectsScanned++
		mu.Unlock()

		if photo, ok := byKey[key]; ok {
			if normalized := s.normalizeLegacy(gallery.GalleryID, photo); normalized {
				mu.Lock()
				report.Normalized++
				mu.Unlock()
			}
			size := obj.Size
			group.Go(func() error {
				patched, err := s.repairPhotoRecord(groupCtx, gallery.GalleryID, prefix, key, size, photo)
				if err != nil {
					mu.Lock()
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", key, err))
					mu.Unlock()
					return nil
				}
				if patched {
					mu.Lock()
					report.RecordsPatched++
					mu.Unlock()
				}
				return nil
			})
			continue
		}

		size := obj.Size
		group.Go(func() error {
			if err := s.createPhotoRecord(groupCtx, gallery.GalleryID, prefix, key, size); err != nil {
				mu.Lock()
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", key, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			report.RecordsCreated++
			mu.Unlock()
			return nil
		})
	}

	return group.Wait()
}

// normalizeLegacy 把纯数字的遗留照片号抄进 LegacyNumber，只做一次
func (s *Service) normalizeLegacy(galleryID string, photo *models.Photo) bool {
	if photo.LegacyNumber != "" || !isAllDigits(photo.PhotoID) {
		return false
	}
	err := s.photos.UpdateFields(galleryID, photo.PhotoID, map[string]interface{}{
		"legacy_number": photo.PhotoID,
	})
	if err != nil {
		log.Printf("Failed to normalize legacy number for photo '%s': %v", photo.PhotoID, err)
		return false
	}
	photo.LegacyNumber = photo.PhotoID
	return true
}

// repairPhotoRecord 把已有照片记录修回与对象一致，只在有漂移时写。
// 缩略图键缺失且 URL 为空时探测一次派生缩略图，探测结果会被持久化，
// 第二次扫描不再产生写。
func (s *Service) repairPhotoRecord(ctx context.Context, galleryID, prefix, key string, size int64, photo *models.Photo) (bool, error) {
	fields := map[string]interface{}{}

	imageURL := s.objects.PublicURL(key)
	thumbnailWasOriginal := photo.ThumbnailURL != "" && photo.ThumbnailURL == photo.ImageURL

	if photo.ImageURL != imageURL {
		fields["image_url"] = imageURL
		photo.ImageURL = imageURL
	}
	if ext := storage.Ext(key); photo.Format != ext {
		fields["format"] = ext
		photo.Format = ext
	}
	if fileSize := format.HumanReadableSize(size); photo.FileSize != fileSize {
		fields["file_size"] = fileSize
		photo.FileSize = fileSize
	}

	switch {
	case thumbnailWasOriginal:
		// 无独立缩略图的照片保持 thumbnail == image
		if photo.ThumbnailURL != imageURL {
			fields["thumbnail_url"] = imageURL
			photo.ThumbnailURL = imageURL
		}
	case photo.ThumbnailKey != "":
		if thumbURL := s.objects.PublicURL(photo.ThumbnailKey); photo.ThumbnailURL != thumbURL {
			fields["thumbnail_url"] = thumbURL
			photo.ThumbnailURL = thumbURL
		}
	default:
		thumbnailKey := storage.ThumbnailKey(prefix, storage.BaseName(key))
		exists, err := s.objects.Exists(ctx, thumbnailKey)
		if err != nil {
			return false, fmt.Errorf("thumbnail probe failed: %w", err)
		}
		expected := imageURL
		if exists {
			fields["thumbnail_key"] = thumbnailKey
			photo.ThumbnailKey = thumbnailKey
			expected = s.objects.PublicURL(thumbnailKey)
		}
		if photo.ThumbnailURL != expected {
			fields["thumbnail_url"] = expected
			photo.ThumbnailURL = expected
		}
	}

	if len(fields) == 0 {
		return false, nil
	}
	if err := s.photos.UpdateFields(galleryID, photo.PhotoID, fields); err != nil {
		return false, fmt.Errorf("record patch failed: %w", err)
	}
	return true, nil
}

// createPhotoRecord 为孤儿对象补建照片记录
func (s *Service) createPhotoRecord(ctx context.Context, galleryID, prefix, key string, size int64) error {
	baseName := storage.BaseName(key)
	ext := storage.Ext(baseName)
	photoID := strings.TrimSuffix(baseName, "."+ext)

	thumbnailKey := storage.ThumbnailKey(prefix, baseName)
	thumbExists, err := s.objects.Exists(ctx, thumbnailKey)
	if err != nil {
		log.Printf("Failed to probe thumbnail '%s': %v", thumbnailKey, err)
		thumbExists = false
	}

	now := time.Now().UTC()
	photo := &models.Photo{
		GalleryID:    galleryID,
		PhotoID:      photoID,
		Name:         photoID,
		StorageKey:   key,
		ImageURL:     s.objects.PublicURL(key),
		Format:       ext,
		FileSize:     format.HumanReadableSize(size),
		UploadedAt:   now,
		LastModified: now,
	}
	if isAllDigits(photoID) {
		photo.LegacyNumber = photoID
	}
	if thumbExists {
		photo.ThumbnailKey = thumbnailKey
		photo.ThumbnailURL = s.objects.PublicURL(thumbnailKey)
	} else {
		photo.ThumbnailURL = photo.ImageURL
	}

	// 读对象补齐尺寸与 EXIF，读不到也照样建记录
	if data, err := s.readObject(ctx, key); err != nil {
		log.Printf("Failed to read object '%s' for metadata: %v", key, err)
	} else {
		if dims, err := imaging.DecodeDimensions(data); err == nil {
			photo.Width = dims.Width
			photo.Height = dims.Height
		}
		if takenAt := imaging.ExifTakenAt(data); takenAt != nil {
			photo.HasExif = true
			photo.TakenAt = takenAt
		}
	}

	if err := s.photos.Create(photo); err != nil {
		// 并发对账时另一次扫描可能已建同一条记录
		if _, lookupErr := s.photos.FindByStorageKey(galleryID, key); lookupErr == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("record create failed: %w", err)
	}

	return nil
}

func (s *Service) readObject(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.objects.GetWithContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func isAllDigits(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
