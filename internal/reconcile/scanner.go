package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/internal/cover"
	"github.com/haophotography/gallery-backend/storage"
	"gorm.io/gorm"
)

// GalleryStore 对账需要的画廊记录操作
type GalleryStore interface {
	Get(id string) (*models.Gallery, error)
	Create(gallery *models.Gallery) error
	Scan() ([]*models.Gallery, error)
	MaxSortOrder() (int, error)
	UpdateFields(id string, fields map[string]interface{}) error
	SetCoverIfAbsent(id string, coverURL string) (bool, error)
}

// PhotoStore 对账需要的照片记录操作
type PhotoStore interface {
	QueryByGallery(galleryID string) ([]*models.Photo, error)
	FindByStorageKey(galleryID, storageKey string) (*models.Photo, error)
	Create(photo *models.Photo) error
	UpdateFields(galleryID, photoID string, fields map[string]interface{}) error
}

// Service 对账服务：以对象存储为事实来源，把元数据库修回一致。
// 两个扫描都幂等，重复执行不产生新的写。
type Service struct {
	galleries GalleryStore
	photos    PhotoStore
	objects   storage.Provider
	readLimit int
}

// NewService 创建对账服务
func NewService(galleries GalleryStore, photos PhotoStore, objects storage.Provider) *Service {
	return &Service{
		galleries: galleries,
		photos:    photos,
		objects:   objects,
		readLimit: 8,
	}
}

// GalleryReport 画廊对账结果
type GalleryReport struct {
	PrefixesScanned int      `json:"prefixesScanned"`
	Created         int      `json:"created"`
	Patched         int      `json:"patched"`
	CoversSet       int      `json:"coversSet"`
	Errors          []string `json:"errors,omitempty"`
}

// galleryGroup 一个画廊前缀下的对象分组
type galleryGroup struct {
	prefix    string
	imageKeys []string
}

// ReconcileGalleries 扫描对象存储里的画廊前缀，补建缺失的画廊记录、
// 修正漂移的字段并为缺封面的画廊推导封面。
func (s *Service) ReconcileGalleries(ctx context.Context) (*GalleryReport, error) {
	objects, err := s.objects.ListPrefix(ctx, storage.RootPrefix)
	if err != nil {
		return nil, apperr.Dependency("failed to list gallery objects", err)
	}

	groups := groupByPrefix(objects)
	report := &GalleryReport{PrefixesScanned: len(groups)}

	maxSort, err := s.galleries.MaxSortOrder()
	if err != nil {
		log.Printf("Failed to read max sort order, new galleries start at 1: %v", err)
		maxSort = 0
	}

	for _, group := range groups {
		if err := s.reconcileGallery(ctx, group, &maxSort, report); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", group.prefix, err))
		}
	}

	return report, nil
}

// groupByPrefix 把对象按画廊前缀分组，组内只保留原图键并排序
func groupByPrefix(objects []storage.ObjectInfo) []galleryGroup {
	byPrefix := map[string][]string{}
	for _, obj := range objects {
		prefix := storage.SplitPrefix(obj.Key)
		if prefix == "" {
			continue
		}
		if _, ok := byPrefix[prefix]; !ok {
			byPrefix[prefix] = nil
		}
		if obj.Key == prefix || storage.IsThumbnailKey(obj.Key) {
			continue
		}
		if !storage.IsScanExtension(storage.Ext(obj.Key)) {
			continue
		}
		byPrefix[prefix] = append(byPrefix[prefix], obj.Key)
	}

	groups := make([]galleryGroup, 0, len(byPrefix))
	for prefix, keys := range byPrefix {
		sort.Strings(keys)
		groups = append(groups, galleryGroup{prefix: prefix, imageKeys: keys})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].prefix < groups[j].prefix })
	return groups
}

func (s *Service) reconcileGallery(ctx context.Context, group galleryGroup, maxSort *int, report *GalleryReport) error {
	continent, country, name, ok := storage.PrefixParts(group.prefix)
	if !ok {
		return errors.New("malformed gallery prefix")
	}

	id := storage.GalleryIDForPrefix(group.prefix)

	gallery, err := s.galleries.Get(id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		*maxSort++
		now := time.Now().UTC()
		gallery = &models.Gallery{
			GalleryID:  id,
			Name:       name,
			Continent:  continent,
			Country:    country,
			PhotoCount: len(group.imageKeys),
			SortOrder:  *maxSort,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.galleries.Create(gallery); err != nil {
			return fmt.Errorf("create failed: %w", err)
		}
		report.Created++
	case err != nil:
		return fmt.Errorf("load failed: %w", err)
	default:
		// 只修有漂移的字段，保持幂等
		fields := map[string]interface{}{}
		if gallery.Name != name {
			fields["name"] = name
		}
		if gallery.Continent != continent {
			fields["continent"] = continent
		}
		if gallery.Country != country {
			fields["country"] = country
		}
		if gallery.PhotoCount != len(group.imageKeys) {
			fields["photo_count"] = len(group.imageKeys)
		}
		if len(fields) > 0 {
			if err := s.galleries.UpdateFields(id, fields); err != nil {
				return fmt.Errorf("patch failed: %w", err)
			}
			report.Patched++
		}
	}

	if gallery.CoverPhotoURL == "" && len(group.imageKeys) > 0 {
		firstKey := cover.FirstKey(group.imageKeys)
		coverURL := s.objects.PublicURL(storage.ThumbnailKey(group.prefix, storage.BaseName(firstKey)))
		set, err := s.galleries.SetCoverIfAbsent(id, coverURL)
		if err != nil {
			return fmt.Errorf("cover set failed: %w", err)
		}
		if set {
			report.CoversSet++
		}
	}

	return nil
}
