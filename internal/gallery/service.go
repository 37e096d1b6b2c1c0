package gallery

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/internal/cover"
	"github.com/haophotography/gallery-backend/internal/geocode"
	"github.com/haophotography/gallery-backend/internal/sortorder"
	"github.com/haophotography/gallery-backend/storage"
	"gorm.io/gorm"
)

// GalleryStore 画廊记录存储
type GalleryStore interface {
	Get(id string) (*models.Gallery, error)
	Create(gallery *models.Gallery) error
	Scan() ([]*models.Gallery, error)
	MaxSortOrder() (int, error)
	UpdateFields(id string, fields map[string]interface{}) error
	UpdateSortOrder(id string, sortOrder int) error
	SetCoverIfAbsent(id string, coverURL string) (bool, error)
	Delete(id string) (bool, error)
}

// PhotoStore 照片记录存储
type PhotoStore interface {
	QueryByGallery(galleryID string) ([]*models.Photo, error)
	UpdateFields(galleryID, photoID string, fields map[string]interface{}) error
	UpdateSortOrder(galleryID, photoID string, sortOrder int) error
	DeleteByGallery(galleryID string) (int64, error)
}

// Geocoder 地理编码客户端
type Geocoder interface {
	Lookup(ctx context.Context, name, country string) (*geocode.Coordinates, error)
}

// Service 画廊生命周期服务。
// 对象存储与元数据库之间没有事务，所有跨存储编排都按固定顺序
// 执行并尽量降级，顺序的选择保证中途失败不会丢对象。
type Service struct {
	galleries GalleryStore
	photos    PhotoStore
	objects   storage.Provider
	geocoder  Geocoder
}

// NewService 创建画廊服务
func NewService(galleries GalleryStore, photos PhotoStore, objects storage.Provider, geocoder Geocoder) *Service {
	return &Service{
		galleries: galleries,
		photos:    photos,
		objects:   objects,
		geocoder:  geocoder,
	}
}

// CreateRequest 建廊请求。
// 坐标可选，给了就不再做地理编码。
type CreateRequest struct {
	Name        string   `json:"name"`
	Continent   string   `json:"continent"`
	Country     string   `json:"country"`
	Description string   `json:"description"`
	Years       []string `json:"years"`
	SortOrder   int      `json:"sortOrder"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Create 创建画廊。
// 重名检查是 best-effort 的全表扫描；扫描失败时照常创建，
// 最终一致性由对账扫描兜底。
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.Gallery, error) {
	name := strings.TrimSpace(req.Name)
	continent := strings.TrimSpace(req.Continent)
	country := strings.TrimSpace(req.Country)
	if name == "" || continent == "" || country == "" {
		return nil, apperr.Validationf("name, continent and country are required")
	}
	if len(req.Years) == 0 {
		return nil, apperr.Validationf("years must be a non-empty list")
	}

	if existing, err := s.galleries.Scan(); err != nil {
		log.Printf("Duplicate check scan failed, proceeding with create: %v", err)
	} else {
		for _, g := range existing {
			if strings.EqualFold(g.Name, name) &&
				strings.EqualFold(g.Continent, continent) &&
				strings.EqualFold(g.Country, country) {
				return nil, apperr.Duplicatef("gallery '%s' already exists in %s/%s", name, continent, country)
			}
		}
	}

	sortOrder := req.SortOrder
	if sortOrder <= 0 {
		max, err := s.galleries.MaxSortOrder()
		if err != nil {
			log.Printf("Failed to determine max sort order, defaulting to 1: %v", err)
			sortOrder = 1
		} else {
			sortOrder = max + 1
		}
	}

	prefix := storage.GalleryPrefix(continent, country, name)
	gallery := &models.Gallery{
		GalleryID:   storage.GalleryIDForPrefix(prefix),
		Name:        name,
		Continent:   continent,
		Country:     country,
		Description: strings.TrimSpace(req.Description),
		Years:       req.Years,
		SortOrder:   sortOrder,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if req.Latitude != nil && req.Longitude != nil {
		gallery.Latitude = req.Latitude
		gallery.Longitude = req.Longitude
	} else if s.geocoder != nil {
		if coords, err := s.geocoder.Lookup(ctx, name, country); err == nil && coords != nil {
			gallery.Latitude = &coords.Latitude
			gallery.Longitude = &coords.Longitude
		}
	}

	// 文件夹占位对象，失败不阻塞建廊
	if err := s.objects.PutWithContext(ctx, prefix, bytes.NewReader(nil), 0, "application/x-directory", ""); err != nil {
		log.Printf("Failed to write folder marker for '%s': %v", prefix, err)
	}

	if err := s.galleries.Create(gallery); err != nil {
		return nil, apperr.Dependency("failed to create gallery record", err)
	}

	return gallery, nil
}

// Detail 画廊详情：画廊记录加照片清单
type Detail struct {
	*models.Gallery
	Photos []*models.Photo `json:"photos"`
}

// Get 获取画廊详情。
// 读路径自愈：补齐缺失的照片排序号并持久化，封面缺失时
// 采用首张照片的缩略图。自愈写失败只记日志。
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	gallery, err := s.galleries.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("gallery '%s' not found", id)
		}
		return nil, apperr.Dependency("failed to load gallery", err)
	}

	photos, err := s.photos.QueryByGallery(id)
	if err != nil {
		return nil, apperr.Dependency("failed to load photos", err)
	}

	for _, patch := range sortorder.EnsureSortOrders(photos) {
		if err := s.photos.UpdateSortOrder(id, patch.PhotoID, patch.SortOrder); err != nil {
			log.Printf("Failed to persist healed sort order for photo '%s': %v", patch.PhotoID, err)
		}
	}

	sortorder.SortPhotos(photos)

	if gallery.CoverPhotoURL == "" {
		if candidate := cover.PickCoverPhoto(photos); candidate != nil && candidate.ThumbnailURL != "" {
			set, err := s.galleries.SetCoverIfAbsent(id, candidate.ThumbnailURL)
			if err != nil {
				log.Printf("Failed to adopt cover for gallery '%s': %v", id, err)
			} else if set {
				gallery.CoverPhotoURL = candidate.ThumbnailURL
			}
		}
	}

	return &Detail{Gallery: gallery, Photos: photos}, nil
}

// List 列出全部画廊，按排序号升序，未排序的排在最后
func (s *Service) List(ctx context.Context) ([]*models.Gallery, error) {
	galleries, err := s.galleries.Scan()
	if err != nil {
		return nil, apperr.Dependency("failed to list galleries", err)
	}

	sortorder.SortGalleries(galleries)
	return galleries, nil
}

// Reorder 批量更新画廊排序号，单条失败不影响其余条目
func (s *Service) Reorder(ctx context.Context, entries []sortorder.Entry) (*sortorder.Result, error) {
	if len(entries) == 0 {
		return nil, apperr.Validationf("no sort order entries provided")
	}
	if err := sortorder.ValidateEntries(entries); err != nil {
		return nil, apperr.Validationf("%s", err)
	}

	result := sortorder.Reorder(ctx, entries, func(ctx context.Context, id string, order int) error {
		return s.galleries.UpdateSortOrder(id, order)
	})
	if result.AllFailed(len(entries)) {
		return nil, apperr.Dependency("all sort order updates failed", nil)
	}

	return &result, nil
}
