package gallery

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/storage"
	"gorm.io/gorm"
)

// PhotoNameUpdate 照片改名条目。
// 历史客户端用过三种字段名指照片，全部容忍。
type PhotoNameUpdate struct {
	PhotoID     string `json:"photoId"`
	ID          string `json:"id"`
	PhotoNumber string `json:"photoNumber"`
	Name        string `json:"name"`
}

// Key 返回条目指向的照片ID，按 photoId、id、photoNumber 优先级取第一个非空值
func (u *PhotoNameUpdate) Key() string {
	if u.PhotoID != "" {
		return u.PhotoID
	}
	if u.ID != "" {
		return u.ID
	}
	return u.PhotoNumber
}

// UpdateRequest 画廊更新请求，nil 字段表示不修改
type UpdateRequest struct {
	Name          *string           `json:"name"`
	Continent     *string           `json:"continent"`
	Country       *string           `json:"country"`
	Description   *string           `json:"description"`
	Years         *[]string         `json:"years"`
	SortOrder     *int              `json:"sortOrder"`
	CoverPhotoURL *string           `json:"coverPhotoURL"`
	SetCoverPhoto *string           `json:"set_cover_photo"`
	PhotoNames    []PhotoNameUpdate `json:"photoNames"`
}

// UpdateResult 更新结果，照片改名是部分成功语义
type UpdateResult struct {
	Gallery         *models.Gallery `json:"gallery"`
	Relocated       bool            `json:"relocated"`
	ObjectsCopied   int             `json:"objectsCopied,omitempty"`
	ObjectsDeleted  int             `json:"objectsDeleted,omitempty"`
	PhotosRelocated int             `json:"photosRelocated,omitempty"`
	NamesUpdated    int             `json:"namesUpdated,omitempty"`
	NameErrors      []string        `json:"nameErrors,omitempty"`
}

// relocation 迁移阶段计数
type relocation struct {
	objectsCopied   int
	objectsDeleted  int
	photosRewritten int
}

// Update 更新画廊。
// 名称/大洲/国家任一变化都会触发对象迁移：先把旧前缀下的全部对象
// 复制到新前缀，全部成功后才删除旧对象。任何一次复制失败都中止
// 迁移且不删除任何对象，画廊记录保持原状。
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*UpdateResult, error) {
	gallery, err := s.galleries.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("gallery '%s' not found", id)
		}
		return nil, apperr.Dependency("failed to load gallery", err)
	}

	newName := valueOr(req.Name, gallery.Name)
	newContinent := valueOr(req.Continent, gallery.Continent)
	newCountry := valueOr(req.Country, gallery.Country)
	if newName == "" || newContinent == "" || newCountry == "" {
		return nil, apperr.Validationf("name, continent and country cannot be emptied")
	}

	oldPrefix := storage.GalleryPrefix(gallery.Continent, gallery.Country, gallery.Name)
	newPrefix := storage.GalleryPrefix(newContinent, newCountry, newName)
	relocating := oldPrefix != newPrefix

	if relocating {
		if err := s.checkRelocationConflict(id, newName, newContinent, newCountry); err != nil {
			return nil, err
		}
	}

	result := &UpdateResult{}
	fields := map[string]interface{}{}

	if relocating {
		moved, err := s.relocateObjects(ctx, id, oldPrefix, newPrefix)
		if err != nil {
			return nil, err
		}
		result.Relocated = true
		result.ObjectsCopied = moved.objectsCopied
		result.ObjectsDeleted = moved.objectsDeleted
		result.PhotosRelocated = moved.photosRewritten

		fields["name"] = newName
		fields["continent"] = newContinent
		fields["country"] = newCountry
		gallery.Name, gallery.Continent, gallery.Country = newName, newContinent, newCountry

		// 封面指向旧前缀时一并改写
		if gallery.CoverPhotoURL != "" {
			if key := s.objects.KeyFromURL(gallery.CoverPhotoURL); key != "" && strings.HasPrefix(key, oldPrefix) {
				gallery.CoverPhotoURL = s.objects.PublicURL(storage.RewritePrefix(key, oldPrefix, newPrefix))
				fields["cover_photo_url"] = gallery.CoverPhotoURL
			}
		}
	}

	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
		gallery.Description = strings.TrimSpace(*req.Description)
	}
	if req.Years != nil {
		fields["years"] = *req.Years
		gallery.Years = *req.Years
	}
	if req.SortOrder != nil && *req.SortOrder > 0 {
		fields["sort_order"] = *req.SortOrder
		gallery.SortOrder = *req.SortOrder
	}

	if coverURL, err := s.resolveCover(ctx, id, req); err != nil {
		return nil, err
	} else if coverURL != "" {
		fields["cover_photo_url"] = coverURL
		gallery.CoverPhotoURL = coverURL
	}

	if relocating && s.geocoder != nil {
		if coords, err := s.geocoder.Lookup(ctx, newName, newCountry); err == nil && coords != nil {
			fields["latitude"] = coords.Latitude
			fields["longitude"] = coords.Longitude
			gallery.Latitude = &coords.Latitude
			gallery.Longitude = &coords.Longitude
		}
	}

	if len(req.PhotoNames) > 0 {
		updated, nameErrors := s.applyPhotoNames(id, req.PhotoNames)
		result.NamesUpdated = updated
		result.NameErrors = nameErrors
	}

	if len(fields) > 0 {
		if err := s.galleries.UpdateFields(id, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFoundf("gallery '%s' not found", id)
			}
			return nil, apperr.Dependency("failed to update gallery record", err)
		}
	}

	result.Gallery = gallery
	return result, nil
}

// checkRelocationConflict 改名前的重名检查，排除自身
func (s *Service) checkRelocationConflict(id, name, continent, country string) error {
	existing, err := s.galleries.Scan()
	if err != nil {
		log.Printf("Duplicate check scan failed, proceeding with rename: %v", err)
		return nil
	}
	for _, g := range existing {
		if g.GalleryID == id {
			continue
		}
		if strings.EqualFold(g.Name, name) &&
			strings.EqualFold(g.Continent, continent) &&
			strings.EqualFold(g.Country, country) {
			return apperr.Duplicatef("gallery '%s' already exists in %s/%s", name, continent, country)
		}
	}
	return nil
}

// relocateObjects 把旧前缀下的全部对象迁到新前缀并改写照片记录。
// 删除阶段失败时中止更新：新旧前缀都有对象，留给对账扫描收拾。
func (s *Service) relocateObjects(ctx context.Context, id, oldPrefix, newPrefix string) (*relocation, error) {
	objects, err := s.objects.ListPrefix(ctx, oldPrefix)
	if err != nil {
		return nil, apperr.Dependency("failed to list gallery objects", err)
	}

	moved := &relocation{}

	// 全部复制成功之前绝不删除
	for _, obj := range objects {
		dst := storage.RewritePrefix(obj.Key, oldPrefix, newPrefix)
		if err := s.objects.CopyWithContext(ctx, obj.Key, dst); err != nil {
			return nil, apperr.Dependency("relocation aborted, no objects were deleted", err)
		}
		moved.objectsCopied++
	}

	oldKeys := make([]string, 0, len(objects))
	for _, obj := range objects {
		oldKeys = append(oldKeys, obj.Key)
	}
	deleted, err := s.objects.DeleteManyWithContext(ctx, oldKeys)
	moved.objectsDeleted = deleted
	if err != nil {
		return nil, apperr.Dependency("relocation aborted, old objects could not be deleted", err)
	}

	photos, err := s.photos.QueryByGallery(id)
	if err != nil {
		return nil, apperr.Dependency("objects relocated but photo records could not be loaded", err)
	}
	for _, photo := range photos {
		fields := map[string]interface{}{}

		thumbnailWasOriginal := photo.ThumbnailURL != "" && photo.ThumbnailURL == photo.ImageURL

		if strings.HasPrefix(photo.StorageKey, oldPrefix) {
			photo.StorageKey = storage.RewritePrefix(photo.StorageKey, oldPrefix, newPrefix)
			fields["storage_key"] = photo.StorageKey
			photo.ImageURL = s.objects.PublicURL(photo.StorageKey)
			fields["image_url"] = photo.ImageURL
		}
		if strings.HasPrefix(photo.ThumbnailKey, oldPrefix) {
			photo.ThumbnailKey = storage.RewritePrefix(photo.ThumbnailKey, oldPrefix, newPrefix)
			fields["thumbnail_key"] = photo.ThumbnailKey
		}

		// 无独立缩略图的照片保持 thumbnail == image
		if thumbnailWasOriginal {
			photo.ThumbnailURL = photo.ImageURL
		} else if photo.ThumbnailKey != "" {
			photo.ThumbnailURL = s.objects.PublicURL(photo.ThumbnailKey)
		} else if key := s.objects.KeyFromURL(photo.ThumbnailURL); key != "" && strings.HasPrefix(key, oldPrefix) {
			photo.ThumbnailURL = s.objects.PublicURL(storage.RewritePrefix(key, oldPrefix, newPrefix))
		}
		if photo.ThumbnailURL != "" {
			fields["thumbnail_url"] = photo.ThumbnailURL
		}

		if len(fields) == 0 {
			continue
		}
		if err := s.photos.UpdateFields(id, photo.PhotoID, fields); err != nil {
			log.Printf("Failed to rewrite photo '%s' after relocation: %v", photo.PhotoID, err)
			continue
		}
		moved.photosRewritten++
	}

	return moved, nil
}

// resolveCover 解析封面更新请求。
// set_cover_photo 给的是照片ID；coverPhotoURL 既可能是 URL 也可能是
// 历史客户端传来的照片ID，不带协议前缀的值按照片ID解析。
func (s *Service) resolveCover(ctx context.Context, id string, req *UpdateRequest) (string, error) {
	photoID := ""
	if req.SetCoverPhoto != nil && *req.SetCoverPhoto != "" {
		photoID = *req.SetCoverPhoto
	} else if req.CoverPhotoURL != nil {
		value := strings.TrimSpace(*req.CoverPhotoURL)
		if value == "" {
			return "", nil
		}
		if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
			return value, nil
		}
		photoID = value
	}
	if photoID == "" {
		return "", nil
	}

	photos, err := s.photos.QueryByGallery(id)
	if err != nil {
		return "", apperr.Dependency("failed to resolve cover photo", err)
	}
	for _, photo := range photos {
		if photo.PhotoID == photoID || photo.LegacyNumber == photoID {
			if photo.ThumbnailURL == "" {
				return "", apperr.Validationf("photo '%s' has no thumbnail to use as cover", photoID)
			}
			return photo.ThumbnailURL, nil
		}
	}
	return "", apperr.NotFoundf("cover photo '%s' not found in gallery '%s'", photoID, id)
}

// applyPhotoNames 批量照片改名，逐条 best-effort。
// 历史记录的 photoNumber 先折算成当前照片ID再改名。
func (s *Service) applyPhotoNames(id string, updates []PhotoNameUpdate) (int, []string) {
	updated := 0
	var nameErrors []string

	legacy := map[string]string{}
	if photos, err := s.photos.QueryByGallery(id); err == nil {
		for _, photo := range photos {
			if photo.LegacyNumber != "" {
				legacy[photo.LegacyNumber] = photo.PhotoID
			}
		}
	}

	for _, entry := range updates {
		key := entry.Key()
		if key == "" || entry.Name == "" {
			nameErrors = append(nameErrors, "entry missing photo id or name")
			continue
		}
		if resolved, ok := legacy[key]; ok {
			key = resolved
		}
		err := s.photos.UpdateFields(id, key, map[string]interface{}{"name": entry.Name})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				nameErrors = append(nameErrors, "photo '"+key+"' not found")
			} else {
				nameErrors = append(nameErrors, "photo '"+key+"': "+err.Error())
			}
			continue
		}
		updated++
	}

	return updated, nameErrors
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return strings.TrimSpace(*v)
}
