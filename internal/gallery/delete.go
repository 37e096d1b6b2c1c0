package gallery

import (
	"context"
	"errors"
	"log"

	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/storage"
	"gorm.io/gorm"
)

// DeleteReport 删除结果计数，三个阶段各自 best-effort
type DeleteReport struct {
	ObjectsDeleted      int   `json:"objectsDeleted"`
	PhotoRecordsDeleted int64 `json:"photoRecordsDeleted"`
	GalleryDeleted      bool  `json:"galleryDeleted"`
}

// Delete 删除画廊：先清对象，再清照片记录，最后删画廊记录。
// 任一阶段失败不阻塞后续阶段，结果以计数形式返回，残留由
// 对账扫描发现。
func (s *Service) Delete(ctx context.Context, id string) (*DeleteReport, error) {
	gallery, err := s.galleries.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("gallery '%s' not found", id)
		}
		return nil, apperr.Dependency("failed to load gallery", err)
	}

	report := &DeleteReport{}
	prefix := storage.GalleryPrefix(gallery.Continent, gallery.Country, gallery.Name)

	if objects, err := s.objects.ListPrefix(ctx, prefix); err != nil {
		log.Printf("Failed to list objects under '%s' for deletion: %v", prefix, err)
	} else if len(objects) > 0 {
		keys := make([]string, 0, len(objects))
		for _, obj := range objects {
			keys = append(keys, obj.Key)
		}
		deleted, err := s.objects.DeleteManyWithContext(ctx, keys)
		if err != nil {
			log.Printf("Failed to delete objects under '%s': %v", prefix, err)
		}
		report.ObjectsDeleted = deleted
	}

	if deleted, err := s.photos.DeleteByGallery(id); err != nil {
		log.Printf("Failed to delete photo records for gallery '%s': %v", id, err)
	} else {
		report.PhotoRecordsDeleted = deleted
	}

	deleted, err := s.galleries.Delete(id)
	if err != nil {
		log.Printf("Failed to delete gallery record '%s': %v", id, err)
	}
	report.GalleryDeleted = deleted

	return report, nil
}
