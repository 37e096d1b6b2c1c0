package galleries

import (
	"context"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"gorm.io/gorm"
)

// Repository 画廊仓库 - 封装所有画廊记录相关的数据库操作。
// 每个方法都是单条记录的原子写；跨记录、跨存储的编排一律留给服务层，
// 因为对象存储与元数据库之间没有事务联动。
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的画廊仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get 通过ID获取画廊记录
func (r *Repository) Get(id string) (*models.Gallery, error) {
	var gallery models.Gallery
	err := r.db.First(&gallery, "gallery_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &gallery, nil
}

// Create 创建画廊记录
func (r *Repository) Create(gallery *models.Gallery) error {
	return r.db.Create(gallery).Error
}

// Scan 全表扫描所有画廊记录。
// 扫描视图对并发写不保证隔离，调用方按 best-effort 对待。
func (r *Repository) Scan() ([]*models.Gallery, error) {
	var galleries []*models.Gallery
	if err := r.db.Find(&galleries).Error; err != nil {
		return nil, err
	}
	return galleries, nil
}

// MaxSortOrder 当前最大排序号，没有任何记录时返回 0
func (r *Repository) MaxSortOrder() (int, error) {
	var max int
	err := r.db.Model(&models.Gallery{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}

// UpdateFields 更新画廊字段，记录不存在时返回 gorm.ErrRecordNotFound
func (r *Repository) UpdateFields(id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	result := r.db.Model(&models.Gallery{}).Where("gallery_id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSortOrder 条件更新排序号，记录必须已存在
func (r *Repository) UpdateSortOrder(id string, sortOrder int) error {
	return r.UpdateFields(id, map[string]interface{}{"sort_order": sortOrder})
}

// SetCoverIfAbsent 仅在封面为空时设置封面，避免覆盖并发的显式封面设置。
// 返回是否实际写入。
func (r *Repository) SetCoverIfAbsent(id string, coverURL string) (bool, error) {
	result := r.db.Model(&models.Gallery{}).
		Where("gallery_id = ? AND (cover_photo_url IS NULL OR cover_photo_url = '')", id).
		Updates(map[string]interface{}{
			"cover_photo_url": coverURL,
			"updated_at":      time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// ClearCover 清除封面引用
func (r *Repository) ClearCover(id string) error {
	return r.db.Model(&models.Gallery{}).
		Where("gallery_id = ?", id).
		Updates(map[string]interface{}{
			"cover_photo_url": "",
			"updated_at":      time.Now().UTC(),
		}).Error
}

// IncrementPhotoCount 照片计数增加 n
func (r *Repository) IncrementPhotoCount(id string, n int) error {
	return r.db.Model(&models.Gallery{}).
		Where("gallery_id = ?", id).
		Updates(map[string]interface{}{
			"photo_count": gorm.Expr("photo_count + ?", n),
			"updated_at":  time.Now().UTC(),
		}).Error
}

// DecrementPhotoCount 照片计数减一，下限为 0
func (r *Repository) DecrementPhotoCount(id string) error {
	return r.db.Model(&models.Gallery{}).
		Where("gallery_id = ?", id).
		Updates(map[string]interface{}{
			"photo_count": gorm.Expr("CASE WHEN photo_count > 0 THEN photo_count - 1 ELSE 0 END"),
			"updated_at":  time.Now().UTC(),
		}).Error
}

// Delete 删除画廊记录，返回是否实际删除
func (r *Repository) Delete(id string) (bool, error) {
	result := r.db.Delete(&models.Gallery{}, "gallery_id = ?", id)
	return result.RowsAffected > 0, result.Error
}

// WithContext 返回带上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}
