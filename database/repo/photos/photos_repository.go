package photos

import (
	"context"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"gorm.io/gorm"
)

// Repository 照片仓库 - 封装所有照片记录相关的数据库操作。
// 画廊ID是分区键：分区内查询走 gallery_id 索引，单条读写走复合主键。
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的照片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get 通过复合主键获取照片记录
func (r *Repository) Get(galleryID, photoID string) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.First(&photo, "gallery_id = ? AND photo_id = ?", galleryID, photoID).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// QueryByGallery 查询画廊分区下的全部照片
func (r *Repository) QueryByGallery(galleryID string) ([]*models.Photo, error) {
	var photos []*models.Photo
	err := r.db.Where("gallery_id = ?", galleryID).Order("photo_id").Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

// CountByGallery 画廊分区下的照片数
func (r *Repository) CountByGallery(galleryID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).Where("gallery_id = ?", galleryID).Count(&count).Error
	return count, err
}

// Create 创建照片记录
func (r *Repository) Create(photo *models.Photo) error {
	return r.db.Create(photo).Error
}

// Save 整条覆盖写照片记录
func (r *Repository) Save(photo *models.Photo) error {
	return r.db.Save(photo).Error
}

// UpdateFields 更新照片字段，记录不存在时返回 gorm.ErrRecordNotFound
func (r *Repository) UpdateFields(galleryID, photoID string, fields map[string]interface{}) error {
	fields["last_modified"] = time.Now().UTC()
	result := r.db.Model(&models.Photo{}).
		Where("gallery_id = ? AND photo_id = ?", galleryID, photoID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSortOrder 条件更新排序号，记录必须已存在
func (r *Repository) UpdateSortOrder(galleryID, photoID string, sortOrder int) error {
	return r.UpdateFields(galleryID, photoID, map[string]interface{}{"sort_order": sortOrder})
}

// FindByStorageKey 在画廊分区内按对象键匹配照片
func (r *Repository) FindByStorageKey(galleryID, storageKey string) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.First(&photo, "gallery_id = ? AND storage_key = ?", galleryID, storageKey).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// ExistsByPhotoID 跨画廊检查照片ID是否存在（评分写入前的存在性校验）
func (r *Repository) ExistsByPhotoID(photoID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).Where("photo_id = ?", photoID).Count(&count).Error
	return count > 0, err
}

// Delete 删除照片记录，返回是否实际删除
func (r *Repository) Delete(galleryID, photoID string) (bool, error) {
	result := r.db.Delete(&models.Photo{}, "gallery_id = ? AND photo_id = ?", galleryID, photoID)
	return result.RowsAffected > 0, result.Error
}

// DeleteByGallery 批量删除画廊分区下的全部照片记录，返回删除数
func (r *Repository) DeleteByGallery(galleryID string) (int64, error) {
	result := r.db.Delete(&models.Photo{}, "gallery_id = ?", galleryID)
	return result.RowsAffected, result.Error
}

// WithContext 返回带上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}
