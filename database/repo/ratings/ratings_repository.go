package ratings

import (
	"context"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"gorm.io/gorm"
)

// Repository 评分仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的评分仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get 通过复合主键获取评分记录
func (r *Repository) Get(photoID, deviceID string) (*models.PhotoRating, error) {
	var rating models.PhotoRating
	err := r.db.First(&rating, "photo_id = ? AND device_id = ?", photoID, deviceID).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Create 创建评分记录
func (r *Repository) Create(rating *models.PhotoRating) error {
	return r.db.Create(rating).Error
}

// UpdateRating 更新已有评分
func (r *Repository) UpdateRating(photoID, deviceID string, rating int) error {
	result := r.db.Model(&models.PhotoRating{}).
		Where("photo_id = ? AND device_id = ?", photoID, deviceID).
		Updates(map[string]interface{}{
			"rating":     rating,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除评分记录，返回是否实际删除
func (r *Repository) Delete(photoID, deviceID string) (bool, error) {
	result := r.db.Delete(&models.PhotoRating{}, "photo_id = ? AND device_id = ?", photoID, deviceID)
	return result.RowsAffected > 0, result.Error
}

// QueryByPhoto 查询某张照片的全部评分
func (r *Repository) QueryByPhoto(photoID string) ([]*models.PhotoRating, error) {
	var ratings []*models.PhotoRating
	err := r.db.Where("photo_id = ?", photoID).Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

// WithContext 返回带上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}
