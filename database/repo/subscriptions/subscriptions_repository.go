package subscriptions

import (
	"context"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"gorm.io/gorm"
)

// Repository 邮件订阅仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的订阅仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get 通过邮箱获取订阅记录
func (r *Repository) Get(email string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.First(&sub, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create 创建订阅记录
func (r *Repository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// UpdateStatus 更新订阅状态
func (r *Repository) UpdateStatus(email, status string) error {
	return r.db.Model(&models.Subscription{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// WithContext 返回带上下文的仓库
func (r *Repository) WithContext(ctx context.Context) *Repository {
	return &Repository{db: r.db.WithContext(ctx)}
}
