package models

import "time"

// Photo 画廊照片记录，(GalleryID, PhotoID) 复合主键。
// StorageKey 必须指向所属画廊当前前缀下的对象；画廊改名/迁移时由
// 生命周期服务重写。LegacyNumber 保留历史数据里的 photoNumber 别名，
// 照片 Reconcile 扫描会把它折叠进 PhotoID。
type Photo struct {
	GalleryID    string     `gorm:"primaryKey;type:varchar(64)" json:"galleryId"`
	PhotoID      string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name         string     `gorm:"type:varchar(255)" json:"name"`
	StorageKey   string     `gorm:"type:varchar(1024);index" json:"s3Key"`
	ThumbnailKey string     `gorm:"type:varchar(1024)" json:"thumbnailKey,omitempty"`
	ImageURL     string     `gorm:"type:varchar(1024)" json:"image"`
	ThumbnailURL string     `gorm:"type:varchar(1024)" json:"thumbnail"`
	Format       string     `gorm:"type:varchar(16)" json:"format"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	FileSize     string     `gorm:"type:varchar(32)" json:"fileSize,omitempty"`
	SortOrder    int        `json:"sortOrder,omitempty"`
	LegacyNumber string     `gorm:"type:varchar(64)" json:"photoNumber,omitempty"`
	HasExif      bool       `json:"hasExif"`
	TakenAt      *time.Time `json:"takenAt,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	LastModified time.Time  `json:"lastModified"`
}
