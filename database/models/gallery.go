package models

import "time"

// Gallery 画廊记录，元数据库中的权威画廊信息。
// PhotoCount 为非权威冗余计数，由生命周期服务维护，可能漂移，
// 通过 Reconcile 扫描修复。SortOrder 为 0 表示尚未分配。
type Gallery struct {
	GalleryID     string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Continent     string    `gorm:"type:varchar(100);not null" json:"continent"`
	Country       string    `gorm:"type:varchar(100);not null" json:"country"`
	Description   string    `gorm:"type:varchar(1024)" json:"description"`
	Years         []string  `gorm:"serializer:json" json:"years"`
	PhotoCount    int       `gorm:"not null;default:0" json:"photoCount"`
	SortOrder     int       `gorm:"index" json:"sortOrder,omitempty"`
	CoverPhotoURL string    `gorm:"type:varchar(1024)" json:"coverPhotoURL,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasCoordinates 是否已有地理坐标
func (g *Gallery) HasCoordinates() bool {
	return g.Latitude != nil && g.Longitude != nil
}
