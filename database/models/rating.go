package models

import "time"

// PhotoRating 照片评分记录，(PhotoID, DeviceID) 复合主键。
// 评分 0 语义上等于删除，不允许落库。
type PhotoRating struct {
	PhotoID   string    `gorm:"primaryKey;type:varchar(64)" json:"photoId"`
	DeviceID  string    `gorm:"primaryKey;type:varchar(128)" json:"deviceId"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
