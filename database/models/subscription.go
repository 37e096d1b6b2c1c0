package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusInactive = "inactive"
)

// Subscription 邮件订阅记录，email 为主键
type Subscription struct {
	Email     string    `gorm:"primaryKey;type:varchar(255)" json:"email"`
	Status    string    `gorm:"type:varchar(16);not null;default:active" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
