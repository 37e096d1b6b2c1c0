package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/haophotography/gallery-backend/utils/validator"
	"gorm.io/gorm"
)

// SubscriptionStore 订阅记录存储
type SubscriptionStore interface {
	Get(email string) (*models.Subscription, error)
	Create(sub *models.Subscription) error
	UpdateStatus(email, status string) error
}

// Service 邮件订阅服务
type Service struct {
	subscriptions SubscriptionStore
}

// NewService 创建订阅服务
func NewService(subscriptions SubscriptionStore) *Service {
	return &Service{subscriptions: subscriptions}
}

// SubscribeResult 订阅结果，Created 区分新订阅与重复订阅
type SubscribeResult struct {
	Email   string `json:"email"`
	Status  string `json:"status"`
	Created bool   `json:"-"`
	Message string `json:"message"`
}

// Subscribe 订阅邮件列表。
// 邮箱统一小写后作为主键；重复订阅是幂等操作，退订过的
// 邮箱重新激活。
func (s *Service) Subscribe(ctx context.Context, email string) (*SubscribeResult, error) {
	email = validator.NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validationf("email is required")
	}
	if !validator.IsValidEmail(email) {
		return nil, apperr.Validationf("invalid email address")
	}

	existing, err := s.subscriptions.Get(email)
	switch {
	case err == nil:
		if existing.Status == models.SubscriptionStatusActive {
			return &SubscribeResult{
				Email:   email,
				Status:  models.SubscriptionStatusActive,
				Message: "already subscribed",
			}, nil
		}
		if err := s.subscriptions.UpdateStatus(email, models.SubscriptionStatusActive); err != nil {
			return nil, apperr.Dependency("failed to reactivate subscription", err)
		}
		return &SubscribeResult{
			Email:   email,
			Status:  models.SubscriptionStatusActive,
			Message: "subscription reactivated",
		}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now().UTC()
		sub := &models.Subscription{
			Email:     email,
			Status:    models.SubscriptionStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.subscriptions.Create(sub); err != nil {
			return nil, apperr.Dependency("failed to create subscription", err)
		}
		return &SubscribeResult{
			Email:   email,
			Status:  models.SubscriptionStatusActive,
			Created: true,
			Message: "subscribed",
		}, nil

	default:
		return nil, apperr.Dependency("failed to load subscription", err)
	}
}
