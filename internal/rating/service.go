package rating

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"gorm.io/gorm"
)

// RatingStore 评分记录存储
type RatingStore interface {
	Get(photoID, deviceID string) (*models.PhotoRating, error)
	Create(rating *models.PhotoRating) error
	UpdateRating(photoID, deviceID string, rating int) error
	Delete(photoID, deviceID string) (bool, error)
	QueryByPhoto(photoID string) ([]*models.PhotoRating, error)
}

// PhotoChecker 照片存在性校验
type PhotoChecker interface {
	ExistsByPhotoID(photoID string) (bool, error)
}

// Service 照片评分服务
type Service struct {
	ratings RatingStore
	photos  PhotoChecker
}

// NewService 创建评分服务
func NewService(ratings RatingStore, photos PhotoChecker) *Service {
	return &Service{ratings: ratings, photos: photos}
}

// SubmitRequest 评分提交请求，Rating 为 0 表示撤回评分
type SubmitRequest struct {
	PhotoID  string `json:"photoId"`
	DeviceID string `json:"deviceId"`
	Rating   int    `json:"rating"`
}

// SubmitResult 评分提交结果
type SubmitResult struct {
	Action string `json:"action"`
	Rating int    `json:"rating"`
}

// Submit 提交评分。
// 0 分是撤回语义：有记录则删，没有则 no_action，0 分永远不落库。
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if req.PhotoID == "" || req.DeviceID == "" {
		return nil, apperr.Validationf("photoId and deviceId are required")
	}
	if req.Rating < 0 || req.Rating > 5 {
		return nil, apperr.Validationf("rating must be between 0 and 5")
	}

	exists, err := s.photos.ExistsByPhotoID(req.PhotoID)
	if err != nil {
		return nil, apperr.Dependency("failed to verify photo", err)
	}
	if !exists {
		return nil, apperr.NotFoundf("photo '%s' not found", req.PhotoID)
	}

	if req.Rating == 0 {
		deleted, err := s.ratings.Delete(req.PhotoID, req.DeviceID)
		if err != nil {
			return nil, apperr.Dependency("failed to delete rating", err)
		}
		if !deleted {
			return &SubmitResult{Action: "no_action"}, nil
		}
		return &SubmitResult{Action: "deleted"}, nil
	}

	_, err = s.ratings.Get(req.PhotoID, req.DeviceID)
	switch {
	case err == nil:
		if err := s.ratings.UpdateRating(req.PhotoID, req.DeviceID, req.Rating); err != nil {
			return nil, apperr.Dependency("failed to update rating", err)
		}
		return &SubmitResult{Action: "updated", Rating: req.Rating}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now().UTC()
		record := &models.PhotoRating{
			PhotoID:   req.PhotoID,
			DeviceID:  req.DeviceID,
			Rating:    req.Rating,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.ratings.Create(record); err != nil {
			return nil, apperr.Dependency("failed to create rating", err)
		}
		return &SubmitResult{Action: "created", Rating: req.Rating}, nil
	default:
		return nil, apperr.Dependency("failed to load rating", err)
	}
}

// Stats 照片评分统计
type Stats struct {
	PhotoID      string      `json:"photoId"`
	Count        int         `json:"count"`
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
	UserRating   int         `json:"userRating"`
}

// GetStats 查询照片的评分统计。
// deviceID 非空时带回该设备的评分，没评过为 0。
func (s *Service) GetStats(ctx context.Context, photoID, deviceID string) (*Stats, error) {
	if photoID == "" {
		return nil, apperr.Validationf("photoId is required")
	}

	ratings, err := s.ratings.QueryByPhoto(photoID)
	if err != nil {
		return nil, apperr.Dependency("failed to load ratings", err)
	}

	stats := &Stats{
		PhotoID:      photoID,
		Count:        len(ratings),
		Distribution: map[int]int{0: 0, 1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Rating
		if r.Rating >= 0 && r.Rating <= 5 {
			stats.Distribution[r.Rating]++
		}
		if deviceID != "" && r.DeviceID == deviceID {
			stats.UserRating = r.Rating
		}
	}
	if stats.Count > 0 {
		stats.Average = math.Round(float64(sum)/float64(stats.Count)*100) / 100
	}

	return stats, nil
}
