package sortorder

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/haophotography/gallery-backend/database/models"
	"gorm.io/gorm"
)

// Entry 单条排序更新请求
type Entry struct {
	ID        string `json:"id" binding:"required"`
	SortOrder int    `json:"sortOrder" binding:"required"`
}

// ItemError 单条更新失败信息
type ItemError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Result 批量排序更新结果。
// 部分成功是正常结果，调用方根据 Updated 与 Errors 决定响应状态。
type Result struct {
	Updated int         `json:"updated"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// AllFailed 是否全部条目都失败
func (r *Result) AllFailed(total int) bool {
	return total > 0 && r.Updated == 0
}

// UpdateFunc 持久化单条排序号，记录不存在时返回 gorm.ErrRecordNotFound
type UpdateFunc func(ctx context.Context, id string, sortOrder int) error

// ValidateEntries 校验批量排序请求，排序号必须是正数
func ValidateEntries(entries []Entry) error {
	for _, entry := range entries {
		if entry.SortOrder < 1 {
			return fmt.Errorf("sort order for '%s' must be a positive number", entry.ID)
		}
	}
	return nil
}

// Reorder 逐条应用排序更新，不因单条失败中断其余条目
func Reorder(ctx context.Context, entries []Entry, update UpdateFunc) Result {
	var result Result

	for _, entry := range entries {
		if entry.SortOrder < 1 {
			result.Errors = append(result.Errors, ItemError{ID: entry.ID, Message: "sort order must be a positive number"})
			continue
		}
		if err := update(ctx, entry.ID, entry.SortOrder); err != nil {
			message := err.Error()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				message = "record not found"
			}
			result.Errors = append(result.Errors, ItemError{ID: entry.ID, Message: message})
			continue
		}
		result.Updated++
	}

	return result
}

// PhotoPatch 照片排序号补齐
type PhotoPatch struct {
	PhotoID   string
	SortOrder int
}

// EnsureSortOrders 为缺少排序号的照片按当前位置补齐 idx+1。
// 只返回需要持久化的补丁，入参切片会被就地修正。
func EnsureSortOrders(photos []*models.Photo) []PhotoPatch {
	var patches []PhotoPatch
	for idx, photo := range photos {
		if photo.SortOrder > 0 {
			continue
		}
		photo.SortOrder = idx + 1
		patches = append(patches, PhotoPatch{PhotoID: photo.PhotoID, SortOrder: idx + 1})
	}
	return patches
}

// SortGalleries 按排序号稳定排序，未设置排序号的画廊排在最后
func SortGalleries(galleries []*models.Gallery) {
	sort.SliceStable(galleries, func(i, j int) bool {
		oi, oj := galleries[i].SortOrder, galleries[j].SortOrder
		if oi <= 0 {
			return false
		}
		if oj <= 0 {
			return true
		}
		return oi < oj
	})
}

// SortPhotos 按排序号稳定排序，未设置排序号的照片排在最后
func SortPhotos(photos []*models.Photo) {
	sort.SliceStable(photos, func(i, j int) bool {
		oi, oj := photos[i].SortOrder, photos[j].SortOrder
		if oi <= 0 {
			return false
		}
		if oj <= 0 {
			return true
		}
		return oi < oj
	})
}
