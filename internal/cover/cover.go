package cover

import (
	"sort"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/sortorder"
)

// PickCoverPhoto 选出画廊的封面候选照片：排序号最小的照片，
// 未设置排序号的照片排在最后。没有照片时返回 nil。
// 入参切片不会被修改。
func PickCoverPhoto(photos []*models.Photo) *models.Photo {
	if len(photos) == 0 {
		return nil
	}

	sorted := make([]*models.Photo, len(photos))
	copy(sorted, photos)
	sortorder.SortPhotos(sorted)

	return sorted[0]
}

// FirstKey 按字典序返回最小的对象键，空切片返回空串
func FirstKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	return sorted[0]
}
