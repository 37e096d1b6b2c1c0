package sortorder

import (
	"context"
	"errors"
	"testing"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestReorderPartialSuccess(t *testing.T) {
	entries := []Entry{
		{ID: "a", SortOrder: 1},
		{ID: "missing", SortOrder: 2},
		{ID: "b", SortOrder: 3},
	}

	result := Reorder(context.Background(), entries, func(ctx context.Context, id string, sortOrder int) error {
		if id == "missing" {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	assert.Equal(t, 2, result.Updated)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "missing", result.Errors[0].ID)
	assert.Equal(t, "record not found", result.Errors[0].Message)
	assert.False(t, result.AllFailed(len(entries)))
}

func TestReorderAllFailed(t *testing.T) {
	entries := []Entry{{ID: "a", SortOrder: 1}, {ID: "b", SortOrder: 2}}

	result := Reorder(context.Background(), entries, func(ctx context.Context, id string, sortOrder int) error {
		return errors.New("database unavailable")
	})

	assert.Equal(t, 0, result.Updated)
	assert.Len(t, result.Errors, 2)
	assert.True(t, result.AllFailed(len(entries)))
}

func TestReorderRejectsNonPositiveSortOrders(t *testing.T) {
	entries := []Entry{
		{ID: "a", SortOrder: -3},
		{ID: "b", SortOrder: 0},
		{ID: "c", SortOrder: 1},
	}

	applied := map[string]int{}
	result := Reorder(context.Background(), entries, func(ctx context.Context, id string, sortOrder int) error {
		applied[id] = sortOrder
		return nil
	})

	assert.Equal(t, 1, result.Updated)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, "a", result.Errors[0].ID)
	assert.Equal(t, "sort order must be a positive number", result.Errors[0].Message)
	assert.Equal(t, map[string]int{"c": 1}, applied)
}

func TestValidateEntries(t *testing.T) {
	assert.NoError(t, ValidateEntries([]Entry{{ID: "a", SortOrder: 1}, {ID: "b", SortOrder: 2}}))

	err := ValidateEntries([]Entry{{ID: "a", SortOrder: 1}, {ID: "b", SortOrder: -3}})
	assert.EqualError(t, err, "sort order for 'b' must be a positive number")
}

func TestEnsureSortOrders(t *testing.T) {
	photos := []*models.Photo{
		{PhotoID: "p1", SortOrder: 5},
		{PhotoID: "p2"},
		{PhotoID: "p3"},
		{PhotoID: "p4", SortOrder: 1},
	}

	patches := EnsureSortOrders(photos)

	assert.Len(t, patches, 2)
	assert.Equal(t, PhotoPatch{PhotoID: "p2", SortOrder: 2}, patches[0])
	assert.Equal(t, PhotoPatch{PhotoID: "p3", SortOrder: 3}, patches[1])
	assert.Equal(t, 2, photos[1].SortOrder)
	assert.Equal(t, 3, photos[2].SortOrder)
}

func TestEnsureSortOrdersNoop(t *testing.T) {
	photos := []*models.Photo{
		{PhotoID: "p1", SortOrder: 1},
		{PhotoID: "p2", SortOrder: 2},
	}
	assert.Empty(t, EnsureSortOrders(photos))
}

func TestSortPhotosUnsetLast(t *testing.T) {
	photos := []*models.Photo{
		{PhotoID: "unset-a"},
		{PhotoID: "third", SortOrder: 3},
		{PhotoID: "first", SortOrder: 1},
		{PhotoID: "unset-b"},
		{PhotoID: "second", SortOrder: 2},
	}

	SortPhotos(photos)

	ids := make([]string, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.PhotoID)
	}
	assert.Equal(t, []string{"first", "second", "third", "unset-a", "unset-b"}, ids)
}
