package rating

import (
	"context"
	"testing"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRatings struct {
	ratings map[string]*models.PhotoRating // key: photoID/deviceID
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: map[string]*models.PhotoRating{}}
}

func key(photoID, deviceID string) string { return photoID + "/" + deviceID }

func (f *fakeRatings) Get(photoID, deviceID string) (*models.PhotoRating, error) {
	r, ok := f.ratings[key(photoID, deviceID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakeRatings) Create(rating *models.PhotoRating) error {
	f.ratings[key(rating.PhotoID, rating.DeviceID)] = rating
	return nil
}

func (f *fakeRatings) UpdateRating(photoID, deviceID string, rating int) error {
	r, ok := f.ratings[key(photoID, deviceID)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Rating = rating
	return nil
}

func (f *fakeRatings) Delete(photoID, deviceID string) (bool, error) {
	if _, ok := f.ratings[key(photoID, deviceID)]; !ok {
		return false, nil
	}
	delete(f.ratings, key(photoID, deviceID))
	return true, nil
}

func (f *fakeRatings) QueryByPhoto(photoID string) ([]*models.PhotoRating, error) {
	var out []*models.PhotoRating
	for _, r := range f.ratings {
		if r.PhotoID == photoID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakePhotoChecker struct {
	existing map[string]bool
}

func (f *fakePhotoChecker) ExistsByPhotoID(photoID string) (bool, error) {
	return f.existing[photoID], nil
}

func newTestService() (*Service, *fakeRatings) {
	ratings := newFakeRatings()
	checker := &fakePhotoChecker{existing: map[string]bool{"p1": true}}
	return NewService(ratings, checker), ratings
}

func TestSubmitCreatesThenUpdates(t *testing.T) {
	svc, store := newTestService()

	result, err := svc.Submit(context.Background(), &SubmitRequest{PhotoID: "p1", DeviceID: "d1", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "created", result.Action)
	assert.Equal(t, 4, store.ratings["p1/d1"].Rating)

	result, err = svc.Submit(context.Background(), &SubmitRequest{PhotoID: "p1", DeviceID: "d1", Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, "updated", result.Action)
	assert.Equal(t, 2, store.ratings["p1/d1"].Rating)
}

func TestSubmitZeroDeletes(t *testing.T) {
	svc, store := newTestService()
	store.ratings["p1/d1"] = &models.PhotoRating{PhotoID: "p1", DeviceID: "d1", Rating: 3}

	result, err := svc.Submit(context.Background(), &SubmitRequest{PhotoID: "p1", DeviceID: "d1", Rating: 0})
	require.NoError(t, err)
	assert.Equal(t, "deleted", result.Action)
	assert.Empty(t, store.ratings)
}

func TestSubmitZeroWithoutExistingIsNoAction(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.Submit(context.Background(), &SubmitRequest{PhotoID: "p1", DeviceID: "d1", Rating: 0})
	require.NoError(t, err)
	assert.Equal(t, "no_action", result.Action)
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Submit(context.Background(), &SubmitRequest{PhotoID: "p1", Rating: 3})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Submit(context.Background(), &SubmitRequest{PhotoID: "p1", DeviceID: "d1", Rating: 6})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Submit(context.Background(), &SubmitRequest{PhotoID: "p1", DeviceID: "d1", Rating: -1})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSubmitUnknownPhoto(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Submit(context.Background(), &SubmitRequest{PhotoID: "ghost", DeviceID: "d1", Rating: 3})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetStats(t *testing.T) {
	svc, store := newTestService()
	store.ratings["p1/d1"] = &models.PhotoRating{PhotoID: "p1", DeviceID: "d1", Rating: 5}
	store.ratings["p1/d2"] = &models.PhotoRating{PhotoID: "p1", DeviceID: "d2", Rating: 4}
	store.ratings["p1/d3"] = &models.PhotoRating{PhotoID: "p1", DeviceID: "d3", Rating: 4}
	store.ratings["other/d1"] = &models.PhotoRating{PhotoID: "other", DeviceID: "d1", Rating: 1}

	stats, err := svc.GetStats(context.Background(), "p1", "d2")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 4.33, stats.Average, 0.001)
	assert.Equal(t, 2, stats.Distribution[4])
	assert.Equal(t, 1, stats.Distribution[5])
	assert.Equal(t, 0, stats.Distribution[1])
	assert.Equal(t, 4, stats.UserRating)
}

func TestGetStatsEmpty(t *testing.T) {
	svc, _ := newTestService()

	stats, err := svc.GetStats(context.Background(), "p1", "d1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.Average)
	assert.Equal(t, 0, stats.UserRating)
}
