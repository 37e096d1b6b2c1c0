package subscription

import (
	"context"
	"testing"

	"github.com/haophotography/gallery-backend/database/models"
	"github.com/haophotography/gallery-backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSubscriptions struct {
	subs map[string]*models.Subscription
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{subs: map[string]*models.Subscription{}}
}

func (f *fakeSubscriptions) Get(email string) (*models.Subscription, error) {
	sub, ok := f.subs[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (f *fakeSubscriptions) Create(sub *models.Subscription) error {
	f.subs[sub.Email] = sub
	return nil
}

func (f *fakeSubscriptions) UpdateStatus(email, status string) error {
	sub, ok := f.subs[email]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sub.Status = status
	return nil
}

func TestSubscribeNewEmail(t *testing.T) {
	store := newFakeSubscriptions()
	svc := NewService(store)

	result, err := svc.Subscribe(context.Background(), "  Viewer@Example.COM ")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "viewer@example.com", result.Email)
	assert.Equal(t, models.SubscriptionStatusActive, store.subs["viewer@example.com"].Status)
}

func TestSubscribeExistingActiveIsIdempotent(t *testing.T) {
	store := newFakeSubscriptions()
	store.subs["viewer@example.com"] = &models.Subscription{Email: "viewer@example.com", Status: models.SubscriptionStatusActive}
	svc := NewService(store)

	result, err := svc.Subscribe(context.Background(), "viewer@example.com")
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "already subscribed", result.Message)
}

func TestSubscribeReactivatesInactive(t *testing.T) {
	store := newFakeSubscriptions()
	store.subs["viewer@example.com"] = &models.Subscription{Email: "viewer@example.com", Status: models.SubscriptionStatusInactive}
	svc := NewService(store)

	result, err := svc.Subscribe(context.Background(), "viewer@example.com")
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, models.SubscriptionStatusActive, store.subs["viewer@example.com"].Status)
	assert.Equal(t, "subscription reactivated", result.Message)
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	svc := NewService(newFakeSubscriptions())

	for _, email := range []string{"", "no-at-sign", "user@nodot"} {
		_, err := svc.Subscribe(context.Background(), email)
		require.Error(t, err, email)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}
