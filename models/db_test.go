package models_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tigrisdata/inviter/models"
	"github.com/tigrisdata/inviter/storage/namespace"
)

func TestTableNameNamespacing(t *testing.T) {
	namespace.SetNamespace("test")
	defer namespace.SetNamespace("")
	assert.Equal(t, "test_invitations", models.Invitation{}.TableName())

	namespace.SetNamespace("")
	assert.Equal(t, "invitations", models.Invitation{}.TableName())
}

func TestNewInvitationIsPending(t *testing.T) {
	validTill := time.Now().Add(time.Hour)
	inv, err := models.NewInvitation("abc", "a@x.com", "hello", "entity-1", 7, validTill)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, inv.Status)
	assert.True(t, inv.IsPending())
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", inv.ID.String())
	assert.Nil(t, inv.StatusMessage)
}

func TestExpiredAtIsInclusive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	inv := &models.Invitation{ValidTill: now}

	assert.False(t, inv.ExpiredAt(now))
	assert.False(t, inv.ExpiredAt(now.Add(-time.Second)))
	assert.True(t, inv.ExpiredAt(now.Add(time.Nanosecond)))
}

func TestErrorClassification(t *testing.T) {
	notFound := models.NewStoreError("find", models.InvitationNotFoundError{Code: "x"})
	assert.True(t, models.IsNotFoundError(notFound))
	assert.False(t, models.IsConflictError(notFound))

	conflict := errors.Wrap(&models.StatusConflictError{Code: "x", Expected: models.StatusPending}, "update")
	assert.True(t, models.IsConflictError(conflict))
	assert.False(t, models.IsNotFoundError(conflict))

	assert.False(t, models.IsNotFoundError(errors.New("boom")))
	assert.Contains(t, notFound.Error(), "invitation store find")
}
