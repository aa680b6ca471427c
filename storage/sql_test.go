package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/models"
	"github.com/tigrisdata/inviter/storage"
	storagetest "github.com/tigrisdata/inviter/storage/test"
)

func TestSQLStoreCreateFind(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSQLStore(storagetest.SetupSQLite(t))

	inv, err := models.NewInvitation("code-1", "a@x.com", "hi", "entity", 3, time.Now().Add(time.Hour).UTC())
	require.NoError(t, err)
	_, err = store.Create(ctx, inv)
	require.NoError(t, err)

	found, err := store.FindByCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, found.ID)
	assert.Equal(t, "a@x.com", found.Email)
	assert.Equal(t, models.StatusPending, found.Status)
	assert.Nil(t, found.StatusMessage)

	_, err = store.FindByCode(ctx, "missing")
	assert.True(t, models.IsNotFoundError(err))

	dup, err := models.NewInvitation("code-1", "b@x.com", "", "", 0, time.Now())
	require.NoError(t, err)
	_, err = store.Create(ctx, dup)
	assert.Error(t, err)
}

func TestSQLStoreConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSQLStore(storagetest.SetupSQLite(t))

	inv, err := models.NewInvitation("code-2", "a@x.com", "", "", 0, time.Now().Add(time.Hour).UTC())
	require.NoError(t, err)
	_, err = store.Create(ctx, inv)
	require.NoError(t, err)

	msg := "done"
	next := *inv
	next.Status = models.StatusSuccessful
	next.StatusMessage = &msg
	require.NoError(t, store.Update(ctx, &next, models.StatusPending))

	found, err := store.FindByCode(ctx, "code-2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccessful, found.Status)
	require.NotNil(t, found.StatusMessage)
	assert.Equal(t, "done", *found.StatusMessage)

	next.Status = models.StatusCanceled
	err = store.Update(ctx, &next, models.StatusPending)
	assert.True(t, models.IsConflictError(err))

	missing := next
	missing.Code = "nope"
	err = store.Update(ctx, &missing, models.StatusPending)
	assert.True(t, models.IsNotFoundError(err))
}

type countingPublisher struct {
	mu     sync.Mutex
	events map[string]int
}

func (p *countingPublisher) Publish(_ context.Context, event string, _ *models.Invitation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[event]++
}

func TestSQLStoreConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSQLStore(storagetest.SetupSQLite(t))
	publisher := &countingPublisher{events: make(map[string]int)}

	code, err := invitation.New(store, publisher).Invite(ctx, invitation.Params{
		Email:     "a@x.com",
		ValidTill: time.Now().Add(time.Hour),
	}, nil)
	require.NoError(t, err)

	lifecycles := make([]*invitation.Lifecycle, 2)
	for i := range lifecycles {
		lifecycles[i], err = invitation.New(store, publisher).SetCode(ctx, code)
		require.NoError(t, err)
		require.True(t, lifecycles[i].IsExisting())
	}

	var wg sync.WaitGroup
	results := make([]bool, len(lifecycles))
	errs := make([]error, len(lifecycles))
	for i, l := range lifecycles {
		wg.Add(1)
		go func(i int, l *invitation.Lifecycle) {
			defer wg.Done()
			results[i], errs[i] = l.Consume(ctx, nil)
		}(i, l)
	}
	wg.Wait()

	wins := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i] {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, publisher.events[invitation.ConsumedEvent])
	assert.Equal(t, 1, publisher.events[invitation.InvitedEvent])
}

func TestSQLStoreList(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSQLStore(storagetest.SetupSQLite(t))

	seed := []struct {
		code, email, entity string
		referrer            int64
		status              models.Status
	}{
		{"code-a", "a@x.com", "org_a", 1, models.StatusPending},
		{"code-b", "b@x.com", "org_a", 2, models.StatusCanceled},
		{"code-c", "a@x.com", "org_b", 1, models.StatusSuccessful},
	}
	for _, s := range seed {
		inv, err := models.NewInvitation(s.code, s.email, "", s.entity, s.referrer, time.Now().Add(time.Hour).UTC())
		require.NoError(t, err)
		inv.Status = s.status
		_, err = store.Create(ctx, inv)
		require.NoError(t, err)
	}

	codes := func(f models.InvitationFilter) []string {
		invitations, err := store.List(ctx, f)
		require.NoError(t, err)
		var out []string
		for _, inv := range invitations {
			out = append(out, inv.Code)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"code-a", "code-b", "code-c"}, codes(models.InvitationFilter{}))
	assert.ElementsMatch(t, []string{"code-a", "code-c"}, codes(models.InvitationFilter{Email: "a@x.com"}))
	assert.ElementsMatch(t, []string{"code-a", "code-b"}, codes(models.InvitationFilter{EntityID: "org_a"}))
	assert.ElementsMatch(t, []string{"code-c"}, codes(models.InvitationFilter{ReferrerID: 1, Status: models.StatusSuccessful}))
	assert.Empty(t, codes(models.InvitationFilter{Email: "nobody@x.com"}))
}

func TestOpenSQLRejectsUnknownDriverAndBadDSN(t *testing.T) {
	_, err := storage.OpenSQL("oracle", "dsn", false)
	assert.Error(t, err)

	_, err = storage.OpenSQL(storage.MySQLDriver, "no-database-separator", false)
	assert.Error(t, err)

	assert.True(t, storage.IsSQLDriver(storage.MySQLDriver))
	assert.True(t, storage.IsSQLDriver(storage.SQLiteDriver))
	assert.False(t, storage.IsSQLDriver("tigris"))
}
