package storage_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tigrisdata/inviter/conf"
	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/models"
	"github.com/tigrisdata/inviter/storage"
	storagetest "github.com/tigrisdata/inviter/storage/test"
)

// TigrisStoreTestSuite runs against the tigris server named by INVITER_DB_URL.
type TigrisStoreTestSuite struct {
	suite.Suite
	store *storage.TigrisStore
}

func TestTigrisStore(t *testing.T) {
	if os.Getenv("INVITER_DB_URL") == "" {
		t.Skip("INVITER_DB_URL is not set")
	}
	globalConfig, err := conf.LoadGlobal("")
	require.NoError(t, err)
	if globalConfig.DB.Driver != "tigris" {
		t.Skipf("INVITER_DB_DRIVER is %s", globalConfig.DB.Driver)
	}

	db, err := storagetest.SetupDBConnection(globalConfig)
	require.NoError(t, err)

	suite.Run(t, &TigrisStoreTestSuite{store: storage.NewTigrisStore(db)})
}

func (ts *TigrisStoreTestSuite) SetupTest() {
	require.NoError(ts.T(), ts.store.TruncateAll(context.Background()))
}

func (ts *TigrisStoreTestSuite) create(code, email string) *models.Invitation {
	inv, err := models.NewInvitation(code, email, "hi", "org_a", 7, time.Now().Add(time.Hour).UTC())
	require.NoError(ts.T(), err)
	_, err = ts.store.Create(context.Background(), inv)
	require.NoError(ts.T(), err)
	return inv
}

func (ts *TigrisStoreTestSuite) TestCreateFind() {
	ctx := context.Background()
	inv := ts.create("tigris-1", "a@x.com")

	found, err := ts.store.FindByCode(ctx, "tigris-1")
	require.NoError(ts.T(), err)
	assert.Equal(ts.T(), inv.ID, found.ID)
	assert.Equal(ts.T(), "a@x.com", found.Email)
	assert.Equal(ts.T(), models.StatusPending, found.Status)

	_, err = ts.store.FindByCode(ctx, "missing")
	assert.True(ts.T(), models.IsNotFoundError(err))
}

func (ts *TigrisStoreTestSuite) TestConditionalUpdate() {
	ctx := context.Background()
	inv := ts.create("tigris-2", "a@x.com")

	msg := "done"
	next := *inv
	next.Status = models.StatusSuccessful
	next.StatusMessage = &msg
	require.NoError(ts.T(), ts.store.Update(ctx, &next, models.StatusPending))

	found, err := ts.store.FindByCode(ctx, "tigris-2")
	require.NoError(ts.T(), err)
	assert.Equal(ts.T(), models.StatusSuccessful, found.Status)
	require.NotNil(ts.T(), found.StatusMessage)
	assert.Equal(ts.T(), "done", *found.StatusMessage)

	next.Status = models.StatusCanceled
	err = ts.store.Update(ctx, &next, models.StatusPending)
	assert.True(ts.T(), models.IsConflictError(err))

	found, err = ts.store.FindByCode(ctx, "tigris-2")
	require.NoError(ts.T(), err)
	assert.Equal(ts.T(), models.StatusSuccessful, found.Status)

	missing := next
	missing.Code = "nope"
	err = ts.store.Update(ctx, &missing, models.StatusPending)
	assert.True(ts.T(), models.IsNotFoundError(err))
}

func (ts *TigrisStoreTestSuite) TestConcurrentConsume() {
	ctx := context.Background()
	publisher := &countingPublisher{events: make(map[string]int)}

	code, err := invitation.New(ts.store, publisher).Invite(ctx, invitation.Params{
		Email:     "a@x.com",
		ValidTill: time.Now().Add(time.Hour),
	}, nil)
	require.NoError(ts.T(), err)

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		l, err := invitation.New(ts.store, publisher).SetCode(ctx, code)
		require.NoError(ts.T(), err)
		wg.Add(1)
		go func(i int, l *invitation.Lifecycle) {
			defer wg.Done()
			results[i], _ = l.Consume(ctx, nil)
		}(i, l)
	}
	wg.Wait()

	wins := 0
	for _, won := range results {
		if won {
			wins++
		}
	}
	assert.Equal(ts.T(), 1, wins)
	assert.Equal(ts.T(), 1, publisher.events[invitation.ConsumedEvent])
}

func (ts *TigrisStoreTestSuite) TestList() {
	ts.create("tigris-3", "a@x.com")
	ts.create("tigris-4", "b@x.com")

	all, err := ts.store.List(context.Background(), models.InvitationFilter{})
	require.NoError(ts.T(), err)
	assert.Len(ts.T(), all, 2)

	some, err := ts.store.List(context.Background(), models.InvitationFilter{Email: "b@x.com", Status: models.StatusPending})
	require.NoError(ts.T(), err)
	require.Len(ts.T(), some, 1)
	assert.Equal(ts.T(), "tigris-4", some[0].Code)
}
