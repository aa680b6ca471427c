package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tigrisdata/inviter/models"
)

func TestDispatcherRoutesEvents(t *testing.T) {
	d := NewDispatcher()
	var named, all []string

	d.Subscribe("invitation.invited", func(_ context.Context, evt Event) error {
		named = append(named, evt.Name)
		return nil
	})
	d.SubscribeAll(func(_ context.Context, evt Event) error {
		all = append(all, evt.Name)
		return errors.New("listener failures are swallowed")
	})

	inv := &models.Invitation{Code: "abc"}
	d.Publish(context.Background(), "invitation.invited", inv)
	d.Publish(context.Background(), "invitation.consumed", inv)
	d.Publish(context.Background(), "invitation.invited", nil)

	assert.Equal(t, []string{"invitation.invited", "invitation.invited"}, named)
	assert.Equal(t, []string{"invitation.invited", "invitation.consumed", "invitation.invited"}, all)
}

func TestRedisSinkPublishes(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	sink := NewRedisSinkWithClient(client, "invitations")
	defer sink.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, sink.Channel("invitation.consumed"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	d := NewDispatcher()
	d.SubscribeAll(sink.Handle)
	d.Publish(ctx, "invitation.consumed", &models.Invitation{Code: "abc", Email: "a@x.com", Status: models.StatusSuccessful})

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, "invitations:invitation.consumed", msg.Channel)

	var evt Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
	assert.Equal(t, "invitation.consumed", evt.Name)
	require.NotNil(t, evt.Invitation)
	assert.Equal(t, "abc", evt.Invitation.Code)
	assert.Equal(t, models.StatusSuccessful, evt.Invitation.Status)
}

func TestNewRedisSinkRejectsBadURL(t *testing.T) {
	_, err := NewRedisSink("not a url", "invitations")
	assert.Error(t, err)
}
