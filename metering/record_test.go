package metering

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tigrisdata/inviter/events"
	"github.com/tigrisdata/inviter/models"
)

func TestRecordInvitationEvent(t *testing.T) {
	var buf bytes.Buffer
	saved := logger
	logger = zerolog.New(&buf).With().Bool("metering", true).Logger()
	defer func() { logger = saved }()

	err := RecordInvitationEvent(context.Background(), events.Event{
		Name:       "invitation.consumed",
		OccurredAt: time.Now(),
		Invitation: &models.Invitation{Code: "abc", EntityID: "team-1", ReferrerID: 9, Status: models.StatusSuccessful},
	})
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, true, line["metering"])
	assert.Equal(t, "invitation.consumed", line["action"])
	assert.Equal(t, "abc", line["code"])
	assert.Equal(t, "successful", line["status"])
	assert.Equal(t, float64(9), line["referrer_id"])
}

func TestRecordInvitationEventWithoutRecord(t *testing.T) {
	var buf bytes.Buffer
	saved := logger
	logger = zerolog.New(&buf)
	defer func() { logger = saved }()

	require.NoError(t, RecordInvitationEvent(context.Background(), events.Event{Name: "invitation.invited"}))
	assert.Contains(t, buf.String(), "invitation.invited")
	assert.NotContains(t, buf.String(), "code")
}
