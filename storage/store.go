package storage

import (
	"context"

	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/models"
)

// Store is a record store that can also list invitations for operators.
type Store interface {
	invitation.RecordStore
	List(ctx context.Context, f models.InvitationFilter) ([]*models.Invitation, error)
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*TigrisStore)(nil)
)
