package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tigrisdata/inviter/models"
	"github.com/tigrisdata/tigris-client-go/fields"
	"github.com/tigrisdata/tigris-client-go/filter"
	"github.com/tigrisdata/tigris-client-go/tigris"
)

// TigrisStore keeps invitations in a tigris collection.
type TigrisStore struct {
	db *tigris.Database
}

func NewTigrisStore(db *tigris.Database) *TigrisStore {
	return &TigrisStore{db: db}
}

func (s *TigrisStore) collection() *tigris.Collection[models.Invitation] {
	return tigris.GetCollection[models.Invitation](s.db)
}

func (s *TigrisStore) Create(ctx context.Context, inv *models.Invitation) (*models.Invitation, error) {
	if _, err := s.collection().Insert(ctx, inv); err != nil {
		return nil, errors.Wrap(err, "inserting invitation failed")
	}
	return inv, nil
}

func (s *TigrisStore) FindByCode(ctx context.Context, code string) (*models.Invitation, error) {
	inv, err := s.collection().ReadOne(ctx, filter.Eq("code", code))
	if err == tigris.ErrNotFound || (err == nil && inv == nil) {
		return nil, models.InvitationNotFoundError{Code: code}
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading invitation failed")
	}
	return inv, nil
}

// Update rewrites the mutable fields of the invitation with inv.Code, provided its
// stored status is still expected. The status check and the write share one
// transaction; a concurrent writer makes the commit fail and the retry observes the
// new status.
func (s *TigrisStore) Update(ctx context.Context, inv *models.Invitation, expected models.Status) error {
	update, err := fields.UpdateBuilder().
		Set("email", inv.Email).
		Set("message", inv.Message).
		Set("entity_id", inv.EntityID).
		Set("referrer_id", inv.ReferrerID).
		Set("valid_till", inv.ValidTill).
		Set("status", string(inv.Status)).
		Set("status_message", inv.StatusMessage).
		Build()
	if err != nil {
		return err
	}

	err = s.db.Tx(ctx, func(ctx context.Context) error {
		stored, err := s.FindByCode(ctx, inv.Code)
		if err != nil {
			return err
		}
		if stored.Status != expected {
			return &models.StatusConflictError{Code: inv.Code, Expected: expected}
		}
		_, err = s.collection().Update(ctx, filter.Eq("code", inv.Code), update)
		return err
	}, tigris.TxOptions{AutoRetry: true})
	if err != nil {
		if models.IsNotFoundError(err) || models.IsConflictError(err) {
			return err
		}
		return errors.Wrap(err, "updating invitation failed")
	}
	return nil
}

// List returns the invitations matching f.
func (s *TigrisStore) List(ctx context.Context, f models.InvitationFilter) ([]*models.Invitation, error) {
	var conditions []filter.Expr
	if f.Email != "" {
		conditions = append(conditions, filter.Eq("email", f.Email))
	}
	if f.EntityID != "" {
		conditions = append(conditions, filter.Eq("entity_id", f.EntityID))
	}
	if f.ReferrerID != 0 {
		conditions = append(conditions, filter.Eq("referrer_id", f.ReferrerID))
	}
	if f.Status != "" {
		conditions = append(conditions, filter.Eq("status", string(f.Status)))
	}

	var itr *tigris.Iterator[models.Invitation]
	var err error
	switch len(conditions) {
	case 0:
		itr, err = s.collection().ReadAll(ctx)
	case 1:
		itr, err = s.collection().Read(ctx, conditions[0])
	default:
		itr, err = s.collection().Read(ctx, filter.And(conditions...))
	}
	if err != nil {
		return nil, errors.Wrap(err, "listing invitations failed")
	}
	defer itr.Close()

	invitations := []*models.Invitation{}
	for {
		var inv models.Invitation
		if !itr.Next(&inv) {
			break
		}
		invitations = append(invitations, &inv)
	}
	if err := itr.Err(); err != nil {
		return nil, errors.Wrap(err, "listing invitations failed")
	}
	return invitations, nil
}

// TruncateAll removes every invitation. Used by tests.
func (s *TigrisStore) TruncateAll(ctx context.Context) error {
	_, err := s.collection().DeleteAll(ctx)
	return err
}
