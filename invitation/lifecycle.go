package invitation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tigrisdata/inviter/crypto"
	"github.com/tigrisdata/inviter/models"
)

// Event names published by the lifecycle.
const (
	InvitedEvent  = "invitation.invited"
	ConsumedEvent = "invitation.consumed"
	CanceledEvent = "invitation.canceled"
	ExpiredEvent  = "invitation.expired"
)

// InvalidStatus is reported by StatusResult for unknown, expired or consumed codes.
const InvalidStatus = "Invalid"

// RecordStore persists invitations.
type RecordStore interface {
	Create(ctx context.Context, inv *models.Invitation) (*models.Invitation, error)
	// FindByCode returns models.InvitationNotFoundError when no record has the code.
	FindByCode(ctx context.Context, code string) (*models.Invitation, error)
	// Update overwrites the record keyed by inv.Code only while its stored status is
	// still expected, and returns models.StatusConflictError otherwise.
	Update(ctx context.Context, inv *models.Invitation, expected models.Status) error
}

// Publisher receives lifecycle notifications. Delivery is fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, event string, inv *models.Invitation)
}

// BeforeSaveFunc may adjust a new invitation right before it is created.
type BeforeSaveFunc func(inv *models.Invitation)

// Params describe a new invitation.
type Params struct {
	Email         string
	Message       string
	EntityID      string
	ReferrerID    int64
	ValidTill     time.Time
	StatusMessage *string
}

// StatusResult is either a valid invitation's status or Invalid.
type StatusResult struct {
	Valid  bool
	Status models.Status
}

func (r StatusResult) String() string {
	if !r.Valid {
		return InvalidStatus
	}
	return string(r.Status)
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) {
		l.now = now
	}
}

// WithCodeGenerator overrides how new invitation codes are produced.
func WithCodeGenerator(gen func() string) Option {
	return func(l *Lifecycle) {
		l.generateCode = gen
	}
}

// Lifecycle drives the state machine of one invitation, bound either by Invite or by
// SetCode. A Lifecycle is not safe for concurrent use; concurrent writers on the same
// code are arbitrated by the store's conditional Update.
type Lifecycle struct {
	store        RecordStore
	publisher    Publisher
	now          func() time.Time
	generateCode func() string

	code     string
	found    bool
	instance *models.Invitation
}

// New returns an unbound lifecycle.
func New(store RecordStore, publisher Publisher, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		store:        store,
		publisher:    publisher,
		now:          time.Now,
		generateCode: func() string { return crypto.InvitationCode("") },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Invite creates a pending invitation, publishes InvitedEvent and returns its code.
// The lifecycle is bound to the new record afterwards.
func (l *Lifecycle) Invite(ctx context.Context, params Params, beforeSave BeforeSaveFunc) (string, error) {
	code := l.generateCode()
	inv, err := models.NewInvitation(code, params.Email, params.Message, params.EntityID, params.ReferrerID, params.ValidTill)
	if err != nil {
		return "", models.NewStoreError("create", err)
	}
	now := l.now()
	inv.StatusMessage = params.StatusMessage
	inv.InvitationDate = &now

	if beforeSave != nil {
		beforeSave(inv)
	}

	created, err := l.store.Create(ctx, inv)
	if err != nil {
		return "", models.NewStoreError("create", err)
	}
	if created == nil {
		created = inv
	}

	l.code = created.Code
	l.instance = created
	l.found = true
	l.publish(ctx, InvitedEvent)
	return l.code, nil
}

// SetCode binds the lifecycle to the invitation stored under code. An unknown code is
// not an error: the lifecycle is left unbound and IsExisting reports false.
func (l *Lifecycle) SetCode(ctx context.Context, code string) (*Lifecycle, error) {
	l.code = code
	l.instance = nil
	l.found = false

	inv, err := l.store.FindByCode(ctx, code)
	if err != nil {
		if models.IsNotFoundError(err) {
			return l, nil
		}
		return l, models.NewStoreError("find", err)
	}
	l.instance = inv
	l.found = true
	return l, nil
}

// Code returns the bound code.
func (l *Lifecycle) Code() string {
	return l.code
}

// Get returns the loaded invitation or nil.
func (l *Lifecycle) Get() *models.Invitation {
	return l.instance
}

// Status reports the current status when the invitation is valid. Like IsValid it may
// persist an expiry transition.
func (l *Lifecycle) Status(ctx context.Context) (StatusResult, error) {
	valid, err := l.IsValid(ctx)
	if err != nil || !valid {
		return StatusResult{}, err
	}
	return StatusResult{Valid: true, Status: l.instance.Status}, nil
}

// Consume marks a valid invitation as successful. It returns false without side effects
// when the invitation is not valid.
func (l *Lifecycle) Consume(ctx context.Context, statusMessage *string) (bool, error) {
	return l.finish(ctx, models.StatusSuccessful, statusMessage, ConsumedEvent)
}

// Cancel marks a valid invitation as canceled. It returns false without side effects
// when the invitation is not valid.
func (l *Lifecycle) Cancel(ctx context.Context, statusMessage *string) (bool, error) {
	return l.finish(ctx, models.StatusCanceled, statusMessage, CanceledEvent)
}

// IsExisting reports whether a record is bound.
func (l *Lifecycle) IsExisting() bool {
	return l.found
}

// IsPending reports whether the bound record is pending. It never writes.
func (l *Lifecycle) IsPending() bool {
	if !l.IsExisting() {
		return false
	}
	return l.instance.IsPending()
}

// IsExpired reports whether the invitation can no longer be used because of its
// deadline. A missing record counts as expired.
//
// This is not a pure query: the first probe after the deadline of a pending invitation
// persists the expired status and publishes ExpiredEvent. Later probes see the
// terminal status and return true without writing.
func (l *Lifecycle) IsExpired(ctx context.Context) (bool, error) {
	if !l.IsExisting() {
		return true, nil
	}
	if !l.instance.ExpiredAt(l.now()) {
		return false, nil
	}
	if l.instance.Status.IsTerminal() {
		return true, nil
	}

	if _, err := l.transition(ctx, models.StatusExpired, l.instance.StatusMessage, ExpiredEvent); err != nil {
		return true, err
	}
	return true, nil
}

// IsValid reports whether the invitation is unexpired and pending. Expiry is evaluated
// first and may persist a transition, see IsExpired.
func (l *Lifecycle) IsValid(ctx context.Context) (bool, error) {
	expired, err := l.IsExpired(ctx)
	if err != nil {
		return false, err
	}
	return !expired && l.IsPending(), nil
}

// IsAllowed reports whether the invitation is valid and was issued to email. The
// comparison is exact and case-sensitive.
func (l *Lifecycle) IsAllowed(ctx context.Context, email string) (bool, error) {
	valid, err := l.IsValid(ctx)
	if err != nil || !valid {
		return false, err
	}
	return l.instance.Email == email, nil
}

// Reminder publishes InvitedEvent again for the bound invitation without touching it.
func (l *Lifecycle) Reminder(ctx context.Context) bool {
	l.publish(ctx, InvitedEvent)
	return true
}

func (l *Lifecycle) finish(ctx context.Context, status models.Status, statusMessage *string, event string) (bool, error) {
	valid, err := l.IsValid(ctx)
	if err != nil || !valid {
		return false, err
	}
	return l.transition(ctx, status, statusMessage, event)
}

// transition moves the pending record to status. A lost conditional update reloads the
// record and reports false without publishing.
func (l *Lifecycle) transition(ctx context.Context, status models.Status, statusMessage *string, event string) (bool, error) {
	next := *l.instance
	next.Status = status
	next.StatusMessage = statusMessage

	if err := l.store.Update(ctx, &next, models.StatusPending); err != nil {
		if !models.IsConflictError(err) {
			return false, models.NewStoreError("update", err)
		}
		log.Debug().Str("code", l.code).Str("status", string(status)).Msg("invitation changed concurrently")
		if _, rerr := l.SetCode(ctx, l.code); rerr != nil {
			return false, rerr
		}
		return false, nil
	}

	l.instance = &next
	l.publish(ctx, event)
	return true, nil
}

func (l *Lifecycle) publish(ctx context.Context, event string) {
	if l.publisher == nil {
		return
	}
	l.publisher.Publish(ctx, event, l.instance)
}
