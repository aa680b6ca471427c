package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/tigrisdata/inviter/invitation"
	"github.com/tigrisdata/inviter/models"
)

type CreateInvitationParams struct {
	Email         string     `json:"email"`
	Message       string     `json:"message"`
	EntityID      string     `json:"entity_id"`
	ReferrerID    int64      `json:"referrer_id"`
	ValidTill     *time.Time `json:"valid_till"`
	TTLSeconds    int64      `json:"ttl_seconds"`
	StatusMessage *string    `json:"status_message"`
}

type StatusMessageParams struct {
	StatusMessage *string `json:"status_message"`
}

type VerifyInvitationParams struct {
	Email         string  `json:"email"`
	Code          string  `json:"code"`
	Consume       bool    `json:"consume"`
	StatusMessage *string `json:"status_message"`
}

type InvitationResponse struct {
	Invitation *models.Invitation `json:"invitation,omitempty"`
	Status     string             `json:"status"`
}

type VerifyInvitationResponse struct {
	Code       string `json:"code"`
	Email      string `json:"email"`
	EntityID   string `json:"entity_id"`
	ReferrerID int64  `json:"referrer_id"`
	Status     string `json:"status"`
}

// loadInvitation binds a lifecycle to the code in the URL.
func (a *API) loadInvitation(ctx context.Context, r *http.Request, code string) (*invitation.Lifecycle, error) {
	if code == "" {
		return nil, badRequestError("code must be specified")
	}
	logEntrySetField(r, "code", code)

	l, err := a.newLifecycle().SetCode(ctx, code)
	if err != nil {
		return nil, storeError("Database error loading invitation", err)
	}
	return l, nil
}

func (a *API) validTill(params *CreateInvitationParams) (time.Time, error) {
	now := a.now()
	switch {
	case params.ValidTill != nil:
		if params.ValidTill.Before(now) {
			return time.Time{}, unprocessableEntityError("valid_till must not be in the past")
		}
		return *params.ValidTill, nil
	case params.TTLSeconds < 0:
		return time.Time{}, unprocessableEntityError("ttl_seconds must be positive")
	case params.TTLSeconds > 0:
		return now.Add(time.Duration(params.TTLSeconds) * time.Second), nil
	default:
		return now.Add(a.config.Invitation.DefaultTTL), nil
	}
}

// CreateInvitation issues a new invitation code.
func (a *API) CreateInvitation(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	params := &CreateInvitationParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read invitation params: %v", err)
	}
	if err := a.mailer.ValidateEmail(params.Email); err != nil {
		return unprocessableEntityError("Unable to validate email address: %s", err.Error())
	}
	validTill, err := a.validTill(params)
	if err != nil {
		return err
	}

	l := a.newLifecycle()
	code, err := l.Invite(ctx, invitation.Params{
		Email:         params.Email,
		Message:       params.Message,
		EntityID:      params.EntityID,
		ReferrerID:    params.ReferrerID,
		ValidTill:     validTill,
		StatusMessage: params.StatusMessage,
	}, nil)
	if err != nil {
		return storeError("Could not create invitation", err)
	}

	logEntrySetField(r, "code", code)
	if op := getOperator(ctx); op != nil {
		logEntrySetField(r, "created_by", op.Subject)
	}
	return sendJSON(w, http.StatusOK, InvitationResponse{Invitation: l.Get(), Status: string(l.Get().Status)})
}

// ListInvitations returns the invitations matching the email, entity_id, referrer_id
// and status query parameters. Listing never expires anything.
func (a *API) ListInvitations(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	query := r.URL.Query()

	f := models.InvitationFilter{
		Email:    query.Get("email"),
		EntityID: query.Get("entity_id"),
		Status:   models.Status(query.Get("status")),
	}
	if referrer := query.Get("referrer_id"); referrer != "" {
		id, err := strconv.ParseInt(referrer, 10, 64)
		if err != nil {
			return badRequestError("referrer_id must be an integer")
		}
		f.ReferrerID = id
	}
	switch f.Status {
	case "", models.StatusPending, models.StatusSuccessful, models.StatusCanceled, models.StatusExpired:
	default:
		return badRequestError("unknown status %q", f.Status)
	}

	invitations, err := a.store.List(ctx, f)
	if err != nil {
		return internalServerError("Failed to retrieve invitations").WithInternalError(err)
	}
	if a.config.Invitation.HideCode {
		for _, inv := range invitations {
			inv.Code = ""
		}
	}
	return sendJSON(w, http.StatusOK, invitations)
}

// GetInvitation returns the stored invitation. Reading may expire it.
func (a *API) GetInvitation(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	l, err := a.loadInvitation(ctx, r, chi.URLParam(r, "code"))
	if err != nil {
		return err
	}
	if !l.IsExisting() {
		return notFoundError("Invitation not found")
	}

	status, err := l.Status(ctx)
	if err != nil {
		return storeError("Database error reading invitation status", err)
	}

	inv := *l.Get()
	if a.config.Invitation.HideCode {
		inv.Code = ""
	}
	return sendJSON(w, http.StatusOK, InvitationResponse{Invitation: &inv, Status: status.String()})
}

// InvitationStatus reports the status of a valid invitation, or Invalid. Like
// GetInvitation it may persist an expiry.
func (a *API) InvitationStatus(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	l, err := a.loadInvitation(ctx, r, chi.URLParam(r, "code"))
	if err != nil {
		return err
	}

	status, err := l.Status(ctx)
	if err != nil {
		return storeError("Database error reading invitation status", err)
	}
	return sendJSON(w, http.StatusOK, InvitationResponse{Status: status.String()})
}

// ConsumeInvitation marks the invitation as successful.
func (a *API) ConsumeInvitation(w http.ResponseWriter, r *http.Request) error {
	return a.finishInvitation(w, r, (*invitation.Lifecycle).Consume)
}

// CancelInvitation marks the invitation as canceled.
func (a *API) CancelInvitation(w http.ResponseWriter, r *http.Request) error {
	return a.finishInvitation(w, r, (*invitation.Lifecycle).Cancel)
}

func (a *API) finishInvitation(w http.ResponseWriter, r *http.Request, finish func(*invitation.Lifecycle, context.Context, *string) (bool, error)) error {
	ctx := r.Context()
	params := &StatusMessageParams{}
	if err := decodeOptional(r, params); err != nil {
		return badRequestError("Could not read status params: %v", err)
	}

	l, err := a.loadInvitation(ctx, r, chi.URLParam(r, "code"))
	if err != nil {
		return err
	}
	if !l.IsExisting() {
		return notFoundError("Invitation not found")
	}

	ok, err := finish(l, ctx, params.StatusMessage)
	if err != nil {
		return storeError("Database error updating invitation", err)
	}
	if !ok {
		return conflictError("Invitation is no longer valid").WithInternalMessage("invitation %s is %s", l.Code(), l.Get().Status)
	}
	return sendJSON(w, http.StatusOK, InvitationResponse{Invitation: l.Get(), Status: string(l.Get().Status)})
}

// VerifyInvitation checks a code against the email it was issued to, consuming it on
// request.
func (a *API) VerifyInvitation(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	params := &VerifyInvitationParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read VerifyInvitation params: %v", err)
	}
	if params.Email == "" {
		return badRequestError("email must be specified")
	}
	if params.Code == "" {
		return badRequestError("code must be specified")
	}

	l, err := a.loadInvitation(ctx, r, params.Code)
	if err != nil {
		return err
	}

	allowed, err := l.IsAllowed(ctx, params.Email)
	if err != nil {
		return storeError("Failed to verify invitation", err)
	}
	if allowed && params.Consume {
		allowed, err = l.Consume(ctx, params.StatusMessage)
		if err != nil {
			return storeError("Failed to verify invitation", err).WithInternalMessage("Failed to update status on successful verification")
		}
	}
	if !allowed {
		return unauthorizedError("Could not validate the invitation code against email. Please check the code and expiration.")
	}

	inv := l.Get()
	return sendJSON(w, http.StatusOK, VerifyInvitationResponse{
		Code:       inv.Code,
		Email:      inv.Email,
		EntityID:   inv.EntityID,
		ReferrerID: inv.ReferrerID,
		Status:     string(inv.Status),
	})
}

// RemindInvitation publishes the invitation again, at most once per SMTP.MaxFrequency
// per code.
func (a *API) RemindInvitation(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	l, err := a.loadInvitation(ctx, r, code)
	if err != nil {
		return err
	}
	if !a.reminderAllowed(code) {
		return tooManyRequestsError("Reminder for this invitation was sent recently")
	}
	return sendJSON(w, http.StatusOK, map[string]bool{"reminded": l.Reminder(ctx)})
}

func (a *API) reminderAllowed(code string) bool {
	freq := a.config.SMTP.MaxFrequency
	if freq <= 0 {
		return true
	}
	now := a.now()
	if last, ok := a.reminderCache.Get(code); ok {
		if sentAt, ok := last.(time.Time); ok && now.Sub(sentAt) < freq {
			return false
		}
	}
	a.reminderCache.Add(code, now)
	return true
}
