package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tigrisdata/inviter/storage/namespace"
)

// Status is the lifecycle state of an invitation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusCanceled   Status = "canceled"
	StatusExpired    Status = "expired"
)

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// Invitation is a single-use, time bound referral code issued to an email address.
type Invitation struct {
	ID             uuid.UUID  `json:"id" db:"id" gorm:"type:varchar(36);primaryKey" tigris:"primaryKey:1"`
	Code           string     `json:"code" db:"code" gorm:"size:64;uniqueIndex;not null" tigris:"primaryKey:2"`
	Email          string     `json:"email" db:"email" gorm:"size:255;index;not null" tigris:"index"`
	Message        string     `json:"message" db:"message" gorm:"type:text"`
	EntityID       string     `json:"entity_id" db:"entity_id" gorm:"size:255"`
	ReferrerID     int64      `json:"referrer_id" db:"referrer_id" gorm:"index"`
	ValidTill      time.Time  `json:"valid_till" db:"valid_till" gorm:"not null"`
	Status         Status     `json:"status" db:"status" gorm:"size:16;index;not null" tigris:"index"`
	StatusMessage  *string    `json:"status_message,omitempty" db:"status_message" gorm:"type:text"`
	InvitationDate *time.Time `json:"invitation_date,omitempty" db:"invitation_date"`

	CreatedAt *time.Time `json:"created_at,omitempty" db:"created_at" tigris:"default:now(),createdAt"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at" tigris:"default:now(),updatedAt"`
}

// NewInvitation returns a pending invitation for email identified by code.
func NewInvitation(code, email, message, entityID string, referrerID int64, validTill time.Time) (*Invitation, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return &Invitation{
		ID:         id,
		Code:       code,
		Email:      email,
		Message:    message,
		EntityID:   entityID,
		ReferrerID: referrerID,
		ValidTill:  validTill,
		Status:     StatusPending,
	}, nil
}

func (Invitation) TableName() string {
	tableName := "invitations"

	if namespace.GetNamespace() != "" {
		return namespace.GetNamespace() + "_" + tableName
	}

	return tableName
}

// IsPending checks whether the invitation can still be consumed or canceled.
func (i *Invitation) IsPending() bool {
	return i.Status == StatusPending
}

// ExpiredAt reports whether the deadline has passed at now. A deadline equal to now
// is still valid.
func (i *Invitation) ExpiredAt(now time.Time) bool {
	return i.ValidTill.Before(now)
}

// InvitationFilter narrows a listing. Zero fields match every invitation.
type InvitationFilter struct {
	Email      string
	EntityID   string
	ReferrerID int64
	Status     Status
}
