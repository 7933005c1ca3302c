package models

import (
	"time"

	"gorm.io/gorm"
)

// Shared lifecycle for invitations and join requests.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRejected = "rejected"
)

// Invitation is a leader-initiated offer for a specific user to join a
// specific team. At most one pending invitation exists per (team, recipient)
// pair; accepting one auto-rejects the recipient's other pending offers.
type Invitation struct {
	gorm.Model

	TeamID uint `gorm:"not null;index" json:"team_id"`
	Team   Team `json:"team,omitempty"`

	SenderID    uint `gorm:"not null" json:"sender_id"`
	RecipientID uint `gorm:"not null;index" json:"recipient_id"`

	// Denormalized from the team at send time so institute-scoped ledger
	// queries and exports need no join. Authorization always re-reads the
	// locked team row.
	InstituteID uint `gorm:"not null;index" json:"institute_id"`

	Status      string     `gorm:"default:'pending';index" json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`

	Sender    User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

// IsPending reports whether the invitation can still be acted on.
func (i *Invitation) IsPending() bool {
	return i.Status == InviteStatusPending
}

// JoinRequest mirrors Invitation with the roles reversed: the prospective
// member initiates, the team leader decides.
type JoinRequest struct {
	gorm.Model

	TeamID uint `gorm:"not null;index" json:"team_id"`
	Team   Team `json:"team,omitempty"`

	UserID uint `gorm:"not null;index" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	InstituteID uint `gorm:"not null;index" json:"institute_id"`

	Status      string     `gorm:"default:'pending';index" json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// IsPending reports whether the request can still be acted on.
func (r *JoinRequest) IsPending() bool {
	return r.Status == InviteStatusPending
}
