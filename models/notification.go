package models

import "gorm.io/gorm"

// Notification event types emitted by the team core.
const (
	EventMemberRemoved       = "member_removed"
	EventMemberLeft          = "member_left"
	EventInviteReceived      = "invite_received"
	EventInviteAccepted      = "invite_accepted"
	EventInviteDeclined      = "invite_declined"
	EventJoinRequestReceived = "join_request_received"
	EventJoinRequestAccepted = "join_request_accepted"
	EventJoinRequestRejected = "join_request_rejected"
	EventApprovalRequested   = "approval_requested"
	EventTeamApproved        = "team_approved"
	EventTeamRejected        = "team_rejected"
)

// Notification is the persisted form of an emitted event, one row per
// addressed user. The worker writes these; clients poll and mark them read.
// The core only emits events; delivery and read-state tracking live here.
type Notification struct {
	gorm.Model

	UserID  uint   `gorm:"not null;index" json:"user_id"`
	TeamID  uint   `gorm:"index" json:"team_id"`
	Type    string `gorm:"not null" json:"type"`
	Message string `gorm:"not null" json:"message"`
	Read    bool   `gorm:"default:false;index" json:"read"`
}
