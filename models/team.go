package models

import (
	"time"

	"gorm.io/gorm"
)

// Team approval status. Transitions: pending -> approved, pending -> rejected,
// rejected -> pending (re-request). Approved is terminal in normal flow.
const (
	TeamStatusPending  = "pending"
	TeamStatusApproved = "approved"
	TeamStatusRejected = "rejected"
)

// Team represents a hackathon team. The leader is always present in Members;
// membership itself lives on users.team_id, so Members is a derived view and
// cannot diverge from the back-reference.
type Team struct {
	gorm.Model

	Name        string    `gorm:"not null;uniqueIndex:idx_teams_institute_name" json:"name"`
	InstituteID uint      `gorm:"not null;index;uniqueIndex:idx_teams_institute_name" json:"institute_id"`
	Institute   Institute `json:"institute,omitempty"`

	LeaderID uint `gorm:"not null;index" json:"leader_id"`

	Status    string `gorm:"default:'pending';index" json:"status"`
	SpocNotes string `json:"spoc_notes,omitempty"`

	// Set when the leader requests approval; cleared notes and a fresh
	// timestamp distinguish a re-submission from the original request.
	ApprovalRequestedAt *time.Time `json:"approval_requested_at,omitempty"`

	// Denormalized coordinator display fields, copied at approval time.
	SpocID    *uint  `json:"spoc_id,omitempty"`
	SpocName  string `json:"spoc_name,omitempty"`
	SpocEmail string `json:"spoc_email,omitempty"`

	// Mentor assignment is an administrative action outside this core; the
	// fields are carried for the dashboard views.
	MentorName  string `json:"mentor_name,omitempty"`
	MentorEmail string `json:"mentor_email,omitempty"`

	SelectedProblemID *uint `json:"selected_problem_id,omitempty"`
	ProgressPct       int   `gorm:"default:0" json:"progress_pct"`

	// Relations
	Members []User `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// IsRejected reports whether the team is sitting in the rejected state
// awaiting a re-request from its leader.
func (t *Team) IsRejected() bool {
	return t.Status == TeamStatusRejected
}

// IsApproved reports whether the coordinator has approved the team.
func (t *Team) IsApproved() bool {
	return t.Status == TeamStatusApproved
}
