package models

import (
	"gorm.io/gorm"
)

// User roles as issued by the identity provider. The team core only cares
// about students (team formation) and SPOCs (approval decisions).
const (
	RoleStudent = "student"
	RoleSPOC    = "spoc"
	RoleAdmin   = "admin"
	RoleJudge   = "judge"
	RoleMentor  = "mentor"
)

// User represents an authenticated account as seen by the team core.
// Authentication and session issuance happen upstream; this row mirrors the
// identity fields plus the team back-reference this core maintains.
type User struct {
	gorm.Model

	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `gorm:"not null" json:"name"`
	Role  string `gorm:"default:'student';index" json:"role"`

	InstituteID uint      `gorm:"not null;index" json:"institute_id"`
	Institute   Institute `json:"institute,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// TeamID mirrors membership: set iff the user appears in that team's
	// member list. Mutated only inside the same transaction that changes
	// membership, so the two can never drift.
	TeamID *uint `gorm:"index" json:"team_id,omitempty"`
}

// Institute is the organizational unit teams belong to. Team names are
// unique within an institute, and invites and join requests never cross one.
type Institute struct {
	gorm.Model

	Code string `gorm:"uniqueIndex;not null" json:"code"`
	Name string `gorm:"not null" json:"name"`

	Users []User `gorm:"foreignKey:InstituteID" json:"users,omitempty"`
	Teams []Team `gorm:"foreignKey:InstituteID" json:"teams,omitempty"`
}
