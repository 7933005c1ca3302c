package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hackforge/models"
	"hackforge/utils"
)

// ApprovalService runs the two-stage workflow over Team.Status:
//
//	pending  --(leader: request)---> pending   (timestamp refreshed)
//	pending  --(spoc: approve)-----> approved  (terminal)
//	pending  --(spoc: reject)------> rejected  (notes required)
//	rejected --(leader: request)---> pending   (re-submission)
type ApprovalService struct {
	db       *gorm.DB
	notifier utils.Notifier
	logger   *logrus.Logger
}

func NewApprovalService(db *gorm.DB, notifier utils.Notifier, logger *logrus.Logger) *ApprovalService {
	return &ApprovalService{db: db, notifier: notifier, logger: logger}
}

// Request submits (or re-submits) the team for coordinator review. Stale
// rejection notes are cleared on re-submission so they can never display as
// the current decision.
func (s *ApprovalService) Request(ctx context.Context, actor *models.User, teamID uint) (*models.Team, error) {
	var team *models.Team

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.LeaderID != actor.ID {
			return ErrForbidden
		}
		if team.IsApproved() {
			return ErrInvalidState
		}

		now := time.Now()
		team.Status = models.TeamStatusPending
		team.SpocNotes = ""
		team.ApprovalRequestedAt = &now
		return tx.Save(team).Error
	})
	if err != nil {
		return nil, err
	}

	spocIDs, err := s.instituteSpocs(ctx, team.InstituteID)
	if err != nil {
		s.logger.WithError(err).Warn("could not resolve coordinators for approval notification")
	} else if len(spocIDs) > 0 {
		s.emit(ctx, utils.Event{
			Type:    models.EventApprovalRequested,
			UserIDs: spocIDs,
			TeamID:  team.ID,
			Message: fmt.Sprintf("Team %q has requested approval.", team.Name),
		})
	}
	return team, nil
}

// Approve moves a pending team to approved and copies the deciding
// coordinator onto the team row for the dashboard views.
func (s *ApprovalService) Approve(ctx context.Context, actor *models.User, teamID uint, notes string) (*models.Team, error) {
	team, err := s.decide(ctx, actor, teamID, func(team *models.Team) error {
		team.Status = models.TeamStatusApproved
		team.SpocNotes = strings.TrimSpace(notes)
		team.SpocID = &actor.ID
		team.SpocName = actor.Name
		team.SpocEmail = actor.Email
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, utils.Event{
		Type:    models.EventTeamApproved,
		UserIDs: memberIDs(team.Members),
		TeamID:  team.ID,
		Message: fmt.Sprintf("Team %q has been approved by your institute coordinator.", team.Name),
	})
	return team, nil
}

// Reject moves a pending team to rejected. Notes are mandatory: the leader
// needs the reason to fix the submission before re-requesting.
func (s *ApprovalService) Reject(ctx context.Context, actor *models.User, teamID uint, notes string) (*models.Team, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrMissingNotes
	}

	team, err := s.decide(ctx, actor, teamID, func(team *models.Team) error {
		team.Status = models.TeamStatusRejected
		team.SpocNotes = notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The leader may re-request; ordinary members only get the reason.
	for _, member := range team.Members {
		message := fmt.Sprintf("Team %q was rejected: %s", team.Name, notes)
		if member.ID == team.LeaderID {
			message += " Your leader can update the team and request approval again."
		}
		s.emit(ctx, utils.Event{
			Type:    models.EventTeamRejected,
			UserIDs: []uint{member.ID},
			TeamID:  team.ID,
			Message: message,
		})
	}
	return team, nil
}

// decide applies a coordinator decision to a pending team of the
// coordinator's institute and reloads the member list for notification
// fan-out.
func (s *ApprovalService) decide(ctx context.Context, actor *models.User, teamID uint, mutate func(*models.Team) error) (*models.Team, error) {
	if actor.Role != models.RoleSPOC {
		return nil, ErrForbidden
	}

	var team *models.Team
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.InstituteID != actor.InstituteID {
			return ErrForbidden
		}
		if team.Status != models.TeamStatusPending {
			return ErrInvalidState
		}
		if err := mutate(team); err != nil {
			return err
		}
		return tx.Save(team).Error
	})
	if err != nil {
		return nil, err
	}

	var reloaded models.Team
	if err := s.db.WithContext(ctx).Preload("Members").First(&reloaded, team.ID).Error; err != nil {
		return nil, err
	}
	return &reloaded, nil
}

func (s *ApprovalService) instituteSpocs(ctx context.Context, instituteID uint) ([]uint, error) {
	var spocs []models.User
	err := s.db.WithContext(ctx).
		Where("institute_id = ? AND role = ?", instituteID, models.RoleSPOC).
		Find(&spocs).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(spocs))
	for _, spoc := range spocs {
		ids = append(ids, spoc.ID)
	}
	return ids, nil
}

func (s *ApprovalService) emit(ctx context.Context, event utils.Event) {
	emitEvent(ctx, s.notifier, s.logger, event)
}

func memberIDs(members []models.User) []uint {
	ids := make([]uint, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.ID)
	}
	return ids
}
