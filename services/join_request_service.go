package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hackforge/models"
	"hackforge/utils"
)

// JoinRequestService mirrors the invitation ledger with the roles reversed:
// the prospective member initiates and the team leader decides. Both ledgers
// share the capacity and single-team checks, and acceptance on either side
// sweeps the user's pending offers on both.
type JoinRequestService struct {
	db          *gorm.DB
	notifier    utils.Notifier
	logger      *logrus.Logger
	maxTeamSize int
}

func NewJoinRequestService(db *gorm.DB, notifier utils.Notifier, logger *logrus.Logger, maxTeamSize int) *JoinRequestService {
	return &JoinRequestService{
		db:          db,
		notifier:    notifier,
		logger:      logger,
		maxTeamSize: maxTeamSize,
	}
}

// Send records a pending request from the student to the team. Students only;
// subject to the same institute-match, single-team, no-duplicate and capacity
// checks as an invitation.
func (s *JoinRequestService) Send(ctx context.Context, actor *models.User, teamID uint) (*models.JoinRequest, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrForbidden
	}

	var request models.JoinRequest
	var leaderID uint
	var teamName string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.InstituteID != actor.InstituteID {
			return ErrInvalidRecipient
		}
		if team.IsRejected() {
			return ErrInvalidState
		}

		sender, err := lockUser(tx, actor.ID)
		if err != nil {
			return err
		}
		if sender.TeamID != nil {
			return ErrAlreadyInTeam
		}

		var pending int64
		if err := tx.Model(&models.JoinRequest{}).
			Where("team_id = ? AND user_id = ? AND status = ?", teamID, actor.ID, models.InviteStatusPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateRequest
		}

		count, err := memberCount(tx, teamID)
		if err != nil {
			return err
		}
		if count >= s.maxTeamSize {
			return ErrTeamFull
		}

		request = models.JoinRequest{
			TeamID:      teamID,
			UserID:      actor.ID,
			InstituteID: team.InstituteID,
			Status:      models.InviteStatusPending,
		}
		leaderID, teamName = team.LeaderID, team.Name
		return tx.Create(&request).Error
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, utils.Event{
		Type:    models.EventJoinRequestReceived,
		UserIDs: []uint{leaderID},
		TeamID:  teamID,
		Message: fmt.Sprintf("%s has requested to join team %q.", actor.Name, teamName),
	})
	return &request, nil
}

// Accept lets the team leader admit the requester. Capacity and the
// single-team constraint are re-checked under row locks, and the requester's
// other pending offers in both ledgers are rejected in the same transaction.
func (s *JoinRequestService) Accept(ctx context.Context, actor *models.User, requestID uint) (*models.Team, error) {
	var team *models.Team
	var requesterID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := lockJoinRequest(tx, requestID)
		if err != nil {
			return err
		}

		team, err = lockTeam(tx, request.TeamID)
		if err != nil {
			return err
		}
		if team.LeaderID != actor.ID {
			return ErrForbidden
		}
		if !request.IsPending() {
			return ErrAlreadyResolved
		}

		requester, err := lockUser(tx, request.UserID)
		if err != nil {
			return err
		}
		requesterID = requester.ID

		if err := addMemberLocked(tx, team, requester, s.maxTeamSize); err != nil {
			return err
		}

		now := time.Now()
		err = tx.Model(&models.JoinRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]interface{}{"status": models.InviteStatusAccepted, "responded_at": now}).Error
		if err != nil {
			return err
		}

		return sweepPendingOffers(tx, requester.ID, now, 0, request.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"team_id":    team.ID,
		"user_id":    requesterID,
	}).Info("join request accepted")

	s.emit(ctx, utils.Event{
		Type:    models.EventJoinRequestAccepted,
		UserIDs: []uint{requesterID},
		TeamID:  team.ID,
		Message: fmt.Sprintf("Your request to join team %q was accepted.", team.Name),
	})

	var updated models.Team
	if err := s.db.WithContext(ctx).Preload("Members").First(&updated, team.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

// Reject lets the team leader decline the request. No cascading effect.
func (s *JoinRequestService) Reject(ctx context.Context, actor *models.User, requestID uint) error {
	var requesterID, teamID uint
	var teamName string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := lockJoinRequest(tx, requestID)
		if err != nil {
			return err
		}

		team, err := lockTeam(tx, request.TeamID)
		if err != nil {
			return err
		}
		if team.LeaderID != actor.ID {
			return ErrForbidden
		}
		if !request.IsPending() {
			return ErrAlreadyResolved
		}

		requesterID, teamID, teamName = request.UserID, team.ID, team.Name
		return tx.Model(&models.JoinRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]interface{}{"status": models.InviteStatusRejected, "responded_at": time.Now()}).Error
	})
	if err != nil {
		return err
	}

	s.emit(ctx, utils.Event{
		Type:    models.EventJoinRequestRejected,
		UserIDs: []uint{requesterID},
		TeamID:  teamID,
		Message: fmt.Sprintf("Your request to join team %q was declined.", teamName),
	})
	return nil
}

// ListMine returns the caller's pending join requests with team details.
func (s *JoinRequestService) ListMine(ctx context.Context, userID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := s.db.WithContext(ctx).
		Preload("Team").
		Where("user_id = ? AND status = ?", userID, models.InviteStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// ListForTeam returns the team's incoming requests. Members only.
func (s *JoinRequestService) ListForTeam(ctx context.Context, actor *models.User, teamID uint) ([]models.JoinRequest, error) {
	if actor.TeamID == nil || *actor.TeamID != teamID {
		return nil, ErrForbidden
	}

	var requests []models.JoinRequest
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (s *JoinRequestService) emit(ctx context.Context, event utils.Event) {
	emitEvent(ctx, s.notifier, s.logger, event)
}

func lockJoinRequest(tx *gorm.DB, requestID uint) (*models.JoinRequest, error) {
	var request models.JoinRequest
	err := forUpdate(tx).First(&request, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}
