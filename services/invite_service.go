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

// InviteService is the ledger of leader-initiated offers. Send-time checks
// are advisory; the binding capacity and single-team checks run again inside
// the accepting transaction.
type InviteService struct {
	db          *gorm.DB
	notifier    utils.Notifier
	logger      *logrus.Logger
	maxTeamSize int
}

func NewInviteService(db *gorm.DB, notifier utils.Notifier, logger *logrus.Logger, maxTeamSize int) *InviteService {
	return &InviteService{
		db:          db,
		notifier:    notifier,
		logger:      logger,
		maxTeamSize: maxTeamSize,
	}
}

// FindRecipient resolves the email the leader typed into the invite form to a
// student of the same institute.
func (s *InviteService) FindRecipient(ctx context.Context, instituteID uint, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND institute_id = ?", email, instituteID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRecipient
		}
		return nil, err
	}
	return &user, nil
}

// Send records a pending invitation from the team to the recipient.
func (s *InviteService) Send(ctx context.Context, sender *models.User, teamID, recipientID uint) (*models.Invitation, error) {
	var invite models.Invitation
	var teamName string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.LeaderID != sender.ID {
			return ErrForbidden
		}

		var recipient models.User
		if err := tx.First(&recipient, recipientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRecipient
			}
			return err
		}
		if recipient.InstituteID != team.InstituteID || recipient.Role != models.RoleStudent {
			return ErrInvalidRecipient
		}
		if recipient.TeamID != nil {
			return ErrAlreadyInTeam
		}

		var pending int64
		if err := tx.Model(&models.Invitation{}).
			Where("team_id = ? AND recipient_id = ? AND status = ?", teamID, recipientID, models.InviteStatusPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateInvite
		}

		count, err := memberCount(tx, teamID)
		if err != nil {
			return err
		}
		if count >= s.maxTeamSize {
			return ErrTeamFull
		}

		invite = models.Invitation{
			TeamID:      teamID,
			SenderID:    sender.ID,
			RecipientID: recipientID,
			InstituteID: team.InstituteID,
			Status:      models.InviteStatusPending,
		}
		teamName = team.Name
		return tx.Create(&invite).Error
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, utils.Event{
		Type:    models.EventInviteReceived,
		UserIDs: []uint{recipientID},
		TeamID:  teamID,
		Message: fmt.Sprintf("Team %q has invited you to join.", teamName),
	})
	return &invite, nil
}

// Accept consumes the invitation and adds the recipient to the team.
// Capacity and the single-team constraint are re-checked here under row
// locks: two invitations can be outstanding for the same slot, and the
// second acceptor must fail on capacity, not on a stale snapshot. All of the
// recipient's other pending offers, in both ledgers, are rejected in the same
// transaction.
func (s *InviteService) Accept(ctx context.Context, actor *models.User, inviteID uint) (*models.Team, error) {
	var team *models.Team

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := lockInvite(tx, inviteID)
		if err != nil {
			return err
		}
		if invite.RecipientID != actor.ID {
			return ErrForbidden
		}
		if !invite.IsPending() {
			return ErrAlreadyResolved
		}

		team, err = lockTeam(tx, invite.TeamID)
		if err != nil {
			return err
		}
		recipient, err := lockUser(tx, actor.ID)
		if err != nil {
			return err
		}

		if err := addMemberLocked(tx, team, recipient, s.maxTeamSize); err != nil {
			return err
		}

		now := time.Now()
		err = tx.Model(&models.Invitation{}).
			Where("id = ?", invite.ID).
			Updates(map[string]interface{}{"status": models.InviteStatusAccepted, "responded_at": now}).Error
		if err != nil {
			return err
		}

		return sweepPendingOffers(tx, actor.ID, now, invite.ID, 0)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"invite_id": inviteID,
		"team_id":   team.ID,
		"user_id":   actor.ID,
	}).Info("invitation accepted")

	s.emit(ctx, utils.Event{
		Type:    models.EventInviteAccepted,
		UserIDs: []uint{team.LeaderID},
		TeamID:  team.ID,
		Message: fmt.Sprintf("%s accepted the invitation and joined team %q.", actor.Name, team.Name),
	})

	return s.reloadTeam(ctx, team.ID)
}

// Decline marks the invitation rejected. No cascading effect.
func (s *InviteService) Decline(ctx context.Context, actor *models.User, inviteID uint) error {
	var senderID, teamID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := lockInvite(tx, inviteID)
		if err != nil {
			return err
		}
		if invite.RecipientID != actor.ID {
			return ErrForbidden
		}
		if !invite.IsPending() {
			return ErrAlreadyResolved
		}

		senderID, teamID = invite.SenderID, invite.TeamID
		return tx.Model(&models.Invitation{}).
			Where("id = ?", invite.ID).
			Updates(map[string]interface{}{"status": models.InviteStatusRejected, "responded_at": time.Now()}).Error
	})
	if err != nil {
		return err
	}

	s.emit(ctx, utils.Event{
		Type:    models.EventInviteDeclined,
		UserIDs: []uint{senderID},
		TeamID:  teamID,
		Message: fmt.Sprintf("%s declined your team invitation.", actor.Name),
	})
	return nil
}

// ListForUser returns the caller's pending invitations with team details.
func (s *InviteService) ListForUser(ctx context.Context, userID uint) ([]models.Invitation, error) {
	var invites []models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Team").
		Preload("Sender").
		Where("recipient_id = ? AND status = ?", userID, models.InviteStatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

// ListForTeam returns the team's invitations. Members only.
func (s *InviteService) ListForTeam(ctx context.Context, actor *models.User, teamID uint) ([]models.Invitation, error) {
	if actor.TeamID == nil || *actor.TeamID != teamID {
		return nil, ErrForbidden
	}

	var invites []models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Recipient").
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

func (s *InviteService) reloadTeam(ctx context.Context, teamID uint) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).Preload("Members").First(&team, teamID).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *InviteService) emit(ctx context.Context, event utils.Event) {
	emitEvent(ctx, s.notifier, s.logger, event)
}

func lockInvite(tx *gorm.DB, inviteID uint) (*models.Invitation, error) {
	var invite models.Invitation
	err := forUpdate(tx).First(&invite, inviteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}
