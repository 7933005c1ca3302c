package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hackforge/models"
	"hackforge/utils"
)

// TeamService owns Team rows and the membership invariants: the leader is
// always a member, a user belongs to at most one team, and no team exceeds
// the configured capacity.
type TeamService struct {
	db          *gorm.DB
	notifier    utils.Notifier
	logger      *logrus.Logger
	maxTeamSize int
}

func NewTeamService(db *gorm.DB, notifier utils.Notifier, logger *logrus.Logger, maxTeamSize int) *TeamService {
	return &TeamService{
		db:          db,
		notifier:    notifier,
		logger:      logger,
		maxTeamSize: maxTeamSize,
	}
}

// Create registers a new team in pending status with the leader as its only
// member. Only students form teams; fails if the leader already belongs to a
// team or the name is taken within the institute.
func (s *TeamService) Create(ctx context.Context, leader *models.User, name string) (*models.Team, error) {
	if leader.Role != models.RoleStudent {
		return nil, ErrForbidden
	}

	var team models.Team

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockUser(tx, leader.ID)
		if err != nil {
			return err
		}
		if locked.TeamID != nil {
			return ErrAlreadyInTeam
		}

		var count int64
		if err := tx.Model(&models.Team{}).
			Where("institute_id = ? AND name = ?", leader.InstituteID, name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrTeamNameTaken
		}

		team = models.Team{
			Name:        name,
			InstituteID: leader.InstituteID,
			LeaderID:    leader.ID,
			Status:      models.TeamStatusPending,
		}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		// The leader joins their own team in the same transaction.
		return tx.Model(&models.User{}).
			Where("id = ?", leader.ID).
			Update("team_id", team.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"team_id":   team.ID,
		"leader_id": leader.ID,
	}).Info("team created")
	return &team, nil
}

// MyTeam returns the caller's team with members and institute inlined.
func (s *TeamService) MyTeam(ctx context.Context, userID uint) (*models.Team, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.TeamID == nil {
		return nil, ErrTeamNotFound
	}

	var team models.Team
	err := s.db.WithContext(ctx).
		Preload("Members").
		Preload("Institute").
		First(&team, *user.TeamID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

// AvailableTeams lists teams of the institute a student could still ask to
// join: not rejected and below capacity. Capacity is filtered after the scan;
// team counts per institute are small enough that this beats a join.
func (s *TeamService) AvailableTeams(ctx context.Context, instituteID uint) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).
		Preload("Members").
		Where("institute_id = ? AND status <> ?", instituteID, models.TeamStatusRejected).
		Order("created_at DESC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}

	available := make([]models.Team, 0, len(teams))
	for _, team := range teams {
		if len(team.Members) < s.maxTeamSize {
			available = append(available, team)
		}
	}
	return available, nil
}

// RemoveMember expels a member from the team. Leader only; the leader cannot
// remove themselves through this path. The membership list and the user's
// back-reference change in one transaction.
func (s *TeamService) RemoveMember(ctx context.Context, actor *models.User, teamID, userID uint) error {
	var teamName string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.LeaderID != actor.ID {
			return ErrForbidden
		}
		if userID == team.LeaderID {
			return ErrInvalidTarget
		}

		target, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if target.TeamID == nil || *target.TeamID != teamID {
			return ErrUserNotFound
		}

		teamName = team.Name
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("team_id", nil).Error
	})
	if err != nil {
		return err
	}

	s.emit(ctx, utils.Event{
		Type:    models.EventMemberRemoved,
		UserIDs: []uint{userID},
		TeamID:  teamID,
		Message: fmt.Sprintf("You have been removed from team %q by its leader.", teamName),
	})
	return nil
}

// Leave lets a non-leader member exit their team voluntarily. The leader
// cannot leave; they can only remove others or keep the team.
func (s *TeamService) Leave(ctx context.Context, actor *models.User, teamID uint) error {
	var team *models.Team

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		team, err = lockTeam(tx, teamID)
		if err != nil {
			return err
		}
		if team.LeaderID == actor.ID {
			return ErrInvalidTarget
		}

		member, err := lockUser(tx, actor.ID)
		if err != nil {
			return err
		}
		if member.TeamID == nil || *member.TeamID != teamID {
			return ErrForbidden
		}

		return tx.Model(&models.User{}).
			Where("id = ?", actor.ID).
			Update("team_id", nil).Error
	})
	if err != nil {
		return err
	}

	s.emit(ctx, utils.Event{
		Type:    models.EventMemberLeft,
		UserIDs: []uint{team.LeaderID},
		TeamID:  teamID,
		Message: fmt.Sprintf("%s has left team %q.", actor.Name, team.Name),
	})
	return nil
}

// SelectProblem records the problem statement an approved team will work on.
func (s *TeamService) SelectProblem(ctx context.Context, actor *models.User, teamID, problemID uint) (*models.Team, error) {
	return s.updateAsLeader(ctx, actor, teamID, func(team *models.Team) error {
		if !team.IsApproved() {
			return ErrInvalidState
		}
		team.SelectedProblemID = &problemID
		return nil
	})
}

// UpdateProgress records the team's self-reported progress percentage.
func (s *TeamService) UpdateProgress(ctx context.Context, actor *models.User, teamID uint, pct int) (*models.Team, error) {
	if pct < 0 || pct > 100 {
		return nil, ErrInvalidState
	}
	return s.updateAsLeader(ctx, actor, teamID, func(team *models.Team) error {
		team.ProgressPct = pct
		return nil
	})
}

// updateAsLeader loads and locks the team, verifies the actor leads it,
// applies mutate and saves the row.
func (s *TeamService) updateAsLeader(ctx context.Context, actor *models.User, teamID uint, mutate func(*models.Team) error) (*models.Team, error) {
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
		if err := mutate(team); err != nil {
			return err
		}
		return tx.Save(team).Error
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) emit(ctx context.Context, event utils.Event) {
	emitEvent(ctx, s.notifier, s.logger, event)
}

// ---- shared helpers, used by the invite and join-request ledgers as well ----

// forUpdate applies a row lock where the dialect supports it. SQLite, used by
// the test harness, has a single writer and no row locks.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockTeam loads a team row under FOR UPDATE so capacity checks made in the
// same transaction cannot race a concurrent acceptance.
func lockTeam(tx *gorm.DB, teamID uint) (*models.Team, error) {
	var team models.Team
	err := forUpdate(tx).First(&team, teamID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

// lockUser loads a user row under FOR UPDATE so the single-team check cannot
// race a concurrent accept on another offer.
func lockUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := forUpdate(tx).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// memberCount counts current members inside the transaction.
func memberCount(tx *gorm.DB, teamID uint) (int, error) {
	var count int64
	err := tx.Model(&models.User{}).Where("team_id = ?", teamID).Count(&count).Error
	return int(count), err
}

// addMemberLocked appends a user to a team. Both rows must already be locked
// by the caller's transaction; capacity and the single-team constraint are
// re-checked here, at commit time, not at request time.
func addMemberLocked(tx *gorm.DB, team *models.Team, user *models.User, maxTeamSize int) error {
	if user.TeamID != nil {
		return ErrAlreadyInTeam
	}
	count, err := memberCount(tx, team.ID)
	if err != nil {
		return err
	}
	if count >= maxTeamSize {
		return ErrTeamFull
	}
	return tx.Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("team_id", team.ID).Error
}

// sweepPendingOffers rejects every other pending invitation and join request
// addressed to or sent by the user. Called inside the accepting transaction:
// once a user has a team, no outstanding offer may remain consumable,
// regardless of which ledger it lives in.
func sweepPendingOffers(tx *gorm.DB, userID uint, now time.Time, keepInviteID, keepRequestID uint) error {
	err := tx.Model(&models.Invitation{}).
		Where("recipient_id = ? AND status = ? AND id <> ?", userID, models.InviteStatusPending, keepInviteID).
		Updates(map[string]interface{}{"status": models.InviteStatusRejected, "responded_at": now}).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.JoinRequest{}).
		Where("user_id = ? AND status = ? AND id <> ?", userID, models.InviteStatusPending, keepRequestID).
		Updates(map[string]interface{}{"status": models.InviteStatusRejected, "responded_at": now}).Error
}

// emitEvent delivers best-effort: a notification outage must never fail a
// committed state change.
func emitEvent(ctx context.Context, notifier utils.Notifier, logger *logrus.Logger, event utils.Event) {
	event.At = time.Now()
	if err := notifier.Emit(ctx, event); err != nil {
		logger.WithError(err).WithField("type", event.Type).Warn("notification emit failed")
	}
}
