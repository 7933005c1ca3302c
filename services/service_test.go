package services

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hackforge/models"
	"hackforge/utils"
)

// Small capacity keeps the full-team cases cheap to set up.
const testMaxTeamSize = 3

// capturedEvents records emitted notifications instead of delivering them.
type capturedEvents struct {
	events []utils.Event
}

func (n *capturedEvents) Emit(ctx context.Context, event utils.Event) error {
	n.events = append(n.events, event)
	return nil
}

func (n *capturedEvents) byType(eventType string) []utils.Event {
	var matched []utils.Event
	for _, event := range n.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type fixture struct {
	db        *gorm.DB
	events    *capturedEvents
	teams     *TeamService
	invites   *InviteService
	requests  *JoinRequestService
	approvals *ApprovalService
	institute models.Institute
	other     models.Institute
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	// A second pooled connection would see a different :memory: database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Institute{},
		&models.User{},
		&models.Team{},
		&models.Invitation{},
		&models.JoinRequest{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	events := &capturedEvents{}

	f := &fixture{
		db:        db,
		events:    events,
		teams:     NewTeamService(db, events, logger, testMaxTeamSize),
		invites:   NewInviteService(db, events, logger, testMaxTeamSize),
		requests:  NewJoinRequestService(db, events, logger, testMaxTeamSize),
		approvals: NewApprovalService(db, events, logger),
		institute: models.Institute{Code: "INST1", Name: "First Institute"},
		other:     models.Institute{Code: "INST2", Name: "Second Institute"},
	}
	if err := db.Create(&f.institute).Error; err != nil {
		t.Fatalf("seed institute: %v", err)
	}
	if err := db.Create(&f.other).Error; err != nil {
		t.Fatalf("seed institute: %v", err)
	}
	return f
}

func (f *fixture) user(t *testing.T, name, role string, instituteID uint) *models.User {
	t.Helper()
	user := models.User{
		Email:       fmt.Sprintf("%s@test.edu", name),
		Name:        name,
		Role:        role,
		InstituteID: instituteID,
		IsActive:    true,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return &user
}

func (f *fixture) student(t *testing.T, name string) *models.User {
	return f.user(t, name, models.RoleStudent, f.institute.ID)
}

func (f *fixture) spoc(t *testing.T, name string) *models.User {
	return f.user(t, name, models.RoleSPOC, f.institute.ID)
}

func (f *fixture) reloadUser(t *testing.T, id uint) *models.User {
	t.Helper()
	var user models.User
	if err := f.db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user %d: %v", id, err)
	}
	return &user
}

func (f *fixture) reloadTeam(t *testing.T, id uint) *models.Team {
	t.Helper()
	var team models.Team
	if err := f.db.Preload("Members").First(&team, id).Error; err != nil {
		t.Fatalf("reload team %d: %v", id, err)
	}
	return &team
}

// nonLeaders returns the team's members excluding the leader.
func nonLeaders(team *models.Team) []models.User {
	var members []models.User
	for _, member := range team.Members {
		if member.ID != team.LeaderID {
			members = append(members, member)
		}
	}
	return members
}

// teamOf creates a team led by leader and fills it with extra members up to
// the requested size.
func (f *fixture) teamOf(t *testing.T, leader *models.User, name string, size int) *models.Team {
	t.Helper()
	team, err := f.teams.Create(context.Background(), leader, name)
	if err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	for i := 1; i < size; i++ {
		member := f.student(t, fmt.Sprintf("%s-member-%d", name, i))
		invite, err := f.invites.Send(context.Background(), leader, team.ID, member.ID)
		if err != nil {
			t.Fatalf("send invite for %s: %v", name, err)
		}
		if _, err := f.invites.Accept(context.Background(), member, invite.ID); err != nil {
			t.Fatalf("accept invite for %s: %v", name, err)
		}
	}
	return f.reloadTeam(t, team.ID)
}
