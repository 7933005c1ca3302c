package services

import (
	"context"
	"errors"
	"testing"

	"hackforge/models"
)

func TestCreateTeam(t *testing.T) {
	f := newFixture(t)
	leader := f.student(t, "leader")

	team, err := f.teams.Create(context.Background(), leader, "Alpha")
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	if team.Status != models.TeamStatusPending {
		t.Fatalf("expected pending status, got %q", team.Status)
	}
	if team.LeaderID != leader.ID {
		t.Fatalf("expected leader %d, got %d", leader.ID, team.LeaderID)
	}

	reloaded := f.reloadTeam(t, team.ID)
	if len(reloaded.Members) != 1 || reloaded.Members[0].ID != leader.ID {
		t.Fatalf("expected members=[leader], got %d members", len(reloaded.Members))
	}
	if user := f.reloadUser(t, leader.ID); user.TeamID == nil || *user.TeamID != team.ID {
		t.Fatalf("expected leader team back-reference to be set")
	}
}

func TestCreateTeamConflicts(t *testing.T) {
	f := newFixture(t)
	leader := f.student(t, "leader")

	if _, err := f.teams.Create(context.Background(), leader, "Alpha"); err != nil {
		t.Fatalf("create team: %v", err)
	}

	if _, err := f.teams.Create(context.Background(), leader, "Beta"); !errors.Is(err, ErrAlreadyInTeam) {
		t.Fatalf("expected ErrAlreadyInTeam for second team, got %v", err)
	}

	other := f.student(t, "other")
	if _, err := f.teams.Create(context.Background(), other, "Alpha"); !errors.Is(err, ErrTeamNameTaken) {
		t.Fatalf("expected ErrTeamNameTaken, got %v", err)
	}

	// Same name at a different institute is fine.
	remote := f.user(t, "remote", models.RoleStudent, f.other.ID)
	if _, err := f.teams.Create(context.Background(), remote, "Alpha"); err != nil {
		t.Fatalf("expected same name at another institute to succeed, got %v", err)
	}
}

// Only students form teams. A coordinator must never be able to create a
// team and then sit on both sides of its approval.
func TestCreateTeamRequiresStudent(t *testing.T) {
	f := newFixture(t)
	spoc := f.spoc(t, "spoc")

	if _, err := f.teams.Create(context.Background(), spoc, "Alpha"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for coordinator create, got %v", err)
	}
	mentor := f.user(t, "mentor", models.RoleMentor, f.institute.ID)
	if _, err := f.teams.Create(context.Background(), mentor, "Beta"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for mentor create, got %v", err)
	}

	var count int64
	if err := f.db.Model(&models.Team{}).Count(&count).Error; err != nil {
		t.Fatalf("count teams: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no team rows after forbidden creates, found %d", count)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	leader := f.student(t, "leader")
	team := f.teamOf(t, leader, "Alpha", 2)
	member := nonLeaders(team)[0]

	if err := f.teams.RemoveMember(context.Background(), leader, team.ID, member.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	if user := f.reloadUser(t, member.ID); user.TeamID != nil {
		t.Fatalf("expected removed member's team reference cleared")
	}
	reloaded := f.reloadTeam(t, team.ID)
	for _, m := range reloaded.Members {
		if m.ID == member.ID {
			t.Fatalf("expected member %d gone from member list", member.ID)
		}
	}

	removals := f.events.byType(models.EventMemberRemoved)
	if len(removals) != 1 || removals[0].UserIDs[0] != member.ID {
		t.Fatalf("expected one member_removed event addressed to %d", member.ID)
	}
}

func TestRemoveMemberAuthorization(t *testing.T) {
	f := newFixture(t)
	leader := f.student(t, "leader")
	team := f.teamOf(t, leader, "Alpha", 3)
	others := nonLeaders(team)
	memberA, memberB := others[0], others[1]

	if err := f.teams.RemoveMember(context.Background(), &memberA, team.ID, memberB.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-leader removal, got %v", err)
	}
	if got := len(f.reloadTeam(t, team.ID).Members); got != 3 {
		t.Fatalf("expected membership unchanged after forbidden removal, got %d members", got)
	}

	if err := f.teams.RemoveMember(context.Background(), leader, team.ID, leader.ID); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for leader self-removal, got %v", err)
	}

	stranger := f.student(t, "stranger")
	if err := f.teams.RemoveMember(context.Background(), leader, team.ID, stranger.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for non-member target, got %v", err)
	}
}

func TestLeaveTeam(t *testing.T) {
	f := newFixture(t)
	leader := f.student(t, "leader")
	team := f.teamOf(t, leader, "Alpha", 2)
	member := nonLeaders(team)[0]

	if err := f.teams.Leave(context.Background(), leader, team.ID); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for leader leave, got %v", err)
	}

	if err := f.teams.Leave(context.Background(), &member, team.ID); err != nil {
		t.Fatalf("leave team: %v", err)
	}
	if user := f.reloadUser(t, member.ID); user.TeamID != nil {
		t.Fatalf("expected team reference cleared after leave")
	}
}

func TestAvailableTeams(t *testing.T) {
	f := newFixture(t)

	open := f.teamOf(t, f.student(t, "open-leader"), "Open", 1)
	full := f.teamOf(t, f.student(t, "full-leader"), "Full", testMaxTeamSize)
	rejected := f.teamOf(t, f.student(t, "rej-leader"), "Rejected", 1)
	if err := f.db.Model(&models.Team{}).Where("id = ?", rejected.ID).
		Update("status", models.TeamStatusRejected).Error; err != nil {
		t.Fatalf("mark team rejected: %v", err)
	}

	// A team from another institute must never show up.
	remote := f.user(t, "remote-leader", models.RoleStudent, f.other.ID)
	if _, err := f.teams.Create(context.Background(), remote, "Remote"); err != nil {
		t.Fatalf("create remote team: %v", err)
	}

	teams, err := f.teams.AvailableTeams(context.Background(), f.institute.ID)
	if err != nil {
		t.Fatalf("available teams: %v", err)
	}
	if len(teams) != 1 || teams[0].ID != open.ID {
		t.Fatalf("expected only team %d available, got %d teams", open.ID, len(teams))
	}
	for _, team := range teams {
		if team.ID == full.ID {
			t.Fatalf("full team must not be listed as available")
		}
	}
}

func TestMyTeam(t *testing.T) {
	f := newFixture(t)
	leader := f.student(t, "leader")
	team := f.teamOf(t, leader, "Alpha", 2)

	got, err := f.teams.MyTeam(context.Background(), leader.ID)
	if err != nil {
		t.Fatalf("my team: %v", err)
	}
	if got.ID != team.ID {
		t.Fatalf("expected team %d, got %d", team.ID, got.ID)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected hydrated member list, got %d members", len(got.Members))
	}
	if got.Institute.ID != f.institute.ID {
		t.Fatalf("expected hydrated institute")
	}

	loner := f.student(t, "loner")
	if _, err := f.teams.MyTeam(context.Background(), loner.ID); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound for user without team, got %v", err)
	}
}

func TestProblemSelectionAndProgress(t *testing.T) {
	f := newFixture(t)
	leader := f.student(t, "leader")
	team := f.teamOf(t, leader, "Alpha", 1)

	if _, err := f.teams.SelectProblem(context.Background(), leader, team.ID, 42); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState selecting a problem before approval, got %v", err)
	}

	spoc := f.spoc(t, "spoc")
	if _, err := f.approvals.Request(context.Background(), leader, team.ID); err != nil {
		t.Fatalf("request approval: %v", err)
	}
	if _, err := f.approvals.Approve(context.Background(), spoc, team.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	updated, err := f.teams.SelectProblem(context.Background(), leader, team.ID, 42)
	if err != nil {
		t.Fatalf("select problem: %v", err)
	}
	if updated.SelectedProblemID == nil || *updated.SelectedProblemID != 42 {
		t.Fatalf("expected problem 42 recorded")
	}

	if _, err := f.teams.UpdateProgress(context.Background(), leader, team.ID, 150); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for out-of-range progress, got %v", err)
	}
	updated, err = f.teams.UpdateProgress(context.Background(), leader, team.ID, 40)
	if err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if updated.ProgressPct != 40 {
		t.Fatalf("expected progress 40, got %d", updated.ProgressPct)
	}
}
