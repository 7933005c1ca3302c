package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"hackforge/models"
)

// Random sequences of lifecycle operations must never break the structural
// invariants, no matter which calls the guardrails reject: every leader stays
// a member of their own team, no team exceeds capacity, and accepted ledger
// entries always correspond to actual membership.
func TestInvariantsUnderRandomOperations(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(20260831))

	var users []*models.User
	for i := 0; i < 12; i++ {
		users = append(users, f.student(t, fmt.Sprintf("u%d", i)))
	}

	ctx := context.Background()
	randomUser := func() *models.User {
		return f.reloadUser(t, users[rng.Intn(len(users))].ID)
	}
	randomTeamID := func() uint {
		var ids []uint
		if err := f.db.Model(&models.Team{}).Pluck("id", &ids).Error; err != nil {
			t.Fatalf("list team ids: %v", err)
		}
		if len(ids) == 0 {
			return 0
		}
		return ids[rng.Intn(len(ids))]
	}

	teamCount := 0
	for step := 0; step < 300; step++ {
		actor := randomUser()
		switch rng.Intn(6) {
		case 0:
			teamCount++
			_, _ = f.teams.Create(ctx, actor, fmt.Sprintf("team-%d", teamCount))
		case 1:
			_, _ = f.invites.Send(ctx, actor, randomTeamID(), randomUser().ID)
		case 2:
			if pending, err := f.invites.ListForUser(ctx, actor.ID); err == nil && len(pending) > 0 {
				_, _ = f.invites.Accept(ctx, actor, pending[rng.Intn(len(pending))].ID)
			}
		case 3:
			_, _ = f.requests.Send(ctx, actor, randomTeamID())
		case 4:
			if incoming, err := f.requests.ListForTeam(ctx, actor, derefTeamID(actor)); err == nil && len(incoming) > 0 {
				_, _ = f.requests.Accept(ctx, actor, incoming[rng.Intn(len(incoming))].ID)
			}
		case 5:
			_ = f.teams.RemoveMember(ctx, actor, derefTeamID(actor), randomUser().ID)
		}

		assertInvariants(t, f, step)
	}
}

func derefTeamID(user *models.User) uint {
	if user.TeamID == nil {
		return 0
	}
	return *user.TeamID
}

func assertInvariants(t *testing.T, f *fixture, step int) {
	t.Helper()

	var teams []models.Team
	if err := f.db.Preload("Members").Find(&teams).Error; err != nil {
		t.Fatalf("step %d: load teams: %v", step, err)
	}

	for _, team := range teams {
		if len(team.Members) > testMaxTeamSize {
			t.Fatalf("step %d: team %d has %d members, capacity is %d", step, team.ID, len(team.Members), testMaxTeamSize)
		}

		leaderPresent := false
		for _, member := range team.Members {
			if member.ID == team.LeaderID {
				leaderPresent = true
			}
			if member.TeamID == nil || *member.TeamID != team.ID {
				t.Fatalf("step %d: member %d of team %d has a mismatched back-reference", step, member.ID, team.ID)
			}
		}
		if !leaderPresent {
			t.Fatalf("step %d: leader %d missing from team %d member list", step, team.LeaderID, team.ID)
		}
	}

	// Resolved ledger entries must carry their resolution timestamp.
	var unresolved int64
	err := f.db.Model(&models.Invitation{}).
		Where("status <> ? AND responded_at IS NULL", models.InviteStatusPending).
		Count(&unresolved).Error
	if err != nil {
		t.Fatalf("step %d: count resolved invites: %v", step, err)
	}
	if unresolved > 0 {
		t.Fatalf("step %d: %d resolved invitations missing responded_at", step, unresolved)
	}
}
