package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"teamup/models"
	"teamup/services"
)

type demoUser struct {
	name   string
	role   models.Role
	skills []models.Skill
}

var demoUsers = []demoUser{
	{"Priya Raman", models.RoleBackendDeveloper, []models.Skill{{Name: "Go", Proficiency: models.ProficiencyPro}, {Name: "PostgreSQL", Proficiency: models.ProficiencyIntermediate}}},
	{"Tom Okafor", models.RoleFrontendDeveloper, []models.Skill{{Name: "React", Proficiency: models.ProficiencyPro}}},
	{"Mei Lin", models.RoleUIUXDesigner, []models.Skill{{Name: "Figma", Proficiency: models.ProficiencyPro}}},
	{"Jonas Berg", models.RoleMLEngineer, []models.Skill{{Name: "PyTorch", Proficiency: models.ProficiencyIntermediate}}},
	{"Ana Souza", models.RoleTester, []models.Skill{{Name: "Playwright", Proficiency: models.ProficiencyBeginner}}},
	{"Sam Patel", models.RoleDevOpsEngineer, nil},
}

// seed creates the demo users, a forming team led by the first one with the
// second as a member, and a pending join request from the third.
func seed(ctx context.Context, svc *services.Services, out io.Writer) error {
	ids := make([]string, len(demoUsers))
	for i, u := range demoUsers {
		ids[i] = uuid.NewString()
		_, err := svc.Profiles.Create(ctx, ids[i], &models.Profile{
			Email:       fmt.Sprintf("demo%d@teamup.dev", i+1),
			FullName:    u.name,
			PrimaryRole: u.role,
			Skills:      u.skills,
		})
		if err != nil {
			return fmt.Errorf("create profile %s: %w", u.name, err)
		}
	}

	team, err := svc.Teams.Create(ctx, services.NewTeam{
		Name:        "Demo Squad",
		Description: "A mobile app that uses ML to match study groups",
		Hackathon:   "Demo Hack",
		LeaderID:    ids[0],
		MaxMembers:  4,
		RolesNeeded: []string{string(models.RoleUIUXDesigner), string(models.RoleMLEngineer)},
	})
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	if _, err := svc.Membership.AddTeamMember(ctx, team.ID, ids[1], string(models.RoleFrontendDeveloper)); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if _, err := svc.Membership.SendInvitation(ctx, services.SendInvitation{
		FromUserID: ids[2],
		TeamID:     team.ID,
		Type:       models.InvitationJoinRequest,
		Message:    "I'd love to design this!",
	}); err != nil {
		return fmt.Errorf("send join request: %w", err)
	}

	fmt.Fprintf(out, "seeded %d profiles and team %q (%s)\n", len(ids), team.Name, team.ID)
	return nil
}
