package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup/models"
)

func candidate(id string, role models.Role, skills ...string) models.Profile {
	p := models.Profile{ID: id, FullName: id, PrimaryRole: role}
	for _, s := range skills {
		p.Skills = append(p.Skills, models.Skill{Name: s, Proficiency: models.ProficiencyIntermediate})
	}
	return p
}

func TestRecommendFillsFirstMissingRoles(t *testing.T) {
	team := &models.Team{Description: "A mobile app with ML ranking"}
	members := []string{models.LeaderRole, "Frontend Developer"}
	candidates := []models.Profile{
		candidate("fe", models.RoleFrontendDeveloper),
		candidate("be", models.RoleBackendDeveloper, "Go", "Postgres", "Redis", "Kafka"),
		candidate("none", ""),
		candidate("ux", models.RoleUIUXDesigner),
		candidate("qa", models.RoleTester),
		candidate("be2", models.RoleBackendDeveloper),
	}

	rec := Recommend(team, members, candidates)

	assert.Equal(t, []string{"Backend Developer", "UI/UX Designer", "Tester"}, rec.MissingRoles)
	require.Len(t, rec.RecommendedUsers, 3)
	assert.Equal(t, "be", rec.RecommendedUsers[0].User.ID)
	assert.Equal(t, "ux", rec.RecommendedUsers[1].User.ID)
	assert.Equal(t, "qa", rec.RecommendedUsers[2].User.ID)
	assert.Equal(t, "Matches needed role: Backend Developer. Skills include Go, Postgres, Redis.", rec.RecommendedUsers[0].Reason)
	assert.Equal(t, "Matches needed role: UI/UX Designer. Skills include various technologies.", rec.RecommendedUsers[1].Reason)
	assert.Contains(t, rec.Explanation, "Backend Developer, UI/UX Designer, Tester")
	assert.Contains(t, rec.Explanation, "ML Engineer would be valuable")
	assert.Contains(t, rec.Explanation, "Mobile Developer")
}

func TestRecommendPrefersRolesNeeded(t *testing.T) {
	team := &models.Team{RolesNeeded: []string{"DevOps Engineer", "Backend Developer"}}
	candidates := []models.Profile{
		candidate("fe", models.RoleFrontendDeveloper),
		candidate("ops", models.RoleDevOpsEngineer),
	}

	rec := Recommend(team, nil, candidates)

	assert.Equal(t, []string{"DevOps Engineer", "Backend Developer", "Frontend Developer"}, rec.MissingRoles)
	require.Len(t, rec.RecommendedUsers, 2)
	assert.Equal(t, "fe", rec.RecommendedUsers[0].User.ID)
	assert.Equal(t, "ops", rec.RecommendedUsers[1].User.ID)
}

func TestRecommendBalancedTeam(t *testing.T) {
	var members []string
	for _, r := range models.AllRoles {
		members = append(members, string(r))
	}

	rec := Recommend(&models.Team{}, members, []models.Profile{candidate("x", models.RoleTester)})

	assert.Empty(t, rec.MissingRoles)
	assert.NotNil(t, rec.MissingRoles)
	assert.Empty(t, rec.RecommendedUsers)
	assert.Contains(t, rec.Explanation, "well-balanced")
}
