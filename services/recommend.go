// services/recommend.go - Rule-based teammate recommendations
package services

import (
	"fmt"
	"slices"
	"strings"

	"teamup/models"
)

const maxRecommendations = 3

type Recommendation struct {
	MissingRoles     []string              `json:"missingRoles"`
	RecommendedUsers []RecommendedCandidate `json:"recommendedUsers"`
	Explanation      string                `json:"explanation"`
}

type RecommendedCandidate struct {
	User   models.Profile `json:"user"`
	Reason string         `json:"reason"`
}

// Recommend suggests up to three candidates whose primary role fills a gap
// in the team. It is a pure function of its inputs.
func Recommend(team *models.Team, memberRoles []string, candidates []models.Profile) Recommendation {
	var missing []string
	for _, role := range models.AllRoles {
		r := strings.ToLower(string(role))
		covered := slices.ContainsFunc(memberRoles, func(current string) bool {
			return strings.Contains(strings.ToLower(current), r)
		})
		if !covered {
			missing = append(missing, string(role))
		}
		if len(missing) == maxRecommendations {
			break
		}
	}

	prioritized := missing
	if len(team.RolesNeeded) > 0 {
		prioritized = nil
		for _, role := range append(slices.Clone(team.RolesNeeded), missing...) {
			if !slices.Contains(prioritized, role) {
				prioritized = append(prioritized, role)
			}
		}
		if len(prioritized) > maxRecommendations {
			prioritized = prioritized[:maxRecommendations]
		}
	}
	if prioritized == nil {
		prioritized = []string{}
	}

	recommended := []RecommendedCandidate{}
	for _, c := range candidates {
		if len(recommended) == maxRecommendations {
			break
		}
		if !matchesAnyRole(c.PrimaryRole, prioritized) {
			continue
		}
		recommended = append(recommended, RecommendedCandidate{User: c, Reason: reasonFor(c)})
	}

	return Recommendation{
		MissingRoles:     prioritized,
		RecommendedUsers: recommended,
		Explanation:      explain(team.Description, prioritized),
	}
}

// matchesAnyRole is a case-insensitive substring match in either
// direction. An empty role matches nothing.
func matchesAnyRole(role models.Role, wanted []string) bool {
	r := strings.ToLower(strings.TrimSpace(string(role)))
	if r == "" {
		return false
	}
	return slices.ContainsFunc(wanted, func(w string) bool {
		w = strings.ToLower(w)
		return strings.Contains(r, w) || strings.Contains(w, r)
	})
}

func reasonFor(p models.Profile) string {
	skills := "various technologies"
	if names := models.SkillNames(p.Skills, 3); len(names) > 0 {
		skills = strings.Join(names, ", ")
	}
	return fmt.Sprintf("Matches needed role: %s. Skills include %s.", p.PrimaryRole, skills)
}

func explain(description string, roles []string) string {
	var b strings.Builder
	b.WriteString("Based on your team composition, ")
	if len(roles) > 0 {
		fmt.Fprintf(&b, "we recommend filling these roles to have a well-rounded team: %s.", strings.Join(roles, ", "))
	} else {
		b.WriteString("your team seems well-balanced! Consider adding specialized roles based on your project needs.")
	}

	desc := strings.ToLower(description)
	if desc == "" {
		return b.String()
	}
	if containsAny(desc, "ai", "ml", "machine learning") {
		b.WriteString(" Given your AI/ML focus, an ML Engineer would be valuable.")
	}
	if containsAny(desc, "mobile", "app") {
		b.WriteString(" For mobile development, consider a Mobile Developer.")
	}
	if containsAny(desc, "design", "ux", "user") {
		b.WriteString(" A strong UI/UX Designer would help with user experience.")
	}
	return b.String()
}

func containsAny(s string, subs ...string) bool {
	return slices.ContainsFunc(subs, func(sub string) bool { return strings.Contains(s, sub) })
}
