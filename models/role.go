// models/role.go
package models

import "strings"

type Role string

const (
	RoleFrontendDeveloper  Role = "Frontend Developer"
	RoleBackendDeveloper   Role = "Backend Developer"
	RoleUIUXDesigner       Role = "UI/UX Designer"
	RoleTester             Role = "Tester"
	RoleFullStackDeveloper Role = "Full Stack Developer"
	RoleMLEngineer         Role = "ML Engineer"
	RoleMobileDeveloper    Role = "Mobile Developer"
	RoleDevOpsEngineer     Role = "DevOps Engineer"
	RoleProductManager     Role = "Product Manager"
)

// AllRoles is ordered the way recommendations walk it.
var AllRoles = []Role{
	RoleFrontendDeveloper,
	RoleBackendDeveloper,
	RoleUIUXDesigner,
	RoleTester,
	RoleMLEngineer,
	RoleFullStackDeveloper,
	RoleMobileDeveloper,
	RoleDevOpsEngineer,
	RoleProductManager,
}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

type Proficiency string

const (
	ProficiencyBeginner     Proficiency = "Beginner"
	ProficiencyIntermediate Proficiency = "Intermediate"
	ProficiencyPro          Proficiency = "Pro"
)

func (p Proficiency) Valid() bool {
	return p == ProficiencyBeginner || p == ProficiencyIntermediate || p == ProficiencyPro
}

type Skill struct {
	Name        string      `json:"name"`
	Proficiency Proficiency `json:"proficiency"`
}

// SkillNames returns at most n skill names.
func SkillNames(skills []Skill, n int) []string {
	names := make([]string, 0, n)
	for _, s := range skills {
		if len(names) == n {
			break
		}
		if name := strings.TrimSpace(s.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
