// models/profile.go
package models

import "time"

// Profile is a user's account and skill record. TeamID is the single source
// of truth for team membership.
type Profile struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"size:255;index"`
	FullName     string    `json:"fullName" gorm:"size:100"`
	College      string    `json:"college,omitempty" gorm:"size:150"`
	YearOfStudy  string    `json:"yearOfStudy,omitempty" gorm:"size:20"`
	PrimaryRole  Role      `json:"primaryRole" gorm:"size:50;index"`
	Skills       []Skill   `json:"skills" gorm:"serializer:json;type:jsonb"`
	Bio          string    `json:"bio,omitempty" gorm:"type:text"`
	Avatar       string    `json:"avatar,omitempty"`
	TeamID       *string   `json:"teamId" gorm:"size:36;index"`
	IsTeamLeader bool      `json:"isTeamLeader" gorm:"default:false"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
}

func (Profile) TableName() string {
	return "profiles"
}

// DisplayName falls back to "User" the way rosters and notifications expect.
func (p *Profile) DisplayName() string {
	if p == nil || p.FullName == "" {
		return "User"
	}
	return p.FullName
}

func (p *Profile) HasTeam() bool {
	return p.TeamID != nil && *p.TeamID != ""
}

// Membership is the pair of profile fields the membership protocol owns.
type Membership struct {
	TeamID       *string
	IsTeamLeader bool
}

// NoTeam is the membership of a user on no roster.
func NoTeam() Membership {
	return Membership{}
}

func LeaderOf(teamID string) Membership {
	return Membership{TeamID: &teamID, IsTeamLeader: true}
}

func MemberOf(teamID string) Membership {
	return Membership{TeamID: &teamID}
}
