// models/team_member.go
package models

import "time"

const LeaderRole = "Team Leader"

// TeamMember is one roster entry, keyed by (TeamID, UserID). A user appears
// on at most one roster.
type TeamMember struct {
	TeamID   string    `json:"teamId" gorm:"primaryKey;size:36"`
	UserID   string    `json:"userId" gorm:"primaryKey;size:36;uniqueIndex:idx_team_members_user"`
	Role     string    `json:"role" gorm:"size:50"`
	UserName string    `json:"userName" gorm:"size:100"`
	JoinedAt time.Time `json:"joinedAt" gorm:"index"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
