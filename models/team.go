// models/team.go
package models

import "time"

type TeamStatus string

const (
	TeamStatusForming  TeamStatus = "forming"
	TeamStatusActive   TeamStatus = "active"
	TeamStatusComplete TeamStatus = "complete"
)

func (s TeamStatus) Valid() bool {
	return s == TeamStatusForming || s == TeamStatusActive || s == TeamStatusComplete
}

const DefaultMaxMembers = 4

type Team struct {
	ID          string       `json:"id" gorm:"primaryKey;size:36"`
	Name        string       `json:"name" gorm:"not null;size:100"`
	Description string       `json:"description" gorm:"type:text"`
	Hackathon   string       `json:"hackathon,omitempty" gorm:"size:150"`
	LeaderID    string       `json:"leaderId" gorm:"not null;size:36;index"`
	LeaderName  string       `json:"leaderName" gorm:"size:100"`
	MaxMembers  int          `json:"maxMembers" gorm:"not null;default:4"`
	Status      TeamStatus   `json:"status" gorm:"size:20;index;default:'forming'"`
	RolesNeeded []string     `json:"rolesNeeded" gorm:"serializer:json;type:jsonb"`
	Members     []TeamMember `json:"members" gorm:"foreignKey:TeamID"`
	CreatedAt   time.Time    `json:"createdAt" gorm:"index"`
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) IsFull() bool {
	return len(t.Members) >= t.MaxMembers
}

func (t *Team) HasOpenSlot() bool {
	return len(t.Members) < t.MaxMembers
}

func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
