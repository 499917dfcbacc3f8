// models/post.go
package models

import "time"

type PostType string

const (
	PostTeamCreated    PostType = "team_created"
	PostMemberJoined   PostType = "member_joined"
	PostLookingForTeam PostType = "looking_for_team"
	PostOpenToJoin     PostType = "open_to_join"
	PostUser           PostType = "user_post"
)

// FeedPost is an append-only activity record.
type FeedPost struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	AuthorID     string    `json:"authorId" gorm:"not null;size:36;index"`
	AuthorName   string    `json:"authorName" gorm:"size:100"`
	AuthorAvatar string    `json:"authorAvatar,omitempty"`
	AuthorRole   Role      `json:"authorRole,omitempty" gorm:"size:50"`
	Type         PostType  `json:"type" gorm:"size:30"`
	Title        string    `json:"title" gorm:"size:200"`
	Description  string    `json:"description" gorm:"type:text"`
	TeamID       string    `json:"teamId,omitempty" gorm:"size:36"`
	TeamName     string    `json:"teamName,omitempty" gorm:"size:100"`
	RolesNeeded  []string  `json:"rolesNeeded,omitempty" gorm:"serializer:json;type:jsonb"`
	Tags         []string  `json:"tags,omitempty" gorm:"serializer:json;type:jsonb"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
}

func (FeedPost) TableName() string {
	return "posts"
}

// WorkspaceLog is a team-scoped timeline entry.
type WorkspaceLog struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	TeamID    string    `json:"teamId" gorm:"not null;size:36;index"`
	UserID    string    `json:"userId" gorm:"size:36"`
	UserName  string    `json:"userName" gorm:"size:100"`
	Message   string    `json:"message" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (WorkspaceLog) TableName() string {
	return "workspace_logs"
}
