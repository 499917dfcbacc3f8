// models/invitation.go
package models

import "time"

type InvitationType string

const (
	InvitationInvite      InvitationType = "invite"
	InvitationJoinRequest InvitationType = "join_request"
)

func (t InvitationType) Valid() bool {
	return t == InvitationInvite || t == InvitationJoinRequest
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Invitation is a directional request to join a team. JoiningUserID names
// the profile that gains the team on acceptance.
type Invitation struct {
	ID            string           `json:"id" gorm:"primaryKey;size:36"`
	TeamID        string           `json:"teamId" gorm:"not null;size:36;index"`
	TeamName      string           `json:"teamName" gorm:"size:100"`
	FromUserID    string           `json:"fromUserId" gorm:"not null;size:36;index"`
	FromUserName  string           `json:"fromUserName" gorm:"size:100"`
	ToUserID      string           `json:"toUserId" gorm:"not null;size:36;index"`
	ToUserName    string           `json:"toUserName" gorm:"size:100"`
	JoiningUserID string           `json:"joiningUserId" gorm:"not null;size:36"`
	Type          InvitationType   `json:"type" gorm:"size:20"`
	Status        InvitationStatus `json:"status" gorm:"size:20;index;default:'pending'"`
	Message       string           `json:"message,omitempty" gorm:"type:text"`
	CreatedAt     time.Time        `json:"createdAt"`
	RespondedAt   *time.Time       `json:"respondedAt,omitempty"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// NewInvite builds a leader-to-candidate invitation.
func NewInvite(team *Team, leader, candidate *Profile, message string) *Invitation {
	return &Invitation{
		TeamID:        team.ID,
		TeamName:      team.Name,
		FromUserID:    leader.ID,
		FromUserName:  leader.DisplayName(),
		ToUserID:      candidate.ID,
		ToUserName:    candidate.DisplayName(),
		JoiningUserID: candidate.ID,
		Type:          InvitationInvite,
		Status:        InvitationPending,
		Message:       message,
	}
}

// NewJoinRequest builds a candidate-to-leader request.
func NewJoinRequest(team *Team, candidate, leader *Profile, message string) *Invitation {
	return &Invitation{
		TeamID:        team.ID,
		TeamName:      team.Name,
		FromUserID:    candidate.ID,
		FromUserName:  candidate.DisplayName(),
		ToUserID:      leader.ID,
		ToUserName:    leader.DisplayName(),
		JoiningUserID: candidate.ID,
		Type:          InvitationJoinRequest,
		Status:        InvitationPending,
		Message:       message,
	}
}

func (i *Invitation) IsPending() bool {
	return i.Status == InvitationPending
}

func (i *Invitation) IsJoinRequest() bool {
	return i.Type == InvitationJoinRequest
}
