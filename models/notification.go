// models/notification.go
package models

import "time"

type NotificationType string

const (
	NotificationInvite      NotificationType = "INVITE"
	NotificationAccepted    NotificationType = "ACCEPTED"
	NotificationRejected    NotificationType = "REJECTED"
	NotificationTeamUpdate  NotificationType = "TEAM_UPDATE"
	NotificationJoinRequest NotificationType = "JOIN_REQUEST"
)

type Notification struct {
	ID           string           `json:"id" gorm:"primaryKey;size:36"`
	ToUserID     string           `json:"toUserId" gorm:"not null;size:36;index"`
	FromUserID   string           `json:"fromUserId" gorm:"size:36"`
	FromUserName string           `json:"fromUserName,omitempty" gorm:"size:100"`
	Type         NotificationType `json:"type" gorm:"size:20"`
	TeamID       string           `json:"teamId,omitempty" gorm:"size:36"`
	TeamName     string           `json:"teamName,omitempty" gorm:"size:100"`
	Message      string           `json:"message,omitempty" gorm:"type:text"`
	Read         bool             `json:"read" gorm:"default:false;index"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
