// database/migrate.go - Database Migration Runner
package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"teamup/models"
)

// RunMigrations creates every table and index the store relies on.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Profile{},
		&models.Team{},
		&models.TeamMember{},
		&models.Invitation{},
		&models.Notification{},
		&models.FeedPost{},
		&models.WorkspaceLog{},
		&models.RevokedToken{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return err
	}

	log.Info("migrations completed")
	return nil
}

var indexStatements = []string{
	// Profiles
	"CREATE INDEX IF NOT EXISTS idx_profiles_unassigned ON profiles(created_at DESC) WHERE team_id IS NULL",

	// Teams
	"CREATE INDEX IF NOT EXISTS idx_teams_status_created ON teams(status, created_at DESC)",

	// Team members
	"CREATE INDEX IF NOT EXISTS idx_team_members_team ON team_members(team_id, joined_at)",

	// Invitations: at most one pending invitation per (sender, team)
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending_pair ON invitations(from_user_id, team_id) WHERE status = 'pending'",
	"CREATE INDEX IF NOT EXISTS idx_invitations_to_status ON invitations(to_user_id, status)",

	// Notifications
	"CREATE INDEX IF NOT EXISTS idx_notifications_to_created ON notifications(to_user_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(to_user_id) WHERE read = false",

	// Feed
	"CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts(author_id, created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_workspace_logs_team_created ON workspace_logs(team_id, created_at DESC)",
}

func createIndexes(db *gorm.DB) error {
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Truncate empties every table the store owns.
func Truncate(db *gorm.DB) error {
	err := db.Exec("TRUNCATE accounts, profiles, teams, team_members, invitations, " +
		"notifications, posts, workspace_logs, revoked_tokens").Error
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}
