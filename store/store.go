// Package store defines the document-store contract the services run on.
// Implementations: database.Store (gorm/PostgreSQL) and memstore.Store
// (go-memdb).
package store

import (
	"context"
	"time"

	"teamup/models"
)

// DefaultListLimit caps notification and feed queries.
const DefaultListLimit = 50

// Store groups the per-collection repositories.
type Store interface {
	Profiles() ProfileRepository
	Teams() TeamRepository
	Members() MemberRepository
	Invitations() InvitationRepository
	Notifications() NotificationRepository
	Posts() PostRepository
	WorkspaceLogs() WorkspaceLogRepository
	Accounts() AccountRepository
	Revocations() RevocationRepository

	// Atomic runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling Atomic on a transaction-bound Store runs fn in the same
	// transaction.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

type ProfileFilter struct {
	// Unassigned keeps only profiles with no team.
	Unassigned  bool
	PrimaryRole models.Role
	ExcludeID   string
}

// ProfileUpdate is a partial merge; nil fields are left untouched.
type ProfileUpdate struct {
	FullName    *string
	College     *string
	YearOfStudy *string
	PrimaryRole *models.Role
	Skills      *[]models.Skill
	Bio         *string
	Avatar      *string
	Membership  *models.Membership
}

type ProfileRepository interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	Update(ctx context.Context, id string, u ProfileUpdate) error
	// List returns profiles newest first.
	List(ctx context.Context, f ProfileFilter) ([]models.Profile, error)
}

type TeamFilter struct {
	Status models.TeamStatus
}

type TeamUpdate struct {
	Name        *string
	Description *string
	Hackathon   *string
	MaxMembers  *int
	Status      *models.TeamStatus
	RolesNeeded *[]string
}

// TeamRepository returns teams with Members populated in join order.
type TeamRepository interface {
	Get(ctx context.Context, id string) (*models.Team, error)
	Create(ctx context.Context, t *models.Team) error
	Update(ctx context.Context, id string, u TeamUpdate) error
	Delete(ctx context.Context, id string) error
	// List returns teams newest first.
	List(ctx context.Context, f TeamFilter) ([]models.Team, error)
}

// MemberRepository is the roster sub-collection keyed by (teamID, userID).
type MemberRepository interface {
	// Add fails with ALREADY_IN_TEAM when the user is on any roster.
	Add(ctx context.Context, m *models.TeamMember) error
	Remove(ctx context.Context, teamID, userID string) error
	List(ctx context.Context, teamID string) ([]models.TeamMember, error)
	Count(ctx context.Context, teamID string) (int, error)
	DeleteByTeam(ctx context.Context, teamID string) (int, error)
}

type InvitationFilter struct {
	TeamID     string
	FromUserID string
	ToUserID   string
	Type       models.InvitationType
	Status     models.InvitationStatus
}

type InvitationRepository interface {
	Get(ctx context.Context, id string) (*models.Invitation, error)
	// Create fails with DUPLICATE_REQUEST when a pending invitation exists
	// for the same (FromUserID, TeamID).
	Create(ctx context.Context, inv *models.Invitation) error
	// Resolve moves a pending invitation to status. It fails with NOT_FOUND
	// when the invitation is absent or no longer pending.
	Resolve(ctx context.Context, id string, status models.InvitationStatus, at time.Time) error
	// List returns invitations newest first.
	List(ctx context.Context, f InvitationFilter) ([]models.Invitation, error)
	DeleteByTeam(ctx context.Context, teamID string) (int, error)
}

type NotificationFilter struct {
	ToUserID   string
	UnreadOnly bool
	Limit      int
}

type NotificationRepository interface {
	Get(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, n *models.Notification) error
	// List returns notifications newest first.
	List(ctx context.Context, f NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, toUserID string) (int, error)
	CountUnread(ctx context.Context, toUserID string) (int, error)
}

type PostFilter struct {
	AuthorID string
	Limit    int
}

type PostUpdate struct {
	Title       *string
	Description *string
	Tags        *[]string
}

type PostRepository interface {
	Get(ctx context.Context, id string) (*models.FeedPost, error)
	Create(ctx context.Context, p *models.FeedPost) error
	Update(ctx context.Context, id string, u PostUpdate) error
	Delete(ctx context.Context, id string) error
	// List returns posts newest first.
	List(ctx context.Context, f PostFilter) ([]models.FeedPost, error)
}

type WorkspaceLogRepository interface {
	Create(ctx context.Context, l *models.WorkspaceLog) error
	// List returns a team's entries newest first.
	List(ctx context.Context, teamID string) ([]models.WorkspaceLog, error)
}

type AccountRepository interface {
	// Create fails with EMAIL_IN_USE when the email is taken.
	Create(ctx context.Context, a *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// RevocationRepository records logged-out tokens. It lives in the store so
// every server instance sharing it rejects the same tokens.
type RevocationRepository interface {
	// Revoke is idempotent.
	Revoke(ctx context.Context, t *models.RevokedToken) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	// PurgeExpired deletes entries whose token expired before now.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
