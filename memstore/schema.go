package memstore

import (
	"github.com/hashicorp/go-memdb"
)

const (
	tableProfiles      = "profiles"
	tableTeams         = "teams"
	tableMembers       = "team_members"
	tableInvitations   = "invitations"
	tableNotifications = "notifications"
	tablePosts         = "posts"
	tableWorkspaceLogs = "workspace_logs"
	tableAccounts      = "accounts"
	tableRevocations   = "revoked_tokens"

	PK          = "id"
	teamIndex   = "team_id"
	userIndex   = "user_id"
	statusIndex = "status"
	fromIndex   = "from_user_id"
	toIndex     = "to_user_id"
	authorIndex = "author_id"
	emailIndex  = "email"
)

func stringIndex(name, field string) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    name,
		Indexer: &memdb.StringFieldIndex{Field: field},
	}
}

func optionalStringIndex(name, field string) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:         name,
		AllowMissing: true,
		Indexer:      &memdb.StringFieldIndex{Field: field},
	}
}

func pkIndex(field string) *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    PK,
		Unique:  true,
		Indexer: &memdb.StringFieldIndex{Field: field},
	}
}

// Schema is the go-memdb schema of every collection.
func Schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableProfiles: {
				Name: tableProfiles,
				Indexes: map[string]*memdb.IndexSchema{
					PK:        pkIndex("ID"),
					teamIndex: optionalStringIndex(teamIndex, "TeamID"),
				},
			},
			tableTeams: {
				Name: tableTeams,
				Indexes: map[string]*memdb.IndexSchema{
					PK:          pkIndex("ID"),
					statusIndex: stringIndex(statusIndex, "Status"),
				},
			},
			tableMembers: {
				Name: tableMembers,
				Indexes: map[string]*memdb.IndexSchema{
					PK: {
						Name:   PK,
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "TeamID"},
								&memdb.StringFieldIndex{Field: "UserID"},
							},
						},
					},
					teamIndex: stringIndex(teamIndex, "TeamID"),
					userIndex: {
						Name:    userIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "UserID"},
					},
				},
			},
			tableInvitations: {
				Name: tableInvitations,
				Indexes: map[string]*memdb.IndexSchema{
					PK:        pkIndex("ID"),
					teamIndex: stringIndex(teamIndex, "TeamID"),
					fromIndex: stringIndex(fromIndex, "FromUserID"),
					toIndex:   stringIndex(toIndex, "ToUserID"),
				},
			},
			tableNotifications: {
				Name: tableNotifications,
				Indexes: map[string]*memdb.IndexSchema{
					PK:      pkIndex("ID"),
					toIndex: stringIndex(toIndex, "ToUserID"),
				},
			},
			tablePosts: {
				Name: tablePosts,
				Indexes: map[string]*memdb.IndexSchema{
					PK:          pkIndex("ID"),
					authorIndex: stringIndex(authorIndex, "AuthorID"),
				},
			},
			tableWorkspaceLogs: {
				Name: tableWorkspaceLogs,
				Indexes: map[string]*memdb.IndexSchema{
					PK:        pkIndex("ID"),
					teamIndex: stringIndex(teamIndex, "TeamID"),
				},
			},
			tableRevocations: {
				Name: tableRevocations,
				Indexes: map[string]*memdb.IndexSchema{
					PK: pkIndex("ID"),
				},
			},
			tableAccounts: {
				Name: tableAccounts,
				Indexes: map[string]*memdb.IndexSchema{
					PK: pkIndex("ID"),
					emailIndex: {
						Name:    emailIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
		},
	}
}
