package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamup/apperr"
	"teamup/store"
)

// Store implements store.Store on PostgreSQL. Inside Atomic every point
// lookup takes a row lock (SELECT ... FOR UPDATE), so preconditions checked
// in the transaction hold until it commits.
type Store struct {
	db    *gorm.DB
	inTx  bool
	clock *store.Clock
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, clock: &store.Clock{}}
}

func (s *Store) Profiles() store.ProfileRepository           { return profileRepo{s} }
func (s *Store) Teams() store.TeamRepository                 { return teamRepo{s} }
func (s *Store) Members() store.MemberRepository             { return memberRepo{s} }
func (s *Store) Invitations() store.InvitationRepository     { return invitationRepo{s} }
func (s *Store) Notifications() store.NotificationRepository { return notificationRepo{s} }
func (s *Store) Posts() store.PostRepository                 { return postRepo{s} }
func (s *Store) WorkspaceLogs() store.WorkspaceLogRepository { return workspaceLogRepo{s} }
func (s *Store) Accounts() store.AccountRepository           { return accountRepo{s} }
func (s *Store) Revocations() store.RevocationRepository     { return revocationRepo{s} }

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true, clock: s.clock})
	})
}

func (s *Store) query(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// locked is query with a row lock when running inside Atomic.
func (s *Store) locked(ctx context.Context) *gorm.DB {
	q := s.query(ctx)
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// first runs a point lookup, mapping a missing row to notFound.
func first(q *gorm.DB, dest any, notFound error, op string) error {
	err := q.Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if err != nil {
		return internal(op, err)
	}
	return nil
}

func internal(op string, err error) error {
	return apperr.Wrap(err, apperr.CodeInternal, "database: "+op)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
