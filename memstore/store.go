// Package memstore implements store.Store on hashicorp/go-memdb. Write
// transactions are serialised by go-memdb, so Atomic gives the membership
// protocol full isolation.
package memstore

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"teamup/apperr"
	"teamup/store"
)

type Store struct {
	db    *memdb.MemDB
	txn   *memdb.Txn
	clock *store.Clock
}

func New() (*Store, error) {
	db, err := memdb.NewMemDB(Schema())
	if err != nil {
		return nil, fmt.Errorf("memstore: %w", err)
	}
	return &Store{db: db, clock: &store.Clock{}}, nil
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
	if s.txn != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(&Store{db: s.db, txn: txn, clock: s.clock}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) read(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(txn)
}

func (s *Store) write(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func internal(op string, err error) error {
	return apperr.Wrap(err, apperr.CodeInternal, "memstore: "+op)
}

// collect drains an iterator into typed values.
func collect[T any](it memdb.ResultIterator, keep func(*T) bool) []T {
	out := []T{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		obj := raw.(*T)
		if keep == nil || keep(obj) {
			out = append(out, *obj)
		}
	}
	return out
}
