package memstore

import (
	"context"
	"slices"

	"github.com/hashicorp/go-memdb"

	"teamup/apperr"
	"teamup/models"
)

type memberRepo struct{ s *Store }

func listMembers(txn *memdb.Txn, teamID string) ([]models.TeamMember, error) {
	it, err := txn.Get(tableMembers, teamIndex, teamID)
	if err != nil {
		return nil, internal("list members", err)
	}
	members := collect[models.TeamMember](it, nil)
	slices.SortFunc(members, func(a, b models.TeamMember) int { return a.JoinedAt.Compare(b.JoinedAt) })
	return members, nil
}

func (r memberRepo) Add(_ context.Context, m *models.TeamMember) error {
	return r.s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(tableMembers, userIndex, m.UserID)
		if err != nil {
			return internal("add member", err)
		}
		if existing != nil {
			return apperr.ErrAlreadyInTeam
		}
		if m.JoinedAt.IsZero() {
			m.JoinedAt = r.s.clock.Now()
		}
		c := *m
		if err := txn.Insert(tableMembers, &c); err != nil {
			return internal("add member", err)
		}
		return nil
	})
}

func (r memberRepo) Remove(_ context.Context, teamID, userID string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableMembers, PK, teamID, userID)
		if err != nil {
			return internal("remove member", err)
		}
		if raw == nil {
			return apperr.New(apperr.CodeNotFound, "user is not a member of this team")
		}
		if err := txn.Delete(tableMembers, raw); err != nil {
			return internal("remove member", err)
		}
		return nil
	})
}

func (r memberRepo) List(_ context.Context, teamID string) ([]models.TeamMember, error) {
	var out []models.TeamMember
	err := r.s.read(func(txn *memdb.Txn) error {
		var err error
		out, err = listMembers(txn, teamID)
		return err
	})
	return out, err
}

func (r memberRepo) Count(ctx context.Context, teamID string) (int, error) {
	members, err := r.List(ctx, teamID)
	return len(members), err
}

func (r memberRepo) DeleteByTeam(_ context.Context, teamID string) (int, error) {
	var n int
	err := r.s.write(func(txn *memdb.Txn) error {
		var err error
		n, err = txn.DeleteAll(tableMembers, teamIndex, teamID)
		if err != nil {
			return internal("delete members", err)
		}
		return nil
	})
	return n, err
}
