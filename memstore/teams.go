package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

type teamRepo struct{ s *Store }

func getTeam(txn *memdb.Txn, id string) (*models.Team, error) {
	raw, err := txn.First(tableTeams, PK, id)
	if err != nil {
		return nil, internal("get team", err)
	}
	if raw == nil {
		return nil, apperr.ErrTeamNotFound
	}
	return raw.(*models.Team), nil
}

// withRoster copies t and attaches its members in join order.
func withRoster(txn *memdb.Txn, t *models.Team) (*models.Team, error) {
	members, err := listMembers(txn, t.ID)
	if err != nil {
		return nil, err
	}
	c := cloneTeam(t)
	c.Members = members
	return c, nil
}

func (r teamRepo) Get(_ context.Context, id string) (*models.Team, error) {
	var out *models.Team
	err := r.s.read(func(txn *memdb.Txn) error {
		t, err := getTeam(txn, id)
		if err != nil {
			return err
		}
		out, err = withRoster(txn, t)
		return err
	})
	return out, err
}

// Create stores the team document only; the roster is written through
// MemberRepository.
func (r teamRepo) Create(_ context.Context, t *models.Team) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TeamStatusForming
	}
	return r.s.write(func(txn *memdb.Txn) error {
		t.CreatedAt = r.s.clock.Now()
		if err := txn.Insert(tableTeams, cloneTeam(t)); err != nil {
			return internal("create team", err)
		}
		return nil
	})
}

func (r teamRepo) Update(_ context.Context, id string, u store.TeamUpdate) error {
	return r.s.write(func(txn *memdb.Txn) error {
		current, err := getTeam(txn, id)
		if err != nil {
			return err
		}
		t := cloneTeam(current)
		if u.Name != nil {
			t.Name = *u.Name
		}
		if u.Description != nil {
			t.Description = *u.Description
		}
		if u.Hackathon != nil {
			t.Hackathon = *u.Hackathon
		}
		if u.MaxMembers != nil {
			t.MaxMembers = *u.MaxMembers
		}
		if u.Status != nil {
			t.Status = *u.Status
		}
		if u.RolesNeeded != nil {
			t.RolesNeeded = slices.Clone(*u.RolesNeeded)
		}
		if err := txn.Insert(tableTeams, t); err != nil {
			return internal("update team", err)
		}
		return nil
	})
}

func (r teamRepo) Delete(_ context.Context, id string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		t, err := getTeam(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(tableTeams, t); err != nil {
			return internal("delete team", err)
		}
		return nil
	})
}

func (r teamRepo) List(_ context.Context, f store.TeamFilter) ([]models.Team, error) {
	var out []models.Team
	err := r.s.read(func(txn *memdb.Txn) error {
		var (
			it  memdb.ResultIterator
			err error
		)
		if f.Status != "" {
			it, err = txn.Get(tableTeams, statusIndex, string(f.Status))
		} else {
			it, err = txn.Get(tableTeams, PK)
		}
		if err != nil {
			return internal("list teams", err)
		}
		for raw := it.Next(); raw != nil; raw = it.Next() {
			t, err := withRoster(txn, raw.(*models.Team))
			if err != nil {
				return err
			}
			out = append(out, *t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Team{}
	}
	slices.SortFunc(out, func(a, b models.Team) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}
