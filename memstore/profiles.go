package memstore

import (
	"context"
	"slices"

	"github.com/hashicorp/go-memdb"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

type profileRepo struct{ s *Store }

func getProfile(txn *memdb.Txn, id string) (*models.Profile, error) {
	raw, err := txn.First(tableProfiles, PK, id)
	if err != nil {
		return nil, internal("get profile", err)
	}
	if raw == nil {
		return nil, apperr.ErrProfileNotFound
	}
	return raw.(*models.Profile), nil
}

func (r profileRepo) Get(_ context.Context, id string) (*models.Profile, error) {
	var out *models.Profile
	err := r.s.read(func(txn *memdb.Txn) error {
		p, err := getProfile(txn, id)
		if err != nil {
			return err
		}
		out = cloneProfile(p)
		return nil
	})
	return out, err
}

func (r profileRepo) Create(_ context.Context, p *models.Profile) error {
	if p.ID == "" {
		return apperr.New(apperr.CodeInvalidArgument, "profile id is required")
	}
	return r.s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(tableProfiles, PK, p.ID)
		if err != nil {
			return internal("create profile", err)
		}
		if existing != nil {
			return apperr.Newf(apperr.CodeInvalidArgument, "profile %s already exists", p.ID)
		}
		p.CreatedAt = r.s.clock.Now()
		if err := txn.Insert(tableProfiles, cloneProfile(p)); err != nil {
			return internal("create profile", err)
		}
		return nil
	})
}

func (r profileRepo) Update(_ context.Context, id string, u store.ProfileUpdate) error {
	return r.s.write(func(txn *memdb.Txn) error {
		current, err := getProfile(txn, id)
		if err != nil {
			return err
		}
		p := cloneProfile(current)
		applyProfileUpdate(p, u)
		if err := txn.Insert(tableProfiles, p); err != nil {
			return internal("update profile", err)
		}
		return nil
	})
}

func applyProfileUpdate(p *models.Profile, u store.ProfileUpdate) {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.College != nil {
		p.College = *u.College
	}
	if u.YearOfStudy != nil {
		p.YearOfStudy = *u.YearOfStudy
	}
	if u.PrimaryRole != nil {
		p.PrimaryRole = *u.PrimaryRole
	}
	if u.Skills != nil {
		p.Skills = slices.Clone(*u.Skills)
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	if u.Membership != nil {
		p.TeamID = nil
		if u.Membership.TeamID != nil {
			id := *u.Membership.TeamID
			p.TeamID = &id
		}
		p.IsTeamLeader = u.Membership.IsTeamLeader
	}
}

func (r profileRepo) List(_ context.Context, f store.ProfileFilter) ([]models.Profile, error) {
	var out []models.Profile
	err := r.s.read(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableProfiles, PK)
		if err != nil {
			return internal("list profiles", err)
		}
		out = collect(it, func(p *models.Profile) bool {
			if f.ExcludeID != "" && p.ID == f.ExcludeID {
				return false
			}
			if f.Unassigned && p.HasTeam() {
				return false
			}
			return f.PrimaryRole == "" || p.PrimaryRole == f.PrimaryRole
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = *cloneProfile(&out[i])
	}
	slices.SortFunc(out, func(a, b models.Profile) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}
