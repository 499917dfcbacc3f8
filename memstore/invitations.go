package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

type invitationRepo struct{ s *Store }

func (r invitationRepo) Get(_ context.Context, id string) (*models.Invitation, error) {
	var out *models.Invitation
	err := r.s.read(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableInvitations, PK, id)
		if err != nil {
			return internal("get invitation", err)
		}
		if raw == nil {
			return apperr.ErrInvitationNotFound
		}
		out = cloneInvitation(raw.(*models.Invitation))
		return nil
	})
	return out, err
}

func (r invitationRepo) Create(_ context.Context, inv *models.Invitation) error {
	return r.s.write(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableInvitations, fromIndex, inv.FromUserID)
		if err != nil {
			return internal("create invitation", err)
		}
		pending := collect(it, func(i *models.Invitation) bool {
			return i.TeamID == inv.TeamID && i.IsPending()
		})
		if len(pending) > 0 {
			return apperr.ErrDuplicateRequest
		}

		if inv.ID == "" {
			inv.ID = uuid.NewString()
		}
		if inv.Status == "" {
			inv.Status = models.InvitationPending
		}
		inv.CreatedAt = r.s.clock.Now()
		if err := txn.Insert(tableInvitations, cloneInvitation(inv)); err != nil {
			return internal("create invitation", err)
		}
		return nil
	})
}

func (r invitationRepo) Resolve(_ context.Context, id string, status models.InvitationStatus, at time.Time) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableInvitations, PK, id)
		if err != nil {
			return internal("resolve invitation", err)
		}
		if raw == nil {
			return apperr.ErrInvitationNotFound
		}
		inv := cloneInvitation(raw.(*models.Invitation))
		if !inv.IsPending() {
			return apperr.ErrInvitationResolved
		}
		inv.Status = status
		inv.RespondedAt = &at
		if err := txn.Insert(tableInvitations, inv); err != nil {
			return internal("resolve invitation", err)
		}
		return nil
	})
}

func (r invitationRepo) List(_ context.Context, f store.InvitationFilter) ([]models.Invitation, error) {
	var out []models.Invitation
	err := r.s.read(func(txn *memdb.Txn) error {
		var (
			it  memdb.ResultIterator
			err error
		)
		switch {
		case f.TeamID != "":
			it, err = txn.Get(tableInvitations, teamIndex, f.TeamID)
		case f.FromUserID != "":
			it, err = txn.Get(tableInvitations, fromIndex, f.FromUserID)
		case f.ToUserID != "":
			it, err = txn.Get(tableInvitations, toIndex, f.ToUserID)
		default:
			it, err = txn.Get(tableInvitations, PK)
		}
		if err != nil {
			return internal("list invitations", err)
		}
		out = collect(it, func(i *models.Invitation) bool {
			return (f.TeamID == "" || i.TeamID == f.TeamID) &&
				(f.FromUserID == "" || i.FromUserID == f.FromUserID) &&
				(f.ToUserID == "" || i.ToUserID == f.ToUserID) &&
				(f.Type == "" || i.Type == f.Type) &&
				(f.Status == "" || i.Status == f.Status)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b models.Invitation) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r invitationRepo) DeleteByTeam(_ context.Context, teamID string) (int, error) {
	var n int
	err := r.s.write(func(txn *memdb.Txn) error {
		var err error
		n, err = txn.DeleteAll(tableInvitations, teamIndex, teamID)
		if err != nil {
			return internal("delete invitations", err)
		}
		return nil
	})
	return n, err
}
