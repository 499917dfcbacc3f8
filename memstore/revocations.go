package memstore

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"

	"teamup/models"
)

type revocationRepo struct{ s *Store }

func (r revocationRepo) Revoke(_ context.Context, t *models.RevokedToken) error {
	return r.s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(tableRevocations, PK, t.ID)
		if err != nil {
			return internal("revoke token", err)
		}
		if existing != nil {
			return nil
		}
		c := *t
		if err := txn.Insert(tableRevocations, &c); err != nil {
			return internal("revoke token", err)
		}
		return nil
	})
}

func (r revocationRepo) IsRevoked(_ context.Context, id string) (bool, error) {
	var revoked bool
	err := r.s.read(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableRevocations, PK, id)
		if err != nil {
			return internal("check revocation", err)
		}
		revoked = raw != nil
		return nil
	})
	return revoked, err
}

func (r revocationRepo) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	var purged int
	err := r.s.write(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableRevocations, PK)
		if err != nil {
			return internal("purge revocations", err)
		}
		expired := collect(it, func(t *models.RevokedToken) bool { return t.ExpiresAt.Before(now) })
		for i := range expired {
			if err := txn.Delete(tableRevocations, &expired[i]); err != nil {
				return internal("purge revocations", err)
			}
		}
		purged = len(expired)
		return nil
	})
	return purged, err
}
