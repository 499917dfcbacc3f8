package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"teamup/apperr"
	"teamup/models"
)

type accountRepo struct{ s *Store }

func (r accountRepo) Create(_ context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return r.s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(tableAccounts, emailIndex, a.Email)
		if err != nil {
			return internal("create account", err)
		}
		if existing != nil {
			return apperr.New(apperr.CodeEmailInUse, "email is already registered")
		}
		a.CreatedAt = r.s.clock.Now()
		c := *a
		if err := txn.Insert(tableAccounts, &c); err != nil {
			return internal("create account", err)
		}
		return nil
	})
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	var out *models.Account
	err := r.s.read(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableAccounts, emailIndex, email)
		if err != nil {
			return internal("get account", err)
		}
		if raw == nil {
			return apperr.New(apperr.CodeNotFound, "account not found")
		}
		c := *raw.(*models.Account)
		out = &c
		return nil
	})
	return out, err
}

func (r accountRepo) TouchLogin(_ context.Context, id string, at time.Time) error {
	return r.s.write(func(txn *memdb.Txn) error {
		raw, err := txn.First(tableAccounts, PK, id)
		if err != nil {
			return internal("touch login", err)
		}
		if raw == nil {
			return apperr.New(apperr.CodeNotFound, "account not found")
		}
		c := *raw.(*models.Account)
		c.LastLogin = &at
		if err := txn.Insert(tableAccounts, &c); err != nil {
			return internal("touch login", err)
		}
		return nil
	})
}
