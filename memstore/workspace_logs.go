package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"teamup/models"
)

type workspaceLogRepo struct{ s *Store }

func (r workspaceLogRepo) Create(_ context.Context, l *models.WorkspaceLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return r.s.write(func(txn *memdb.Txn) error {
		l.CreatedAt = r.s.clock.Now()
		c := *l
		if err := txn.Insert(tableWorkspaceLogs, &c); err != nil {
			return internal("create workspace log", err)
		}
		return nil
	})
}

func (r workspaceLogRepo) List(_ context.Context, teamID string) ([]models.WorkspaceLog, error) {
	var out []models.WorkspaceLog
	err := r.s.read(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableWorkspaceLogs, teamIndex, teamID)
		if err != nil {
			return internal("list workspace logs", err)
		}
		out = collect[models.WorkspaceLog](it, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b models.WorkspaceLog) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}
