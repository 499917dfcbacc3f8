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

type postRepo struct{ s *Store }

func getPost(txn *memdb.Txn, id string) (*models.FeedPost, error) {
	raw, err := txn.First(tablePosts, PK, id)
	if err != nil {
		return nil, internal("get post", err)
	}
	if raw == nil {
		return nil, apperr.New(apperr.CodeNotFound, "post not found")
	}
	return raw.(*models.FeedPost), nil
}

func (r postRepo) Get(_ context.Context, id string) (*models.FeedPost, error) {
	var out *models.FeedPost
	err := r.s.read(func(txn *memdb.Txn) error {
		p, err := getPost(txn, id)
		if err != nil {
			return err
		}
		out = clonePost(p)
		return nil
	})
	return out, err
}

func (r postRepo) Create(_ context.Context, p *models.FeedPost) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.s.write(func(txn *memdb.Txn) error {
		p.CreatedAt = r.s.clock.Now()
		if err := txn.Insert(tablePosts, clonePost(p)); err != nil {
			return internal("create post", err)
		}
		return nil
	})
}

func (r postRepo) Update(_ context.Context, id string, u store.PostUpdate) error {
	return r.s.write(func(txn *memdb.Txn) error {
		current, err := getPost(txn, id)
		if err != nil {
			return err
		}
		p := clonePost(current)
		if u.Title != nil {
			p.Title = *u.Title
		}
		if u.Description != nil {
			p.Description = *u.Description
		}
		if u.Tags != nil {
			p.Tags = slices.Clone(*u.Tags)
		}
		if err := txn.Insert(tablePosts, p); err != nil {
			return internal("update post", err)
		}
		return nil
	})
}

func (r postRepo) Delete(_ context.Context, id string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		p, err := getPost(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(tablePosts, p); err != nil {
			return internal("delete post", err)
		}
		return nil
	})
}

func (r postRepo) List(_ context.Context, f store.PostFilter) ([]models.FeedPost, error) {
	var out []models.FeedPost
	err := r.s.read(func(txn *memdb.Txn) error {
		var (
			it  memdb.ResultIterator
			err error
		)
		if f.AuthorID != "" {
			it, err = txn.Get(tablePosts, authorIndex, f.AuthorID)
		} else {
			it, err = txn.Get(tablePosts, PK)
		}
		if err != nil {
			return internal("list posts", err)
		}
		out = collect[models.FeedPost](it, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b models.FeedPost) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	for i := range out {
		out[i] = *clonePost(&out[i])
	}
	return out, nil
}
