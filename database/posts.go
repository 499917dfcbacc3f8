package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

var errPostNotFound = apperr.New(apperr.CodeNotFound, "post not found")

type postRepo struct{ s *Store }

func (r postRepo) Get(ctx context.Context, id string) (*models.FeedPost, error) {
	var p models.FeedPost
	if err := first(r.s.query(ctx).Where("id = ?", id), &p, errPostNotFound, "get post"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r postRepo) Create(ctx context.Context, p *models.FeedPost) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = r.s.clock.Now()
	if err := r.s.query(ctx).Create(p).Error; err != nil {
		return internal("create post", err)
	}
	return nil
}

func (r postRepo) Update(ctx context.Context, id string, u store.PostUpdate) error {
	var (
		p    models.FeedPost
		cols []string
	)
	if u.Title != nil {
		p.Title, cols = *u.Title, append(cols, "title")
	}
	if u.Description != nil {
		p.Description, cols = *u.Description, append(cols, "description")
	}
	if u.Tags != nil {
		p.Tags, cols = *u.Tags, append(cols, "tags")
	}
	if len(cols) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}

	res := r.s.query(ctx).Model(&models.FeedPost{}).Where("id = ?", id).Select(cols).Updates(&p)
	if res.Error != nil {
		return internal("update post", res.Error)
	}
	if res.RowsAffected == 0 {
		return errPostNotFound
	}
	return nil
}

func (r postRepo) Delete(ctx context.Context, id string) error {
	res := r.s.query(ctx).Where("id = ?", id).Delete(&models.FeedPost{})
	if res.Error != nil {
		return internal("delete post", res.Error)
	}
	if res.RowsAffected == 0 {
		return errPostNotFound
	}
	return nil
}

func (r postRepo) List(ctx context.Context, f store.PostFilter) ([]models.FeedPost, error) {
	q := r.s.query(ctx)
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	posts := []models.FeedPost{}
	if err := q.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, internal("list posts", err)
	}
	return posts, nil
}

type workspaceLogRepo struct{ s *Store }

func (r workspaceLogRepo) Create(ctx context.Context, l *models.WorkspaceLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = r.s.clock.Now()
	if err := r.s.query(ctx).Create(l).Error; err != nil {
		return internal("create workspace log", err)
	}
	return nil
}

func (r workspaceLogRepo) List(ctx context.Context, teamID string) ([]models.WorkspaceLog, error) {
	logs := []models.WorkspaceLog{}
	err := r.s.query(ctx).Where("team_id = ?", teamID).Order("created_at DESC").Find(&logs).Error
	if err != nil {
		return nil, internal("list workspace logs", err)
	}
	return logs, nil
}

type accountRepo struct{ s *Store }

var errAccountNotFound = apperr.New(apperr.CodeNotFound, "account not found")

func (r accountRepo) Create(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = r.s.clock.Now()
	err := r.s.query(ctx).Create(a).Error
	if isDuplicate(err) {
		return apperr.New(apperr.CodeEmailInUse, "email is already registered")
	}
	if err != nil {
		return internal("create account", err)
	}
	return nil
}

func (r accountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := first(r.s.query(ctx).Where("LOWER(email) = LOWER(?)", email), &a, errAccountNotFound, "get account"); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r accountRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res := r.s.query(ctx).Model(&models.Account{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return internal("touch login", res.Error)
	}
	if res.RowsAffected == 0 {
		return errAccountNotFound
	}
	return nil
}
