// services/feed_service.go - Activity feed and team workspace timeline
package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"teamup/apperr"
	"teamup/events"
	"teamup/models"
	"teamup/realtime"
	"teamup/store"
)

type FeedService struct {
	base
}

type PostInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// CreatePost appends a system or user post as given.
func (s *FeedService) CreatePost(ctx context.Context, p *models.FeedPost) (*models.FeedPost, error) {
	if p.AuthorID == "" || p.Type == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "authorId and type are required")
	}
	if s.degraded() {
		return nil, nil
	}
	if err := s.store.Posts().Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Posts)
	return p, nil
}

// CreateUserPost publishes a free-form post authored by userID.
func (s *FeedService) CreateUserPost(ctx context.Context, userID string, in PostInput) (*models.FeedPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "title is required")
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if s.degraded() {
		return nil, nil
	}

	author, err := s.store.Profiles().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.CreatePost(ctx, &models.FeedPost{
		AuthorID:     author.ID,
		AuthorName:   author.DisplayName(),
		AuthorAvatar: author.Avatar,
		AuthorRole:   author.PrimaryRole,
		Type:         models.PostUser,
		Title:        in.Title,
		Description:  in.Description,
		Tags:         in.Tags,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("post created", zap.String("post_id", post.ID), zap.String("author_id", userID))
	return post, nil
}

// UpdatePost rewrites title, description and tags of the author's post.
func (s *FeedService) UpdatePost(ctx context.Context, postID, userID string, in PostInput) (*models.FeedPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "title is required")
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if s.degraded() {
		return nil, nil
	}

	if err := s.authorize(ctx, postID, userID); err != nil {
		return nil, err
	}
	err := s.store.Posts().Update(ctx, postID, store.PostUpdate{
		Title:       &in.Title,
		Description: &in.Description,
		Tags:        &in.Tags,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Posts)
	return s.store.Posts().Get(ctx, postID)
}

func (s *FeedService) DeletePost(ctx context.Context, postID, userID string) error {
	if s.degraded() {
		return nil
	}
	if err := s.authorize(ctx, postID, userID); err != nil {
		return err
	}
	if err := s.store.Posts().Delete(ctx, postID); err != nil {
		return err
	}
	s.publish(ctx, events.Posts)
	return nil
}

func (s *FeedService) authorize(ctx context.Context, postID, userID string) error {
	post, err := s.store.Posts().Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return apperr.New(apperr.CodeForbidden, "only the author can change this post")
	}
	return nil
}

// UserPosts returns every post by userID, newest first.
func (s *FeedService) UserPosts(ctx context.Context, userID string) ([]models.FeedPost, error) {
	if s.degraded() {
		return empty[models.FeedPost](), nil
	}
	return s.store.Posts().List(ctx, store.PostFilter{AuthorID: userID})
}

// Feed returns the newest posts across all authors.
func (s *FeedService) Feed(ctx context.Context) ([]models.FeedPost, error) {
	if s.degraded() {
		return empty[models.FeedPost](), nil
	}
	return s.store.Posts().List(ctx, store.PostFilter{Limit: store.DefaultListLimit})
}

func (s *FeedService) SubscribeFeed(fn func([]models.FeedPost)) *realtime.Subscription {
	return realtime.Watch(s.hub, s.Feed, fn, events.Posts)
}

func (s *FeedService) SubscribeUserPosts(userID string, fn func([]models.FeedPost)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]models.FeedPost, error) {
		return s.UserPosts(ctx, userID)
	}, fn, events.Posts)
}

// ================== WORKSPACE ==================

type WorkspaceService struct {
	base
}

// AddLog appends an entry to the team timeline. Only members may write.
func (s *WorkspaceService) AddLog(ctx context.Context, teamID, userID, message string) (*models.WorkspaceLog, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "message is required")
	}
	if s.degraded() {
		return nil, nil
	}

	team, err := s.store.Teams().Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	var name string
	for _, m := range team.Members {
		if m.UserID == userID {
			name = m.UserName
		}
	}
	if !team.HasMember(userID) {
		return nil, apperr.New(apperr.CodeForbidden, "only team members can write to the workspace")
	}

	entry := &models.WorkspaceLog{TeamID: teamID, UserID: userID, UserName: name, Message: message}
	if err := s.store.WorkspaceLogs().Create(ctx, entry); err != nil {
		return nil, err
	}
	s.publish(ctx, events.WorkspaceLogs)
	return entry, nil
}

func (s *WorkspaceService) Logs(ctx context.Context, teamID string) ([]models.WorkspaceLog, error) {
	if s.degraded() {
		return empty[models.WorkspaceLog](), nil
	}
	return s.store.WorkspaceLogs().List(ctx, teamID)
}

func (s *WorkspaceService) Subscribe(teamID string, fn func([]models.WorkspaceLog)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]models.WorkspaceLog, error) {
		return s.Logs(ctx, teamID)
	}, fn, events.WorkspaceLogs)
}
