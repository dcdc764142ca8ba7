// Package feed composes the post listings: global, group, author and
// following feeds, each paginated newest first.
package feed

import (
	"context"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
)

// Service builds paginated feeds on top of the repositories
type Service struct {
	posts    repositories.PostRepository
	groups   repositories.GroupRepository
	users    repositories.UserRepository
	follows  repositories.FollowRepository
	pageSize int
}

// NewService creates a feed Service. A pageSize below 1 selects DefaultPageSize.
func NewService(
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	pageSize int,
) *Service {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Service{
		posts:    postRepo,
		groups:   groupRepo,
		users:    userRepo,
		follows:  followRepo,
		pageSize: pageSize,
	}
}

// AuthorFeed is an author's posts plus what the viewer needs to render the
// profile header.
type AuthorFeed struct {
	Author    *models.User
	Page      *Page
	Following bool
	Followers int64
	Follows   int64
}

// Global lists every post
func (s *Service) Global(ctx context.Context, number int) (*Page, error) {
	return s.paginate(ctx, repositories.PostFilter{}, number)
}

// Group lists the posts filed under the group with slug
func (s *Service) Group(ctx context.Context, slug string, number int) (*models.Group, *Page, error) {
	group, err := s.groups.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.paginate(ctx, repositories.PostFilter{GroupID: &group.ID}, number)
	if err != nil {
		return nil, nil, err
	}
	return group, page, nil
}

// Author lists the posts of username. viewer may be nil for anonymous
// requests, in which case Following is false.
func (s *Service) Author(ctx context.Context, username string, viewer *models.User, number int) (*AuthorFeed, error) {
	author, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	page, err := s.paginate(ctx, repositories.PostFilter{AuthorID: &author.ID}, number)
	if err != nil {
		return nil, err
	}
	out := &AuthorFeed{Author: author, Page: page}
	if viewer != nil {
		if out.Following, err = s.follows.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return nil, err
		}
	}
	if out.Followers, err = s.follows.GetFollowersCount(ctx, author.ID); err != nil {
		return nil, err
	}
	if out.Follows, err = s.follows.GetFollowingCount(ctx, author.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// Following lists the posts of every author user follows. It is computed
// from the follow edges on each call.
func (s *Service) Following(ctx context.Context, user *models.User, number int) (*Page, error) {
	return s.paginate(ctx, repositories.PostFilter{FollowerID: &user.ID}, number)
}

func (s *Service) paginate(ctx context.Context, filter repositories.PostFilter, number int) (*Page, error) {
	count, err := s.posts.CountPosts(ctx, filter)
	if err != nil {
		return nil, err
	}
	number, numPages, offset, err := window(number, count, s.pageSize)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListPosts(ctx, filter, offset, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &Page{Posts: posts, Number: number, NumPages: numPages, Count: count}, nil
}
