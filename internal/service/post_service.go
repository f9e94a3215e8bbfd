// Package service implements business logic between handlers and repositories.
// Services own the authorization decisions: visibility masking on reads and
// ownership gating on writes both happen here, never in handlers.
package service

import (
	"context"
	"strings"
	"time"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/policy"
	"quill/internal/repository"
)

// PostsPerPage is the fixed page size of every feed.
const PostsPerPage = 10

const maxTitleLength = 256

// CreatePostInput carries the fields for creating a post.
type CreatePostInput struct {
	AuthorID    uint
	Title       string
	Text        string
	CategoryID  *uint
	LocationID  *uint
	PubDate     time.Time
	IsPublished bool
}

// UpdatePostInput carries the full replacement state of a post; edits are
// whole-form, not partial.
type UpdatePostInput struct {
	Title       string
	Text        string
	CategoryID  *uint
	LocationID  *uint
	PubDate     time.Time
	IsPublished bool
}

// PostService handles post business logic.
type PostService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
}

// NewPostService creates a new PostService.
func NewPostService(posts repository.PostRepository, categories repository.CategoryRepository, users repository.UserRepository) *PostService {
	return &PostService{posts: posts, categories: categories, users: users}
}

// CreatePost validates the input and persists a new post. A zero PubDate
// defaults to now; a future PubDate schedules the post.
func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	if err := validatePostFields(input.Title, input.Text); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, models.NewValidationError("Category does not exist")
		}
	}

	pubDate := input.PubDate
	if pubDate.IsZero() {
		pubDate = time.Now()
	}

	post := &models.Post{
		Title:       strings.TrimSpace(input.Title),
		Text:        input.Text,
		AuthorID:    input.AuthorID,
		CategoryID:  input.CategoryID,
		LocationID:  input.LocationID,
		PubDate:     pubDate,
		IsPublished: input.IsPublished,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

// GetPost returns a post if the actor may see it. Posts hidden from the actor
// are reported as not found, exactly as if they did not exist.
func (s *PostService) GetPost(ctx context.Context, id, actorID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.IsVisible(post, actorID) {
		observability.HiddenLookupsTotal.Inc()
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// UpdatePost replaces a post's content. Only the author may edit; everyone
// else gets a denial, masked as not found when they could not see the post
// in the first place.
func (s *PostService) UpdatePost(ctx context.Context, id, actorID uint, input UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(post, actorID); err != nil {
		return nil, err
	}
	if err := validatePostFields(input.Title, input.Text); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, models.NewValidationError("Category does not exist")
		}
	}

	post.Title = strings.TrimSpace(input.Title)
	post.Text = input.Text
	post.CategoryID = input.CategoryID
	post.LocationID = input.LocationID
	if !input.PubDate.IsZero() {
		post.PubDate = input.PubDate
	}
	post.IsPublished = input.IsPublished

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

// DeletePost removes a post and its comments. Same gating as UpdatePost.
func (s *PostService) DeletePost(ctx context.Context, id, actorID uint) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(post, actorID); err != nil {
		return err
	}
	return s.posts.Delete(ctx, id)
}

// GlobalFeed returns one page of the public feed.
func (s *PostService) GlobalFeed(ctx context.Context, page int) ([]*models.Post, error) {
	return s.posts.ListFeed(ctx, PostsPerPage, (page-1)*PostsPerPage)
}

// CategoryFeed returns the category and one page of its public posts. An
// unknown or unpublished category is not found; its posts stay hidden either
// way.
func (s *PostService) CategoryFeed(ctx context.Context, slug string, page int) (*models.Category, []*models.Post, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	if category == nil || !category.IsPublished {
		return nil, nil, models.NewNotFoundError("Category", slug)
	}
	posts, err := s.posts.ListByCategory(ctx, category.ID, PostsPerPage, (page-1)*PostsPerPage)
	if err != nil {
		return nil, nil, err
	}
	return category, posts, nil
}

// AuthorFeed returns the profile user and one page of their posts as seen by
// the actor: the owner gets drafts and scheduled posts, everyone else the
// public subset.
func (s *PostService) AuthorFeed(ctx context.Context, username string, actorID uint, page int) (*models.User, []*models.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewNotFoundError("User", username)
	}
	posts, err := s.posts.ListByAuthor(ctx, user.ID, actorID, PostsPerPage, (page-1)*PostsPerPage)
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

// authorizeWrite enforces the ownership policy on a post. Denials against a
// post the actor cannot even see are masked as not found.
func (s *PostService) authorizeWrite(post *models.Post, actorID uint) error {
	if policy.CanModify(post, actorID) {
		return nil
	}
	observability.AuthzDenialsTotal.WithLabelValues("post").Inc()
	if !policy.IsVisible(post, actorID) {
		observability.HiddenLookupsTotal.Inc()
		return models.NewNotFoundError("Post", post.ID)
	}
	return models.NewUnauthorizedError("You can only modify your own posts")
}

func validatePostFields(title, text string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLength {
		return models.NewValidationError("Title is too long")
	}
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError("Text is required")
	}
	return nil
}
