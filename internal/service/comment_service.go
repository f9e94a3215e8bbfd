package service

import (
	"context"
	"strings"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/policy"
	"quill/internal/repository"
)

// CommentService handles comment business logic. Every operation is scoped to
// a parent post; a comment is only reachable when the actor can see that post.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// AddComment creates a comment under a post the actor can see.
func (s *CommentService) AddComment(ctx context.Context, postID, actorID uint, text string) (*models.Comment, error) {
	if actorID == policy.AnonymousID {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if _, err := s.visiblePost(ctx, postID, actorID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     text,
		AuthorID: actorID,
		PostID:   postID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// ListComments returns a post's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID, actorID uint) ([]*models.Comment, error) {
	if _, err := s.visiblePost(ctx, postID, actorID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// UpdateComment replaces a comment's text. Only its author may edit, and the
// comment must belong to the post named in the URL.
func (s *CommentService) UpdateComment(ctx context.Context, postID, commentID, actorID uint, text string) (*models.Comment, error) {
	comment, err := s.ownedComment(ctx, postID, commentID, actorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Comment text is required")
	}

	comment.Text = text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

// DeleteComment removes a comment. Same gating as UpdateComment.
func (s *CommentService) DeleteComment(ctx context.Context, postID, commentID, actorID uint) error {
	comment, err := s.ownedComment(ctx, postID, commentID, actorID)
	if err != nil {
		return err
	}
	return s.comments.Delete(ctx, comment.ID)
}

// visiblePost loads the parent post and masks it as not found when the actor
// may not see it.
func (s *CommentService) visiblePost(ctx context.Context, postID, actorID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.IsVisible(post, actorID) {
		observability.HiddenLookupsTotal.Inc()
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

// ownedComment resolves a comment within its post and enforces the ownership
// policy for writes.
func (s *CommentService) ownedComment(ctx context.Context, postID, commentID, actorID uint) (*models.Comment, error) {
	if _, err := s.visiblePost(ctx, postID, actorID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	if !policy.CanModify(comment, actorID) {
		observability.AuthzDenialsTotal.WithLabelValues("comment").Inc()
		return nil, models.NewUnauthorizedError("You can only modify your own comments")
	}
	return comment, nil
}
