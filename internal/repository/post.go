// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/policy"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. The three
// List* methods are the feed query composers: they share the visibility scope
// from the policy package, annotate each row with comment_count and order by
// recency.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListFeed(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByCategory(ctx context.Context, categoryID uint, limit, offset int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID, actorID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads a single post with its relations and comment_count. It does
// NOT apply the visibility filter; callers decide whether the actor may see
// the post via policy.IsVisible so that hidden posts can be masked as not
// found without a second query.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// ListFeed returns the global feed: publicly visible posts regardless of who
// is asking, newest first.
func (r *postRepository) ListFeed(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	defer observability.ObserveFeedQuery("global", time.Now())

	var posts []*models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Scopes(policy.VisibleTo(policy.AnonymousID)).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("pub_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListByCategory returns publicly visible posts of one category. Callers are
// responsible for resolving the slug and rejecting unpublished categories.
func (r *postRepository) ListByCategory(ctx context.Context, categoryID uint, limit, offset int) ([]*models.Post, error) {
	defer observability.ObserveFeedQuery("category", time.Now())

	var posts []*models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Scopes(policy.VisibleTo(policy.AnonymousID)).
		Where("posts.category_id = ?", categoryID).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("pub_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListByAuthor returns one author's posts as seen by the actor: the author
// gets drafts and future posts included, everyone else the public view.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID, actorID uint, limit, offset int) ([]*models.Post, error) {
	defer observability.ObserveFeedQuery("author", time.Now())

	var posts []*models.Post
	err := r.withCommentCount(r.db.WithContext(ctx)).
		Scopes(policy.VisibleTo(actorID)).
		Where("posts.author_id = ?", authorID).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("pub_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// withCommentCount annotates posts with the live count of their comments.
// The aggregate is recomputed per query and never stored on the row.
func (r *postRepository) withCommentCount(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count")
}

// Update persists the post's own columns only. The association pointers are
// read state from Preload; saving them would let a stale Category or Location
// restore a foreign key the caller just cleared.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Category", "Location").Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post and its comments permanently. The comments are
// removed in the same transaction so the cascade holds on every database,
// not only those honoring the FK constraint.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
