package policy

import (
	"time"

	"quill/internal/models"

	"gorm.io/gorm"
)

// publicCond is the SQL form of the public visibility rule. It must stay in
// lockstep with IsVisibleAt: the repository tests assert that the scalar
// predicate and this set form agree on every post/actor combination.
const publicCond = "posts.is_published = ? AND posts.pub_date <= ? AND " +
	"(posts.category_id IS NULL OR EXISTS " +
	"(SELECT 1 FROM categories WHERE categories.id = posts.category_id AND categories.is_published = ?))"

// IsVisible reports whether the post may be read by the actor right now.
func IsVisible(post *models.Post, actorID uint) bool {
	return IsVisibleAt(post, actorID, time.Now())
}

// IsVisibleAt is the pure form of IsVisible. Authors see their own posts
// unconditionally, drafts and future-dated ones included. Everyone else sees
// a post only when it is published, its publication date has passed and its
// category, when set, is published. A post without a category is publicly
// visible.
func IsVisibleAt(post *models.Post, actorID uint, now time.Time) bool {
	if actorID != AnonymousID && actorID == post.AuthorID {
		return true
	}
	if !post.IsPublished || post.PubDate.After(now) {
		return false
	}
	if post.CategoryID == nil {
		return true
	}
	return post.Category != nil && post.Category.IsPublished
}

// VisibleTo returns a GORM scope selecting exactly the posts for which
// IsVisible holds. Pass AnonymousID for the public rule regardless of who is
// asking (the global feed does this on purpose).
func VisibleTo(actorID uint) func(*gorm.DB) *gorm.DB {
	return VisibleAt(actorID, time.Now())
}

// VisibleAt is the pure form of VisibleTo, evaluated against a fixed instant.
func VisibleAt(actorID uint, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actorID == AnonymousID {
			return db.Where(publicCond, true, now, true)
		}
		return db.Where("posts.author_id = ? OR ("+publicCond+")", actorID, true, now, true)
	}
}
