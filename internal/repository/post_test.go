package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quill/internal/models"
	"quill/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A fresh :memory: database exists per connection; pin the pool to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Location{},
		&models.Post{},
		&models.Comment{},
	))
	return db
}

type fixtures struct {
	ann, bob       *models.User
	published      *models.Category
	hidden         *models.Category
	publicPost     *models.Post // by ann, published yesterday, published category
	futurePost     *models.Post // by ann, published tomorrow
	draftPost      *models.Post // by ann, unpublished
	hiddenCatPost  *models.Post // by ann, in unpublished category
	uncategorized  *models.Post // by ann, no category
	bobsPublicPost *models.Post // by bob, published yesterday
}

func seedPosts(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	f := fixtures{
		ann: &models.User{Username: "ann", Email: "ann@example.com", Password: "x"},
		bob: &models.User{Username: "bob", Email: "bob@example.com", Password: "x"},
	}
	require.NoError(t, db.Create(f.ann).Error)
	require.NoError(t, db.Create(f.bob).Error)

	f.published = &models.Category{Title: "Travel", Slug: "travel", IsPublished: true}
	f.hidden = &models.Category{Title: "Drafts", Slug: "drafts", IsPublished: false}
	require.NoError(t, db.Create(f.published).Error)
	require.NoError(t, db.Create(f.hidden).Error)

	yesterday := time.Now().Add(-24 * time.Hour)
	tomorrow := time.Now().Add(24 * time.Hour)

	f.publicPost = &models.Post{
		Title: "public", Text: "t", AuthorID: f.ann.ID,
		CategoryID: &f.published.ID, PubDate: yesterday, IsPublished: true,
	}
	f.futurePost = &models.Post{
		Title: "future", Text: "t", AuthorID: f.ann.ID,
		CategoryID: &f.published.ID, PubDate: tomorrow, IsPublished: true,
	}
	f.draftPost = &models.Post{
		Title: "draft", Text: "t", AuthorID: f.ann.ID,
		CategoryID: &f.published.ID, PubDate: yesterday, IsPublished: false,
	}
	f.hiddenCatPost = &models.Post{
		Title: "hidden category", Text: "t", AuthorID: f.ann.ID,
		CategoryID: &f.hidden.ID, PubDate: yesterday, IsPublished: true,
	}
	f.uncategorized = &models.Post{
		Title: "uncategorized", Text: "t", AuthorID: f.ann.ID,
		PubDate: yesterday, IsPublished: true,
	}
	f.bobsPublicPost = &models.Post{
		Title: "bobs", Text: "t", AuthorID: f.bob.ID,
		CategoryID: &f.published.ID, PubDate: yesterday.Add(-time.Hour), IsPublished: true,
	}

	for _, p := range []*models.Post{
		f.publicPost, f.futurePost, f.draftPost,
		f.hiddenCatPost, f.uncategorized, f.bobsPublicPost,
	} {
		require.NoError(t, db.Create(p).Error)
	}
	return f
}

// The scalar predicate and the set-returning scope must agree for every
// post/actor combination: no post may be included by one form and rejected
// by the other.
func TestVisibilityConsistency(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	now := time.Now()

	var posts []*models.Post
	require.NoError(t, db.Preload("Category").Find(&posts).Error)
	require.Len(t, posts, 6)

	for _, actorID := range []uint{policy.AnonymousID, f.ann.ID, f.bob.ID} {
		var visibleIDs []uint
		require.NoError(t, db.Model(&models.Post{}).
			Scopes(policy.VisibleAt(actorID, now)).
			Pluck("posts.id", &visibleIDs).Error)

		inSet := make(map[uint]bool, len(visibleIDs))
		for _, id := range visibleIDs {
			inSet[id] = true
		}

		for _, p := range posts {
			assert.Equal(t, policy.IsVisibleAt(p, actorID, now), inSet[p.ID],
				"post %q, actor %d: predicate and query form disagree", p.Title, actorID)
		}
	}
}

func TestPostRepository_ListFeed(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	posts, err := repo.ListFeed(ctx, 10, 0)
	require.NoError(t, err)

	// Only publicly visible posts, newest first.
	require.Len(t, posts, 3)
	assert.Equal(t, f.publicPost.ID, posts[0].ID)
	assert.Equal(t, f.uncategorized.ID, posts[1].ID)
	assert.Equal(t, f.bobsPublicPost.ID, posts[2].ID)
	assert.Equal(t, "ann", posts[0].Author.Username, "author must be preloaded")
}

func TestPostRepository_ListFeed_TiesBrokenByID(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)

	// Same pub_date as the existing public post: the newer row wins.
	twin := &models.Post{
		Title: "twin", Text: "t", AuthorID: f.ann.ID,
		CategoryID: &f.published.ID, PubDate: f.publicPost.PubDate, IsPublished: true,
	}
	require.NoError(t, db.Create(twin).Error)

	posts, err := repo.ListFeed(context.Background(), 10, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(posts), 2)
	assert.Equal(t, twin.ID, posts[0].ID)
	assert.Equal(t, f.publicPost.ID, posts[1].ID)
}

func TestPostRepository_ListFeed_Pagination(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// 3 public fixture posts + 9 extra = 12 visible.
	for i := 0; i < 9; i++ {
		require.NoError(t, db.Create(&models.Post{
			Title: fmt.Sprintf("extra %d", i), Text: "t", AuthorID: f.ann.ID,
			PubDate: time.Now().Add(-48 * time.Hour), IsPublished: true,
		}).Error)
	}

	page1, err := repo.ListFeed(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page1, 10)

	page2, err := repo.ListFeed(ctx, 10, 10)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	// Past the last page: empty, not an error.
	page3, err := repo.ListFeed(ctx, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestPostRepository_CommentCount(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.Comment{
			Text: "hi", AuthorID: f.bob.ID, PostID: f.publicPost.ID,
		}).Error)
	}

	post, err := repo.GetByID(ctx, f.publicPost.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, post.CommentCount)

	posts, err := repo.ListFeed(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, f.publicPost.ID, posts[0].ID)
	assert.Equal(t, 2, posts[0].CommentCount)
	assert.Equal(t, 0, posts[1].CommentCount)

	// The aggregate is recomputed per query, never cached on the row.
	require.NoError(t, db.Create(&models.Comment{
		Text: "one more", AuthorID: f.ann.ID, PostID: f.publicPost.ID,
	}).Error)
	post, err = repo.GetByID(ctx, f.publicPost.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, post.CommentCount)
}

func TestPostRepository_ListByCategory(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)

	posts, err := repo.ListByCategory(context.Background(), f.published.ID, 10, 0)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, f.publicPost.ID, posts[0].ID)
	assert.Equal(t, f.bobsPublicPost.ID, posts[1].ID)
}

func TestPostRepository_ListByAuthor(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// The author sees every own post, drafts and future ones included.
	own, err := repo.ListByAuthor(ctx, f.ann.ID, f.ann.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, own, 5)

	// A stranger sees only the public subset.
	public, err := repo.ListByAuthor(ctx, f.ann.ID, f.bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, f.publicPost.ID, public[0].ID)
	assert.Equal(t, f.uncategorized.ID, public[1].ID)

	// Anonymous gets the same public subset.
	anon, err := repo.ListByAuthor(ctx, f.ann.ID, policy.AnonymousID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, anon, 2)
}

// Clearing a foreign key must survive the round trip even though GetByID
// preloads the association: the stale pointer on the struct must not restore
// the cleared column on save.
func TestPostRepository_Update_ClearsCategory(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post, err := repo.GetByID(ctx, f.publicPost.ID)
	require.NoError(t, err)
	require.NotNil(t, post.Category, "fixture post must arrive with its category loaded")

	post.CategoryID = nil
	require.NoError(t, repo.Update(ctx, post))

	reloaded, err := repo.GetByID(ctx, f.publicPost.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CategoryID)
	assert.Nil(t, reloaded.Category)
}

func TestPostRepository_Update_ChangesCategory(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	other := &models.Category{Title: "Food", Slug: "food", IsPublished: true}
	require.NoError(t, db.Create(other).Error)

	post, err := repo.GetByID(ctx, f.publicPost.ID)
	require.NoError(t, err)
	post.CategoryID = &other.ID
	require.NoError(t, repo.Update(ctx, post))

	reloaded, err := repo.GetByID(ctx, f.publicPost.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.CategoryID)
	assert.Equal(t, other.ID, *reloaded.CategoryID)
}

func TestPostRepository_DeleteCascadesComments(t *testing.T) {
	db := setupTestDB(t)
	f := seedPosts(t, db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	for _, postID := range []uint{f.publicPost.ID, f.bobsPublicPost.ID} {
		require.NoError(t, db.Create(&models.Comment{
			Text: "hi", AuthorID: f.bob.ID, PostID: postID,
		}).Error)
	}

	require.NoError(t, repo.Delete(ctx, f.publicPost.ID))

	_, err := repo.GetByID(ctx, f.publicPost.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	var orphaned int64
	require.NoError(t, db.Model(&models.Comment{}).
		Where("post_id = ?", f.publicPost.ID).Count(&orphaned).Error)
	assert.Zero(t, orphaned, "comments must die with their post")

	// Comments of other posts are untouched.
	var remaining int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 4242)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
