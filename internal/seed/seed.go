// Package seed fills a development database with fake but realistic content.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	userCount     = 8
	postsPerUser  = 6
	maxComments   = 5
	seedPassword  = "quill-dev-pass1"
	categoryCount = 5
)

// Run populates the database with users, categories, locations, posts and
// comments. The mix deliberately includes drafts, scheduled posts and an
// unpublished category so every visibility path has data behind it.
func Run(ctx context.Context, db *gorm.DB) error {
	gofakeit.Seed(0)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var users []*models.User
	for i := 0; i < userCount; i++ {
		user := &models.User{
			Username:  fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			Email:     gofakeit.Email(),
			Password:  string(hash),
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
		}
		if err := db.WithContext(ctx).Create(user).Error; err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		users = append(users, user)
	}

	var categories []*models.Category
	for i := 0; i < categoryCount; i++ {
		word := strings.ToLower(gofakeit.Noun())
		category := &models.Category{
			Title:       strings.ToUpper(word[:1]) + word[1:],
			Description: gofakeit.Sentence(8),
			Slug:        fmt.Sprintf("%s-%d", word, i),
			// One category stays unpublished so its posts are hidden.
			IsPublished: i != 0,
		}
		if err := db.WithContext(ctx).Create(category).Error; err != nil {
			return fmt.Errorf("seed category: %w", err)
		}
		categories = append(categories, category)
	}

	var locations []*models.Location
	for i := 0; i < 4; i++ {
		location := &models.Location{Name: gofakeit.City(), IsPublished: true}
		if err := db.WithContext(ctx).Create(location).Error; err != nil {
			return fmt.Errorf("seed location: %w", err)
		}
		locations = append(locations, location)
	}

	var posts []*models.Post
	for _, user := range users {
		for i := 0; i < postsPerUser; i++ {
			post := &models.Post{
				Title:       gofakeit.Sentence(5),
				Text:        gofakeit.Paragraph(3, 4, 12, "\n\n"),
				AuthorID:    user.ID,
				PubDate:     gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now().AddDate(0, 0, 7)),
				IsPublished: gofakeit.Number(0, 9) > 1,
			}
			if gofakeit.Bool() {
				post.CategoryID = &categories[gofakeit.Number(0, len(categories)-1)].ID
			}
			if gofakeit.Bool() {
				post.LocationID = &locations[gofakeit.Number(0, len(locations)-1)].ID
			}
			if err := db.WithContext(ctx).Create(post).Error; err != nil {
				return fmt.Errorf("seed post: %w", err)
			}
			posts = append(posts, post)
		}
	}

	commentCount := 0
	for _, post := range posts {
		for i := 0; i < gofakeit.Number(0, maxComments); i++ {
			comment := &models.Comment{
				Text:     gofakeit.Sentence(10),
				AuthorID: users[gofakeit.Number(0, len(users)-1)].ID,
				PostID:   post.ID,
			}
			if err := db.WithContext(ctx).Create(comment).Error; err != nil {
				return fmt.Errorf("seed comment: %w", err)
			}
			commentCount++
		}
	}

	middleware.Logger.Info("Database seeded",
		"users", len(users),
		"categories", len(categories),
		"posts", len(posts),
		"comments", commentCount,
	)
	return nil
}
