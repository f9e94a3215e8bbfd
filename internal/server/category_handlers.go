package server

import (
	"errors"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListCategories returns all published categories.
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.categoryRepo.ListPublished(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GetCategory returns one published category by slug. Unknown and unpublished
// categories are indistinguishable: both are 404.
func (s *Server) GetCategory(c *fiber.Ctx) error {
	category, err := s.categoryRepo.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if category == nil || !category.IsPublished {
		return respondServiceError(c, models.NewNotFoundError("Category", c.Params("slug")))
	}
	return c.JSON(category)
}

// CategoryPosts returns one page of a published category's public posts.
// Unknown and unpublished categories are indistinguishable: both are 404.
func (s *Server) CategoryPosts(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	category, posts, err := s.posts.CategoryFeed(c.UserContext(), c.Params("slug"), page)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"category": category,
		"posts":    posts,
		"page":     page,
	})
}
