package server

import (
	"errors"
	"time"

	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	CategoryID  *uint     `json:"category_id"`
	LocationID  *uint     `json:"location_id"`
	PubDate     time.Time `json:"pub_date"`
	IsPublished *bool     `json:"is_published"`
}

func (r *postRequest) published() bool {
	// Posts are published unless the author says otherwise.
	return r.IsPublished == nil || *r.IsPublished
}

// ListPosts returns one page of the public feed.
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	posts, err := s.posts.GlobalFeed(c.UserContext(), page)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts": posts,
		"page":  page,
	})
}

// CreatePost creates a post authored by the authenticated user.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID:    s.currentUserID(c),
		Title:       req.Title,
		Text:        req.Text,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
		PubDate:     req.PubDate,
		IsPublished: req.published(),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost returns a single post the actor may see.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	post, err := s.posts.GetPost(c.UserContext(), id, s.currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost replaces a post's content; author only.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.UpdatePost(c.UserContext(), id, s.currentUserID(c), service.UpdatePostInput{
		Title:       req.Title,
		Text:        req.Text,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
		PubDate:     req.PubDate,
		IsPublished: req.published(),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost removes a post and its comments; author only.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	if err := s.posts.DeletePost(c.UserContext(), id, s.currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
