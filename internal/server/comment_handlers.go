package server

import (
	"errors"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text string `json:"text"`
}

// ListComments returns a post's comments, oldest first.
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	comments, err := s.comments.ListComments(c.UserContext(), postID, s.currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// AddComment creates a comment under a post.
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.AddComment(c.UserContext(), postID, s.currentUserID(c), req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment edits a comment; author only.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}
	commentID, err := parseID(c, "commentID")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.UpdateComment(c.UserContext(), postID, commentID, s.currentUserID(c), req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment removes a comment; author only.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}
	commentID, err := parseID(c, "commentID")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	if err := s.comments.DeleteComment(c.UserContext(), postID, commentID, s.currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
