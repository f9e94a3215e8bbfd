package server

import (
	"errors"

	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CurrentUser returns the authenticated user's own record.
func (s *Server) CurrentUser(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.UserContext(), s.currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetProfile returns a user's public profile.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	user, err := s.users.GetProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UserPosts returns one page of a user's posts as seen by the actor: the
// owner sees drafts and scheduled posts included, everyone else the public
// subset.
func (s *Server) UserPosts(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	user, posts, err := s.posts.AuthorFeed(c.UserContext(), c.Params("username"), s.currentUserID(c), page)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":  user,
		"posts": posts,
		"page":  page,
	})
}

// UpdateProfile edits a profile; the profile owner only.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if errors.Is(err, errResponseWritten) {
		return nil
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.users.UpdateProfile(c.UserContext(), id, s.currentUserID(c), service.UpdateProfileInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(updated)
}
