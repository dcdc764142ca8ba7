package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/feed"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// UserHandler serves author profiles
type UserHandler struct {
	feed *feed.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(feedService *feed.Service) *UserHandler {
	return &UserHandler{feed: feedService}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile/:username/", h.Profile)
}

// Profile renders an author's posts with the follower counters and the
// follow state of the viewer.
func (h *UserHandler) Profile(c echo.Context) error {
	viewer := middleware.CurrentUser(c)
	author, err := h.feed.Author(c.Request().Context(), c.Param("username"), viewer, pageNumber(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "posts/profile.html", echo.Map{
		"Author":    author.Author,
		"Page":      author.Page,
		"Following": author.Following,
		"Followers": author.Followers,
		"Follows":   author.Follows,
		"IsSelf":    viewer != nil && viewer.ID == author.Author.ID,
	})
}
