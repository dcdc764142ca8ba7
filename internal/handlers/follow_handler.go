package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/feed"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const followIndexURL = "/follow/"

// FollowHandler handles the following feed and follow/unfollow requests
type FollowHandler struct {
	feed             *feed.Service
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(feedService *feed.Service, followRepo repositories.FollowRepository, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		feed:             feedService,
		followRepository: followRepo,
		userRepository:   userRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes. All of them need a
// signed-in user.
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group, loginRequired echo.MiddlewareFunc) {
	g.GET("/follow/", h.FollowIndex, loginRequired)
	g.GET("/profile/:username/follow/", h.ProfileFollow, loginRequired)
	g.GET("/profile/:username/unfollow/", h.ProfileUnfollow, loginRequired)
}

// FollowIndex renders the posts of every author the user follows
func (h *FollowHandler) FollowIndex(c echo.Context) error {
	page, err := h.feed.Following(c.Request().Context(), middleware.CurrentUser(c), pageNumber(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "posts/follow.html", echo.Map{"Page": page})
}

// ProfileFollow subscribes the user to the author. Following oneself or an
// author already followed changes nothing.
func (h *FollowHandler) ProfileFollow(c echo.Context) error {
	user := middleware.CurrentUser(c)
	author, err := h.userRepository.GetUserByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	created, err := h.followRepository.Follow(c.Request().Context(), user.ID, author.ID)
	if err != nil {
		return err
	}
	if created {
		c.Logger().Infof("%s follows %s", user.Username, author.Username)
	}
	return c.Redirect(http.StatusFound, followIndexURL)
}

// ProfileUnfollow removes the subscription if there is one
func (h *FollowHandler) ProfileUnfollow(c echo.Context) error {
	user := middleware.CurrentUser(c)
	author, err := h.userRepository.GetUserByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	if _, err := h.followRepository.Unfollow(c.Request().Context(), user.ID, author.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, followIndexURL)
}
