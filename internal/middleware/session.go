package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the name of the cookie carrying the signed session
const SessionCookie = "sessionid"

const userContextKey = "user"

// UserLookup resolves the user a session belongs to
type UserLookup interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Sessions issues and verifies HS256 signed session cookies
type Sessions struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
	Users  UserLookup
}

// Middleware attaches the session's user to the context when the cookie is
// valid and the user still exists. It never rejects a request.
func (s *Sessions) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := s.parse(cookie.Value)
			if err != nil {
				c.Logger().Debugf("discarding session: %v", err)
				return next(c)
			}
			user, err := s.Users.GetUserByID(c.Request().Context(), claims.UserID)
			if err != nil {
				c.Logger().Debugf("session user %d unavailable: %v", claims.UserID, err)
				return next(c)
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// Login starts a session for user
func (s *Sessions) Login(c echo.Context, user *models.User) error {
	now := time.Now()
	claims := &models.SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.TTL),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(userContextKey, user)
	return nil
}

// Logout drops the session cookie
func (s *Sessions) Logout(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(userContextKey, nil)
}

func (s *Sessions) parse(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// CurrentUser returns the signed-in user, or nil for anonymous requests
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}

// LoginRequired redirects anonymous requests to loginURL, passing the
// original target in the next parameter.
func LoginRequired(loginURL string) echo.MiddlewareFunc {
	return func(handler echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) != nil {
				return handler(c)
			}
			next := strings.ReplaceAll(url.QueryEscape(c.Request().URL.RequestURI()), "%2F", "/")
			target := loginURL + "?next=" + next
			return c.Redirect(http.StatusFound, target)
		}
	}
}

// SafeNext returns next when it is a local path, fallback otherwise.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
