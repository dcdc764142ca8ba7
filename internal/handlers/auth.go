package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	errUsernameTaken    = "A user with that username already exists."
	errBadCredentials   = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	maxUsernameAttempts = 100
)

var usernameUnsafe = regexp.MustCompile(`[^\w.@+-]+`)

// AuthHandler handles sign up, log in and log out
type AuthHandler struct {
	userRepository repositories.UserRepository
	sessions       *middleware.Sessions
	firebase       firebase.Verifier
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil, which
// disables the Firebase login.
func NewAuthHandler(userRepo repositories.UserRepository, sessions *middleware.Sessions, verifier firebase.Verifier) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		sessions:       sessions,
		firebase:       verifier,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.GET("/signup/", h.Signup)
	g.POST("/signup/", h.Signup)
	g.GET("/login/", h.Login)
	g.POST("/login/", h.Login)
	g.GET("/logout/", h.Logout)
	g.POST("/logout/", h.Logout)
	g.POST("/firebase/", h.FirebaseLogin)
}

// Signup creates a local account and signs it in
func (h *AuthHandler) Signup(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.Render(http.StatusOK, "users/signup.html", echo.Map{"Form": models.SignupForm{}})
	}

	var form models.SignupForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form payload")
	}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	errs := map[string]string{}
	if err := c.Validate(&form); err != nil {
		errs = validators.FieldErrors(err)
	}
	if _, bad := errs["username"]; !bad {
		taken, err := h.userRepository.UsernameTaken(c.Request().Context(), form.Username)
		if err != nil {
			return err
		}
		if taken {
			errs["username"] = errUsernameTaken
		}
	}
	if len(errs) > 0 {
		form.Password = ""
		return c.Render(http.StatusOK, "users/signup.html", echo.Map{"Form": form, "Errors": errs})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     form.Username,
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if repositories.IsConstraintViolation(err) {
			form.Password = ""
			return c.Render(http.StatusOK, "users/signup.html", echo.Map{
				"Form":   form,
				"Errors": map[string]string{"username": errUsernameTaken},
			})
		}
		return err
	}
	c.Logger().Infof("user %s signed up", user.Username)

	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/")
}

// Login checks the username and password and starts a session
func (h *AuthHandler) Login(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		form := models.LoginForm{Next: c.QueryParam("next")}
		return c.Render(http.StatusOK, "users/login.html", echo.Map{"Form": form, "Next": form.Next})
	}

	var form models.LoginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form payload")
	}
	if form.Next == "" {
		form.Next = c.QueryParam("next")
	}
	form.Username = strings.TrimSpace(form.Username)

	fail := func(errs map[string]string) error {
		form.Password = ""
		return c.Render(http.StatusOK, "users/login.html", echo.Map{"Form": form, "Next": form.Next, "Errors": errs})
	}
	if err := c.Validate(&form); err != nil {
		return fail(validators.FieldErrors(err))
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), form.Username)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fail(map[string]string{"__all__": errBadCredentials})
	case err != nil:
		return err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)) != nil {
		return fail(map[string]string{"__all__": errBadCredentials})
	}

	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, middleware.SafeNext(form.Next, "/"))
}

// Logout ends the session
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c)
	return c.Render(http.StatusOK, "users/logged_out.html", nil)
}

// FirebaseLogin signs in with a Firebase ID token, creating the local
// account on first use.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebase == nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	idToken := c.FormValue("id_token")
	if idToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id_token is required")
	}

	ctx := c.Request().Context()
	identity, err := h.firebase.Verify(ctx, idToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token").SetInternal(err)
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, identity.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		user, err = h.createFirebaseUser(c, identity)
	}
	if err != nil {
		return err
	}

	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, middleware.SafeNext(c.FormValue("next"), "/"))
}

func (h *AuthHandler) createFirebaseUser(c echo.Context, identity *firebase.Identity) (*models.User, error) {
	ctx := c.Request().Context()
	username, err := h.freeUsername(c, usernameBase(identity))
	if err != nil {
		return nil, err
	}
	first, last, _ := strings.Cut(identity.Name, " ")
	uid := identity.UID
	user := &models.User{
		Username:    username,
		Email:       identity.Email,
		FirstName:   first,
		LastName:    last,
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	c.Logger().Infof("user %s created from firebase uid %s", user.Username, uid)
	return user, nil
}

// freeUsername returns base, or base with the smallest numeric suffix that
// is not taken yet.
func (h *AuthHandler) freeUsername(c echo.Context, base string) (string, error) {
	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		taken, err := h.userRepository.UsernameTaken(c.Request().Context(), candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", fmt.Errorf("no free username for %q", base)
}

// usernameBase derives a username from the token's email or name.
func usernameBase(identity *firebase.Identity) string {
	raw := identity.Email
	if local, _, ok := strings.Cut(raw, "@"); ok {
		raw = local
	}
	if raw == "" {
		raw = identity.Name
	}
	base := usernameUnsafe.ReplaceAllString(raw, "")
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}
	return base
}
