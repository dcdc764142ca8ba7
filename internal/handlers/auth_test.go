package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/testutils"
	th "github.com/anonto42/yatube/backend/internal/testutils/http"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(rec *http.Response) *http.Cookie {
	for _, c := range rec.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestSignupAndLogin(t *testing.T) {
	s := newSite(t)

	rec := th.Get(s.e, "/auth/signup/")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = th.PostForm(s.e, "/auth/signup/", url.Values{
		"username":   {"leo"},
		"email":      {"leo@example.com"},
		"first_name": {"Leo"},
		"last_name":  {"Tolstoy"},
		"password":   {"war-and-peace"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookie := sessionCookie(rec.Result())
	require.NotNil(t, cookie)

	home := th.Get(s.e, "/create/", th.WithCookie(cookie))
	assert.Equal(t, http.StatusOK, home.Code)

	var user models.User
	require.NoError(t, s.db.Where("username = ?", "leo").First(&user).Error)
	assert.Equal(t, "Leo Tolstoy", user.DisplayName())
	assert.NotEqual(t, "war-and-peace", user.PasswordHash)

	rec = th.PostForm(s.e, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"war-and-peace"},
		"next":     {"/follow/"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/follow/", rec.Header().Get("Location"))
	assert.NotNil(t, sessionCookie(rec.Result()))

	rec = th.PostForm(s.e, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {"war-and-peace"},
		"next":     {"https://evil.example.com/"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestSignupRejectsInvalidForm(t *testing.T) {
	s := newSite(t)
	testutils.CreateUser(t, s.db, "leo")

	for name, tc := range map[string]struct {
		values  url.Values
		message string
	}{
		"taken username": {
			values:  url.Values{"username": {"leo"}, "password": {"long-enough"}},
			message: "A user with that username already exists.",
		},
		"bad username": {
			values:  url.Values{"username": {"leo tolstoy"}, "password": {"long-enough"}},
			message: "Enter a valid username.",
		},
		"short password": {
			values:  url.Values{"username": {"anna"}, "password": {"short"}},
			message: "at least 8 characters",
		},
	} {
		t.Run(name, func(t *testing.T) {
			rec := th.PostForm(s.e, "/auth/signup/", tc.values)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
			assert.Nil(t, sessionCookie(rec.Result()))
		})
	}
	assert.Equal(t, int64(1), s.count(&models.User{}, ""))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newSite(t)
	testutils.CreateUser(t, s.db, "nopassword")

	rec := th.Get(s.e, "/auth/login/?next=/create/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="/create/"`)

	for _, values := range []url.Values{
		{"username": {"ghost"}, "password": {"whatever1"}},
		{"username": {"nopassword"}, "password": {""}},
		{"username": {"nopassword"}, "password": {"whatever1"}},
	} {
		rec := th.PostForm(s.e, "/auth/login/", values)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, sessionCookie(rec.Result()))
	}
}

func TestLogout(t *testing.T) {
	s := newSite(t)
	user := testutils.CreateUser(t, s.db, "leo")

	rec := th.Get(s.e, "/auth/logout/", th.WithCookie(s.sessionFor(user)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec.Result())
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Contains(t, rec.Body.String(), "Log in")
}

func TestFirebaseLogin(t *testing.T) {
	verifier := fakeVerifier{
		"good-token": {UID: "uid-1", Email: "leo@example.com", Name: "Leo Tolstoy"},
		"other":      {UID: "uid-2", Email: "leo@elsewhere.org"},
	}
	s := newSite(t, withFirebase(verifier))

	rec := th.PostForm(s.e, "/auth/firebase/", url.Values{"id_token": {"good-token"}, "next": {"/follow/"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/follow/", rec.Header().Get("Location"))
	assert.NotNil(t, sessionCookie(rec.Result()))

	var user models.User
	require.NoError(t, s.db.Where("firebase_uid = ?", "uid-1").First(&user).Error)
	assert.Equal(t, "leo", user.Username)
	assert.Equal(t, "Leo", user.FirstName)
	assert.Equal(t, "Tolstoy", user.LastName)

	// same identity again: no new account
	rec = th.PostForm(s.e, "/auth/firebase/", url.Values{"id_token": {"good-token"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, int64(1), s.count(&models.User{}, ""))

	// a different identity with a clashing email local part
	rec = th.PostForm(s.e, "/auth/firebase/", url.Values{"id_token": {"other"}})
	require.Equal(t, http.StatusFound, rec.Code)
	var second models.User
	require.NoError(t, s.db.Where("firebase_uid = ?", "uid-2").First(&second).Error)
	assert.Equal(t, "leo1", second.Username)
	assert.NotEqual(t, user.ID, second.ID)

	rec = th.PostForm(s.e, "/auth/firebase/", url.Values{"id_token": {"forged"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFirebaseLoginDisabled(t *testing.T) {
	s := newSite(t)
	rec := th.PostForm(s.e, "/auth/firebase/", url.Values{"id_token": {"anything"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

var _ firebase.Verifier = fakeVerifier{}
