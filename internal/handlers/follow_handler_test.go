package handlers_test

import (
	"net/http"
	"testing"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/testutils"
	th "github.com/anonto42/yatube/backend/internal/testutils/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowAndUnfollow(t *testing.T) {
	s := newSite(t)
	reader := testutils.CreateUser(t, s.db, "anna")
	author := testutils.CreateUser(t, s.db, "leo")
	session := th.WithCookie(s.sessionFor(reader))

	edges := func() int64 {
		return s.count(&models.Follow{}, "user_id = ? AND author_id = ?", reader.ID, author.ID)
	}

	for i := 0; i < 2; i++ {
		rec := th.Get(s.e, "/profile/leo/follow/", session)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/follow/", rec.Header().Get("Location"))
		assert.Equal(t, int64(1), edges())
	}

	profile := th.Get(s.e, "/profile/leo/", session)
	assert.Contains(t, profile.Body.String(), `class="unfollow"`)

	for i := 0; i < 2; i++ {
		rec := th.Get(s.e, "/profile/leo/unfollow/", session)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/follow/", rec.Header().Get("Location"))
		assert.Zero(t, edges())
	}

	profile = th.Get(s.e, "/profile/leo/", session)
	assert.Contains(t, profile.Body.String(), `class="follow"`)

	assert.Equal(t, http.StatusNotFound, th.Get(s.e, "/profile/nobody/follow/", session).Code)
	assert.Equal(t, http.StatusNotFound, th.Get(s.e, "/profile/nobody/unfollow/", session).Code)
}

func TestFollowSelfIsNoop(t *testing.T) {
	s := newSite(t)
	user := testutils.CreateUser(t, s.db, "leo")

	rec := th.Get(s.e, "/profile/leo/follow/", th.WithCookie(s.sessionFor(user)))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Zero(t, s.count(&models.Follow{}, ""))

	profile := th.Get(s.e, "/profile/leo/", th.WithCookie(s.sessionFor(user)))
	assert.NotContains(t, profile.Body.String(), `class="follow"`)
	assert.NotContains(t, profile.Body.String(), `class="unfollow"`)
}

func TestFollowRoutesRequireLogin(t *testing.T) {
	s := newSite(t)
	testutils.CreateUser(t, s.db, "leo")

	for _, target := range []string{"/follow/", "/profile/leo/follow/", "/profile/leo/unfollow/"} {
		rec := th.Get(s.e, target)
		assert.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, "/auth/login/?next="+target, rec.Header().Get("Location"), target)
	}
	assert.Zero(t, s.count(&models.Follow{}, ""))
}

func TestFollowIndex(t *testing.T) {
	s := newSite(t)
	reader := testutils.CreateUser(t, s.db, "anna")
	followed := testutils.CreateUser(t, s.db, "leo")
	stranger := testutils.CreateUser(t, s.db, "fyodor")
	testutils.CreatePost(t, s.db, followed, nil, "from leo")
	testutils.CreatePost(t, s.db, stranger, nil, "from fyodor")
	session := th.WithCookie(s.sessionFor(reader))

	rec := th.Get(s.e, "/follow/", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, countCards(rec.Body.String()))

	testutils.Follow(t, s.db, reader, followed)

	rec = th.Get(s.e, "/follow/", session)
	body := rec.Body.String()
	assert.Equal(t, 1, countCards(body))
	assert.Contains(t, body, "from leo")
	assert.NotContains(t, body, "from fyodor")

	// the follower's own feed is not a feed of the author's followers
	rec = th.Get(s.e, "/follow/", th.WithCookie(s.sessionFor(followed)))
	assert.Zero(t, countCards(rec.Body.String()))
}

func TestProfile(t *testing.T) {
	s := newSite(t)
	author := testutils.CreateUser(t, s.db, "leo")
	fan := testutils.CreateUser(t, s.db, "anna")
	testutils.CreatePosts(t, s.db, author, nil, 13)
	testutils.Follow(t, s.db, fan, author)

	rec := th.Get(s.e, "/profile/leo/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 10, countCards(body))
	assert.Contains(t, body, "Posts: 13")
	assert.Contains(t, body, "Followers: 1")
	assert.NotContains(t, body, `class="follow"`)

	rec = th.Get(s.e, "/profile/leo/?page=2")
	assert.Equal(t, 3, countCards(rec.Body.String()))

	assert.Equal(t, http.StatusNotFound, th.Get(s.e, "/profile/nobody/").Code)
}
