package handlers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/router"
	"github.com/anonto42/yatube/backend/internal/testutils"
	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/anonto42/yatube/backend/pkg/pagecache"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// smallGIF is a valid 2x1 GIF image
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type site struct {
	t         *testing.T
	db        *gorm.DB
	e         *echo.Echo
	cache     *pagecache.Store
	mediaRoot string
}

type siteOption func(cfg *config.Config, opts *router.Options)

func withCSRF(cfg *config.Config, _ *router.Options) { cfg.CSRFEnabled = true }

func withFirebase(v firebase.Verifier) siteOption {
	return func(_ *config.Config, opts *router.Options) { opts.Firebase = v }
}

// hookedStore runs afterSave once a file has been written
type hookedStore struct {
	storage.Store
	afterSave func()
}

func (h *hookedStore) Save(ctx context.Context, dir, name, contentType string, body io.ReadSeeker) (string, error) {
	stored, err := h.Store.Save(ctx, dir, name, contentType, body)
	if err == nil && h.afterSave != nil {
		h.afterSave()
	}
	return stored, err
}

func withHookedMedia(h *hookedStore) siteOption {
	return func(_ *config.Config, opts *router.Options) {
		h.Store = opts.Media
		opts.Media = h
	}
}

func newSite(t *testing.T, options ...siteOption) *site {
	t.Helper()
	db := testutils.OpenDB(t)
	mediaRoot := t.TempDir()
	cfg := &config.Config{
		Env:          "test",
		LogLevel:     "off",
		JWTSecret:    testSecret,
		SessionTTL:   time.Hour,
		PageCacheTTL: 20 * time.Second,
		PageSize:     10,
		MediaBackend: "local",
		MediaRoot:    mediaRoot,
		MediaURL:     "/media/",
	}
	opts := router.Options{
		Config:    cfg,
		Media:     storage.NewLocalStore(mediaRoot, cfg.MediaURL),
		PageCache: pagecache.New(cfg.PageCacheTTL),
	}
	for _, o := range options {
		o(cfg, &opts)
	}
	e, err := router.New(db, opts)
	require.NoError(t, err)
	return &site{t: t, db: db, e: e, cache: opts.PageCache, mediaRoot: mediaRoot}
}

// sessionFor returns a session cookie signed in as user
func (s *site) sessionFor(user *models.User) *http.Cookie {
	s.t.Helper()
	sessions := &middleware.Sessions{Secret: []byte(testSecret), TTL: time.Hour}
	rec := httptest.NewRecorder()
	c := s.e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(s.t, sessions.Login(c, user))
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.SessionCookie {
			return cookie
		}
	}
	s.t.Fatal("no session cookie issued")
	return nil
}

func countCards(body string) int {
	return strings.Count(body, `class="post-card"`)
}

func (s *site) count(model interface{}, query string, args ...interface{}) int64 {
	s.t.Helper()
	var n int64
	tx := s.db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	require.NoError(s.t, tx.Count(&n).Error)
	return n
}

type fakeVerifier map[string]*firebase.Identity

func (f fakeVerifier) Verify(_ context.Context, idToken string) (*firebase.Identity, error) {
	id, ok := f[idToken]
	if !ok {
		return nil, errors.New("token rejected")
	}
	return id, nil
}
