// Package pagecache keeps rendered pages for a fixed time. Entries are only
// ever dropped by expiry or by Clear, which purges everything at once.
package pagecache

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
)

// Entry is a cached response
type Entry struct {
	Status      int
	ContentType string
	Body        []byte
}

// Store is a time-bounded page store shared by every request
type Store struct {
	items *cache.Cache
	ttl   time.Duration
}

// New creates a store whose entries live for ttl
func New(ttl time.Duration) *Store {
	cleanup := 2 * ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Store{items: cache.New(ttl, cleanup), ttl: ttl}
}

func (s *Store) Get(key string) (*Entry, bool) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

func (s *Store) Set(key string, e *Entry) {
	s.items.Set(key, e, cache.DefaultExpiration)
}

// Clear drops every cached page, whatever route it came from.
func (s *Store) Clear() {
	s.items.Flush()
}

// Len is the number of live entries
func (s *Store) Len() int {
	return s.items.ItemCount()
}

// Middleware caches successful GET responses of the wrapped route under
// prefix + vary(c) + request URI. vary may be nil.
func Middleware(store *Store, prefix string, vary func(echo.Context) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if store.ttl <= 0 || c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := prefix + "|"
			if vary != nil {
				key += vary(c)
			}
			key += "|" + c.Request().URL.RequestURI()

			if e, ok := store.Get(key); ok {
				c.Response().Header().Set("X-Page-Cache", "hit")
				return c.Blob(e.Status, e.ContentType, e.Body)
			}

			buf := new(bytes.Buffer)
			res := c.Response()
			orig := res.Writer
			res.Writer = &recorder{Writer: io.MultiWriter(orig, buf), ResponseWriter: orig}
			defer func() { res.Writer = orig }()

			if err := next(c); err != nil {
				return err
			}
			if res.Status == http.StatusOK {
				store.Set(key, &Entry{
					Status:      res.Status,
					ContentType: res.Header().Get(echo.HeaderContentType),
					Body:        buf.Bytes(),
				})
				c.Logger().Debugf("page cache: stored %s", key)
			}
			return nil
		}
	}
}

type recorder struct {
	io.Writer
	http.ResponseWriter
}

func (w *recorder) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *recorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}
