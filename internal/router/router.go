package router

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/anonto42/yatube/backend/internal/feed"
	"github.com/anonto42/yatube/backend/internal/handlers"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/templates"
	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/anonto42/yatube/backend/pkg/pagecache"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Options carries what the routes need besides the database
type Options struct {
	Config    *config.Config
	Media     storage.Store
	PageCache *pagecache.Store
	// Firebase is optional; nil disables /auth/firebase/.
	Firebase firebase.Verifier
}

// New builds the echo instance with every middleware and route in place
func New(db *gorm.DB, opts Options) (*echo.Echo, error) {
	cfg := opts.Config
	if opts.PageCache == nil {
		opts.PageCache = pagecache.New(cfg.PageCacheTTL)
	}

	e := echo.New()
	e.HideBanner = true
	middleware.SetLevel(e, cfg.LogLevel)

	renderer, err := templates.NewRenderer(opts.Media)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	e.Renderer = renderer
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = errorHandler(e, renderer)

	userRepo := repositories.NewPostgresUserRepository(db)
	sessions := &middleware.Sessions{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
		Users:  userRepo,
	}

	SetupMiddleware(e, cfg, sessions)
	SetupRoutes(e, db, userRepo, sessions, opts)
	return e, nil
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, sessions *middleware.Sessions) {
	mediaPrefix := "/" + strings.Trim(cfg.MediaURL, "/") + "/"
	e.Pre(eMiddleware.AddTrailingSlashWithConfig(eMiddleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || strings.HasPrefix(p, mediaPrefix) || strings.Contains(path.Base(p), ".")
		},
	}))
	e.Use(eMiddleware.Recover())
	e.Use(middleware.RequestLogger)
	if cfg.CSRFEnabled {
		e.Use(eMiddleware.CSRFWithConfig(eMiddleware.CSRFConfig{
			TokenLookup:    "form:csrfmiddlewaretoken",
			CookieName:     "csrftoken",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   cfg.IsProduction(),
			CookieSameSite: http.SameSiteLaxMode,
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/health"
			},
		}))
	}
	e.Use(sessions.Middleware())
	e.Logger.Debug("global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *gorm.DB, userRepo repositories.UserRepository, sessions *middleware.Sessions, opts Options) {
	cfg := opts.Config

	e.GET("/health", handlers.HealthCheck(db))
	if _, ok := opts.Media.(*storage.LocalStore); ok {
		e.Static("/"+strings.Trim(cfg.MediaURL, "/"), cfg.MediaRoot)
	}

	// --- Initialize Repositories ---
	groupRepo := repositories.NewPostgresGroupRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)

	feedService := feed.NewService(postRepo, groupRepo, userRepo, followRepo, cfg.PageSize)
	loginRequired := middleware.LoginRequired(handlers.LoginURL)
	indexCache := pagecache.Middleware(opts.PageCache, "index_page", viewerKey)

	// --- Authentication ---
	authHandler := handlers.NewAuthHandler(userRepo, sessions, opts.Firebase)
	authHandler.RegisterAuthRoutes(e.Group("/auth"))

	site := e.Group("")

	postHandler := handlers.NewPostHandler(feedService, postRepo, groupRepo, commentRepo, opts.Media)
	postHandler.RegisterPostRoutes(site, loginRequired, indexCache)

	userHandler := handlers.NewUserHandler(feedService)
	userHandler.RegisterProfileRoutes(site)

	followHandler := handlers.NewFollowHandler(feedService, followRepo, userRepo)
	followHandler.RegisterFollowRoutes(site, loginRequired)

	handlers.RegisterAboutRoutes(site)

	e.Logger.Debug("all routes configured")
}

// viewerKey keeps cached pages of different viewers apart.
func viewerKey(c echo.Context) string {
	if user := middleware.CurrentUser(c); user != nil {
		return strconv.FormatUint(uint64(user.ID), 10)
	}
	return "anon"
}

// errorHandler renders HTTP errors as pages. Internal causes are logged,
// never shown.
func errorHandler(e *echo.Echo, renderer *templates.Renderer) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if code >= http.StatusInternalServerError {
			c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL, err)
		}
		if c.Request().URL.Path == "/health" || !renderer.Has("core/error.html") {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		data := echo.Map{"Status": code, "Message": http.StatusText(code)}
		if rerr := c.Render(code, "core/error.html", data); rerr != nil {
			c.Logger().Errorf("render error page: %v", rerr)
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}

// MediaStore builds the storage backend selected by MEDIA_BACKEND
func MediaStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.MediaBackend {
	case "local", "":
		return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	case "s3":
		store, err := storage.NewS3Store(storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicURL:       cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", cfg.MediaBackend)
}
