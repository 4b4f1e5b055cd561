// Package handlers exposes the media API, file serving, the email relay and
// the sitemap over net/http.
package handlers

import (
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"villamedia/internal/config"
	"villamedia/internal/database"
	"villamedia/internal/email"
	"villamedia/internal/media"
	"villamedia/internal/middleware"
	"villamedia/internal/sitemap"
	"villamedia/pkg/cache"
	"villamedia/pkg/logger"
)

const DefaultMaxConcurrentUploads = 4

// Deps are the collaborators the handlers need. Cache, Relay, Content and
// DB may be nil; the routes that depend on them degrade accordingly.
type Deps struct {
	Config     *config.Config
	Reconciler *media.Reconciler
	Files      media.FileStore
	Content    *database.ContentStore
	Relay      *email.Relay
	Cache      *cache.MemoryCache
	DB         *gorm.DB
}

type Handler struct {
	cfg        *config.Config
	reconciler *media.Reconciler
	files      media.FileStore
	content    *database.ContentStore
	relay      *email.Relay
	cache      *cache.MemoryCache
	db         *gorm.DB
	sitemap    *sitemap.Builder

	// requestGroup collapses concurrent reads of the same file.
	requestGroup singleflight.Group

	// uploadGuard bounds how many uploads decode and resize at once.
	uploadGuard chan struct{}

	backupMutex sync.Mutex

	limiter      *middleware.RateLimiter
	emailLimiter *middleware.RateLimiter

	log *logger.Logger
}

func New(d Deps) *Handler {
	cfg := d.Config
	if cfg == nil {
		cfg = config.AppConfig
	}

	slots := cfg.Media.MaxConcurrentUploads
	if slots <= 0 {
		slots = DefaultMaxConcurrentUploads
	}

	h := &Handler{
		cfg:         cfg,
		reconciler:  d.Reconciler,
		files:       d.Files,
		content:     d.Content,
		relay:       d.Relay,
		cache:       d.Cache,
		db:          d.DB,
		uploadGuard: make(chan struct{}, slots),
		limiter:     middleware.NewRateLimiter(cfg.Security.RateLimit),
		emailLimiter: middleware.NewRateLimiter(cfg.Security.EmailRateLimit).
			WithMessage("Too many email requests. Please try again later."),
		log: logger.New("http"),
	}

	h.sitemap = &sitemap.Builder{
		BaseURL:     cfg.SiteURL(),
		StaticPaths: cfg.Site.StaticPaths,
		Limit:       cfg.Site.EntryLimit,
	}
	if d.Content != nil {
		h.sitemap.Source = d.Content
	}
	return h
}

// Close stops the rate limiter cleanup workers.
func (h *Handler) Close() {
	h.limiter.Stop()
	h.emailLimiter.Stop()
}

func (h *Handler) invalidate(filenames ...string) {
	if h.cache == nil {
		return
	}
	for _, name := range filenames {
		if name != "" {
			h.cache.Delete(fileCacheKey(name))
		}
	}
}

func fileCacheKey(name string) string {
	return "file:" + name
}

// requestOrigin is the public origin used for absolute URLs.
func (h *Handler) requestOrigin(r *http.Request) string {
	if h.cfg.BaseURL != "" {
		return h.cfg.GetBaseUrl()
	}
	return getBaseURL(r)
}
