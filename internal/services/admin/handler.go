package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/featureadmin/internal/features"
	"github.com/louisbranch/featureadmin/internal/platform/logging"
	"github.com/louisbranch/featureadmin/internal/services/admin/cache"
	"github.com/louisbranch/featureadmin/internal/services/admin/csrf"
	"github.com/louisbranch/featureadmin/internal/services/admin/i18n"
	cohortsmodule "github.com/louisbranch/featureadmin/internal/services/admin/module/cohorts"
	featuresmodule "github.com/louisbranch/featureadmin/internal/services/admin/module/features"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
	"github.com/louisbranch/featureadmin/internal/services/admin/static"
	"github.com/louisbranch/featureadmin/internal/services/admin/storage"
	"github.com/louisbranch/featureadmin/internal/services/admin/templates"
	"github.com/louisbranch/featureadmin/internal/services/admin/transport/httpmux"
	sharedhtmx "github.com/louisbranch/featureadmin/internal/services/shared/htmx"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

var tracer = otel.Tracer("github.com/louisbranch/featureadmin/internal/services/admin")

// staticMaxAge is the Cache-Control max-age for embedded assets.
const staticMaxAge = time.Hour

// HandlerConfig wires the collaborators the admin handler needs.
type HandlerConfig struct {
	Store    storage.Store
	Registry *features.Registry
	// Cache holds the evaluation snapshot. Nil disables caching.
	Cache cache.SnapshotCache
	// CSRF guards state-changing requests. Nil uses csrf.Default.
	CSRF   csrf.Protector
	Logger *zap.Logger
	// Auth enables token-based authentication when set.
	Auth *AuthConfig
}

// Handler routes admin requests.
type Handler struct {
	store    storage.Store
	registry *features.Registry
	cache    cache.SnapshotCache
	csrf     csrf.Protector
	logger   *zap.Logger
}

// NewHandler builds the HTTP handler for the admin server.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("admin store is required")
	}
	registry := cfg.Registry
	if registry == nil {
		var err error
		if registry, err = features.NewRegistry(); err != nil {
			return nil, err
		}
	}
	handler := &Handler{
		store:    cfg.Store,
		registry: registry,
		cache:    cfg.Cache,
		csrf:     cfg.CSRF,
		logger:   logging.OrNop(cfg.Logger),
	}
	if handler.cache == nil {
		handler.cache = cache.Noop{}
	}
	if handler.csrf == nil {
		handler.csrf = csrf.Default()
	}

	var routes http.Handler = handler.routes()
	if cfg.Auth != nil && cfg.Auth.Introspector != nil {
		routes = requireAuth(routes, cfg.Auth.Introspector, cfg.Auth.LoginURL, handler.logger)
	}
	return handler.withRequestLogging(routes), nil
}

// routes wires the HTTP routes for the admin handler.
func (h *Handler) routes() http.Handler {
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, routepath.Features, http.StatusFound)
	})
	featuresmodule.RegisterRoutes(adminMux, newFeaturesModuleService(h))
	cohortsmodule.RegisterRoutes(adminMux, newCohortsModuleService(h))

	rootMux := http.NewServeMux()
	httpmux.MountStatic(rootMux, static.FS, withStaticCaching)
	httpmux.MountAdminRoutes(rootMux, adminMux)
	return rootMux
}

func withStaticCaching(next http.Handler) http.Handler {
	maxAge := "public, max-age=" + strconv.Itoa(int(staticMaxAge.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", maxAge)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) localizer(w http.ResponseWriter, r *http.Request) (*message.Printer, string) {
	tag, persist := i18n.ResolveTag(r)
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	return i18n.Printer(tag), tag.String()
}

func (h *Handler) pageContext(w http.ResponseWriter, r *http.Request, lang string, loc *message.Printer) templates.PageContext {
	return templates.PageContext{
		Lang:         lang,
		Loc:          loc,
		CurrentPath:  r.URL.Path,
		CurrentQuery: r.URL.RawQuery,
		CSRFToken:    h.csrf.Token(w, r),
		Message:      strings.TrimSpace(r.URL.Query().Get("message")),
	}
}

// redirectWithMessage answers a form post with 303 See Other so the browser
// reloads the target with GET.
func redirectWithMessage(w http.ResponseWriter, r *http.Request, path string, message string) {
	sharedhtmx.Redirect(w, r, routepath.WithMessage(path, message), http.StatusSeeOther)
}
