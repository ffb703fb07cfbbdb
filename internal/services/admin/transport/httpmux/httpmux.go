package httpmux

import (
	"io/fs"
	"net/http"

	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
)

// MountStatic serves staticFS under the static prefix, optionally wrapped
// (for cache headers).
func MountStatic(rootMux *http.ServeMux, staticFS fs.FS, wrap func(http.Handler) http.Handler) {
	if rootMux == nil || staticFS == nil {
		return
	}
	staticHandler := http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(staticFS)))
	if wrap != nil {
		staticHandler = wrap(staticHandler)
	}
	rootMux.Handle(routepath.StaticPrefix, staticHandler)
}

// MountAdminRoutes mounts the feature and cohort routes under the root path.
func MountAdminRoutes(rootMux *http.ServeMux, adminMux *http.ServeMux) {
	if rootMux == nil || adminMux == nil {
		return
	}
	rootMux.Handle(routepath.Root, adminMux)
}
