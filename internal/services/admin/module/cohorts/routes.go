package cohorts

import (
	"net/http"
	"strings"

	sharedpath "github.com/louisbranch/featureadmin/internal/services/admin/module/sharedpath"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
	sharedroute "github.com/louisbranch/featureadmin/internal/services/shared/route"
)

// Service defines cohort route handlers consumed by this route module.
type Service interface {
	HandleCohortsPage(w http.ResponseWriter, r *http.Request)
	HandleCohortCreate(w http.ResponseWriter, r *http.Request)
	HandleCohortEdit(w http.ResponseWriter, r *http.Request, cohortID string)
	HandleCohortMembers(w http.ResponseWriter, r *http.Request, cohortID string)
}

// RegisterRoutes wires cohort routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Cohorts, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			service.HandleCohortsPage(w, r)
		case http.MethodPost:
			service.HandleCohortCreate(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	mux.HandleFunc(routepath.CohortsPrefix, func(w http.ResponseWriter, r *http.Request) {
		HandleCohortPath(w, r, service)
	})
}

// HandleCohortPath parses cohort subroutes and dispatches to service handlers.
func HandleCohortPath(w http.ResponseWriter, r *http.Request, service Service) {
	if service == nil {
		http.NotFound(w, r)
		return
	}
	if sharedroute.RedirectTrailingSlash(w, r) {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, routepath.CohortsPrefix)
	parts := sharedpath.SplitPathParts(path)
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		service.HandleCohortEdit(w, r, parts[0])
	case http.MethodPost:
		service.HandleCohortMembers(w, r, parts[0])
	default:
		methodNotAllowed(w)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", "GET, HEAD, POST")
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
