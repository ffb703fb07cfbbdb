package features

import (
	"net/http"

	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
)

// Service defines feature route handlers consumed by this route module.
type Service interface {
	HandleFeaturesPage(w http.ResponseWriter, r *http.Request)
	HandleFeaturesSave(w http.ResponseWriter, r *http.Request)
	HandleFeaturesEvaluate(w http.ResponseWriter, r *http.Request)
}

// RegisterRoutes wires feature routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc("GET "+routepath.Features, service.HandleFeaturesPage)
	mux.HandleFunc("POST "+routepath.Features, service.HandleFeaturesSave)
	mux.HandleFunc("GET "+routepath.FeaturesEvaluate, service.HandleFeaturesEvaluate)
}
