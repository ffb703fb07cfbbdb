package admin

import (
	"net/http"

	cohortsmodule "github.com/louisbranch/featureadmin/internal/services/admin/module/cohorts"
	featuresmodule "github.com/louisbranch/featureadmin/internal/services/admin/module/features"
)

type featuresModuleService struct {
	handler *Handler
}

func newFeaturesModuleService(h *Handler) featuresmodule.Service {
	if h == nil {
		return nil
	}
	return featuresModuleService{handler: h}
}

func (s featuresModuleService) HandleFeaturesPage(w http.ResponseWriter, r *http.Request) {
	s.handler.handleFeaturesPage(w, r)
}

func (s featuresModuleService) HandleFeaturesSave(w http.ResponseWriter, r *http.Request) {
	s.handler.handleFeaturesSave(w, r)
}

func (s featuresModuleService) HandleFeaturesEvaluate(w http.ResponseWriter, r *http.Request) {
	s.handler.handleFeaturesEvaluate(w, r)
}

type cohortsModuleService struct {
	handler *Handler
}

func newCohortsModuleService(h *Handler) cohortsmodule.Service {
	if h == nil {
		return nil
	}
	return cohortsModuleService{handler: h}
}

func (s cohortsModuleService) HandleCohortsPage(w http.ResponseWriter, r *http.Request) {
	s.handler.handleCohortsPage(w, r)
}

func (s cohortsModuleService) HandleCohortCreate(w http.ResponseWriter, r *http.Request) {
	s.handler.handleCohortCreate(w, r)
}

func (s cohortsModuleService) HandleCohortEdit(w http.ResponseWriter, r *http.Request, cohortID string) {
	s.handler.handleCohortEdit(w, r, cohortID)
}

func (s cohortsModuleService) HandleCohortMembers(w http.ResponseWriter, r *http.Request, cohortID string) {
	s.handler.handleCohortMembers(w, r, cohortID)
}
