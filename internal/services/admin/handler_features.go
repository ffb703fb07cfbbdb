package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/louisbranch/featureadmin/internal/features"
	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"github.com/louisbranch/featureadmin/internal/platform/timeouts"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
	"github.com/louisbranch/featureadmin/internal/services/admin/templates"
	sharedhtmx "github.com/louisbranch/featureadmin/internal/services/shared/htmx"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

// evaluateResponse is the JSON body of the evaluate endpoint.
type evaluateResponse struct {
	Username string          `json:"username"`
	Features map[string]bool `json:"features"`
}

// handleFeaturesPage renders every registry feature with its stored state.
func (h *Handler) handleFeaturesPage(w http.ResponseWriter, r *http.Request) {
	loc, lang := h.localizer(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	feats, err := h.store.SyncFeatures(ctx, h.registry.Names())
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	cohorts, err := h.store.ListCohorts(ctx)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}

	page := h.pageContext(w, r, lang, loc)
	view := templates.FeaturesPageView{
		Features: templates.BuildFeatureRows(feats, cohorts, h.registry.Description),
	}
	sharedhtmx.RenderPage(w, r,
		templates.FeaturesPage(view, page),
		templates.FeaturesFullPage(view, page),
		sharedhtmx.TitleTag(loc.Sprintf("layout.title", loc.Sprintf("features.title"))))
}

// handleFeaturesSave applies the posted checkboxes to every known feature.
func (h *Handler) handleFeaturesSave(w http.ResponseWriter, r *http.Request) {
	loc, _ := h.localizer(w, r)
	if err := h.csrf.Check(r); err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, loc.Sprintf("error.internal"), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	feats, err := h.store.SyncFeatures(ctx, h.registry.Names())
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	cohorts, err := h.store.ListCohorts(ctx)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}

	updated, changed := features.ApplyForm(feats, cohorts, r.PostForm)
	if err := h.store.SaveFeatures(ctx, updated); err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("invalidate feature snapshot", zap.Error(err))
	}
	h.logger.Info("features saved",
		zap.Int("features", len(updated)),
		zap.Bool("changed", changed))

	redirectWithMessage(w, r, routepath.Features, loc.Sprintf("flash.changes_saved"))
}

// handleFeaturesEvaluate reports which features are on for a username. An
// empty username evaluates for an anonymous visitor.
func (h *Handler) handleFeaturesEvaluate(w http.ResponseWriter, r *http.Request) {
	loc, _ := h.localizer(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	username := features.NormalizeName(r.URL.Query().Get("username"))
	var user *features.User
	if username != "" {
		found, err := h.store.GetUserByUsername(ctx, username)
		if err != nil {
			h.writeJSONError(w, r, loc, err)
			return
		}
		user = &found
	}

	snapshot, err := h.snapshot(ctx)
	if err != nil {
		h.writeJSONError(w, r, loc, err)
		return
	}
	client := features.NewClient(h.registry, snapshot)
	writeJSON(w, http.StatusOK, evaluateResponse{
		Username: username,
		Features: client.All(user),
	})
}

// snapshot returns the cached feature snapshot, loading and caching it from
// the store on a miss. Cache failures fall back to the store.
func (h *Handler) snapshot(ctx context.Context) (features.Snapshot, error) {
	if cached, ok, err := h.cache.Get(ctx); err != nil {
		h.logger.Warn("read feature snapshot", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	feats, err := h.store.SyncFeatures(ctx, h.registry.Names())
	if err != nil {
		return features.Snapshot{}, err
	}
	snapshot := features.Snapshot{Features: feats}
	if err := h.cache.Set(ctx, snapshot); err != nil {
		h.logger.Warn("write feature snapshot", zap.Error(err))
	}
	return snapshot, nil
}

func (h *Handler) writeJSONError(w http.ResponseWriter, r *http.Request, loc *message.Printer, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("admin request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, map[string]string{
		"code":  string(code),
		"error": strings.TrimSpace(loc.Sprintf(code.MessageKey())),
	})
}
