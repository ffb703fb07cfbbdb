package admin

import (
	"context"
	"net/http"

	"github.com/louisbranch/featureadmin/internal/features"
	apperrors "github.com/louisbranch/featureadmin/internal/platform/errors"
	"github.com/louisbranch/featureadmin/internal/platform/timeouts"
	routepath "github.com/louisbranch/featureadmin/internal/services/admin/routepath"
	"github.com/louisbranch/featureadmin/internal/services/admin/templates"
	sharedhtmx "github.com/louisbranch/featureadmin/internal/services/shared/htmx"
	"go.uber.org/zap"
)

// handleCohortsPage lists every cohort ordered by name.
func (h *Handler) handleCohortsPage(w http.ResponseWriter, r *http.Request) {
	loc, lang := h.localizer(w, r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	cohorts, err := h.store.ListCohorts(ctx)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}

	page := h.pageContext(w, r, lang, loc)
	view := templates.CohortsPageView{Cohorts: cohorts}
	sharedhtmx.RenderPage(w, r,
		templates.CohortsPage(view, page),
		templates.CohortsFullPage(view, page),
		sharedhtmx.TitleTag(loc.Sprintf("layout.title", loc.Sprintf("cohorts.title"))))
}

// handleCohortCreate creates an empty cohort named by the "add" field.
func (h *Handler) handleCohortCreate(w http.ResponseWriter, r *http.Request) {
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

	cohort, err := h.store.CreateCohort(ctx, r.Form.Get("add"))
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	h.logger.Info("cohort created",
		zap.Int64("cohort_id", cohort.ID),
		zap.String("cohort", cohort.Name))

	redirectWithMessage(w, r, routepath.Cohorts, loc.Sprintf("flash.cohort_created", cohort.Name))
}

// handleCohortEdit renders one cohort and its members.
func (h *Handler) handleCohortEdit(w http.ResponseWriter, r *http.Request, rawID string) {
	loc, lang := h.localizer(w, r)
	id, ok := parseCohortID(rawID)
	if !ok {
		h.writeError(w, r, loc, apperrors.New(apperrors.CodeCohortNotFound, "malformed cohort id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	cohort, err := h.store.GetCohort(ctx, id)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}

	page := h.pageContext(w, r, lang, loc)
	view := templates.CohortEditView{Cohort: cohort}
	sharedhtmx.RenderPage(w, r,
		templates.CohortEditPage(view, page),
		templates.CohortEditFullPage(view, page),
		sharedhtmx.TitleTag(loc.Sprintf("layout.title", loc.Sprintf("cohort.title", cohort.Name))))
}

// handleCohortMembers adds the "add" username or removes the "remove"
// username. Unknown users redirect back with a message and change nothing.
func (h *Handler) handleCohortMembers(w http.ResponseWriter, r *http.Request, rawID string) {
	loc, _ := h.localizer(w, r)
	if err := h.csrf.Check(r); err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	id, ok := parseCohortID(rawID)
	if !ok {
		h.writeError(w, r, loc, apperrors.New(apperrors.CodeCohortNotFound, "malformed cohort id"))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, loc.Sprintf("error.internal"), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreRequest)
	defer cancel()

	if _, err := h.store.GetCohort(ctx, id); err != nil {
		h.writeError(w, r, loc, err)
		return
	}

	add := features.NormalizeName(r.Form.Get("add"))
	remove := features.NormalizeName(r.Form.Get("remove"))
	username := add
	if username == "" {
		username = remove
	}
	if username == "" {
		h.writeError(w, r, loc, apperrors.New(apperrors.CodeUsernameEmpty, "add or remove is required"))
		return
	}

	user, err := h.store.GetUserByUsername(ctx, username)
	if apperrors.IsCode(err, apperrors.CodeUserNotFound) {
		redirectWithMessage(w, r, routepath.Cohort(id), loc.Sprintf("error.user_not_found"))
		return
	}
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}

	var flash string
	if add != "" {
		err = h.store.AddCohortMember(ctx, id, user.ID)
		flash = loc.Sprintf("flash.member_added", user.Username)
	} else {
		err = h.store.RemoveCohortMember(ctx, id, user.ID)
		flash = loc.Sprintf("flash.member_removed", user.Username)
	}
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	h.logger.Info("cohort membership changed",
		zap.Int64("cohort_id", id),
		zap.String("username", user.Username),
		zap.Bool("added", add != ""))

	redirectWithMessage(w, r, routepath.Cohort(id), flash)
}
