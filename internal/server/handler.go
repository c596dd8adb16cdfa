package server

import (
	"fmt"
	"net/http"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/emrgen/lexicon/internal/synonym"
	"github.com/go-chi/chi/v5"
)

// collections maps url collection names to record kinds.
var collections = map[string]model.EntityType{
	"words":        model.EntityWord,
	"translations": model.EntityTranslation,
	"examples":     model.EntityExample,
	"conjugations": model.EntityConjugation,
	"phrases":      model.EntityPhrase,
}

func parseKind(s string) (model.EntityType, error) {
	if kind, ok := collections[s]; ok {
		return kind, nil
	}
	if kind := model.EntityType(s); kind.Valid() {
		return kind, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", apperr.ErrValidation, s)
}

type api struct {
	svc *service.ModerationService
}

func ref(kind model.EntityType, r *http.Request) service.EntityRef {
	return service.EntityRef{Type: kind, ID: chi.URLParam(r, "id")}
}

type actorVer struct {
	actor   moderation.Actor
	version int64
}

// actorVersion collects what every write needs.
func actorVersion(w http.ResponseWriter, r *http.Request) (actorVer, bool) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return actorVer{}, false
	}
	v, err := version(r)
	if err != nil {
		writeError(w, r, err)
		return actorVer{}, false
	}
	return actorVer{actor: actor, version: v}, true
}

// moderation

func (a *api) getEntity(kind model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := a.svc.GetEntity(r.Context(), ref(kind, r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func (a *api) validateEntity(kind model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		av, ok := actorVersion(w, r)
		if !ok {
			return
		}
		e, err := a.svc.ValidateEntity(r.Context(), av.actor, ref(kind, r), av.version)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func (a *api) rejectEntity(kind model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		av, ok := actorVersion(w, r)
		if !ok {
			return
		}
		e, err := a.svc.RejectEntity(r.Context(), av.actor, ref(kind, r), av.version)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func (a *api) deleteEntity(kind model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		av, ok := actorVersion(w, r)
		if !ok {
			return
		}
		if err := a.svc.DeleteEntity(r.Context(), av.actor, ref(kind, r), av.version); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *api) history(kind model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := a.svc.History(r.Context(), ref(kind, r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

type revertRequest struct {
	ContributionID string `json:"contributionId"`
	UseNew         bool   `json:"useNew"`
}

func (a *api) revert(kind model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		av, ok := actorVersion(w, r)
		if !ok {
			return
		}
		var req revertRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := a.svc.RevertEntity(r.Context(), av.actor, ref(kind, r), req.ContributionID, req.UseNew, av.version)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func (a *api) moderationQueue(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := a.svc.ModerationQueue(r.Context(), kind, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// words

func (a *api) createWord(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.WordInput
	if err = decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	word, err := a.svc.CreateWord(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, word)
}

func (a *api) getWord(w http.ResponseWriter, r *http.Request) {
	word, err := a.svc.GetWord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, word)
}

func (a *api) updateWord(w http.ResponseWriter, r *http.Request) {
	av, ok := actorVersion(w, r)
	if !ok {
		return
	}
	var patch service.WordPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	word, err := a.svc.UpdateWord(r.Context(), av.actor, chi.URLParam(r, "id"), av.version, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, word)
}

func (a *api) listChildren(kind model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := a.svc.ListChildren(r.Context(), chi.URLParam(r, "id"), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

type wordPage struct {
	Words []*model.Word `json:"words"`
	Total int64         `json:"total"`
}

func (a *api) letters(w http.ResponseWriter, r *http.Request) {
	counts, err := a.svc.LetterIndex(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (a *api) wordsByLetter(w http.ResponseWriter, r *http.Request) {
	offset, err := intQuery(r, "offset")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	words, total, err := a.svc.ListWordsByLetter(r.Context(), chi.URLParam(r, "letter"), offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wordPage{Words: words, Total: total})
}

// entries

func (a *api) createTranslation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.TranslationInput
	if err = decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.WordID = chi.URLParam(r, "id")
	t, err := a.svc.CreateTranslation(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *api) updateTranslation(w http.ResponseWriter, r *http.Request) {
	av, ok := actorVersion(w, r)
	if !ok {
		return
	}
	var patch service.TranslationPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.svc.UpdateTranslation(r.Context(), av.actor, chi.URLParam(r, "id"), av.version, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *api) createExample(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.ExampleInput
	if err = decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.WordID = chi.URLParam(r, "id")
	ex, err := a.svc.CreateExample(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (a *api) updateExample(w http.ResponseWriter, r *http.Request) {
	av, ok := actorVersion(w, r)
	if !ok {
		return
	}
	var patch service.ExamplePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	ex, err := a.svc.UpdateExample(r.Context(), av.actor, chi.URLParam(r, "id"), av.version, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (a *api) createConjugation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.ConjugationInput
	if err = decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.WordID = chi.URLParam(r, "id")
	c, err := a.svc.CreateConjugation(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *api) updateConjugation(w http.ResponseWriter, r *http.Request) {
	av, ok := actorVersion(w, r)
	if !ok {
		return
	}
	var patch service.ConjugationPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.UpdateConjugation(r.Context(), av.actor, chi.URLParam(r, "id"), av.version, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *api) createPhrase(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.PhraseInput
	if err = decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := a.svc.CreatePhrase(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *api) updatePhrase(w http.ResponseWriter, r *http.Request) {
	av, ok := actorVersion(w, r)
	if !ok {
		return
	}
	var patch service.PhrasePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := a.svc.UpdatePhrase(r.Context(), av.actor, chi.URLParam(r, "id"), av.version, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// relations

type linkRequest struct {
	SynonymID string         `json:"synonymId"`
	Strength  int            `json:"strength"`
	Language  model.Language `json:"language"`
}

func (a *api) linkSynonym(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req linkRequest
	if err = decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	edge, err := a.svc.LinkSynonyms(r.Context(), actor, synonym.LinkRequest{
		WordID:    chi.URLParam(r, "id"),
		SynonymID: req.SynonymID,
		Strength:  req.Strength,
		Language:  req.Language,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (a *api) unlinkSynonym(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err = a.svc.UnlinkSynonyms(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "synonymId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) synonyms(w http.ResponseWriter, r *http.Request) {
	neighbors, err := a.svc.Synonyms(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, neighbors)
}

type assignRequest struct {
	CategoryID string `json:"categoryId"`
	IsMain     bool   `json:"isMain"`
}

func (a *api) assignCategory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req assignRequest
	if err = decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	assignments, err := a.svc.AssignCategory(r.Context(), actor, chi.URLParam(r, "id"), req.CategoryID, req.IsMain)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (a *api) unassignCategory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	assignments, err := a.svc.UnassignCategory(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "categoryId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (a *api) wordCategories(w http.ResponseWriter, r *http.Request) {
	assignments, err := a.svc.Categories(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *api) createCategory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err = decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.CreateCategory(r.Context(), actor, req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *api) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
