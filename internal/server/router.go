package server

import (
	"net/http"

	"github.com/emrgen/lexicon/internal/auth"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter returns the REST api under /v1.
func NewRouter(svc *service.ModerationService, provider auth.Provider) http.Handler {
	a := &api{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestTimeInterceptor)

	r.Route("/v1", func(r chi.Router) {
		r.Use(ActorInterceptor(provider))

		r.Route("/words", func(r chi.Router) {
			r.Post("/", a.createWord)
			r.Get("/{id}", a.getWord)
			r.Put("/{id}", a.updateWord)
			a.moderationRoutes(r, model.EntityWord)

			r.Get("/{id}/translations", a.listChildren(model.EntityTranslation))
			r.Post("/{id}/translations", a.createTranslation)
			r.Get("/{id}/examples", a.listChildren(model.EntityExample))
			r.Post("/{id}/examples", a.createExample)
			r.Get("/{id}/conjugations", a.listChildren(model.EntityConjugation))
			r.Post("/{id}/conjugations", a.createConjugation)
			r.Get("/{id}/phrases", a.listChildren(model.EntityPhrase))

			r.Get("/{id}/synonyms", a.synonyms)
			r.Post("/{id}/synonyms", a.linkSynonym)
			r.Delete("/{id}/synonyms/{synonymId}", a.unlinkSynonym)

			r.Get("/{id}/categories", a.wordCategories)
			r.Post("/{id}/categories", a.assignCategory)
			r.Delete("/{id}/categories/{categoryId}", a.unassignCategory)
		})

		r.Route("/translations", func(r chi.Router) {
			r.Get("/{id}", a.getEntity(model.EntityTranslation))
			r.Put("/{id}", a.updateTranslation)
			a.moderationRoutes(r, model.EntityTranslation)
		})
		r.Route("/examples", func(r chi.Router) {
			r.Get("/{id}", a.getEntity(model.EntityExample))
			r.Put("/{id}", a.updateExample)
			a.moderationRoutes(r, model.EntityExample)
		})
		r.Route("/conjugations", func(r chi.Router) {
			r.Get("/{id}", a.getEntity(model.EntityConjugation))
			r.Put("/{id}", a.updateConjugation)
			a.moderationRoutes(r, model.EntityConjugation)
		})
		r.Route("/phrases", func(r chi.Router) {
			r.Post("/", a.createPhrase)
			r.Get("/{id}", a.getEntity(model.EntityPhrase))
			r.Put("/{id}", a.updatePhrase)
			a.moderationRoutes(r, model.EntityPhrase)
		})

		r.Get("/letters", a.letters)
		r.Get("/letters/{letter}/words", a.wordsByLetter)
		r.Get("/queue/{kind}", a.moderationQueue)

		r.Get("/categories", a.listCategories)
		r.Post("/categories", a.createCategory)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Content-Type", auth.ActorHeader, auth.ModeratorHeader},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

func (a *api) moderationRoutes(r chi.Router, kind model.EntityType) {
	r.Put("/{id}/validate", a.validateEntity(kind))
	r.Put("/{id}/reject", a.rejectEntity(kind))
	r.Delete("/{id}", a.deleteEntity(kind))
	r.Get("/{id}/history", a.history(kind))
	r.Post("/{id}/revert", a.revert(kind))
}
