// Package auth resolves the acting user of a request. Authentication itself
// happens upstream, the gateway forwards the user id in a header.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/lexicon/internal/moderation"
)

const (
	ActorHeader     = "X-Actor-ID"
	ModeratorHeader = "X-Moderator"
)

var ErrNoActor = errors.New("actor header not found")

// Provider resolves the actor of a request.
type Provider interface {
	Actor(r *http.Request) (moderation.Actor, error)
}

// HeaderProvider reads the actor from the request headers. When moderators
// is not empty it decides the moderation capability and X-Moderator is
// ignored.
type HeaderProvider struct {
	moderators mapset.Set[string]
}

func NewHeaderProvider(moderators ...string) *HeaderProvider {
	set := mapset.NewSet[string]()
	for _, id := range moderators {
		if id = strings.TrimSpace(id); id != "" {
			set.Add(id)
		}
	}

	return &HeaderProvider{moderators: set}
}

func (p *HeaderProvider) Actor(r *http.Request) (moderation.Actor, error) {
	id := strings.TrimSpace(r.Header.Get(ActorHeader))
	if id == "" {
		return moderation.Actor{}, ErrNoActor
	}

	actor := moderation.Actor{ID: id}
	if p.moderators.Cardinality() > 0 {
		actor.CanModerate = p.moderators.Contains(id)
		return actor, nil
	}

	if v := r.Header.Get(ModeratorHeader); v != "" {
		actor.CanModerate, _ = strconv.ParseBool(v)
	}

	return actor, nil
}

type actorKey struct{}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor moderation.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (moderation.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(moderation.Actor)
	return actor, ok
}
