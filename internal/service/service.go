package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emrgen/lexicon/internal/apperr"
	"github.com/emrgen/lexicon/internal/cache"
	"github.com/emrgen/lexicon/internal/category"
	"github.com/emrgen/lexicon/internal/compress"
	"github.com/emrgen/lexicon/internal/ledger"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/emrgen/lexicon/internal/moderation"
	"github.com/emrgen/lexicon/internal/queue"
	"github.com/emrgen/lexicon/internal/store"
	"github.com/emrgen/lexicon/internal/synonym"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnyVersion skips the caller side version check of a mutation. The write
// itself is still guarded by the version read inside the transaction.
const AnyVersion int64 = -1

// EntityRef points at one moderatable record.
type EntityRef struct {
	Type model.EntityType `json:"type"`
	ID   string           `json:"id"`
}

func (r EntityRef) String() string {
	return string(r.Type) + "/" + r.ID
}

func (r EntityRef) validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown entity type %q", apperr.ErrValidation, r.Type)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: entity id is required", apperr.ErrValidation)
	}
	return nil
}

// NewModerationService creates a new ModerationService.
func NewModerationService(st store.Store, codec compress.Compress, wordCache cache.WordCache, q queue.ContributionQueue) *ModerationService {
	if wordCache == nil {
		wordCache = cache.Nop{}
	}
	if q == nil {
		q = queue.Nop{}
	}

	l := ledger.NewLedger(codec)

	return &ModerationService{
		store:      st,
		machine:    moderation.NewMachine(),
		ledger:     l,
		synonyms:   synonym.NewManager(l),
		categories: category.NewManager(l),
		cache:      wordCache,
		queue:      q,
		now:        time.Now,
	}
}

// ModerationService is the only entry point for mutations of lexical
// content. Every mutation runs in one transaction and writes exactly one
// ledger row.
type ModerationService struct {
	store      store.Store
	machine    *moderation.Machine
	ledger     *ledger.Ledger
	synonyms   *synonym.Manager
	categories *category.Manager
	cache      cache.WordCache
	queue      queue.ContributionQueue
	now        func() time.Time
}

// WithClock replaces the clock of the service and its components.
func (s *ModerationService) WithClock(now func() time.Time) *ModerationService {
	s.now = now
	s.ledger.WithClock(now)
	s.synonyms.WithClock(now)
	s.categories.WithClock(now)
	return s
}

// change applies the requested edit to e and reports whether anything moved.
type change func(ctx context.Context, tx store.Store, e model.Moderatable) (bool, error)

func (s *ModerationService) create(ctx context.Context, actor moderation.Actor, e model.Moderatable, prepare func(ctx context.Context, tx store.Store) error) error {
	if err := actor.Check(); err != nil {
		return err
	}

	now := s.now()
	base := e.Base()
	base.ID = uuid.New().String()
	base.CreatedAt = now
	base.UpdatedAt = now

	var contribution *model.Contribution
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := requireOwner(ctx, tx, e); err != nil {
			return err
		}
		if prepare != nil {
			if err := prepare(ctx, tx); err != nil {
				return err
			}
		}

		if err := s.machine.Apply(base, model.ActionCreate, actor, now); err != nil {
			return err
		}
		base.Version = 1

		if err := tx.CreateEntity(ctx, e); err != nil {
			return err
		}

		var err error
		contribution, err = s.ledger.Record(ctx, tx, ledger.Record{
			Action:     model.ActionCreate,
			EntityType: e.Kind(),
			EntityID:   base.ID,
			New:        e,
			UserID:     actor.ID,
		})
		return err
	})
	if err != nil {
		return s.fail("create "+string(e.Kind()), err)
	}

	s.expire(ctx, e)
	s.afterCommit(ctx, ownerWords(e), contribution)

	return nil
}

func (s *ModerationService) update(ctx context.Context, actor moderation.Actor, ref EntityRef, version int64, apply change) (model.Moderatable, error) {
	if err := actor.Check(); err != nil {
		return nil, err
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	var e model.Moderatable
	var contribution *model.Contribution
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		e, err = s.load(ctx, tx, ref, version)
		if err != nil {
			return err
		}

		read := e.Base().Version
		previous, err := json.Marshal(e)
		if err != nil {
			return err
		}

		now := s.now()
		if err = s.machine.Apply(e.Base(), model.ActionUpdate, actor, now); err != nil {
			return err
		}
		e.Base().UpdatedAt = now

		changed, err := apply(ctx, tx, e)
		if err != nil {
			return err
		}
		if !changed {
			return ErrNothingToUpdate
		}

		if err = requireOwner(ctx, tx, e); err != nil {
			return err
		}

		if err = tx.UpdateEntity(ctx, e, read); err != nil {
			return err
		}

		contribution, err = s.ledger.Record(ctx, tx, ledger.Record{
			Action:     model.ActionUpdate,
			EntityType: ref.Type,
			EntityID:   ref.ID,
			Previous:   json.RawMessage(previous),
			New:        e,
			UserID:     actor.ID,
		})
		return err
	})
	if err != nil {
		return nil, s.fail("update "+ref.String(), err)
	}

	s.expire(ctx, e)
	s.afterCommit(ctx, ownerWords(e), contribution)

	return e, nil
}

// transition applies validate, reject or delete. Rejecting or deleting a word
// drops its synonym edges, deleting it also soft deletes the records it owns.
// Both go into the metadata of the single ledger row.
func (s *ModerationService) transition(ctx context.Context, actor moderation.Actor, ref EntityRef, version int64, action model.Action) (model.Moderatable, error) {
	if err := actor.Check(); err != nil {
		return nil, err
	}
	if err := ref.validate(); err != nil {
		return nil, err
	}

	var e model.Moderatable
	var contribution *model.Contribution
	var pruned []*model.Synonym
	var children map[model.EntityType][]string
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		e, err = s.load(ctx, tx, ref, version)
		if err != nil {
			return err
		}

		read := e.Base().Version
		previous, err := json.Marshal(e)
		if err != nil {
			return err
		}

		now := s.now()
		if err = s.machine.Apply(e.Base(), action, actor, now); err != nil {
			return err
		}
		e.Base().UpdatedAt = now

		// the write locks the row before the edges are read, so a concurrent
		// link either sees the new status or is seen by the prune
		if err = tx.UpdateEntity(ctx, e, read); err != nil {
			return err
		}

		if ref.Type == model.EntityWord && (action == model.ActionReject || action == model.ActionDelete) {
			if pruned, err = s.synonyms.Prune(ctx, tx, ref.ID); err != nil {
				return err
			}
		}

		if ref.Type == model.EntityWord && action == model.ActionDelete {
			if children, err = tx.DeleteChildren(ctx, ref.ID, now); err != nil {
				return err
			}
		}

		rec := ledger.Record{
			Action:     action,
			EntityType: ref.Type,
			EntityID:   ref.ID,
			Previous:   json.RawMessage(previous),
			UserID:     actor.ID,
		}
		if action != model.ActionDelete {
			rec.New = e
		}
		meta := map[string]any{}
		if len(pruned) > 0 {
			meta["prunedSynonyms"] = pruned
		}
		if len(children) > 0 {
			meta["deletedChildren"] = children
		}
		if len(meta) > 0 {
			rec.Metadata = meta
		}

		contribution, err = s.ledger.Record(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, s.fail(string(action)+" "+ref.String(), err)
	}

	s.expire(ctx, e)
	words := ownerWords(e)
	for _, edge := range pruned {
		words = append(words, edge.Other(ref.ID))
	}
	s.afterCommit(ctx, words, contribution)

	logrus.Infof("%s %s by %s", action, ref, actor.ID)

	return e, nil
}

// load reads the record, deleted ones included so that acting on them
// reports an invalid transition rather than a missing record.
func (s *ModerationService) load(ctx context.Context, tx store.Store, ref EntityRef, version int64) (model.Moderatable, error) {
	e, err := tx.GetEntityUnscoped(ctx, ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}

	if version != AnyVersion && e.Base().Version != version {
		return nil, fmt.Errorf("%w: %s is at version %d, not %d", apperr.ErrConcurrentModification, ref, e.Base().Version, version)
	}

	return e, nil
}

// expire evicts a committed word behind a version floor, so a reader still
// holding an older version cannot put it back into the cache.
func (s *ModerationService) expire(ctx context.Context, e model.Moderatable) {
	if e == nil || e.Kind() != model.EntityWord {
		return
	}
	if err := s.cache.ExpireWord(ctx, e.Base().ID, e.Base().Version); err != nil {
		logrus.Errorf("cache: failed to expire word %s: %v", e.Base().ID, err)
	}
}

// afterCommit evicts the affected words and publishes the contributions.
// The operation is already committed, failures are only logged.
func (s *ModerationService) afterCommit(ctx context.Context, words []string, contributions ...*model.Contribution) {
	if len(words) > 0 {
		if err := s.cache.DeleteWords(ctx, words...); err != nil {
			logrus.Errorf("cache: failed to evict words %v: %v", words, err)
		}
	}

	for _, c := range contributions {
		if c == nil {
			continue
		}
		if err := s.queue.Publish(ctx, c); err != nil {
			logrus.Errorf("queue: failed to publish contribution %s: %v", c.ID, err)
		}
	}
}

func (s *ModerationService) fail(op string, err error) error {
	if apperr.IsDomain(err) {
		logrus.Debugf("%s rejected: %v", op, err)
	} else {
		logrus.Errorf("%s failed: %v", op, err)
	}
	return err
}

// requireOwner locks the owning word of a child record. A child cannot be
// written while its word is deleted.
func requireOwner(ctx context.Context, tx store.EntityStore, e model.Moderatable) error {
	owner := e.OwnerWordID()
	if owner == "" {
		return nil
	}

	locked, err := tx.LockWord(ctx, owner, false)
	if err != nil {
		return err
	}
	if locked {
		return nil
	}

	if _, err = tx.GetEntityUnscoped(ctx, model.EntityWord, owner); err != nil {
		return err
	}

	return fmt.Errorf("%w: word %s is deleted", apperr.ErrEntityNotEligible, owner)
}

func ownerWords(e model.Moderatable) []string {
	if e == nil {
		return nil
	}
	if owner := e.OwnerWordID(); owner != "" {
		return []string{owner}
	}
	return nil
}
